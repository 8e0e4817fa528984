package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

type session struct {
	processor *conversation.Processor
	printer   *printer
	sender    string
}

func newSession(engine *conversation.Engine, store conversation.Store, p *printer, sender string) *session {
	logger := logging.NewWithWriter("error", io.Discard)
	return &session{
		processor: conversation.NewProcessor(engine, store, p, logger, nil),
		printer:   p,
		sender:    sender,
	}
}

// run reads inputs until EOF or /quit. Non-interactive input is echoed.
func (s *session) run(ctx context.Context, in io.Reader, interactive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)
	s.prompt(interactive)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !interactive && line != "" {
			fmt.Fprintf(s.printer.out, "> %s\n", line)
		}
		switch {
		case line == "":
		case line == "/quit":
			return nil
		case line == "/state":
			if err := s.printState(ctx); err != nil {
				return err
			}
		default:
			s.processor.Process(ctx, parseInput(s.sender, line))
		}
		s.prompt(interactive)
	}
	return scanner.Err()
}

func (s *session) prompt(interactive bool) {
	if interactive {
		fmt.Fprint(s.printer.out, "> ")
	}
}

func (s *session) printState(ctx context.Context) error {
	st, err := s.processor.Store().Get(ctx, s.sender)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.printer.out, string(raw))
	return nil
}

// parseInput maps "/b ID" and "/l ID" to selections and anything else to text.
func parseInput(sender, line string) conversation.Event {
	if id, ok := strings.CutPrefix(line, "/b "); ok {
		return conversation.ButtonEvent(sender, strings.TrimSpace(id))
	}
	if id, ok := strings.CutPrefix(line, "/l "); ok {
		return conversation.ListEvent(sender, strings.TrimSpace(id))
	}
	return conversation.TextEvent(sender, line)
}
