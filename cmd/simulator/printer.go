package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mdp/qrterminal/v3"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
)

// printer is a conversation.Gateway that renders messages as plain text.
type printer struct {
	out    io.Writer
	showQR bool
}

func (p *printer) Send(_ context.Context, _ string, msg conversation.Message) error {
	var b strings.Builder
	switch m := msg.(type) {
	case conversation.Text:
		fmt.Fprintf(&b, "🤖 %s\n", m.Body)
	case conversation.Buttons:
		fmt.Fprintf(&b, "🤖 %s\n", m.Body)
		kept, dropped := conversation.TruncateButtons(m.Buttons)
		for _, btn := range kept {
			fmt.Fprintf(&b, "   [%s] %s\n", btn.ID, btn.Title)
		}
		if dropped > 0 {
			fmt.Fprintf(&b, "   (%d buttons over the limit not shown)\n", dropped)
		}
	case conversation.List:
		fmt.Fprintf(&b, "🤖 %s\n%s\n", m.Header, m.Body)
		for _, row := range m.Rows {
			fmt.Fprintf(&b, "   (%s) %s", row.ID, row.Title)
			if row.Description != "" {
				fmt.Fprintf(&b, " - %s", row.Description)
			}
			b.WriteString("\n")
		}
		if m.Footer != "" {
			fmt.Fprintf(&b, "   %s\n", m.Footer)
		}
	case conversation.Image:
		fmt.Fprintf(&b, "🖼  %s\n", m.URL)
		if m.Caption != "" {
			fmt.Fprintf(&b, "   %s\n", m.Caption)
		}
	default:
		return fmt.Errorf("simulator: unsupported message %T", msg)
	}
	if _, err := io.WriteString(p.out, b.String()); err != nil {
		return err
	}
	if img, ok := msg.(conversation.Image); ok && p.showQR {
		qrterminal.GenerateHalfBlock(img.URL, qrterminal.L, p.out)
	}
	return nil
}
