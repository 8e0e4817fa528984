package conversation

import (
	"strings"
	"time"
)

// EventKind classifies a normalized inbound interaction.
type EventKind string

const (
	KindButton EventKind = "button"
	KindList   EventKind = "list"
	KindText   EventKind = "text"
)

// Event is a normalized inbound interaction from one sender.
type Event struct {
	Sender     string
	Kind       EventKind
	ID         string
	Text       string
	MessageID  string
	ReceivedAt time.Time
}

// ButtonEvent builds a button selection event.
func ButtonEvent(sender, id string) Event {
	return Event{Sender: sender, Kind: KindButton, ID: id}
}

// ListEvent builds a list selection event.
func ListEvent(sender, id string) Event {
	return Event{Sender: sender, Kind: KindList, ID: id}
}

// TextEvent builds a free text event.
func TextEvent(sender, text string) Event {
	return Event{Sender: sender, Kind: KindText, Text: text}
}

// Normalize folds unrecognized input into the free text path.
// A selection without an id or an unknown kind becomes text, with the
// display text preserved when the transport supplied one.
func (e Event) Normalize() Event {
	e.Sender = strings.TrimSpace(e.Sender)
	e.ID = strings.TrimSpace(e.ID)
	switch e.Kind {
	case KindButton, KindList:
		if e.ID == "" {
			e.Kind = KindText
		}
	case KindText:
	default:
		e.Kind = KindText
		e.ID = ""
	}
	if e.Kind == KindText {
		e.ID = ""
		e.Text = strings.TrimSpace(e.Text)
	}
	return e
}

// IsSelection reports whether the event carries a button or list id.
func (e Event) IsSelection() bool {
	return (e.Kind == KindButton || e.Kind == KindList) && e.ID != ""
}
