package whatsapp

import (
	"context"
	"fmt"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
)

// Send implements conversation.Gateway on top of the Cloud API client.
func (c *Client) Send(ctx context.Context, to string, msg conversation.Message) error {
	var err error
	switch m := msg.(type) {
	case conversation.Text:
		_, err = c.SendText(ctx, to, m.Body)
	case conversation.Buttons:
		buttons := make([]ReplyItem, 0, len(m.Buttons))
		for _, b := range m.Buttons {
			buttons = append(buttons, ReplyItem{ID: b.ID, Title: b.Title})
		}
		_, err = c.SendButtons(ctx, to, m.Body, buttons)
	case conversation.List:
		rows := make([]ReplyItem, 0, len(m.Rows))
		for _, r := range m.Rows {
			rows = append(rows, ReplyItem{ID: r.ID, Title: r.Title, Description: r.Description})
		}
		_, err = c.SendList(ctx, to, ListMessage{
			Header:      m.Header,
			Body:        m.Body,
			Footer:      m.Footer,
			ButtonLabel: m.ButtonLabel,
			Rows:        rows,
		})
	case conversation.Image:
		_, err = c.SendImage(ctx, to, m.URL, m.Caption)
	default:
		return fmt.Errorf("whatsapp: unsupported message %T", msg)
	}
	return err
}

var _ conversation.Gateway = (*Client)(nil)
