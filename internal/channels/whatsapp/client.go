package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v20.0"
	defaultHTTPTimeout  = 10 * time.Second

	maxButtons          = 3
	maxButtonTitle      = 20
	maxRowTitle         = 24
	maxRowDescription   = 72
	defaultListButton   = "Ver opciones"
	defaultSectionTitle = "Opciones"
)

// Client sends messages via the WhatsApp Cloud API.
type Client struct {
	accessToken  string
	phoneID      string
	graphAPIBase string
	httpClient   *http.Client
	logger       *logging.Logger
	tracer       trace.Tracer
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPTimeout bounds every Graph API call.
func WithHTTPTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithClientLogger sets the logger used for truncation warnings.
func WithClientLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used for send spans.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// NewClient creates a Cloud API client for the given business phone number id.
func NewClient(accessToken, phoneID string, opts ...ClientOption) *Client {
	c := &Client{
		accessToken:  accessToken,
		phoneID:      phoneID,
		graphAPIBase: defaultGraphAPIBase,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		logger:       logging.Default(),
		tracer:       otel.Tracer("smartbot.internal.channels.whatsapp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	if base != "" {
		c.graphAPIBase = strings.TrimRight(base, "/")
	}
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	return c.send(ctx, SendRequest{
		To:   to,
		Type: "text",
		Text: &SendText{Body: body},
	})
}

// SendButtons sends a reply-button message. Only the first three buttons are
// sent; the rest are dropped with a warning.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []ReplyItem) (*SendResponse, error) {
	if len(buttons) > maxButtons {
		c.logger.Warn("whatsapp: extra reply buttons dropped",
			"to", to,
			"requested", len(buttons),
			"kept", maxButtons,
		)
		buttons = buttons[:maxButtons]
	}
	replies := make([]ReplyButton, 0, len(buttons))
	for _, b := range buttons {
		replies = append(replies, ReplyButton{
			Type:  "reply",
			Reply: ReplyItem{ID: b.ID, Title: truncateRunes(b.Title, maxButtonTitle)},
		})
	}
	return c.send(ctx, SendRequest{
		To:   to,
		Type: "interactive",
		Interactive: &Interactive{
			Type:   "button",
			Body:   InteractiveText{Text: body},
			Action: InteractiveAction{Buttons: replies},
		},
	})
}

// ListMessage describes an interactive list with one section.
type ListMessage struct {
	Header       string
	Body         string
	Footer       string
	ButtonLabel  string
	SectionTitle string
	Rows         []ReplyItem
}

// SendList sends an interactive list message.
func (c *Client) SendList(ctx context.Context, to string, list ListMessage) (*SendResponse, error) {
	rows := make([]ReplyItem, 0, len(list.Rows))
	for _, r := range list.Rows {
		rows = append(rows, ReplyItem{
			ID:          r.ID,
			Title:       truncateRunes(r.Title, maxRowTitle),
			Description: truncateRunes(r.Description, maxRowDescription),
		})
	}
	label := list.ButtonLabel
	if label == "" {
		label = defaultListButton
	}
	section := list.SectionTitle
	if section == "" {
		section = defaultSectionTitle
	}
	interactive := &Interactive{
		Type: "list",
		Body: InteractiveText{Text: list.Body},
		Action: InteractiveAction{
			Button:   truncateRunes(label, maxButtonTitle),
			Sections: []Section{{Title: truncateRunes(section, maxRowTitle), Rows: rows}},
		},
	}
	if list.Header != "" {
		interactive.Header = &InteractiveHeader{Type: "text", Text: list.Header}
	}
	if list.Footer != "" {
		interactive.Footer = &InteractiveText{Text: list.Footer}
	}
	return c.send(ctx, SendRequest{
		To:          to,
		Type:        "interactive",
		Interactive: interactive,
	})
}

// SendImage sends an image referenced by a public URL.
func (c *Client) SendImage(ctx context.Context, to, link, caption string) (*SendResponse, error) {
	return c.send(ctx, SendRequest{
		To:    to,
		Type:  "image",
		Image: &SendImage{Link: link, Caption: caption},
	})
}

func (c *Client) send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	ctx, span := c.tracer.Start(ctx, "whatsapp.send_message",
		trace.WithAttributes(attribute.String("whatsapp.type", req.Type)))
	defer span.End()

	resp, err := c.do(ctx, req)
	if err != nil {
		span.RecordError(err)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, req SendRequest) (*SendResponse, error) {
	req.MessagingProduct = "whatsapp"
	req.RecipientType = "individual"
	req.To = NormalizeWAID(req.To)
	if req.To == "" {
		return nil, fmt.Errorf("whatsapp: recipient is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, c.phoneID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: unexpected status %d: %w", resp.StatusCode, err)
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return &sendResp, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
