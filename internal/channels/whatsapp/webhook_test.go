package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/events"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

type recordingSubmitter struct {
	mu     sync.Mutex
	events []conversation.Event
	err    error
}

func (s *recordingSubmitter) Submit(_ context.Context, ev conversation.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSubmitter) received() []conversation.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Event(nil), s.events...)
}

func newTestWebhook(secret string, sub EventSubmitter) *WebhookHandler {
	return NewWebhookHandler("verify-me", secret, sub, events.NewSeenCache(16), logging.Default(), metrics.NewFlowMetrics(prometheus.NewRegistry()))
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *WebhookHandler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	h.HandleInbound(rec, req)
	return rec
}

const buttonPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "59170000000", "phone_number_id": "12345"},
        "contacts": [{"wa_id": "591700", "profile": {"name": "Ana"}}],
        "messages": [{
          "from": "591700",
          "id": "wamid.btn",
          "timestamp": "1760000000",
          "type": "interactive",
          "interactive": {"type": "button_reply", "button_reply": {"id": "MENU_DEMOS", "title": "Demos"}}
        }]
      }
    }]
  }]
}`

func TestHandleVerification(t *testing.T) {
	h := newTestWebhook("", &recordingSubmitter{})
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=abc123", http.StatusOK, "abc123"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=abc123", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=abc123", http.StatusForbidden, ""},
		{"missing params", "", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.HandleVerification(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHandleInboundSubmitsButtonEvent(t *testing.T) {
	sub := &recordingSubmitter{}
	h := newTestWebhook("", sub)

	rec := postWebhook(h, buttonPayload, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := sub.received()
	require.Len(t, got, 1)
	assert.Equal(t, "591700", got[0].Sender)
	assert.Equal(t, conversation.KindButton, got[0].Kind)
	assert.Equal(t, "MENU_DEMOS", got[0].ID)
	assert.Equal(t, "wamid.btn", got[0].MessageID)
	assert.Equal(t, int64(1760000000), got[0].ReceivedAt.Unix())
}

func TestHandleInboundSuppressesDuplicates(t *testing.T) {
	sub := &recordingSubmitter{}
	h := newTestWebhook("", sub)

	postWebhook(h, buttonPayload, "")
	rec := postWebhook(h, buttonPayload, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sub.received(), 1)
}

func TestHandleInboundSignature(t *testing.T) {
	sub := &recordingSubmitter{}
	h := newTestWebhook("app-secret", sub)

	rec := postWebhook(h, buttonPayload, "sha256=deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sub.received())

	rec = postWebhook(h, buttonPayload, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(h, buttonPayload, sign("app-secret", buttonPayload))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sub.received(), 1)
}

func TestHandleInboundAlwaysAcknowledges(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"entry": [`},
		{"empty body", ``},
		{"status only", `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`},
		{"empty messages", `{"entry":[{"changes":[{"value":{"messages":[]}}]}]}`},
		{"missing sender", `{"entry":[{"changes":[{"value":{"messages":[{"id":"wamid.2","type":"text","text":{"body":"hola"}}]}}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &recordingSubmitter{}
			h := newTestWebhook("", sub)
			rec := postWebhook(h, tt.body, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, sub.received())
		})
	}
}

func TestHandleInboundAcknowledgesWhenQueueFull(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("full")}
	h := newTestWebhook("", sub)

	rec := postWebhook(h, buttonPayload, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToEvent(t *testing.T) {
	tests := []struct {
		name     string
		msg      InboundMessage
		wantKind conversation.EventKind
		wantID   string
		wantText string
	}{
		{
			name:     "list reply",
			msg:      InboundMessage{From: "591", Type: "interactive", Interactive: &InteractiveContent{Type: "list_reply", ListReply: &ReplyItem{ID: "DEMO_FOOD", Title: "FoodBot"}}},
			wantKind: conversation.KindList,
			wantID:   "DEMO_FOOD",
			wantText: "FoodBot",
		},
		{
			name:     "text",
			msg:      InboundMessage{From: "591", Type: "text", Text: &TextContent{Body: "  2 burgers "}},
			wantKind: conversation.KindText,
			wantText: "2 burgers",
		},
		{
			name:     "legacy template button",
			msg:      InboundMessage{From: "591", Type: "button", Button: &LegacyButton{Payload: "MENU_PLANS", Text: "Planes"}},
			wantKind: conversation.KindButton,
			wantID:   "MENU_PLANS",
			wantText: "Planes",
		},
		{
			name:     "button reply without id falls back to text",
			msg:      InboundMessage{From: "591", Type: "interactive", Interactive: &InteractiveContent{ButtonReply: &ReplyItem{Title: "Demos"}}},
			wantKind: conversation.KindText,
			wantText: "Demos",
		},
		{
			name:     "unsupported type",
			msg:      InboundMessage{From: "591", Type: "sticker"},
			wantKind: conversation.KindText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ToEvent(tt.msg)
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Equal(t, tt.wantID, ev.ID)
			assert.Equal(t, tt.wantText, ev.Text)
			assert.Equal(t, "591", ev.Sender)
		})
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	valid := sign("secret", string(body))

	assert.True(t, VerifySignature("secret", body, valid))
	assert.False(t, VerifySignature("other", body, valid))
	assert.False(t, VerifySignature("secret", body, strings.TrimPrefix(valid, "sha256=")))
	assert.False(t, VerifySignature("", body, valid))
	assert.False(t, VerifySignature("secret", body, ""))
}
