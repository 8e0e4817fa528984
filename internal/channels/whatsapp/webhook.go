package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/events"
	"github.com/wolfman30/smartbot-platform/internal/observability/metrics"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

const maxWebhookBody = 1 << 20

// EventSubmitter accepts normalized events for asynchronous processing.
type EventSubmitter interface {
	Submit(ctx context.Context, ev conversation.Event) error
}

// WebhookHandler handles WhatsApp webhook verification and inbound messages.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	seen        events.SeenStore
	submitter   EventSubmitter
	logger      *logging.Logger
	metrics     *metrics.FlowMetrics
}

// NewWebhookHandler creates a new webhook handler. seen and m may be nil.
// When appSecret is empty signatures are not checked.
func NewWebhookHandler(verifyToken, appSecret string, submitter EventSubmitter, seen events.SeenStore, logger *logging.Logger, m *metrics.FlowMetrics) *WebhookHandler {
	if submitter == nil {
		panic("whatsapp: event submitter cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		seen:        seen,
		submitter:   submitter,
		logger:      logger,
		metrics:     m,
	}
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency(http.MethodGet, time.Since(start).Seconds()) }()

	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token != "" && hmac.Equal([]byte(token), []byte(h.verifyToken)) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	h.logger.Warn("whatsapp: webhook verification rejected", "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook events. Anything the platform sends is
// acknowledged with 200 before processing; only a bad signature, when a
// secret is configured, is rejected.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency(http.MethodPost, time.Since(start).Seconds()) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("whatsapp: failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.appSecret != "" && !VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.metrics.ObserveInbound("unknown", "bad_signature")
		h.logger.Warn("whatsapp: webhook signature mismatch")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Must respond 200 quickly to avoid Meta retries
	w.WriteHeader(http.StatusOK)

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.metrics.ObserveInbound("unknown", "malformed")
		h.logger.Warn("whatsapp: malformed webhook payload", "error", err)
		return
	}

	for _, ev := range ParseWebhookPayload(payload) {
		h.dispatch(r.Context(), ev)
	}
}

func (h *WebhookHandler) dispatch(ctx context.Context, ev conversation.Event) {
	kind := string(ev.Kind)
	if h.seen != nil && ev.MessageID != "" {
		first, err := h.seen.MarkSeen(ctx, ev.MessageID)
		if err != nil {
			h.logger.Warn("whatsapp: dedup lookup failed", "message_id", ev.MessageID, "error", err)
		} else if !first {
			h.metrics.ObserveDuplicate()
			h.metrics.ObserveInbound(kind, "duplicate")
			h.logger.Debug("whatsapp: duplicate delivery suppressed", "message_id", ev.MessageID, "sender", ev.Sender)
			return
		}
	}

	if err := h.submitter.Submit(ctx, ev); err != nil {
		h.metrics.ObserveInbound(kind, "dropped")
		return
	}
	h.metrics.ObserveInbound(kind, "accepted")
}

// ParseWebhookPayload extracts normalized events from a webhook payload.
// Status callbacks and messages without a sender are skipped.
func ParseWebhookPayload(payload WebhookPayload) []conversation.Event {
	var out []conversation.Event
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					continue
				}
				out = append(out, ToEvent(msg))
			}
		}
	}
	return out
}

// ToEvent normalizes one inbound message. Unsupported message types become
// text events with an empty body.
func ToEvent(msg InboundMessage) conversation.Event {
	ev := conversation.Event{
		Sender:     msg.From,
		Kind:       conversation.KindText,
		MessageID:  msg.ID,
		ReceivedAt: parseTimestamp(msg.Timestamp),
	}
	switch {
	case msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
		ev.Kind = conversation.KindButton
		ev.ID = msg.Interactive.ButtonReply.ID
		ev.Text = msg.Interactive.ButtonReply.Title
	case msg.Interactive != nil && msg.Interactive.ListReply != nil:
		ev.Kind = conversation.KindList
		ev.ID = msg.Interactive.ListReply.ID
		ev.Text = msg.Interactive.ListReply.Title
	case msg.Button != nil:
		ev.Kind = conversation.KindButton
		ev.ID = msg.Button.Payload
		ev.Text = msg.Button.Text
	case msg.Text != nil:
		ev.Text = msg.Text.Body
	}
	return ev.Normalize()
}

func parseTimestamp(ts string) time.Time {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if len(signature) <= len(prefix) || signature[:len(prefix)] != prefix {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
