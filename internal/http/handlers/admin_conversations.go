package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/smartbot-platform/internal/channels/whatsapp"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/internal/http/middleware"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// Conversations reads and resets sender state. *conversation.Processor
// implements it; its Reset is serialized with inbound events of the sender.
type Conversations interface {
	Get(ctx context.Context, sender string) (conversation.State, error)
	Reset(ctx context.Context, sender string) error
}

// AdminConversationsHandler lets operators inspect or reset a sender's
// conversation state.
type AdminConversationsHandler struct {
	conversations Conversations
	logger        *logging.Logger
}

// NewAdminConversationsHandler creates a new admin conversations handler.
func NewAdminConversationsHandler(conversations Conversations, logger *logging.Logger) *AdminConversationsHandler {
	if conversations == nil {
		panic("handlers: conversations cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminConversationsHandler{conversations: conversations, logger: logger}
}

// ConversationResponse is the admin view of one sender's state.
type ConversationResponse struct {
	Active bool               `json:"active"`
	State  conversation.State `json:"state"`
}

// GetConversation returns the stored state for a sender.
// GET /admin/conversations/{sender}
func (h *AdminConversationsHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.senderParam(w, r)
	if !ok {
		return
	}
	st, err := h.conversations.Get(r.Context(), sender)
	if err != nil {
		h.logger.Error("admin: failed to load conversation", "sender", sender, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	active := st.Step != "" || st.Data != nil
	if !active {
		writeError(w, h.logger, http.StatusNotFound, "no active conversation")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ConversationResponse{Active: active, State: st})
}

// ResetConversation clears the stored state so the sender starts over.
// DELETE /admin/conversations/{sender}
func (h *AdminConversationsHandler) ResetConversation(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.senderParam(w, r)
	if !ok {
		return
	}
	if err := h.conversations.Reset(r.Context(), sender); err != nil {
		h.logger.Error("admin: failed to reset conversation", "sender", sender, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "failed to reset conversation")
		return
	}
	actor := ""
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok {
		actor = claims.Subject
	}
	h.logger.Info("admin: conversation reset", "sender", sender, "actor", actor)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminConversationsHandler) senderParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sender := whatsapp.NormalizeWAID(chi.URLParam(r, "sender"))
	if sender == "" {
		writeError(w, h.logger, http.StatusBadRequest, "missing sender")
		return "", false
	}
	return sender, true
}

// writeJSON encodes payload before touching the response so an encoding
// failure becomes a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *logging.Logger, status int, msg string) {
	writeJSON(w, logger, status, map[string]string{"error": msg})
}
