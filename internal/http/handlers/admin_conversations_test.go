package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smartbot-platform/internal/conversation"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

type brokenStore struct{ conversation.Store }

func (brokenStore) Get(context.Context, string) (conversation.State, error) {
	return conversation.State{}, errors.New("redis down")
}

func (brokenStore) Clear(context.Context, string) error {
	return errors.New("redis down")
}

func adminRouter(store conversation.Store) http.Handler {
	engine := conversation.NewEngine(conversation.EngineConfig{})
	discard := conversation.GatewayFunc(func(context.Context, string, conversation.Message) error { return nil })
	processor := conversation.NewProcessor(engine, store, discard, logging.Default(), nil)
	h := NewAdminConversationsHandler(processor, logging.Default())
	r := chi.NewRouter()
	r.Get("/admin/conversations/{sender}", h.GetConversation)
	r.Delete("/admin/conversations/{sender}", h.ResetConversation)
	return r
}

func doRequest(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAdminGetConversation(t *testing.T) {
	store := conversation.NewMemoryStore()
	_, err := store.Patch(context.Background(), "591700", conversation.Patch{
		Step:    conversation.StepAwaitingFulfillmentChoice,
		Data:    conversation.FoodOrder{Order: "2 burgers"},
		Replace: true,
	})
	require.NoError(t, err)
	h := adminRouter(store)

	rec := doRequest(h, http.MethodGet, "/admin/conversations/591700")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Active bool `json:"active"`
		State  struct {
			Sender string `json:"sender"`
			Flow   string `json:"flow"`
			Step   string `json:"step"`
			Food   struct {
				Order string `json:"order"`
			} `json:"food"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Active)
	assert.Equal(t, "591700", body.State.Sender)
	assert.Equal(t, string(conversation.FlowFood), body.State.Flow)
	assert.Equal(t, string(conversation.StepAwaitingFulfillmentChoice), body.State.Step)
	assert.Equal(t, "2 burgers", body.State.Food.Order)

	rec = doRequest(h, http.MethodGet, "/admin/conversations/+591-700")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/admin/conversations/591799")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodGet, "/admin/conversations/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminResetConversation(t *testing.T) {
	store := conversation.NewMemoryStore()
	_, err := store.Patch(context.Background(), "591700", conversation.Patch{Step: conversation.StepAwaitingOrderText, Data: conversation.FoodOrder{}})
	require.NoError(t, err)
	h := adminRouter(store)

	rec := doRequest(h, http.MethodDelete, "/admin/conversations/591700")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	st, err := store.Get(context.Background(), "591700")
	require.NoError(t, err)
	assert.Empty(t, st.Step)
	assert.Nil(t, st.Data)
}

func TestAdminConversationStoreErrors(t *testing.T) {
	h := adminRouter(brokenStore{})

	assert.Equal(t, http.StatusInternalServerError, doRequest(h, http.MethodGet, "/admin/conversations/591700").Code)
	assert.Equal(t, http.StatusInternalServerError, doRequest(h, http.MethodDelete, "/admin/conversations/591700").Code)
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		payload    any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "encodes payload with status",
			status:     http.StatusCreated,
			payload:    map[string]string{"ok": "yes"},
			wantStatus: http.StatusCreated,
			wantBody:   `{"ok":"yes"}`,
		},
		{
			name:       "unencodable payload becomes 500",
			status:     http.StatusOK,
			payload:    map[string]float64{"v": math.Inf(1)},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"failed to encode response"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeJSON(rec, logging.Default(), tt.status, tt.payload)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
