package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/priorityhub/inbox-platform/internal/bus"
	"github.com/priorityhub/inbox-platform/internal/middleware"
	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/internal/store"
	"github.com/priorityhub/inbox-platform/pkg/logger"
	"github.com/priorityhub/inbox-platform/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	notifier          *bus.Bus
	store             *store.Store
	logger            *logger.Logger
	heartbeatInterval time.Duration
	queueSize         int
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(notifier *bus.Bus, st *store.Store, log *logger.Logger, heartbeat time.Duration, queueSize int) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{
		notifier:          notifier,
		store:             st,
		logger:            log,
		heartbeatInterval: heartbeat,
		queueSize:         queueSize,
	}
}

// StreamUser handles GET /api/v1/conversations/stream?userId=
// Delivers every event for the user's conversations until disconnect.
func (h *StreamHandler) StreamUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, model.CodeValidation, "userId query parameter is required")
		return
	}
	if _, err := h.store.GetUser(userID); err != nil {
		writeDomainError(w, err)
		return
	}

	h.stream(w, r, func(evt model.Event) bool {
		return evt.UserID == userID
	})
}

// StreamConversation handles GET /api/v1/conversations/:id/messages/stream
// Delivers message and priority events for one conversation.
func (h *StreamHandler) StreamConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, model.CodeValidation, err.Error())
		return
	}
	if _, err := h.store.GetConversation(conversationID); err != nil {
		writeDomainError(w, err)
		return
	}

	h.stream(w, r, func(evt model.Event) bool {
		return evt.ConversationID == conversationID
	})
}

// stream runs one SSE connection: a bus subscription plus a keep-alive
// ticker. Every exit path releases both, so a disconnected observer never
// leaks a subscription.
func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, match func(model.Event) bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, model.CodeInternal, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.notifier.Subscribe(h.queueSize)
	defer sub.Close()

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	done := r.Context().Done()

	for {
		select {
		case <-done:
			h.logger.Debugw("SSE client disconnected", "path", r.URL.Path)
			return

		case evt, open := <-sub.Events():
			if !open {
				// Dropped by the bus for falling behind.
				h.logger.Warnw("SSE subscriber dropped", "path", r.URL.Path)
				return
			}
			if !match(evt) {
				continue
			}
			if err := writeSSEEvent(w, flusher, evt); err != nil {
				return
			}

		case <-heartbeat.C:
			// Comment-only line; carries no event kind.
			if _, err := fmt.Fprintf(w, ": keep-alive %d\n\n", time.Now().Unix()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, evt model.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
