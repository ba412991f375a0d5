package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/priorityhub/inbox-platform/internal/middleware"
	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/internal/priority"
	"github.com/priorityhub/inbox-platform/internal/store"
	"github.com/priorityhub/inbox-platform/pkg/logger"
)

const (
	defaultConversationPageSize = 20
	defaultMessagePageSize      = 50
)

// ConversationHandler handles conversation read endpoints.
type ConversationHandler struct {
	store  *store.Store
	logger *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(st *store.Store, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{store: st, logger: log}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, model.CodeValidation, "userId query parameter is required")
		return
	}

	var channel model.Channel
	if slug := r.URL.Query().Get("channel"); slug != "" {
		parsed, ok := model.ParseChannel(slug)
		if !ok {
			writeError(w, model.CodeValidation, "unsupported channel "+slug)
			return
		}
		channel = parsed
	}

	page, limit := pagination(r, defaultConversationPageSize)
	items, total := h.store.GetConversationsForUser(userID, page, limit, channel)
	if items == nil {
		items = []model.Conversation{}
	}

	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations: items,
		Total:         total,
		Page:          page,
		Limit:         limit,
	})
}

// Get handles GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, model.CodeValidation, err.Error())
		return
	}

	conv, err := h.store.GetConversation(conversationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conv.Priority = priority.WithInactivityCheck(conv.Priority, conv.LastMessageAt, time.Now())
	conv.MessageCount = h.store.GetMessageCountForConversation(conv.ID)
	if latest, ok := h.store.GetLatestMessageForConversation(conv.ID); ok {
		conv.LastMessage = latest
	}

	writeJSON(w, http.StatusOK, conv)
}

// Messages handles GET /api/v1/conversations/:id/messages
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, model.CodeValidation, err.Error())
		return
	}

	if _, err := h.store.GetConversation(conversationID); err != nil {
		writeDomainError(w, err)
		return
	}

	page, limit := pagination(r, defaultMessagePageSize)
	items, total := h.store.GetMessagesForConversation(conversationID, page, limit)
	if items == nil {
		items = []model.Message{}
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: items,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// pagination parses page/limit query params with per-endpoint defaults.
// The store applies the hard clamps.
func pagination(r *http.Request, defaultLimit int) (int, int) {
	page := 1
	limit := defaultLimit

	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed >= 1 {
			page = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed >= 1 {
			limit = parsed
		}
	}
	if limit > store.MaxPageSize {
		limit = store.MaxPageSize
	}
	return page, limit
}
