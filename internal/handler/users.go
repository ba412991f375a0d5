package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/priorityhub/inbox-platform/internal/middleware"
	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/internal/store"
	"github.com/priorityhub/inbox-platform/pkg/logger"
)

// UserHandler handles user endpoints.
type UserHandler struct {
	store  *store.Store
	logger *logger.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(st *store.Store, log *logger.Logger) *UserHandler {
	return &UserHandler{store: st, logger: log}
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.CodeValidation, "invalid request body")
		return
	}

	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, model.CodeValidation, err.Error())
		return
	}
	if err := middleware.ValidateName(req.Name); err != nil {
		writeError(w, model.CodeValidation, err.Error())
		return
	}

	user, err := h.store.CreateUser(req.Email, req.Name, req.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
