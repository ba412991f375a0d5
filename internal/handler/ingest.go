// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/priorityhub/inbox-platform/internal/ingest"
	"github.com/priorityhub/inbox-platform/internal/middleware"
	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/pkg/logger"
	"github.com/priorityhub/inbox-platform/pkg/metrics"
)

// IngestHandler handles the per-channel message ingestion endpoint.
type IngestHandler struct {
	pipeline *ingest.Pipeline
	logger   *logger.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(p *ingest.Pipeline, log *logger.Logger) *IngestHandler {
	return &IngestHandler{pipeline: p, logger: log}
}

// Ingest handles POST /api/v1/messages/:channel
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "channel")
	channel, ok := model.ParseChannel(slug)
	if !ok {
		writeError(w, model.CodeValidation, "unsupported channel "+slug)
		return
	}

	var req model.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IngestFailures.WithLabelValues(slug, string(model.CodeValidation)).Inc()
		writeError(w, model.CodeValidation, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Text()); err != nil {
		metrics.IngestFailures.WithLabelValues(slug, string(model.CodeValidation)).Inc()
		writeError(w, model.CodeValidation, err.Error())
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), channel, &req)
	if err != nil {
		code := model.CodeOf(err)
		if code != model.CodeDuplicateMessage {
			metrics.IngestFailures.WithLabelValues(slug, string(code)).Inc()
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
