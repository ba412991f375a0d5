package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/priorityhub/inbox-platform/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response carrying the taxonomy code.
func writeError(w http.ResponseWriter, code model.ErrorCode, message string) {
	writeJSON(w, code.HTTPStatus(), map[string]string{
		"error": message,
		"code":  string(code),
	})
}

// writeDomainError maps a pipeline/store error onto the wire.
func writeDomainError(w http.ResponseWriter, err error) {
	var domainErr *model.Error
	if errors.As(err, &domainErr) {
		writeError(w, domainErr.Code, domainErr.Message)
		return
	}
	writeError(w, model.CodeInternal, "internal error")
}
