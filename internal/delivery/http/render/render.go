// Package render writes JSON responses for the HTTP handlers.
package render

import (
	"encoding/json"
	"net/http"

	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}

func JSON(w http.ResponseWriter, log logger.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to encode response", logger.Err(err))
	}
}

// Error maps err onto a status code through the error taxonomy.
func Error(w http.ResponseWriter, log logger.Logger, err error) {
	JSON(w, log, internalErrors.HTTPStatus(err), ErrorResponse{
		Error: err.Error(),
		Kind:  internalErrors.Kind(err),
	})
}

func Message(w http.ResponseWriter, log logger.Logger, status int, msg string) {
	JSON(w, log, status, ErrorResponse{Error: msg})
}
