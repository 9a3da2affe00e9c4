package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	appErrors "silo-planner/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; a full roadmap is far smaller
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			return appErrors.NewValidationError("Request body is required")
		}
		return appErrors.NewValidationError("Invalid JSON body").WithCause(err)
	}
	return nil
}

// respondJSON writes v with status 200
func respondJSON(w http.ResponseWriter, logger *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
