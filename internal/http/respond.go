package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dailyboard/internal/storage"
)

var errInvalidID = errors.New("invalid id")

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondStoreError maps store failures onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	slog.ErrorContext(r.Context(), "Store operation failed", "op", op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// respondValidationError reports a domain validation failure. Sentinel
// messages from core are safe to echo back to the client.
func respondValidationError(w http.ResponseWriter, err error) {
	respondError(w, http.StatusUnprocessableEntity, err.Error())
}

const maxBodySize = 1 << 20

// decodeJSON reads one JSON object from the request body with a size cap.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	// one object per request
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
