package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonSuccess writes {"success": true}.
func jsonSuccess(w http.ResponseWriter) {
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}

// writeFailure maps a store or validation error to a response. Anything
// unexpected is logged and reported as a 500 with message.
func writeFailure(w http.ResponseWriter, err error, message string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, kv.ErrConflict):
		jsonError(w, http.StatusConflict, "resource was modified concurrently, please retry")
	default:
		slog.Error(message, "error", err)
		jsonError(w, http.StatusInternalServerError, message)
	}
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
