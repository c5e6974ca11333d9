package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/davgate"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	if err := WriteJSON(w, code, ErrorResponse{Error: errCode, Message: message}); err != nil {
		slog.Error("failed to encode error response", "err", err)
	}
}

// HandleError writes the response matching err's sentinel. Unauthorized
// errors get the Basic challenge rather than a JSON body.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, davgate.ErrUnauthorized):
		writeUnauthorized(w)
	case errors.Is(err, davgate.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, davgate.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	default:
		slog.Error("request error", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
