package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps a use-case error to its HTTP status.
func statusFor(err error) int {
	switch valueobject.KindOf(err) {
	case valueobject.KindNotFound:
		return http.StatusNotFound
	case valueobject.KindUnauthorized:
		return http.StatusForbidden
	case valueobject.KindInvalidState:
		return http.StatusConflict
	case valueobject.KindInvalidInput:
		return http.StatusBadRequest
	}
	if errors.Is(err, valueobject.ErrConcurrentModification) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Kind: valueobject.KindOf(err).String()}
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return valueobject.InvalidInput("malformed request body: %v", err)
	}
	return nil
}
