package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// SessionProvider resolves the ledger of an authenticated identity.
type SessionProvider interface {
	Acquire(ctx context.Context, identity domain.Identity) (*usecase.LedgerStore, error)
	Open(ctx context.Context, identity domain.Identity) (*usecase.LedgerStore, error)
	Close(userID string) bool
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError assigns to it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeJSON(w, mapDomainError(err), dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
		Rule:    domain.RuleOf(err),
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrLoadSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeDomainError(w, "invalid request body", err)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// ledgerFor returns the caller's ledger, writing an error response when it is unavailable.
func ledgerFor(w http.ResponseWriter, r *http.Request, sessions SessionProvider) (*usecase.LedgerStore, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeDomainError(w, "not authenticated", domain.ErrNotAuthenticated)
		return nil, false
	}

	store, err := sessions.Acquire(r.Context(), identity)
	if err != nil {
		writeDomainError(w, "failed to load ledger", err)
		return nil, false
	}

	return store, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultValue
	}
	return i
}
