package handler

import (
	"net/http"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/domain"
)

// SessionHandler opens and closes the caller's ledger session.
type SessionHandler struct {
	sessions SessionProvider
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionProvider) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Open loads the caller's ledger from storage, replacing any cached copy.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeDomainError(w, "not authenticated", domain.ErrNotAuthenticated)
		return
	}

	ledger, err := h.sessions.Open(r.Context(), identity)
	if err != nil {
		writeDomainError(w, "failed to open session", err)
		return
	}

	snapshot, err := ledger.Snapshot()
	if err != nil {
		writeDomainError(w, "failed to open session", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionFromSnapshot(ledger.Revision(), snapshot))
}

// Close tears down the caller's ledger.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeDomainError(w, "not authenticated", domain.ErrNotAuthenticated)
		return
	}

	h.sessions.Close(identity.UserID)
	w.WriteHeader(http.StatusNoContent)
}
