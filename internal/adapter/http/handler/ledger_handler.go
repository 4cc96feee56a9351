package handler

import (
	"context"
	"net/http"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/usecase"
)

// ReconciliationService checks balances against transaction history.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context, ledger usecase.LedgerReader) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	sessions       SessionProvider
	reconciliation ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(sessions SessionProvider, reconciliation ReconciliationService) *LedgerHandler {
	return &LedgerHandler{sessions: sessions, reconciliation: reconciliation}
}

// CheckConsistency checks if the caller's ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	report, err := h.reconciliation.GenerateReconciliationReport(r.Context(), ledger)
	if err != nil {
		writeDomainError(w, "failed to check consistency", err)
		return
	}

	status := http.StatusOK
	if !report.LedgerConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromReport(report))
}
