package handler

import (
	"context"
	"net/http"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// ReportService computes aggregates over a ledger.
type ReportService interface {
	MonthlySeries(ctx context.Context, ledger usecase.LedgerReader) (*domain.MonthlySeries, error)
	CategoryBreakdown(ctx context.Context, ledger usecase.LedgerReader) (*domain.CategoryBreakdown, error)
}

// ReportHandler serves chart-ready aggregates.
type ReportHandler struct {
	sessions SessionProvider
	reports  ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(sessions SessionProvider, reports ReportService) *ReportHandler {
	return &ReportHandler{sessions: sessions, reports: reports}
}

// Monthly returns income and expense totals per calendar month.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	series, err := h.reports.MonthlySeries(r.Context(), ledger)
	if err != nil {
		writeDomainError(w, "failed to build monthly report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthlySeriesFromDomain(series))
}

// Categories returns expense totals per category.
func (h *ReportHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	breakdown, err := h.reports.CategoryBreakdown(r.Context(), ledger)
	if err != nil {
		writeDomainError(w, "failed to build category report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoryBreakdownFromDomain(breakdown))
}
