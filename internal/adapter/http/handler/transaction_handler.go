package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// TransactionHandler handles income and expense requests.
type TransactionHandler struct {
	sessions SessionProvider
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(sessions SessionProvider) *TransactionHandler {
	return &TransactionHandler{sessions: sessions}
}

// Create records an income or expense.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid transaction", err)
		return
	}

	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	transaction, err := ledger.AddTransaction(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(transaction))
}

// List lists transactions. Supports ?type=, ?account_id=, ?q= (source or category),
// ?limit= and ?offset=.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := usecase.TransactionFilter{
		AccountID: query.Get("account_id"),
		Search:    query.Get("q"),
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	}
	if raw := query.Get("type"); raw != "" {
		txType, err := domain.ParseTransactionType(raw)
		if err != nil {
			writeDomainError(w, "invalid type filter", err)
			return
		}
		filter.Type = txType
	}

	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	transactions, err := ledger.Transactions(filter)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Total:        len(transactions),
	})
}

// Update replaces an income or expense.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid transaction", err)
		return
	}

	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	transaction, err := ledger.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, "failed to update transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Delete removes a transaction, or both legs of a transfer.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	removed, err := ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteTransactionResponse{Removed: removed})
}
