package handler

import (
	"net/http"

	"github.com/iho/fintrack/internal/adapter/http/dto"
)

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	sessions SessionProvider
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(sessions SessionProvider) *TransferHandler {
	return &TransferHandler{sessions: sessions}
}

// Create moves money between two of the caller's accounts.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid transfer", err)
		return
	}

	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	debit, credit, err := ledger.Transfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(debit, credit))
}
