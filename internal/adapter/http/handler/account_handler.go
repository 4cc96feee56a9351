package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/usecase"
)

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	sessions SessionProvider
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(sessions SessionProvider) *AccountHandler {
	return &AccountHandler{sessions: sessions}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid account", err)
		return
	}

	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	account, err := ledger.AddAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	account, err := ledger.Account(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts in creation order. ?active=true|false narrows by status.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	accounts, err := ledger.Accounts()
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active filter", err.Error())
			return
		}
		filtered := accounts[:0]
		for _, a := range accounts {
			if a.Active == active {
				filtered = append(filtered, a)
			}
		}
		accounts = filtered
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// UpdateStatus activates or deactivates an account.
func (h *AccountHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAccountStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "active is required")
		return
	}

	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	account, err := ledger.SetAccountActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		writeDomainError(w, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListTransactions lists the transactions posted to an account.
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ledger, ok := ledgerFor(w, r, h.sessions)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := ledger.Account(id); err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	transactions, err := ledger.Transactions(usecase.TransactionFilter{
		AccountID: id,
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Total:        len(transactions),
	})
}

