package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/infrastructure/auth"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

// execute runs the CLI with args against the API at url.
func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	var runErr error
	out := captureOutput(t, func() {
		cmd := newRootCmd()
		cmd.SetArgs(append([]string{"--url", url}, args...))
		runErr = cmd.Execute()
	})
	return out, runErr
}

func apiServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}

	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestTokenIssue(t *testing.T) {
	out, err := execute(t, "http://unused", "token", "issue", "user-7", "--secret", "s3cret", "--ttl", "1h")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != "user-7" {
		t.Fatalf("expected user-7, got %q", claims.UserID)
	}
}

func TestTokenIssue_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := execute(t, "http://unused", "token", "issue", "user-7"); err == nil {
		t.Fatal("expected an error without a secret")
	}
}

func TestAccountsList(t *testing.T) {
	srv := apiServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v1/accounts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-User-ID"); got != "user-1" {
				t.Errorf("expected X-User-ID user-1, got %q", got)
			}
			if got := r.URL.Query().Get("active"); got != "true" {
				t.Errorf("expected active=true, got %q", got)
			}
			reply(w, http.StatusOK, dto.ListAccountsResponse{
				Accounts: []*dto.AccountResponse{{ID: "acc-1", Name: "Checking", Type: "checking", Balance: "5000", Active: true}},
				Total:    1,
			})
		},
	})

	out, err := execute(t, srv.URL, "--user", "user-1", "accounts", "list", "--active")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Checking") || !strings.Contains(out, "5000") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTransactionsList_SendsFiltersAndToken(t *testing.T) {
	srv := apiServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v1/transactions": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("expected bearer token, got %q", got)
			}
			q := r.URL.Query()
			if q.Get("type") != "expense" || q.Get("account_id") != "acc-1" || q.Get("limit") != "5" {
				t.Errorf("unexpected query %v", q)
			}
			reply(w, http.StatusOK, dto.ListTransactionsResponse{
				Transactions: []*dto.TransactionResponse{{ID: "t1", AccountID: "acc-1", Type: "expense", Amount: "42.5", Category: "Groceries"}},
				Total:        1,
			})
		},
	})

	out, err := execute(t, srv.URL, "--token", "tok", "--user", "ignored",
		"transactions", "list", "--type", "expense", "--account", "acc-1", "--limit", "5")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Groceries") || !strings.Contains(out, "42.5") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestReportMonthly(t *testing.T) {
	srv := apiServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v1/reports/monthly": func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusOK, dto.MonthlySeriesResponse{
				Months:  []dto.MonthResponse{{Year: 2025, Month: 8, Label: "Aug 2025"}},
				Income:  []string{"3000"},
				Expense: []string{"120"},
			})
		},
	})

	out, err := execute(t, srv.URL, "--user", "user-1", "report", "monthly")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Aug 2025") || !strings.Contains(out, "3000") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestReportCategories_APIError(t *testing.T) {
	srv := apiServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v1/reports/categories": func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "missing identity"})
		},
	})

	_, err := execute(t, srv.URL, "report", "categories")
	if err == nil || !strings.Contains(err.Error(), "missing identity") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestLedgerConsistency(t *testing.T) {
	consistent := true
	srv := apiServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v1/ledger/consistency": func(w http.ResponseWriter, _ *http.Request) {
			if consistent {
				reply(w, http.StatusOK, dto.ReconciliationResponse{Consistent: true, TotalAccounts: 3, ReconciledAccounts: 3})
				return
			}
			reply(w, http.StatusConflict, dto.ReconciliationResponse{
				TotalAccounts:      3,
				ReconciledAccounts: 2,
				Discrepancies: []dto.DiscrepancyResponse{{
					AccountID: "acc-2", RecordedBalance: "12", CalculatedBalance: "10", Difference: "2",
				}},
			})
		},
	})

	out, err := execute(t, srv.URL, "--user", "user-1", "ledger", "consistency")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "PASSED") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	consistent = false
	out, err = execute(t, srv.URL, "--user", "user-1", "ledger", "consistency")
	if err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Fatalf("expected inconsistency error, got %v", err)
	}
	if !strings.Contains(out, "FAILED") || !strings.Contains(out, "acc-2") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := execute(t, "http://unused", "migrate", "up"); err == nil {
		t.Fatal("expected an error without a database url")
	}
}
