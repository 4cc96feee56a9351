package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/auth"
	"github.com/iho/fintrack/internal/infrastructure/logger"
	"github.com/iho/fintrack/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	userID  string
	token   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fintrack-cli",
		Short:         "Fintrack CLI tool",
		Long:          `A command line interface for interacting with the Fintrack API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Fintrack API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("FINTRACK_USER"), "User ID sent as X-User-ID")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("FINTRACK_TOKEN"), "Bearer token, takes precedence over --user")

	rootCmd.AddCommand(tokenCmd(), accountsCmd(), transactionsCmd(), reportCmd(), ledgerCmd(), migrateCmd())
	return rootCmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Authentication tokens",
	}

	var (
		secret string
		email  string
		ttl    time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Sign a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			signed, err := auth.NewJWTManager(secret, ttl).Generate(domain.Identity{UserID: args[0], Email: email})
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret shared with the server")
	issueCmd.Flags().StringVar(&email, "email", "", "Email claim")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	cmd.AddCommand(issueCmd)
	return cmd
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var activeOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts"
			if activeOnly {
				path += "?active=true"
			}

			var resp dto.ListAccountsResponse
			if _, err := apiGet(path, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tACTIVE")
			for _, a := range resp.Accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", a.ID, truncate(a.Name, 24), a.Type, a.Balance, a.Active)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().BoolVar(&activeOnly, "active", false, "Only active accounts")

	cmd.AddCommand(listCmd)
	return cmd
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}

	var (
		kind      string
		accountID string
		query     string
		limit     int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if kind != "" {
				params.Set("type", kind)
			}
			if accountID != "" {
				params.Set("account_id", accountID)
			}
			if query != "" {
				params.Set("q", query)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}

			path := "/api/v1/transactions"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			var resp dto.ListTransactionsResponse
			if _, err := apiGet(path, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tACCOUNT\tLABEL\tDESCRIPTION")
			for _, t := range resp.Transactions {
				label := t.Category
				if label == "" {
					label = t.Source
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.Date, t.Type, t.Amount, t.AccountID, truncate(label, 16), truncate(t.Description, 32))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&kind, "type", "", "income, expense or transfer")
	listCmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	listCmd.Flags().StringVar(&query, "query", "", "Substring of description, source or category")
	listCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of transactions")

	cmd.AddCommand(listCmd)
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregated reports",
	}

	monthlyCmd := &cobra.Command{
		Use:   "monthly",
		Short: "Income and expense per month",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.MonthlySeriesResponse
			if _, err := apiGet("/api/v1/reports/monthly", &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE")
			for i, m := range resp.Months {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Label, resp.Income[i], resp.Expense[i])
			}
			return w.Flush()
		},
	}

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Expense totals per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.CategoryBreakdownResponse
			if _, err := apiGet("/api/v1/reports/categories", &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tTOTAL")
			for i, c := range resp.Categories {
				fmt.Fprintf(w, "%s\t%s\n", truncate(c, 24), resp.Totals[i])
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(monthlyCmd, categoriesCmd)
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency()
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func checkConsistency() error {
	var result dto.ReconciliationResponse
	status, err := apiGet("/api/v1/ledger/consistency", &result)
	if err != nil && status != http.StatusConflict {
		return err
	}

	if !result.Consistent {
		fmt.Printf("Consistency check FAILED\n")
		printJSON(result.Discrepancies)
		return fmt.Errorf("%d of %d accounts out of balance",
			result.TotalAccounts-result.ReconciledAccounts, result.TotalAccounts)
	}

	fmt.Printf("Consistency check PASSED\n")
	fmt.Printf("Accounts: %d\n", result.TotalAccounts)
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var (
		databaseURL string
		path        string
	)
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", "migrations", "Migrations directory")

	log := logger.New(logger.Config{Level: "info", Format: "console", Output: os.Stderr})
	run := func(apply func(string, string, zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return apply(databaseURL, path, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(postgres.RunMigrations)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", RunE: run(postgres.RunMigrationsDown)},
	)
	return cmd
}

// apiGet fetches path and decodes the JSON body into out. The status code is
// returned even when it is not 200.
func apiGet(path string, out any) (int, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	switch {
	case token != "":
		req.Header.Set("Authorization", "Bearer "+token)
	case userID != "":
		req.Header.Set("X-User-ID", userID)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			err = fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		} else {
			err = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
		if resp.StatusCode != http.StatusConflict {
			return resp.StatusCode, err
		}
	}

	if decodeErr := json.Unmarshal(body, out); decodeErr != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	return resp.StatusCode, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
