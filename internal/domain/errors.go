package domain

import (
	"errors"
	"fmt"
)

// Error categories. Callers branch on these with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrDataUnavailable    = errors.New("ledger data unavailable")
	ErrInvariantViolation = errors.New("ledger invariant violated")
)

// Validation rules.
const (
	RuleAccountName       = "account_name"
	RuleAccountType       = "account_type"
	RuleOpeningBalance    = "opening_balance"
	RuleAmount            = "amount"
	RuleAmountScale       = "amount_scale"
	RuleDate              = "date"
	RuleTransactionType   = "transaction_type"
	RuleSourceRequired    = "source_required"
	RuleAccountRequired   = "account_required"
	RuleSameAccount       = "same_account"
	RuleInsufficientFunds = "insufficient_funds"
	RuleTransferLeg       = "transfer_leg"
	RuleDescription       = "description"
	RuleLabel             = "label"
)

// Rule sentinels, wrapped by ValidationError.
var (
	ErrInvalidAccountName     = errors.New("invalid account name")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrNegativeOpeningBalance = errors.New("opening balance must not be negative")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrAmountTooLarge         = errors.New("amount exceeds maximum allowed")
	ErrAmountScale            = errors.New("amount has more than two decimal places")
	ErrInvalidDate            = errors.New("date must be a YYYY-MM-DD calendar date")
	ErrInvalidTransactionType = errors.New("transaction type must be income or expense")
	ErrSourceRequired         = errors.New("income requires a source")
	ErrAccountRequired        = errors.New("account id is required")
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrInsufficientFunds      = errors.New("insufficient funds in the debit account")
	ErrTransferLegImmutable   = errors.New("transfer legs cannot be edited individually")
	ErrDescriptionTooLong     = errors.New("description is too long")
	ErrLabelTooLong           = errors.New("source or category is too long")
)

// Entity kinds for NotFoundError.
const (
	KindAccount     = "account"
	KindTransaction = "transaction"
)

// ValidationError reports a rejected input together with the violated rule.
type ValidationError struct {
	Rule string
	Err  error
}

// NewValidationError wraps err as a violation of rule.
func NewValidationError(rule string, err error) *ValidationError {
	return &ValidationError{Rule: rule, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %v", e.Rule, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a missing account or transaction.
type NotFoundError struct {
	Kind string
	ID   string
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is makes every NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UnavailableError reports a failed fetch or store against the backing persistence.
type UnavailableError struct {
	Op  string
	Err error
}

// NewUnavailableError wraps a backend failure of op.
func NewUnavailableError(op string, err error) *UnavailableError {
	return &UnavailableError{Op: op, Err: err}
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrDataUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is makes every UnavailableError match ErrDataUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// RuleOf returns the violated rule of a validation error, or "".
func RuleOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Rule
	}
	return ""
}
