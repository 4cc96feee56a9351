package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxDescriptionLength = 1024
	MaxLabelLength       = 128
	MaxAmount            = "1000000000000" // 1 trillion
	MaxAmountScale       = 2               // NUMERIC(20, 2) in storage
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return NewValidationError(RuleAccountName, fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName))
	}

	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return NewValidationError(RuleAccountName,
			fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength))
	}

	return nil
}

// ValidateOpeningBalance rejects negative opening balances.
func ValidateOpeningBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return NewValidationError(RuleOpeningBalance, ErrNegativeOpeningBalance)
	}
	if balance.GreaterThan(maxAmount) {
		return NewValidationError(RuleOpeningBalance, ErrAmountTooLarge)
	}
	return validateScale(balance)
}

// ValidateAmount validates a transaction or transfer amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError(RuleAmount, ErrInvalidAmount)
	}

	if amount.GreaterThan(maxAmount) {
		return NewValidationError(RuleAmount, fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount))
	}

	return validateScale(amount)
}

// validateScale rejects values storage would round. Trailing zeros are fine.
func validateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return NewValidationError(RuleAmountScale, ErrAmountScale)
	}
	return nil
}

// ValidateLabel bounds the source of an income or the category of an expense.
func ValidateLabel(label string) error {
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return NewValidationError(RuleLabel,
			fmt.Errorf("%w: limit is %d characters", ErrLabelTooLong, MaxLabelLength))
	}
	return nil
}

// ValidateDescription bounds free text attached to a transaction.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return NewValidationError(RuleDescription,
			fmt.Errorf("%w: limit is %d characters", ErrDescriptionTooLong, MaxDescriptionLength))
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
