package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlySeries holds income and expense totals per calendar month.
// Months, Income and Expense are index-aligned.
type MonthlySeries struct {
	Months  []Month
	Income  []decimal.Decimal
	Expense []decimal.Decimal
}

// CategoryBreakdown holds expense totals per category in first-seen order.
// Categories and Totals are index-aligned.
type CategoryBreakdown struct {
	Categories []string
	Totals     []decimal.Decimal
}

// BuildMonthlySeries buckets transactions by the (year, month) of their date.
// Months are sorted chronologically; a month with no income (or no expense) reports zero.
func BuildMonthlySeries(transactions []Transaction) MonthlySeries {
	income := make(map[Month]decimal.Decimal)
	expense := make(map[Month]decimal.Decimal)
	seen := make(map[Month]struct{})

	for i := range transactions {
		t := &transactions[i]
		key := t.Date.MonthKey()

		switch t.Type {
		case TransactionTypeIncome:
			income[key] = income[key].Add(t.Amount)
		case TransactionTypeExpense:
			expense[key] = expense[key].Add(t.Amount)
		default:
			continue
		}
		seen[key] = struct{}{}
	}

	months := make([]Month, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := MonthlySeries{
		Months:  months,
		Income:  make([]decimal.Decimal, len(months)),
		Expense: make([]decimal.Decimal, len(months)),
	}
	for i, m := range months {
		// Missing keys yield the zero Decimal.
		series.Income[i] = income[m]
		series.Expense[i] = expense[m]
	}

	return series
}

// BuildCategoryBreakdown sums expense amounts per category.
// Expenses without a category are counted as Uncategorized.
func BuildCategoryBreakdown(transactions []Transaction) CategoryBreakdown {
	index := make(map[string]int)
	breakdown := CategoryBreakdown{
		Categories: []string{},
		Totals:     []decimal.Decimal{},
	}

	for i := range transactions {
		t := &transactions[i]
		if t.Type != TransactionTypeExpense {
			continue
		}

		category := t.Category()
		pos, ok := index[category]
		if !ok {
			pos = len(breakdown.Categories)
			index[category] = pos
			breakdown.Categories = append(breakdown.Categories, category)
			breakdown.Totals = append(breakdown.Totals, decimal.Zero)
		}
		breakdown.Totals[pos] = breakdown.Totals[pos].Add(t.Amount)
	}

	return breakdown
}
