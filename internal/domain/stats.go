package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyStats summarizes a month of transactions.
type MonthlyStats struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// ComputeMonthlyStats totals the transactions dated in the given month.
func ComputeMonthlyStats(txs []Transaction, year int, month time.Month) MonthlyStats {
	stats := MonthlyStats{
		Year:    year,
		Month:   month,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, t := range txs {
		if t.Date.Year != year || t.Date.Month != month {
			continue
		}
		switch t.Type {
		case Income:
			stats.Income = stats.Income.Add(t.Amount)
		case Expense:
			stats.Expense = stats.Expense.Add(t.Amount)
		}
	}
	stats.Balance = stats.Income.Sub(stats.Expense)
	return stats
}
