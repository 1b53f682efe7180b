package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	// Income is money received.
	Income TransactionType = "income"
	// Expense is money spent.
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType converts free text into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid transaction type %q", s)
	}
	return t, nil
}

// Transaction is a single income or expense record. It is never mutated
// after insertion into the ledger.
//
// CategoryID is a soft reference: the category may be deleted while the
// transaction keeps pointing at it.
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"categoryId"`
	Date        civil.Date      `json:"date"` // ISO YYYY-MM-DD
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) civil.Date {
	return civil.DateOf(t)
}

// Between returns the transactions dated from start to end inclusive,
// keeping their order.
func Between(txs []Transaction, start, end civil.Date) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}
