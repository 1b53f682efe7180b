package domain

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()

	ids := make(map[string]bool)
	var outrosIncome, outrosExpense bool
	for _, c := range cats {
		if ids[c.ID] {
			t.Errorf("duplicate id %q", c.ID)
		}
		ids[c.ID] = true
		if !c.IsDefault {
			t.Errorf("%s is not marked default", c.ID)
		}
		if !IsKnownIcon(c.IconKey) {
			t.Errorf("%s has unknown icon %q", c.ID, c.IconKey)
		}
		if c.Name == FallbackCategoryName {
			switch c.Type {
			case Income:
				outrosIncome = true
			case Expense:
				outrosExpense = true
			}
		}
	}
	if !outrosIncome || !outrosExpense {
		t.Error("expected an Outros category for each type")
	}

	cats[0].Name = "changed"
	if DefaultCategories()[0].Name == "changed" {
		t.Error("DefaultCategories shares its backing array")
	}
}

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"income", "expense"} {
		if _, err := ParseTransactionType(s); err != nil {
			t.Errorf("ParseTransactionType(%q) error = %v", s, err)
		}
	}
	if _, err := ParseTransactionType("Expense"); err == nil {
		t.Error("types are case sensitive")
	}
}

func TestComputeMonthlyStats(t *testing.T) {
	d := func(y int, m time.Month, day int) civil.Date { return civil.Date{Year: y, Month: m, Day: day} }
	txs := []Transaction{
		{Amount: decimal.NewFromInt(3000), Type: Income, Date: d(2024, time.May, 5)},
		{Amount: decimal.RequireFromString("120.40"), Type: Expense, Date: d(2024, time.May, 6)},
		{Amount: decimal.RequireFromString("79.60"), Type: Expense, Date: d(2024, time.May, 31)},
		{Amount: decimal.NewFromInt(999), Type: Expense, Date: d(2024, time.June, 1)},
		{Amount: decimal.NewFromInt(999), Type: Income, Date: d(2023, time.May, 5)},
	}

	stats := ComputeMonthlyStats(txs, 2024, time.May)

	if !stats.Income.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Income = %s", stats.Income)
	}
	if !stats.Expense.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expense = %s", stats.Expense)
	}
	if !stats.Balance.Equal(decimal.NewFromInt(2800)) {
		t.Errorf("Balance = %s", stats.Balance)
	}

	empty := ComputeMonthlyStats(nil, 2024, time.January)
	if !empty.Balance.IsZero() {
		t.Errorf("empty Balance = %s", empty.Balance)
	}
}

func TestFindCategory(t *testing.T) {
	cats := DefaultCategories()
	if c, ok := FindCategory(cats, "exp-3"); !ok || c.Name != "Transporte" {
		t.Errorf("FindCategory(exp-3) = %+v, %v", c, ok)
	}
	if _, ok := FindCategory(cats, "missing"); ok {
		t.Error("FindCategory(missing) found something")
	}
}

func TestBetween(t *testing.T) {
	d := func(day int) civil.Date { return civil.Date{Year: 2024, Month: time.March, Day: day} }
	txs := []Transaction{
		{ID: "a", Date: d(20)},
		{ID: "b", Date: d(10)},
		{ID: "c", Date: d(1)},
		{ID: "d", Date: d(31)},
	}

	got := Between(txs, d(1), d(20))
	var ids []string
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("Between() = %v, want [a b c]", ids)
	}
	if len(Between(txs, d(21), d(30))) != 0 {
		t.Error("Between() on an empty range should return nothing")
	}
}
