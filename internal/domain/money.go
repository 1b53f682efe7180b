package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the ISO code every amount is recorded in.
const Currency = money.BRL

// FormatBRL renders an amount as Brazilian reais, e.g. R$1.234,56.
func FormatBRL(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}
