package intent

import (
	"errors"
	"testing"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/shopspring/decimal"
)

type actionVisitor struct{}

func (actionVisitor) CreateTransaction(CreateTransaction) string { return "tx" }
func (actionVisitor) CreateCategory(CreateCategory) string       { return "cat" }
func (actionVisitor) ExportData(ExportData) string               { return "export" }
func (actionVisitor) AnswerQuery(AnswerQuery) string             { return "answer" }
func (actionVisitor) Unrecognized(Unrecognized) string           { return "unrecognized" }

func TestVisit(t *testing.T) {
	tests := []struct {
		in   Intent
		want string
	}{
		{CreateTransaction{}, "tx"},
		{CreateCategory{}, "cat"},
		{ExportData{}, "export"},
		{AnswerQuery{}, "answer"},
		{Unrecognized{}, "unrecognized"},
		{nil, "unrecognized"},
	}

	for _, tt := range tests {
		if got := Visit[string](tt.in, actionVisitor{}); got != tt.want {
			t.Errorf("Visit(%T) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	amount := decimal.NewFromInt(25)

	tests := []struct {
		name        string
		in          Intent
		wantMissing []string
	}{
		{
			name: "complete transaction",
			in:   CreateTransaction{Description: "Lunch", Amount: &amount, Type: domain.Expense},
		},
		{
			name:        "transaction without amount",
			in:          CreateTransaction{Description: "Lunch", Type: domain.Expense},
			wantMissing: []string{"amount"},
		},
		{
			name:        "transaction without anything",
			in:          CreateTransaction{},
			wantMissing: []string{"description", "amount", "type"},
		},
		{
			name:        "transaction with unknown type",
			in:          CreateTransaction{Description: "Lunch", Amount: &amount, Type: "transfer"},
			wantMissing: []string{"type"},
		},
		{
			name:        "category without name",
			in:          CreateCategory{IconKey: "Dog"},
			wantMissing: []string{"name"},
		},
		{
			name: "category with name",
			in:   CreateCategory{Name: "Pets"},
		},
		{
			name: "export needs nothing",
			in:   ExportData{},
		},
		{
			name: "answer without text is fine",
			in:   AnswerQuery{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if len(tt.wantMissing) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var merr *MalformedIntentError
			if !errors.As(err, &merr) {
				t.Fatalf("Validate() = %v, want MalformedIntentError", err)
			}
			if merr.Action != tt.in.Action() {
				t.Errorf("Action = %q, want %q", merr.Action, tt.in.Action())
			}
			if len(merr.Missing) != len(tt.wantMissing) {
				t.Fatalf("Missing = %v, want %v", merr.Missing, tt.wantMissing)
			}
			for i := range tt.wantMissing {
				if merr.Missing[i] != tt.wantMissing[i] {
					t.Errorf("Missing[%d] = %q, want %q", i, merr.Missing[i], tt.wantMissing[i])
				}
			}
		})
	}
}
