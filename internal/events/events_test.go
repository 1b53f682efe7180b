package events

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/shopspring/decimal"
)

func TestEventJSON(t *testing.T) {
	tx := domain.Transaction{
		ID:          "t1",
		Description: "Mercado",
		Amount:      decimal.RequireFromString("89.90"),
		Type:        domain.Expense,
		CategoryID:  "exp-1",
		Date:        civil.Date{Year: 2024, Month: 5, Day: 3},
	}
	e := New(TransactionCreated, tx.ID)
	e.Transaction = &tx

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got["type"] != "transaction.created" || got["entity_id"] != "t1" {
		t.Errorf("envelope = %v", got)
	}
	if _, ok := got["category"]; ok {
		t.Error("category should be omitted")
	}
	body, ok := got["transaction"].(map[string]any)
	if !ok || body["date"] != "2024-05-03" || body["amount"] != "89.9" {
		t.Errorf("transaction = %v", got["transaction"])
	}
}

func TestNewAssignsDistinctIDs(t *testing.T) {
	a, b := New(LedgerReset, ""), New(LedgerReset, "")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q", a.ID, b.ID)
	}
	if a.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var p Publisher = r
	ctx := context.Background()

	_ = p.Publish(ctx, New(CategoryCreated, "c1"))
	_ = p.Publish(ctx, New(CategoryDeleted, "c1"))

	got := r.Events()
	if len(got) != 2 || got[0].Type != CategoryCreated || got[1].Type != CategoryDeleted {
		t.Errorf("Events() = %+v", got)
	}
	got[0].Type = LedgerReset
	if r.Events()[0].Type != CategoryCreated {
		t.Error("Events() must return a copy")
	}
}
