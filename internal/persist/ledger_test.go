package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type failingKV struct{ *Memory }

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(NewMemory(), zerolog.Nop())

	txs := []domain.Transaction{{
		ID:          "t1",
		Description: "Mercado",
		Amount:      decimal.RequireFromString("123.45"),
		Type:        domain.Expense,
		CategoryID:  "exp-1",
		Date:        civil.Date{Year: 2024, Month: time.March, Day: 2},
	}}
	cats := domain.DefaultCategories()[:2]

	if err := l.SaveTransactions(ctx, txs); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}
	if err := l.SaveCategories(ctx, cats); err != nil {
		t.Fatalf("SaveCategories() error = %v", err)
	}

	gotTxs, gotCats := l.Load(ctx)
	if len(gotTxs) != 1 {
		t.Fatalf("len(transactions) = %d, want 1", len(gotTxs))
	}
	got := gotTxs[0]
	if got.ID != "t1" || got.CategoryID != "exp-1" || got.Date != txs[0].Date || !got.Amount.Equal(txs[0].Amount) {
		t.Errorf("transaction = %+v, want %+v", got, txs[0])
	}
	if len(gotCats) != 2 || gotCats[1] != cats[1] {
		t.Errorf("categories = %+v", gotCats)
	}
}

func TestLedger_LoadFallbacks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		kv           KV
		seed         map[string]string
		wantTxs      int
		wantCatsNil  bool
		wantCatCount int
	}{
		{
			name:        "nothing stored",
			kv:          NewMemory(),
			wantCatsNil: true,
		},
		{
			name:        "corrupt data",
			kv:          NewMemory(),
			seed:        map[string]string{KeyTransactions: `{not json`, KeyCategories: `[{"id":`},
			wantCatsNil: true,
		},
		{
			name:         "empty category list stays empty",
			kv:           NewMemory(),
			seed:         map[string]string{KeyCategories: `[]`},
			wantCatCount: 0,
		},
		{
			name:         "numeric amounts",
			kv:           NewMemory(),
			seed:         map[string]string{KeyTransactions: `[{"id":"a","description":"x","amount":10.5,"type":"income","categoryId":"inc-1","date":"2024-01-31"}]`},
			wantTxs:      1,
			wantCatsNil:  true,
			wantCatCount: 0,
		},
		{
			name:        "backend failure",
			kv:          &failingKV{Memory: NewMemory()},
			wantCatsNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.seed {
				if err := tt.kv.Put(ctx, k, []byte(v)); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
			}

			txs, cats := NewLedger(tt.kv, zerolog.Nop()).Load(ctx)

			if txs == nil || len(txs) != tt.wantTxs {
				t.Errorf("transactions = %v, want %d non-nil", txs, tt.wantTxs)
			}
			if (cats == nil) != tt.wantCatsNil {
				t.Errorf("categories nil = %v, want %v", cats == nil, tt.wantCatsNil)
			}
			if !tt.wantCatsNil && len(cats) != tt.wantCatCount {
				t.Errorf("len(categories) = %d, want %d", len(cats), tt.wantCatCount)
			}
		})
	}
}
