package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/chat"
	"github.com/dvloznov/financas-pro/internal/confirm"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/intent"
	"github.com/dvloznov/financas-pro/internal/jobs/inmemory"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/nlu"
	"github.com/dvloznov/financas-pro/internal/reconcile"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type mockExporter struct {
	calls int
	err   error
}

func (m *mockExporter) Export(ctx context.Context, txs []domain.Transaction, cats []domain.Category) error {
	m.calls++
	return m.err
}

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.Local)

func newTestService(t *testing.T, store *ledger.Store, exp reconcile.Exporter) *Service {
	t.Helper()
	interp := nlu.InterpreterFunc(func(ctx context.Context, text string, _ []domain.Category, _ []domain.Transaction) (intent.Intent, error) {
		return intent.AnswerQuery{Text: "ok"}, nil
	})
	rec := reconcile.New(store, exp, zerolog.Nop())
	session := chat.NewSession(store, interp, rec, inmemory.NewQueue(4, nil), zerolog.Nop())
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = session.Stop(context.Background()) })

	return NewService(store, session, exp, zerolog.Nop(), WithClock(func() time.Time { return fixedNow }))
}

// neverAsked fails the test when a confirmation is requested.
func neverAsked(t *testing.T) confirm.Confirmer {
	return confirm.Func(func(ctx context.Context, prompt string) (bool, error) {
		t.Errorf("unexpected confirmation %q", prompt)
		return false, nil
	})
}

func TestAddTransaction(t *testing.T) {
	tests := []struct {
		name    string
		in      NewTransaction
		wantErr bool
	}{
		{
			name: "valid with date",
			in:   NewTransaction{Description: "Aluguel", Amount: decimal.NewFromInt(1200), Type: domain.Expense, CategoryID: "exp-2", Date: civil.Date{Year: 2024, Month: time.May, Day: 1}},
		},
		{
			name: "defaults to today",
			in:   NewTransaction{Description: "Salário", Amount: decimal.NewFromInt(5000), Type: domain.Income, CategoryID: "inc-1"},
		},
		{name: "missing description", in: NewTransaction{Amount: decimal.NewFromInt(1), Type: domain.Expense, CategoryID: "exp-1"}, wantErr: true},
		{name: "zero amount", in: NewTransaction{Description: "x", Type: domain.Expense, CategoryID: "exp-1"}, wantErr: true},
		{name: "negative amount", in: NewTransaction{Description: "x", Amount: decimal.NewFromInt(-5), Type: domain.Expense, CategoryID: "exp-1"}, wantErr: true},
		{name: "bad type", in: NewTransaction{Description: "x", Amount: decimal.NewFromInt(1), Type: "gift", CategoryID: "exp-1"}, wantErr: true},
		{name: "unknown category", in: NewTransaction{Description: "x", Amount: decimal.NewFromInt(1), Type: domain.Expense, CategoryID: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := ledger.New(nil, nil)
			svc := newTestService(t, store, &mockExporter{})

			got, err := svc.AddTransaction(context.Background(), tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("AddTransaction() error = %v, want ErrInvalidInput", err)
				}
				if len(store.Transactions()) != 0 {
					t.Error("invalid transaction was stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("AddTransaction() error = %v", err)
			}

			wantDate := tt.in.Date
			if wantDate.IsZero() {
				wantDate = civil.Date{Year: 2024, Month: time.May, Day: 10}
			}
			if got.Date != wantDate {
				t.Errorf("Date = %v, want %v", got.Date, wantDate)
			}
			if got.ID == "" {
				t.Error("ID not assigned")
			}
			if txs := store.Transactions(); len(txs) != 1 || txs[0].ID != got.ID {
				t.Errorf("stored = %+v", txs)
			}
		})
	}
}

func TestCreateCategory(t *testing.T) {
	store := ledger.New(nil, nil)
	svc := newTestService(t, store, &mockExporter{})

	c, err := svc.CreateCategory(context.Background(), NewCategory{Name: " Freelance ", IconKey: "Briefcase", Type: domain.Income})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if c.Name != "Freelance" || c.IconKey != "Briefcase" || c.Color != domain.AccentColor || c.Type != domain.Income || c.IsDefault {
		t.Errorf("unexpected category %+v", c)
	}

	c, err = svc.CreateCategory(context.Background(), NewCategory{Name: "Pets", IconKey: "NotARealIcon", Color: "#10b981", Type: domain.Expense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if c.IconKey != domain.FallbackIconKey || c.Color != "#10b981" {
		t.Errorf("unexpected category %+v", c)
	}

	if _, err := svc.CreateCategory(context.Background(), NewCategory{Type: domain.Expense}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CreateCategory() without name error = %v", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	store := ledger.New([]domain.Transaction{{ID: "t1"}, {ID: "t2"}}, nil)
	svc := newTestService(t, store, &mockExporter{})

	done, err := svc.DeleteTransaction(ctx, "t1", confirm.Static(false))
	if err != nil || done {
		t.Fatalf("declined DeleteTransaction() = %v, %v", done, err)
	}
	if len(store.Transactions()) != 2 {
		t.Error("declined confirmation deleted the transaction")
	}

	var prompt string
	approve := confirm.Func(func(ctx context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})
	done, err = svc.DeleteTransaction(ctx, "t1", approve)
	if err != nil || !done {
		t.Fatalf("DeleteTransaction() = %v, %v", done, err)
	}
	if prompt != confirm.DeleteTransactionPrompt {
		t.Errorf("prompt = %q", prompt)
	}
	if txs := store.Transactions(); len(txs) != 1 || txs[0].ID != "t2" {
		t.Errorf("remaining = %+v", txs)
	}
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("default category refused without asking", func(t *testing.T) {
		store := ledger.New(nil, nil)
		svc := newTestService(t, store, &mockExporter{})

		done, err := svc.DeleteCategory(ctx, "inc-1", neverAsked(t))
		var perr *ledger.ProtectedCategoryError
		if !errors.As(err, &perr) {
			t.Fatalf("DeleteCategory() error = %v, want ProtectedCategoryError", err)
		}
		if done || perr.Name != "Salário" {
			t.Errorf("done = %v, err = %+v", done, perr)
		}
		if _, ok := store.Category("inc-1"); !ok {
			t.Error("default category was removed")
		}
	})

	t.Run("user category after approval", func(t *testing.T) {
		cats := append(domain.DefaultCategories(), domain.Category{ID: "c-pets", Name: "Pets", Type: domain.Expense})
		store := ledger.New([]domain.Transaction{{ID: "t1", CategoryID: "c-pets"}}, cats)
		svc := newTestService(t, store, &mockExporter{})

		done, err := svc.DeleteCategory(ctx, "c-pets", confirm.Static(true))
		if err != nil || !done {
			t.Fatalf("DeleteCategory() = %v, %v", done, err)
		}
		if _, ok := store.Category("c-pets"); ok {
			t.Error("category still present")
		}
		if got := svc.CategoryName("c-pets"); got != domain.UnknownCategoryLabel {
			t.Errorf("CategoryName() = %q, want %q", got, domain.UnknownCategoryLabel)
		}
		if txs := store.Transactions(); len(txs) != 1 || txs[0].CategoryID != "c-pets" {
			t.Errorf("transactions changed: %+v", txs)
		}
	})

	t.Run("declined", func(t *testing.T) {
		cats := append(domain.DefaultCategories(), domain.Category{ID: "c-pets", Name: "Pets", Type: domain.Expense})
		store := ledger.New(nil, cats)
		svc := newTestService(t, store, &mockExporter{})

		done, err := svc.DeleteCategory(ctx, "c-pets", confirm.Static(false))
		if err != nil || done {
			t.Fatalf("DeleteCategory() = %v, %v", done, err)
		}
		if _, ok := store.Category("c-pets"); !ok {
			t.Error("declined confirmation deleted the category")
		}
	})

	t.Run("confirmation error", func(t *testing.T) {
		cats := append(domain.DefaultCategories(), domain.Category{ID: "c-pets", Name: "Pets", Type: domain.Expense})
		svc := newTestService(t, ledger.New(nil, cats), &mockExporter{})

		failing := confirm.Func(func(context.Context, string) (bool, error) { return false, errors.New("stdin closed") })
		if _, err := svc.DeleteCategory(ctx, "c-pets", failing); err == nil {
			t.Error("expected error")
		}
	})
}

func TestResetData(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cats := append(domain.DefaultCategories(), domain.Category{ID: "c-pets", Name: "Pets", Type: domain.Expense})
	store := ledger.New([]domain.Transaction{{ID: "t1"}}, cats)
	svc := newTestService(t, store, &mockExporter{})

	if _, err := svc.Chat(ctx, "oi"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if done, _ := svc.ResetData(ctx, confirm.Static(false)); done {
		t.Fatal("declined reset reported done")
	}
	if len(store.Transactions()) != 1 || len(svc.Messages()) != 2 {
		t.Fatal("declined reset changed data")
	}

	done, err := svc.ResetData(ctx, confirm.Static(true))
	if err != nil || !done {
		t.Fatalf("ResetData() = %v, %v", done, err)
	}
	if len(store.Transactions()) != 0 {
		t.Error("transactions not cleared")
	}
	if got := len(store.Categories()); got != len(domain.DefaultCategories()) {
		t.Errorf("len(categories) = %d, want defaults", got)
	}
	if len(svc.Messages()) != 0 {
		t.Error("chat history not cleared")
	}
}

func TestExportAndStats(t *testing.T) {
	may := civil.Date{Year: 2024, Month: time.May, Day: 3}
	april := civil.Date{Year: 2024, Month: time.April, Day: 30}
	store := ledger.New([]domain.Transaction{
		{ID: "1", Description: "Salário", Amount: decimal.NewFromInt(5000), Type: domain.Income, CategoryID: "inc-1", Date: may},
		{ID: "2", Description: "Mercado", Amount: decimal.RequireFromString("350.25"), Type: domain.Expense, CategoryID: "exp-1", Date: may},
		{ID: "3", Description: "Luz", Amount: decimal.NewFromInt(200), Type: domain.Expense, CategoryID: "exp-6", Date: april},
	}, nil)
	exp := &mockExporter{}
	svc := newTestService(t, store, exp)

	if err := svc.Export(context.Background()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if exp.calls != 1 {
		t.Errorf("exporter calls = %d", exp.calls)
	}

	stats := svc.CurrentStats()
	if !stats.Income.Equal(decimal.NewFromInt(5000)) || !stats.Expense.Equal(decimal.RequireFromString("350.25")) {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.Balance.Equal(decimal.RequireFromString("4649.75")) {
		t.Errorf("Balance = %s", stats.Balance)
	}

	data, err := svc.RenderCSV()
	if err != nil {
		t.Fatalf("RenderCSV() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("empty CSV")
	}
}
