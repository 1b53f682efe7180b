// Package reconcile applies interpreted intents to the ledger and produces
// the assistant's reply.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/intent"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/nlu"
	"github.com/dvloznov/financas-pro/internal/resolver"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger is the part of the ledger store the reconciler reads and mutates.
type Ledger interface {
	Snapshot() ledger.Snapshot
	InsertTransaction(ctx context.Context, t domain.Transaction)
	InsertCategory(ctx context.Context, c domain.Category)
}

// Exporter produces the CSV export of the ledger.
type Exporter interface {
	Export(ctx context.Context, txs []domain.Transaction, cats []domain.Category) error
}

// Result is the outcome of one reconciliation.
type Result struct {
	Message     string
	Transaction *domain.Transaction // set when a transaction was created
	Category    *domain.Category    // set when a category was created
	Exported    bool
}

// Mutated reports whether the ledger changed.
func (r Result) Mutated() bool {
	return r.Transaction != nil || r.Category != nil
}

// Reconciler turns intents into ledger mutations and replies.
type Reconciler struct {
	ledger   Ledger
	exporter Exporter
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the clock used to default transaction dates.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithIDGenerator overrides how new entity ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(r *Reconciler) { r.newID = newID }
}

// New creates a Reconciler.
func New(l Ledger, exporter Exporter, log zerolog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		ledger:   l,
		exporter: exporter,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile validates in and applies it. Malformed intents are answered
// with MsgRephrase and change nothing.
func (r *Reconciler) Reconcile(ctx context.Context, in intent.Intent) Result {
	if err := intent.Validate(in); err != nil {
		var merr *intent.MalformedIntentError
		if errors.As(err, &merr) {
			r.log.Warn().Str("action", string(merr.Action)).Strs("missing", merr.Missing).Msg("Malformed intent")
		}
		return Result{Message: MsgRephrase}
	}
	return intent.Visit[Result](in, &turn{r: r, ctx: ctx})
}

// Failure returns the reply for a failed interpretation. Only interpreter
// failures are expected here; anything else is logged as unexpected.
func (r *Reconciler) Failure(err error) Result {
	var uerr *nlu.UnavailableError
	if errors.As(err, &uerr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		r.log.Warn().Err(err).Msg("Interpreter unavailable")
	} else {
		r.log.Error().Err(err).Msg("Unexpected interpretation failure")
	}
	return Result{Message: MsgConnectionError}
}

// turn carries the per-call context into the intent visitor.
type turn struct {
	r   *Reconciler
	ctx context.Context
}

func (t *turn) CreateTransaction(in intent.CreateTransaction) Result {
	r := t.r
	snap := r.ledger.Snapshot()

	date := domain.DateOf(r.now())
	if in.Date != nil {
		date = *in.Date
	}

	tx := domain.Transaction{
		ID:          r.newID(),
		Description: in.Description,
		Amount:      *in.Amount,
		Type:        in.Type,
		Date:        date,
	}

	categoryName := domain.UnknownCategoryLabel
	if c, ok := resolver.Resolve(snap.Categories, in.CategoryName, in.Type); ok {
		tx.CategoryID = c.ID
		categoryName = c.Name
	} else {
		r.log.Warn().Str("transaction_id", tx.ID).Msg("No categories available, recording transaction without category")
	}

	r.ledger.InsertTransaction(t.ctx, tx)

	r.log.Info().
		Str("transaction_id", tx.ID).
		Str("category_id", tx.CategoryID).
		Str("type", string(tx.Type)).
		Msg("Transaction created from chat")

	return Result{
		Message:     fmt.Sprintf(transactionCreatedFormat, tx.Description, tx.Amount.String(), categoryName),
		Transaction: &tx,
	}
}

func (t *turn) CreateCategory(in intent.CreateCategory) Result {
	r := t.r

	iconKey := in.IconKey
	if !domain.IsKnownIcon(iconKey) {
		iconKey = domain.FallbackIconKey
	}

	// Chat-created categories are always expenses, whatever was inferred.
	c := domain.Category{
		ID:        r.newID(),
		Name:      in.Name,
		Color:     domain.AccentColor,
		IconKey:   iconKey,
		Type:      domain.Expense,
		IsDefault: false,
	}
	r.ledger.InsertCategory(t.ctx, c)

	r.log.Info().
		Str("category_id", c.ID).
		Str("icon_key", c.IconKey).
		Str("inferred_type", string(in.Type)).
		Msg("Category created from chat")

	return Result{
		Message:  fmt.Sprintf(categoryCreatedFormat, c.Name),
		Category: &c,
	}
}

func (t *turn) ExportData(intent.ExportData) Result {
	r := t.r
	if r.exporter == nil {
		r.log.Error().Msg("Export requested but no exporter configured")
		return Result{Message: MsgExportFailed}
	}

	snap := r.ledger.Snapshot()
	if err := r.exporter.Export(t.ctx, snap.Transactions, snap.Categories); err != nil {
		r.log.Error().Err(err).Msg("Export failed")
		return Result{Message: MsgExportFailed}
	}
	return Result{Message: MsgExported, Exported: true}
}

func (t *turn) AnswerQuery(in intent.AnswerQuery) Result {
	if in.Text == "" {
		return Result{Message: MsgAnswerFallback}
	}
	return Result{Message: in.Text}
}

func (t *turn) Unrecognized(in intent.Unrecognized) Result {
	if in.Text != "" {
		t.r.log.Debug().Str("suggested_reply", in.Text).Msg("Unrecognized intent")
	}
	return Result{Message: MsgRephrase}
}

var _ intent.Visitor[Result] = (*turn)(nil)
