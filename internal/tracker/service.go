// Package tracker is the application service behind the CLI and the HTTP
// API. It combines the ledger, the conversation and the exporters.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/financas-pro/internal/chat"
	"github.com/dvloznov/financas-pro/internal/confirm"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/export"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/reconcile"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks manual entries that fail validation.
var ErrInvalidInput = errors.New("invalid input")

// NewTransaction is a manually entered transaction. A zero Date means today.
type NewTransaction struct {
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	CategoryID  string                 `json:"categoryId"`
	Date        civil.Date             `json:"date"`
}

// NewCategory is a manually created category.
type NewCategory struct {
	Name    string                 `json:"name"`
	IconKey string                 `json:"iconKey"`
	Color   string                 `json:"color"`
	Type    domain.TransactionType `json:"type"`
}

// Service exposes every user operation.
type Service struct {
	store    *ledger.Store
	session  *chat.Session
	exporter reconcile.Exporter
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a Service.
func NewService(store *ledger.Store, session *chat.Session, exporter reconcile.Exporter, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		session:  session,
		exporter: exporter,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transactions returns the ledger transactions, newest first.
func (s *Service) Transactions() []domain.Transaction {
	return s.store.Transactions()
}

// Categories returns the categories in collection order.
func (s *Service) Categories() []domain.Category {
	return s.store.Categories()
}

// CategoryName returns the display name of a category, or
// domain.UnknownCategoryLabel when it no longer exists.
func (s *Service) CategoryName(id string) string {
	if c, ok := s.store.Category(id); ok {
		return c.Name
	}
	return domain.UnknownCategoryLabel
}

// AddTransaction records a manually entered transaction.
func (s *Service) AddTransaction(ctx context.Context, in NewTransaction) (domain.Transaction, error) {
	desc := strings.TrimSpace(in.Description)
	switch {
	case desc == "":
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: description is required", ErrInvalidInput)
	case !in.Amount.IsPositive():
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: amount must be positive", ErrInvalidInput)
	case !in.Type.Valid():
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: type must be income or expense", ErrInvalidInput)
	}
	if _, ok := s.store.Category(in.CategoryID); !ok {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: unknown category %q", ErrInvalidInput, in.CategoryID)
	}

	date := in.Date
	if date.IsZero() {
		date = domain.DateOf(s.now())
	} else if !date.IsValid() {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: invalid date %s", ErrInvalidInput, date)
	}

	t := domain.Transaction{
		ID:          s.newID(),
		Description: desc,
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		Date:        date,
	}
	s.store.InsertTransaction(ctx, t)
	s.log.Info().Str("transaction_id", t.ID).Msg("Transaction added")
	return t, nil
}

// CreateCategory adds a user category. Unknown icons and an empty colour
// fall back to the defaults used for chat-created categories.
func (s *Service) CreateCategory(ctx context.Context, in NewCategory) (domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("CreateCategory: %w: name is required", ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return domain.Category{}, fmt.Errorf("CreateCategory: %w: type must be income or expense", ErrInvalidInput)
	}

	c := domain.Category{
		ID:        s.newID(),
		Name:      name,
		Color:     in.Color,
		IconKey:   in.IconKey,
		Type:      in.Type,
		IsDefault: false,
	}
	if !domain.IsKnownIcon(c.IconKey) {
		c.IconKey = domain.FallbackIconKey
	}
	if c.Color == "" {
		c.Color = domain.AccentColor
	}

	s.store.InsertCategory(ctx, c)
	s.log.Info().Str("category_id", c.ID).Msg("Category created")
	return c, nil
}

// DeleteTransaction removes a transaction once c approves. It reports
// whether the deletion was carried out.
func (s *Service) DeleteTransaction(ctx context.Context, id string, c confirm.Confirmer) (bool, error) {
	ok, err := c.Confirm(ctx, confirm.DeleteTransactionPrompt)
	if err != nil {
		return false, fmt.Errorf("DeleteTransaction: %w", err)
	}
	if !ok {
		return false, nil
	}
	s.store.DeleteTransaction(ctx, id)
	return true, nil
}

// DeleteCategory removes a user category once c approves. Default
// categories are refused with *ledger.ProtectedCategoryError without
// asking.
func (s *Service) DeleteCategory(ctx context.Context, id string, c confirm.Confirmer) (bool, error) {
	if cat, found := s.store.Category(id); found && cat.IsDefault {
		return false, &ledger.ProtectedCategoryError{ID: cat.ID, Name: cat.Name}
	}

	ok, err := c.Confirm(ctx, confirm.DeleteCategoryPrompt)
	if err != nil {
		return false, fmt.Errorf("DeleteCategory: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// ResetData wipes the ledger and the conversation once c approves.
func (s *Service) ResetData(ctx context.Context, c confirm.Confirmer) (bool, error) {
	ok, err := c.Confirm(ctx, confirm.ResetPrompt)
	if err != nil {
		return false, fmt.Errorf("ResetData: %w", err)
	}
	if !ok {
		return false, nil
	}
	s.store.ResetAll(ctx)
	if s.session != nil {
		s.session.Reset()
	}
	s.log.Warn().Msg("All data reset")
	return true, nil
}

// Export sends the CSV export to the configured destinations.
func (s *Service) Export(ctx context.Context) error {
	if s.exporter == nil {
		return errors.New("Export: no exporter configured")
	}
	snap := s.store.Snapshot()
	if err := s.exporter.Export(ctx, snap.Transactions, snap.Categories); err != nil {
		return fmt.Errorf("Export: %w", err)
	}
	return nil
}

// RenderCSV returns the CSV export without delivering it anywhere.
func (s *Service) RenderCSV() ([]byte, error) {
	snap := s.store.Snapshot()
	return export.RenderCSV(snap.Transactions, snap.Categories)
}

// Stats totals the given month.
func (s *Service) Stats(year int, month time.Month) domain.MonthlyStats {
	return domain.ComputeMonthlyStats(s.store.Transactions(), year, month)
}

// CurrentStats totals the current month.
func (s *Service) CurrentStats() domain.MonthlyStats {
	now := s.now()
	return s.Stats(now.Year(), now.Month())
}

// Chat sends text to the assistant and waits for the reply.
func (s *Service) Chat(ctx context.Context, text string) (chat.Reply, error) {
	return s.session.Send(ctx, text)
}

// SubmitChat queues text for the assistant without waiting.
func (s *Service) SubmitChat(ctx context.Context, text string) (*chat.Pending, error) {
	return s.session.Submit(ctx, text)
}

// Messages returns the conversation history.
func (s *Service) Messages() []domain.ChatMessage {
	return s.session.Messages()
}

// Busy reports whether the assistant is still working on a message.
func (s *Service) Busy() bool {
	return s.session.Busy()
}
