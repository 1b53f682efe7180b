// Package ledger owns the in-memory collections of transactions and
// categories. Only the Store mutates them; everybody else works on copies.
package ledger

import (
	"context"
	"slices"
	"sync"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/events"
	"github.com/rs/zerolog"
)

// Persister writes full collections to durable storage. Implementations
// must not retain the slices they are given.
type Persister interface {
	SaveTransactions(ctx context.Context, txs []domain.Transaction) error
	SaveCategories(ctx context.Context, cats []domain.Category) error
}

// Snapshot is a read-only copy of the ledger taken under a single lock.
type Snapshot struct {
	Transactions []domain.Transaction
	Categories   []domain.Category
}

// Store holds the authoritative ledger. It is safe for concurrent use.
//
// Persistence and event publication are best effort: failures are logged
// and never roll back the in-memory mutation.
type Store struct {
	mu           sync.Mutex
	transactions []domain.Transaction // newest first
	categories   []domain.Category

	persister Persister
	publisher events.Publisher
	log       zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister sets where mutations are written.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithPublisher sets where change events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates a Store seeded with the given collections. A nil categories
// slice seeds the default categories.
func New(txs []domain.Transaction, cats []domain.Category, opts ...Option) *Store {
	if cats == nil {
		cats = domain.DefaultCategories()
	}
	s := &Store{
		transactions: slices.Clone(txs),
		categories:   slices.Clone(cats),
		publisher:    events.Noop{},
		log:          zerolog.Nop(),
	}
	if s.transactions == nil {
		s.transactions = []domain.Transaction{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transactions returns the transactions, newest inserted first.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transactions)
}

// Categories returns the categories in collection order.
func (s *Store) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories)
}

// Snapshot returns both collections as of the same instant.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Transactions: slices.Clone(s.transactions),
		Categories:   slices.Clone(s.categories),
	}
}

// Category looks up a category by id.
func (s *Store) Category(id string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FindCategory(s.categories, id)
}

// InsertTransaction prepends t.
func (s *Store) InsertTransaction(ctx context.Context, t domain.Transaction) {
	s.mu.Lock()
	s.transactions = slices.Insert(s.transactions, 0, t)
	s.persistTransactions(ctx)
	s.mu.Unlock()

	e := events.New(events.TransactionCreated, t.ID)
	e.Transaction = &t
	s.publish(ctx, e)
}

// DeleteTransaction removes the transaction with the given id. Unknown ids
// are ignored.
func (s *Store) DeleteTransaction(ctx context.Context, id string) {
	s.mu.Lock()
	i := slices.IndexFunc(s.transactions, func(t domain.Transaction) bool { return t.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	s.persistTransactions(ctx)
	s.mu.Unlock()

	s.publish(ctx, events.New(events.TransactionDeleted, id))
}

// InsertCategory appends c.
func (s *Store) InsertCategory(ctx context.Context, c domain.Category) {
	s.mu.Lock()
	s.categories = append(s.categories, c)
	s.persistCategories(ctx)
	s.mu.Unlock()

	e := events.New(events.CategoryCreated, c.ID)
	e.Category = &c
	s.publish(ctx, e)
}

// DeleteCategory removes the category with the given id. Default categories
// are refused with *ProtectedCategoryError before anything changes. Unknown
// ids are ignored. Transactions referencing the category are left as they are.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.categories, func(c domain.Category) bool { return c.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	if c := s.categories[i]; c.IsDefault {
		s.mu.Unlock()
		return &ProtectedCategoryError{ID: c.ID, Name: c.Name}
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	s.persistCategories(ctx)
	s.mu.Unlock()

	s.publish(ctx, events.New(events.CategoryDeleted, id))
	return nil
}

// ResetAll drops every transaction and restores the default categories.
func (s *Store) ResetAll(ctx context.Context) {
	s.mu.Lock()
	s.transactions = []domain.Transaction{}
	s.categories = domain.DefaultCategories()
	s.persistTransactions(ctx)
	s.persistCategories(ctx)
	s.mu.Unlock()

	s.publish(ctx, events.New(events.LedgerReset, ""))
}

// persistTransactions must be called with mu held so writes land in
// mutation order.
func (s *Store) persistTransactions(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveTransactions(ctx, s.transactions); err != nil {
		s.log.Warn().Err(err).Int("count", len(s.transactions)).Msg("Failed to persist transactions")
	}
}

// persistCategories must be called with mu held.
func (s *Store) persistCategories(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveCategories(ctx, s.categories); err != nil {
		s.log.Warn().Err(err).Int("count", len(s.categories)).Msg("Failed to persist categories")
	}
}

func (s *Store) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("Failed to publish ledger event")
	}
}
