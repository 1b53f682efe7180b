package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/rs/zerolog"
)

// Ledger reads and writes the ledger collections through a KV.
type Ledger struct {
	kv  KV
	log zerolog.Logger
}

// NewLedger wraps kv.
func NewLedger(kv KV, log zerolog.Logger) *Ledger {
	return &Ledger{kv: kv, log: log}
}

// SaveTransactions writes the full transaction list.
func (l *Ledger) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	return l.put(ctx, KeyTransactions, txs)
}

// SaveCategories writes the full category list.
func (l *Ledger) SaveCategories(ctx context.Context, cats []domain.Category) error {
	return l.put(ctx, KeyCategories, cats)
}

func (l *Ledger) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("put: marshal %s: %w", key, err)
	}
	if err := l.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// Load reads both collections. A missing or unreadable transaction list
// loads as empty; a missing or unreadable category list loads as nil, which
// the ledger store replaces with the default categories.
func (l *Ledger) Load(ctx context.Context) ([]domain.Transaction, []domain.Category) {
	txs := []domain.Transaction{}
	if err := l.get(ctx, KeyTransactions, &txs); err != nil {
		txs = []domain.Transaction{}
	}

	var cats []domain.Category
	if err := l.get(ctx, KeyCategories, &cats); err != nil {
		cats = nil
	}

	l.log.Info().Int("transactions", len(txs)).Bool("default_categories", cats == nil).Msg("Ledger loaded")
	return txs, cats
}

func (l *Ledger) get(ctx context.Context, key string, v any) error {
	data, err := l.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("Failed to read stored collection, using fallback")
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("Stored collection is not valid JSON, using fallback")
		return err
	}
	return nil
}

// Close closes the underlying KV.
func (l *Ledger) Close() error {
	return l.kv.Close()
}
