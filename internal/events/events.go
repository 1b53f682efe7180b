// Package events publishes ledger changes to a message broker so other
// services can follow the ledger without reading its storage.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/google/uuid"
)

// Type names a kind of ledger change.
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionDeleted Type = "transaction.deleted"
	CategoryCreated    Type = "category.created"
	CategoryDeleted    Type = "category.deleted"
	LedgerReset        Type = "ledger.reset"
)

// Event is the envelope published for every ledger mutation.
type Event struct {
	ID          string              `json:"id"`
	Type        Type                `json:"type"`
	OccurredAt  time.Time           `json:"occurred_at"`
	EntityID    string              `json:"entity_id,omitempty"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	Category    *domain.Category    `json:"category,omitempty"`
}

// New creates an event of the given type stamped with a fresh id.
func New(t Type, entityID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		EntityID:   entityID,
	}
}

// ToJSON encodes the event for the wire.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                          { return nil }

var _ Publisher = Noop{}
