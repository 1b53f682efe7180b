package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Document is what destinations receive: the rendered CSV plus the
// collections it was rendered from, for destinations that want rows.
type Document struct {
	Filename     string
	CSV          []byte
	Transactions []domain.Transaction
	Categories   []domain.Category
}

// Destination receives an exported document.
type Destination interface {
	Name() string
	Deliver(ctx context.Context, doc Document) error
}

// Exporter renders the ledger once and fans it out to every destination.
type Exporter struct {
	destinations []Destination
	log          zerolog.Logger
}

// NewExporter creates an exporter delivering to the given destinations.
func NewExporter(log zerolog.Logger, destinations ...Destination) *Exporter {
	return &Exporter{
		destinations: destinations,
		log:          log,
	}
}

// Export renders the CSV and delivers it concurrently. It fails if any
// destination fails; the others still run to completion.
func (e *Exporter) Export(ctx context.Context, txs []domain.Transaction, cats []domain.Category) error {
	if len(e.destinations) == 0 {
		return errors.New("Export: no destinations configured")
	}

	data, err := RenderCSV(txs, cats)
	if err != nil {
		return fmt.Errorf("Export: %w", err)
	}
	doc := Document{
		Filename:     Filename,
		CSV:          data,
		Transactions: txs,
		Categories:   cats,
	}

	var g errgroup.Group
	for _, d := range e.destinations {
		g.Go(func() error {
			if err := d.Deliver(ctx, doc); err != nil {
				e.log.Error().Err(err).Str("destination", d.Name()).Msg("Export delivery failed")
				return fmt.Errorf("Export: %s: %w", d.Name(), err)
			}
			e.log.Info().
				Str("destination", d.Name()).
				Int("transactions", len(txs)).
				Int("bytes", len(data)).
				Msg("Export delivered")
			return nil
		})
	}
	return g.Wait()
}
