package export

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"
)

// TransactionRow is one exported transaction in the warehouse table.
type TransactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`   // REQUIRED
	Description     string              `bigquery:"description"`      // REQUIRED
	Amount          *big.Rat            `bigquery:"amount"`           // REQUIRED NUMERIC
	Type            string              `bigquery:"type"`             // REQUIRED
	CategoryID      string              `bigquery:"category_id"`      // REQUIRED
	CategoryName    bigquery.NullString `bigquery:"category_name"`    // NULLABLE, null for dangling ids
	TransactionDate civil.Date          `bigquery:"transaction_date"` // REQUIRED
	ExportedTS      time.Time           `bigquery:"exported_ts"`      // REQUIRED
}

// BigQueryDestination streams exported transactions into a table. Rows use
// the transaction id as insert id so retried exports are de-duplicated by
// BigQuery's best-effort window.
type BigQueryDestination struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryDestination uses an existing client; the caller closes it.
func NewBigQueryDestination(client *bigquery.Client, dataset, table string) *BigQueryDestination {
	return &BigQueryDestination{client: client, dataset: dataset, table: table}
}

func (b *BigQueryDestination) Name() string { return "bigquery" }

// EnsureTable creates the export table, partitioned by transaction date,
// when it does not exist yet. It reports whether the table was created.
func (b *BigQueryDestination) EnsureTable(ctx context.Context) (bool, error) {
	table := b.client.Dataset(b.dataset).Table(b.table)

	_, err := table.Metadata(ctx)
	if err == nil {
		return false, nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return false, fmt.Errorf("EnsureTable: read metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return false, fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	meta := &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "transaction_date"},
		Description:      "Transactions exported from Finanças Pro",
	}
	if err := table.Create(ctx, meta); err != nil {
		return false, fmt.Errorf("EnsureTable: create %s.%s: %w", b.dataset, b.table, err)
	}
	return true, nil
}

// Deliver inserts one row per transaction.
func (b *BigQueryDestination) Deliver(ctx context.Context, doc Document) error {
	if len(doc.Transactions) == 0 {
		return nil
	}

	rows := transactionRows(doc, time.Now())
	savers := make([]*bigquery.StructSaver, 0, len(rows))
	for _, r := range rows {
		savers = append(savers, &bigquery.StructSaver{Struct: r, InsertID: r.TransactionID})
	}

	inserter := b.client.Dataset(b.dataset).Table(b.table).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("insert %d rows into %s.%s: %w", len(savers), b.dataset, b.table, err)
	}
	return nil
}

// transactionRows maps the document's transactions to warehouse rows.
func transactionRows(doc Document, exported time.Time) []*TransactionRow {
	names := make(map[string]string, len(doc.Categories))
	for _, c := range doc.Categories {
		names[c.ID] = c.Name
	}

	rows := make([]*TransactionRow, 0, len(doc.Transactions))
	for _, t := range doc.Transactions {
		row := &TransactionRow{
			TransactionID:   t.ID,
			Description:     t.Description,
			Amount:          t.Amount.Rat(),
			Type:            string(t.Type),
			CategoryID:      t.CategoryID,
			TransactionDate: t.Date,
			ExportedTS:      exported,
		}
		if name, ok := names[t.CategoryID]; ok {
			row.CategoryName = bigquery.NullString{StringVal: name, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}
