// Package export renders the ledger as CSV and delivers it to the
// configured destinations.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dvloznov/financas-pro/internal/domain"
)

// Filename is the name of the exported document.
const Filename = "financas_pro_dados.csv"

// UnknownCategory is written when a transaction's category no longer exists.
const UnknownCategory = "Unknown"

var header = []string{"Date", "Description", "Category", "Type", "Amount"}

// WriteCSV writes one row per transaction, in the given order, after a
// header row. Category names are looked up by id.
func WriteCSV(w io.Writer, txs []domain.Transaction, cats []domain.Category) error {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	for _, t := range txs {
		name, ok := names[t.CategoryID]
		if !ok {
			name = UnknownCategory
		}
		row := []string{
			t.Date.String(),
			t.Description,
			name,
			string(t.Type),
			t.Amount.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCSV: row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: flush: %w", err)
	}
	return nil
}

// RenderCSV returns the CSV document as bytes.
func RenderCSV(txs []domain.Transaction, cats []domain.Category) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs, cats); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
