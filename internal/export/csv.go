// Package export renders expense snapshots for external consumption.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

// csvHeader matches the columns the original spreadsheet exports used.
var csvHeader = []string{"Date", "Category", "Description", "Amount"}

// WriteCSV emits one row per expense in the order given, preceded by a
// header row. Quoting follows RFC 4180, so descriptions may contain
// commas, quotes and newlines. Amounts are plain decimals with two
// fraction digits.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			e.Date.String(),
			e.Category.String(),
			e.Description,
			e.Amount.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
