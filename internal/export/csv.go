// Package export renders report snapshots for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"dailyboard/internal/core"
	"dailyboard/internal/report"
)

// csvHeader is the fixed column order of an exported report.
var csvHeader = []string{"date", "description", "category", "amount", "type"}

// WriteCSV streams the snapshot as CSV. Fund rows come first, then expense
// rows, both in store order. Amounts use the shortest decimal form.
func WriteCSV(w io.Writer, snap report.Snapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, f := range snap.Funds {
		row := []string{
			f.Date.String(),
			f.SourceNote,
			"",
			core.FormatCents(f.Amount.Cents),
			"fund",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write fund row: %w", err)
		}
	}

	for _, e := range snap.Expenses {
		category := e.CategoryName
		if category == "" {
			category = core.Uncategorized
		}
		row := []string{
			e.Date.String(),
			e.ItemName,
			category,
			core.FormatCents(e.TotalPrice.Cents),
			"expense",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write expense row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
