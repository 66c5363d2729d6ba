// =============================================================================
// Payment Statement Merger - CSV Audit Export
// =============================================================================
//
// This module writes the paginated statement as a flat CSV file, one line per
// data row, so the merge result can be checked or imported elsewhere without
// opening the workbook.
//
// COLUMNS:
//   page, code, name, amount, group_start, source, source_row
//
// Names are written as read from the input; the width fold is only applied to
// the printed form.
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/ginjaninja78/exmerge/internal/types"
)

// Record is one line of the audit export.
type Record struct {
	Page       int    `csv:"page"`
	Code       string `csv:"code"`
	Name       string `csv:"name"`
	Amount     int64  `csv:"amount"`
	GroupStart bool   `csv:"group_start"`
	Source     string `csv:"source"`
	SourceRow  int    `csv:"source_row"`
}

// Records flattens pages into export lines in output order.
func Records(pages []types.Page) []*Record {
	var records []*Record
	for _, page := range pages {
		for _, row := range page.Rows {
			records = append(records, &Record{
				Page:       page.Number,
				Code:       row.Code,
				Name:       row.Name,
				Amount:     row.Amount,
				GroupStart: row.GroupStart,
				Source:     row.Source,
				SourceRow:  row.Row,
			})
		}
	}
	return records
}

// WriteCSV writes the export for pages to w, header line included.
func WriteCSV(w io.Writer, pages []types.Page) error {
	records := Records(pages)
	if records == nil {
		records = []*Record{}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

// ExportCSV writes the export for pages to path, replacing any existing file.
func ExportCSV(path string, pages []types.Page) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV export: %w", err)
	}

	if err := WriteCSV(file, pages); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
