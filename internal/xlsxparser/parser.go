// =============================================================================
// Payment Statement Merger - XLSX Payment Reader
// =============================================================================
//
// This module reads payment rows out of the spreadsheets that are merged into
// the statement. Every input workbook has the same shape:
//
//   | Column A | Column B | Column C | Column D | Column E |
//   |----------|----------|----------|----------|----------|
//   | (title and header rows 1-3)                           |
//   | 001      | 山田商店 |          |          | 12000    |   <- row 4
//   | 002      | ＡＢＣ   |          |          |          |   <- amount 0
//   |          |          |          |          |          |   <- stop
//
// Positions come from config.InputLayout so a differently shaped export can
// be read without code changes.
//
// READING RULES:
//   - Only the first worksheet is read.
//   - Scanning starts at DataStartRow and stops at the first row whose code
//     or name is empty or only whitespace.
//   - Surrounding whitespace is trimmed from the code, never from the name.
//   - A missing, blank or non-numeric amount reads as 0. Never an error.
//
// =============================================================================

package xlsxparser

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadPayments opens an XLSX file and extracts its payments.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - layout: Row and column positions of the payment data.
//
// RETURNS:
//   - The payments in row order. A file whose first data row is empty yields
//     an empty slice.
//   - An error if the file cannot be opened or has no sheets.
func ReadPayments(path string, layout config.InputLayout) ([]types.Payment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return ReadFile(f, path, layout)
}

// ReadFile extracts payments from the first sheet of an open workbook.
// source is recorded on every payment.
func ReadFile(f *excelize.File, source string, layout config.InputLayout) ([]types.Payment, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// Raw values, so amounts formatted as "¥12,000" still read as 12000.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return ParseRows(rows, source, layout), nil
}

// ParseRows applies the reading rules to rows as returned by GetRows.
// Row slices may be ragged; missing cells count as empty.
func ParseRows(rows [][]string, source string, layout config.InputLayout) []types.Payment {
	payments := []types.Payment{}

	for i := layout.DataStartRow - 1; i < len(rows); i++ {
		row := rows[i]

		code := strings.TrimSpace(getCell(row, layout.CodeColumn))
		name := getCell(row, layout.NameColumn)
		if code == "" || strings.TrimSpace(name) == "" {
			break
		}

		payments = append(payments, types.Payment{
			Code:   code,
			Name:   name,
			Amount: ParseAmount(getCell(row, layout.AmountColumn)),
			Source: source,
			Row:    i + 1,
		})
	}

	return payments
}

// =============================================================================
// MULTI-FILE READING
// =============================================================================

// FileReader reads the payments of one input file.
type FileReader func(path string, layout config.InputLayout) ([]types.Payment, error)

// Source records how many payments one input file contributed.
type Source struct {
	Path     string
	Payments int
}

// ReadAll reads paths in order and concatenates their payments.
//
// PARAMETERS:
//   - ctx: Checked before each file; cancellation stops the read.
//   - paths: The input files.
//   - layout: Row and column positions of the payment data.
//   - read: Reads one file. Nil means ReadPayments.
//   - onFile: Called after each file with its payment count. May be nil.
//
// RETURNS:
//   - All payments in file order, then row order.
//   - One Source per file read.
//   - The context error, or the first read error wrapped with the file path.
func ReadAll(ctx context.Context, paths []string, layout config.InputLayout, read FileReader, onFile func(path string, payments int)) ([]types.Payment, []Source, error) {
	if read == nil {
		read = ReadPayments
	}

	payments := []types.Payment{}
	sources := make([]Source, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		filePayments, err := read(path, layout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		payments = append(payments, filePayments...)
		sources = append(sources, Source{Path: path, Payments: len(filePayments)})

		if onFile != nil {
			onFile(path, len(filePayments))
		}
	}

	return payments, sources, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// getCell returns the value of a 1-based column, or "" past the end of row.
func getCell(row []string, column int) string {
	if column >= 1 && column <= len(row) {
		return row[column-1]
	}
	return ""
}

// ParseAmount converts a raw cell value to an integer amount.
// Fractions are truncated toward zero; anything non-numeric is 0.
func ParseAmount(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int64(f)
}
