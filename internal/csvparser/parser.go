// =============================================================================
// Payment Statement Merger - CSV Payment Reader
// =============================================================================
//
// Some accounting packages only export CSV. This module reads such an export
// with the same positional layout as the XLSX reader (data from row 4, code
// in column 1, name in column 2, amount in column 5), so CSV and XLSX inputs
// can be merged into one statement.
//
// ENCODINGS:
//   - UTF-8 (a leading byte order mark is dropped)
//   - Shift_JIS / CP932, the usual encoding of Japanese Windows exports
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/types"
	"github.com/ginjaninja78/exmerge/internal/xlsxparser"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadPayments reads payments from a CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - layout: Row and column positions of the payment data.
//   - encodingName: Character encoding of the file (see config.NormalizeEncoding).
//
// RETURNS:
//   - The payments in row order.
//   - An error if the file cannot be opened, decoded or parsed.
func ReadPayments(filePath string, layout config.InputLayout, encodingName string) ([]types.Payment, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file, filePath, layout, encodingName)
}

// Parse reads payments from r. source is recorded on every payment.
func Parse(r io.Reader, source string, layout config.InputLayout, encodingName string) ([]types.Payment, error) {
	decoder, err := decoderFor(encodingName)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(transform.NewReader(r, decoder))

	csvReader := csv.NewReader(reader)
	configureReader(csvReader)

	allRows, err := readRows(csvReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return xlsxparser.ParseRows(allRows, source, layout), nil
}

// readRows reads every record. encoding/csv silently skips blank lines; each
// one is kept here as an empty row so a blank line ends the data. A quoted
// field running over several lines still makes a single row.
func readRows(reader *csv.Reader) ([][]string, error) {
	var rows [][]string
	prevEnd := 0 // last line of the previous record
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}

		start, _ := reader.FieldPos(0)
		for blank := start - prevEnd - 1; blank > 0; blank-- {
			rows = append(rows, nil)
		}
		rows = append(rows, record)

		last := len(record) - 1
		end, _ := reader.FieldPos(last)
		prevEnd = end + strings.Count(record[last], "\n")
	}
}

// configureReader sets up the CSV reader for hand-made exports: rows may have
// different lengths and stray quotes are tolerated.
func configureReader(reader *csv.Reader) {
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = false
	reader.ReuseRecord = false
}

// decoderFor returns the decoder for a configured encoding name.
func decoderFor(name string) (transform.Transformer, error) {
	switch config.NormalizeEncoding(name) {
	case config.EncodingUTF8:
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case config.EncodingShiftJIS:
		return japanese.ShiftJIS.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
