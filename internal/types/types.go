// =============================================================================
// Payment Statement Merger - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser / csvparser (produce Payments)
//   - paginator              (turns Payments into Pages)
//   - xlsxwriter / report    (render Pages)
//   - converter              (orchestrates all of the above)
//
// =============================================================================

package types

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// Payment represents one payee line item read from an input row.
// A Payment is never modified after the reader creates it.
type Payment struct {
	// Code is the payee identifier used as the grouping and merge key.
	Code string

	// Name is the payee name exactly as read from the input cell.
	// Width folding is applied at render time, not here.
	Name string

	// Amount is the billed amount. Missing or non-numeric cells read as 0.
	Amount int64

	// Source is the path of the input file the row came from.
	Source string

	// Row is the 1-based sheet row number in Source.
	// Useful for error reporting and the audit export.
	Row int
}

// =============================================================================
// PAGE TYPES
// =============================================================================

// Row is one physical data row on an output page.
type Row struct {
	Payment

	// GroupStart is true on the first row of a code block on this page.
	// Only that row displays the code.
	GroupStart bool

	// GroupSpan is the number of rows the code cell spans.
	// It is set on the GroupStart row only and is 0 elsewhere.
	GroupSpan int
}

// Page is one output worksheet's worth of rows.
type Page struct {
	// Number is the 1-based page number printed as "No. <n>".
	Number int

	// Rows contains the data rows of the page, in output order.
	Rows []Row

	// Subtotal is the sum of Amount over Rows.
	Subtotal int64

	// Last is true only on the final page.
	Last bool

	// Total is the sum of all page subtotals. Only meaningful when Last is true.
	Total int64
}

// Groups returns the number of code blocks started on the page.
func (p Page) Groups() int {
	n := 0
	for _, r := range p.Rows {
		if r.GroupStart {
			n++
		}
	}
	return n
}
