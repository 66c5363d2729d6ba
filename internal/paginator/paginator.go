// =============================================================================
// Payment Statement Merger - Paginator
// =============================================================================
//
// This module turns the flat list of Payments read from every input file into
// the ordered sequence of Pages that make up the statement.
//
// ALGORITHM:
//   1. Stable-sort all Payments by code (ties keep input order).
//   2. Split the sorted list into groups: maximal runs sharing one code.
//   3. Fill pages group by group. A group that does not fit into the
//      remaining capacity closes the page early and starts the next one.
//   4. Groups longer than RowLimit get dedicated pages, RowLimit rows each.
//   5. Every page gets a subtotal; the last page also gets the grand total.
//
// The sorted slice is consumed through an index that only moves forward.
// Nothing is removed from the slice while it is being walked.
//
// =============================================================================

package paginator

import (
	"sort"

	"github.com/ginjaninja78/exmerge/internal/types"
)

// RowLimit is the maximum number of data rows on one page, excluding the
// title, header, subtotal and total rows.
const RowLimit = 44

// =============================================================================
// SORTING AND GROUPING
// =============================================================================

// SortPayments returns a copy of payments stably sorted by code.
// Codes compare byte-wise, so "010" sorts before "10".
func SortPayments(payments []types.Payment) []types.Payment {
	sorted := make([]types.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Code < sorted[j].Code
	})
	return sorted
}

// group is a half-open range [start, end) of the sorted slice sharing a code.
type group struct {
	start int
	end   int
}

func (g group) size() int {
	return g.end - g.start
}

// splitGroups finds the maximal same-code runs of an already sorted slice.
func splitGroups(sorted []types.Payment) []group {
	var groups []group
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].Code == sorted[i].Code {
			j++
		}
		groups = append(groups, group{start: i, end: j})
		i = j
	}
	return groups
}

// =============================================================================
// PAGINATION
// =============================================================================

// Paginate sorts payments and lays them out on pages of at most RowLimit rows.
//
// PARAMETERS:
//   - payments: All payments in input-encounter order. The slice is not modified.
//
// RETURNS:
//   - The pages in output order. No payments yields no pages.
func Paginate(payments []types.Payment) []types.Page {
	return PaginateWithLimit(payments, RowLimit)
}

// PaginateWithLimit is Paginate with an explicit row budget.
// A limit below 1 falls back to RowLimit.
func PaginateWithLimit(payments []types.Payment, limit int) []types.Page {
	if limit < 1 {
		limit = RowLimit
	}

	sorted := SortPayments(payments)
	groups := splitGroups(sorted)

	var pages []types.Page
	var current []types.Row

	flush := func() {
		if len(current) == 0 {
			return
		}
		pages = append(pages, newPage(len(pages)+1, current))
		current = nil
	}

	for _, g := range groups {
		// Oversize group: fresh page, then RowLimit-sized chunks, each chunk
		// merging its own code cell.
		if g.size() > limit {
			flush()
			for start := g.start; start < g.end; start += limit {
				end := min(start+limit, g.end)
				current = appendGroup(current, sorted[start:end])
				flush()
			}
			continue
		}

		if len(current)+g.size() > limit {
			flush()
		}
		current = appendGroup(current, sorted[g.start:g.end])
	}
	flush()

	if len(pages) > 0 {
		var total int64
		for _, p := range pages {
			total += p.Subtotal
		}
		last := &pages[len(pages)-1]
		last.Last = true
		last.Total = total
	}

	return pages
}

// appendGroup adds one code block to the rows of the page being built.
func appendGroup(rows []types.Row, members []types.Payment) []types.Row {
	for i, p := range members {
		row := types.Row{Payment: p}
		if i == 0 {
			row.GroupStart = true
			row.GroupSpan = len(members)
		}
		rows = append(rows, row)
	}
	return rows
}

func newPage(number int, rows []types.Row) types.Page {
	page := types.Page{
		Number: number,
		Rows:   rows,
	}
	for _, r := range rows {
		page.Subtotal += r.Amount
	}
	return page
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary holds aggregate figures over a set of pages.
type Summary struct {
	Pages   int
	Rows    int
	Groups  int
	Total   int64
	MaxRows int
}

// Summarize computes the figures logged after pagination.
func Summarize(pages []types.Page) Summary {
	var s Summary
	s.Pages = len(pages)
	for _, p := range pages {
		s.Rows += len(p.Rows)
		s.Groups += p.Groups()
		s.Total += p.Subtotal
		if len(p.Rows) > s.MaxRows {
			s.MaxRows = len(p.Rows)
		}
	}
	return s
}
