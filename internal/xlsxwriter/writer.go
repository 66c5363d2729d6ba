// =============================================================================
// Payment Statement Merger - Statement Writer
// =============================================================================
//
// This module renders paginated payments as the printed statement form.
//
// PAGE LAYOUT (rows relative to the start of a page block):
//
//   row 1   |   |        | <month>月分支払明細書 (C:H merged)          | No. n |
//   row 2   (blank)
//   row 3   | 支払先 | 支払先名 | 請求金額 | 支払金額内訳 (E:J merged)       |
//   row 4   | コード |          |          | 相殺 手形 期日 小切手 振込 備考 |
//   row 5.. | code   | name     | amount   |                                 |
//   +1      |        | 小計     | subtotal |
//   +1      |        | 合計     | total    |   (last page only)
//
// Code cells of a group are merged vertically over the group's rows.
//
// SHEET LAYOUTS:
//   - per_page: one worksheet per page, named Page1, Page2, ...
//   - single:   every page stacked on Sheet1 with a page break between blocks
//
// =============================================================================

package xlsxwriter

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/logging"
	"github.com/ginjaninja78/exmerge/internal/normalize"
	"github.com/ginjaninja78/exmerge/internal/types"
)

// Column letters of the form.
const (
	colCode   = "B"
	colName   = "C"
	colAmount = "D"
	colPageNo = "J"
)

// Layout constants.
const (
	// headerRows is the number of rows above the first data row of a page.
	headerRows = 4

	// paperA4 is the excelize paper size code for A4.
	paperA4 = 9

	// defaultSheet is the sheet excelize creates with a new file.
	defaultSheet = "Sheet1"

	fontSize  = 10
	rowHeight = 15
)

// Labels printed on the form.
const (
	LabelSubtotal = "小計"
	LabelTotal    = "合計"
)

var breakdownHeaders = []string{"相殺", "手形", "期日", "小切手", "振込", "備考"}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how pages are rendered.
type Options struct {
	// Month is the issue month shown in the title.
	Month int

	// SheetLayout is config.LayoutPerPage or config.LayoutSingle.
	SheetLayout string

	// Print holds the page margins.
	Print config.PrintSettings

	// Logger receives per-page debug output. Nil discards it.
	Logger *zerolog.Logger
}

// Title returns the statement title for a month.
func Title(month int) string {
	return fmt.Sprintf("%d月分支払明細書", month)
}

// SheetName returns the worksheet name of a page in the per_page layout.
func SheetName(page int) string {
	return fmt.Sprintf("Page%d", page)
}

// =============================================================================
// WRITER
// =============================================================================

// styles holds the style IDs registered with the workbook.
type styles struct {
	title    int
	pageNo   int
	header   int
	code     int
	name     int
	amount   int
	label    int
	totalAmt int
}

type writer struct {
	f      *excelize.File
	opts   Options
	st     styles
	logger *zerolog.Logger
}

// Write renders pages into a new workbook.
//
// PARAMETERS:
//   - pages: The pages produced by the paginator.
//   - opts: Rendering options.
//
// RETURNS:
//   - The workbook; the caller saves and closes it.
//   - An error if any excelize call fails.
func Write(pages []types.Page, opts Options) (*excelize.File, error) {
	if opts.SheetLayout == "" {
		opts.SheetLayout = config.LayoutPerPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	w := &writer{
		f:      excelize.NewFile(),
		opts:   opts,
		logger: logger,
	}

	if err := w.run(pages); err != nil {
		w.f.Close()
		return nil, err
	}
	return w.f, nil
}

func (w *writer) run(pages []types.Page) error {
	st, err := registerStyles(w.f)
	if err != nil {
		return fmt.Errorf("failed to register styles: %w", err)
	}
	w.st = st

	if len(pages) == 0 {
		w.logger.Warn().Msg("no pages to write, leaving an empty sheet")
		return w.setupSheet(defaultSheet)
	}

	switch w.opts.SheetLayout {
	case config.LayoutSingle:
		return w.writeSingle(pages)
	case config.LayoutPerPage:
		return w.writePerPage(pages)
	default:
		return fmt.Errorf("unknown sheet layout %q", w.opts.SheetLayout)
	}
}

// writePerPage puts every page on its own worksheet.
func (w *writer) writePerPage(pages []types.Page) error {
	for _, page := range pages {
		sheet := SheetName(page.Number)
		if _, err := w.f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := w.setupSheet(sheet); err != nil {
			return err
		}
		if _, err := w.writePage(sheet, 0, page); err != nil {
			return fmt.Errorf("page %d: %w", page.Number, err)
		}
	}

	if err := w.f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("failed to delete %s: %w", defaultSheet, err)
	}
	w.f.SetActiveSheet(0)
	return nil
}

// writeSingle stacks every page on the default sheet. A blank row separates
// blocks and a page break starts each block after the first.
func (w *writer) writeSingle(pages []types.Page) error {
	sheet := defaultSheet
	if err := w.setupSheet(sheet); err != nil {
		return err
	}

	offset := 0
	for i, page := range pages {
		if i > 0 {
			if err := w.f.InsertPageBreak(sheet, fmt.Sprintf("A%d", offset+1)); err != nil {
				return fmt.Errorf("failed to insert page break: %w", err)
			}
		}
		height, err := w.writePage(sheet, offset, page)
		if err != nil {
			return fmt.Errorf("page %d: %w", page.Number, err)
		}
		offset += height + 1
	}
	return nil
}

// setupSheet applies column widths and print settings.
func (w *writer) setupSheet(sheet string) error {
	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 2.5},
		{"B", "B", 9},
		{"C", "C", 15},
		{"D", "D", 10},
		{"E", "J", 8},
	}
	for _, cw := range widths {
		if err := w.f.SetColWidth(sheet, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("failed to set column width %s: %w", cw.from, err)
		}
	}

	size := paperA4
	orientation := "portrait"
	if err := w.f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}); err != nil {
		return fmt.Errorf("failed to set page layout: %w", err)
	}

	p := w.opts.Print
	if err := w.f.SetPageMargins(sheet, &excelize.PageLayoutMarginsOptions{
		Top:    &p.TopMargin,
		Bottom: &p.BottomMargin,
		Left:   &p.LeftMargin,
		Right:  &p.RightMargin,
	}); err != nil {
		return fmt.Errorf("failed to set page margins: %w", err)
	}

	return nil
}

// writePage renders one page block starting below row offset.
// It returns the number of rows the block occupies.
func (w *writer) writePage(sheet string, offset int, page types.Page) (int, error) {
	logger := w.logger.With().Str("sheet", sheet).Int("page", page.Number).Logger()

	if err := w.writeTitle(sheet, offset, page.Number); err != nil {
		return 0, err
	}
	if err := w.writeHeader(sheet, offset); err != nil {
		return 0, err
	}

	first := offset + headerRows + 1
	for i, row := range page.Rows {
		if err := w.writeRow(sheet, first+i, row); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	next := first + len(page.Rows)
	if err := w.writeSum(sheet, next, LabelSubtotal, page.Subtotal); err != nil {
		return 0, err
	}
	next++

	if page.Last {
		if err := w.writeSum(sheet, next, LabelTotal, page.Total); err != nil {
			return 0, err
		}
		next++
	}

	for r := offset + 1; r < next; r++ {
		if err := w.f.SetRowHeight(sheet, r, rowHeight); err != nil {
			return 0, fmt.Errorf("failed to set row height: %w", err)
		}
	}

	logger.Debug().Int("rows", len(page.Rows)).Int64("subtotal", page.Subtotal).Msg("page written")
	return next - offset - 1, nil
}

func (w *writer) writeTitle(sheet string, offset, number int) error {
	row := offset + 1
	start, end := fmt.Sprintf("C%d", row), fmt.Sprintf("H%d", row)
	if err := w.f.MergeCell(sheet, start, end); err != nil {
		return fmt.Errorf("failed to merge title: %w", err)
	}
	if err := w.f.SetCellStr(sheet, start, Title(w.opts.Month)); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, start, end, w.st.title); err != nil {
		return err
	}

	pageCell := fmt.Sprintf("%s%d", colPageNo, row)
	if err := w.f.SetCellStr(sheet, pageCell, fmt.Sprintf("No. %d", number)); err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, pageCell, pageCell, w.st.pageNo)
}

func (w *writer) writeHeader(sheet string, offset int) error {
	top, bottom := offset+3, offset+4

	tall := []struct {
		col   string
		label string
	}{
		{colCode, "支払先\nコード"},
		{colName, "支払先名"},
		{colAmount, "請求金額"},
	}
	for _, h := range tall {
		start, end := fmt.Sprintf("%s%d", h.col, top), fmt.Sprintf("%s%d", h.col, bottom)
		if err := w.f.MergeCell(sheet, start, end); err != nil {
			return fmt.Errorf("failed to merge header %s: %w", h.label, err)
		}
		if err := w.f.SetCellStr(sheet, start, h.label); err != nil {
			return err
		}
	}

	wideStart, wideEnd := fmt.Sprintf("E%d", top), fmt.Sprintf("J%d", top)
	if err := w.f.MergeCell(sheet, wideStart, wideEnd); err != nil {
		return fmt.Errorf("failed to merge breakdown header: %w", err)
	}
	if err := w.f.SetCellStr(sheet, wideStart, "支払金額内訳"); err != nil {
		return err
	}

	for i, label := range breakdownHeaders {
		cell, err := excelize.CoordinatesToCellName(5+i, bottom)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStr(sheet, cell, label); err != nil {
			return err
		}
	}

	return w.f.SetCellStyle(sheet, fmt.Sprintf("B%d", top), fmt.Sprintf("J%d", bottom), w.st.header)
}

func (w *writer) writeRow(sheet string, r int, row types.Row) error {
	if row.GroupStart {
		start := fmt.Sprintf("%s%d", colCode, r)
		end := fmt.Sprintf("%s%d", colCode, r+row.GroupSpan-1)
		if row.GroupSpan > 1 {
			if err := w.f.MergeCell(sheet, start, end); err != nil {
				return fmt.Errorf("failed to merge code %s: %w", row.Code, err)
			}
		}
		if err := w.f.SetCellStr(sheet, start, row.Code); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, start, end, w.st.code); err != nil {
			return err
		}
	}

	nameCell := fmt.Sprintf("%s%d", colName, r)
	if err := w.f.SetCellStr(sheet, nameCell, normalize.FullToHalf(row.Name)); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, nameCell, nameCell, w.st.name); err != nil {
		return err
	}

	amountCell := fmt.Sprintf("%s%d", colAmount, r)
	if row.Amount != 0 {
		if err := w.f.SetCellValue(sheet, amountCell, row.Amount); err != nil {
			return err
		}
	}
	if err := w.f.SetCellStyle(sheet, amountCell, amountCell, w.st.amount); err != nil {
		return err
	}

	// Breakdown columns stay blank for hand entry but keep the grid.
	return w.f.SetCellStyle(sheet, fmt.Sprintf("E%d", r), fmt.Sprintf("J%d", r), w.st.header)
}

func (w *writer) writeSum(sheet string, r int, label string, value int64) error {
	labelCell := fmt.Sprintf("%s%d", colName, r)
	amountCell := fmt.Sprintf("%s%d", colAmount, r)

	if err := w.f.SetCellStr(sheet, labelCell, label); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, labelCell, labelCell, w.st.label); err != nil {
		return err
	}
	if err := w.f.SetCellValue(sheet, amountCell, value); err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, amountCell, amountCell, w.st.totalAmt)
}

// =============================================================================
// STYLES
// =============================================================================

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func registerStyles(f *excelize.File) (styles, error) {
	var st styles
	font := &excelize.Font{Size: fontSize}
	boldFont := &excelize.Font{Size: fontSize, Bold: true}

	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Size: 14, Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.pageNo, &excelize.Style{
			Font:      font,
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		}},
		{&st.header, &excelize.Style{
			Font:      font,
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&st.code, &excelize.Style{
			Font:      font,
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.name, &excelize.Style{
			Font:      font,
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Vertical: "center", ShrinkToFit: true},
		}},
		{&st.amount, &excelize.Style{
			Font:   font,
			Border: thinBorder(),
			NumFmt: 3, // #,##0
		}},
		{&st.label, &excelize.Style{
			Font:      boldFont,
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.totalAmt, &excelize.Style{
			Font:   boldFont,
			Border: thinBorder(),
			NumFmt: 3,
		}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, err
		}
		*d.id = id
	}
	return st, nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the workbook to path and closes it.
func Save(f *excelize.File, path string) error {
	if err := f.SaveAs(path); err != nil {
		f.Close()
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return f.Close()
}
