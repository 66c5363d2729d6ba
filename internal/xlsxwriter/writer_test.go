package xlsxwriter

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/paginator"
	"github.com/ginjaninja78/exmerge/internal/types"
)

var raw = excelize.Options{RawCellValue: true}

type entry struct {
	code   string
	name   string
	amount int64
}

func payments(entries ...entry) []types.Payment {
	out := make([]types.Payment, len(entries))
	for i, s := range entries {
		out[i] = types.Payment{Code: s.code, Name: s.name, Amount: s.amount}
	}
	return out
}

func options() Options {
	return Options{
		Month:       9,
		SheetLayout: config.LayoutPerPage,
		Print:       config.DefaultPrintSettings(),
	}
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, raw)
	require.NoError(t, err)
	return v
}

func merges(t *testing.T, f *excelize.File, sheet string) map[string]string {
	t.Helper()
	mc, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	out := make(map[string]string, len(mc))
	for _, m := range mc {
		out[m.GetStartAxis()] = m.GetEndAxis()
	}
	return out
}

func TestWrite_SinglePage(t *testing.T) {
	pages := paginator.Paginate(payments(
		entry{"B", "x", 5},
		entry{"A", "Ｙａｍａｄａ", 10},
		entry{"A", "z", 0},
	))
	require.Len(t, pages, 1)

	f, err := Write(pages, options())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Page1"}, f.GetSheetList())

	sheet := "Page1"
	assert.Equal(t, "9月分支払明細書", cell(t, f, sheet, "C1"))
	assert.Equal(t, "No. 1", cell(t, f, sheet, "J1"))
	assert.Equal(t, "支払先名", cell(t, f, sheet, "C3"))
	assert.Equal(t, "相殺", cell(t, f, sheet, "E4"))
	assert.Equal(t, "備考", cell(t, f, sheet, "J4"))

	// Data rows.
	assert.Equal(t, "A", cell(t, f, sheet, "B5"))
	assert.Equal(t, "Yamada", cell(t, f, sheet, "C5"))
	assert.Equal(t, "10", cell(t, f, sheet, "D5"))
	assert.Equal(t, "", cell(t, f, sheet, "B6"))
	assert.Equal(t, "z", cell(t, f, sheet, "C6"))
	assert.Equal(t, "", cell(t, f, sheet, "D6"), "zero amount is left blank")
	assert.Equal(t, "B", cell(t, f, sheet, "B7"))

	// Subtotal and total.
	assert.Equal(t, LabelSubtotal, cell(t, f, sheet, "C8"))
	assert.Equal(t, "15", cell(t, f, sheet, "D8"))
	assert.Equal(t, LabelTotal, cell(t, f, sheet, "C9"))
	assert.Equal(t, "15", cell(t, f, sheet, "D9"))

	m := merges(t, f, sheet)
	assert.Equal(t, "H1", m["C1"])
	assert.Equal(t, "B4", m["B3"])
	assert.Equal(t, "J3", m["E3"])
	assert.Equal(t, "B6", m["B5"], "code A spans two rows")
	_, single := m["B7"]
	assert.False(t, single, "one-row groups are not merged")
}

func TestWrite_PerPageTotalsOnLastPageOnly(t *testing.T) {
	var in []types.Payment
	for i := 0; i < 50; i++ {
		in = append(in, types.Payment{Code: fmt.Sprintf("C%03d", i), Name: "n", Amount: 1})
	}
	pages := paginator.Paginate(in)
	require.Len(t, pages, 2)

	f, err := Write(pages, options())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Page1", "Page2"}, f.GetSheetList())

	// Page 1: 44 rows, subtotal on row 49, no total.
	assert.Equal(t, LabelSubtotal, cell(t, f, "Page1", "C49"))
	assert.Equal(t, "44", cell(t, f, "Page1", "D49"))
	assert.Equal(t, "", cell(t, f, "Page1", "C50"))

	// Page 2: 6 rows.
	assert.Equal(t, "No. 2", cell(t, f, "Page2", "J1"))
	assert.Equal(t, LabelSubtotal, cell(t, f, "Page2", "C11"))
	assert.Equal(t, "6", cell(t, f, "Page2", "D11"))
	assert.Equal(t, LabelTotal, cell(t, f, "Page2", "C12"))
	assert.Equal(t, "50", cell(t, f, "Page2", "D12"))
}

func TestWrite_SingleLayoutStacksBlocks(t *testing.T) {
	pages := []types.Page{
		{Number: 1, Rows: []types.Row{{Payment: types.Payment{Code: "A", Name: "a", Amount: 1}, GroupStart: true, GroupSpan: 1}}, Subtotal: 1},
		{Number: 2, Rows: []types.Row{{Payment: types.Payment{Code: "B", Name: "b", Amount: 2}, GroupStart: true, GroupSpan: 1}}, Subtotal: 2, Last: true, Total: 3},
	}

	opts := options()
	opts.SheetLayout = config.LayoutSingle
	f, err := Write(pages, opts)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())

	// Block 1 occupies rows 1-6, a blank row 7, block 2 starts on row 8.
	assert.Equal(t, "No. 1", cell(t, f, "Sheet1", "J1"))
	assert.Equal(t, LabelSubtotal, cell(t, f, "Sheet1", "C6"))
	assert.Equal(t, "", cell(t, f, "Sheet1", "C7"))
	assert.Equal(t, "No. 2", cell(t, f, "Sheet1", "J8"))
	assert.Equal(t, "B", cell(t, f, "Sheet1", "B12"))
	assert.Equal(t, LabelTotal, cell(t, f, "Sheet1", "C14"))
	assert.Equal(t, "3", cell(t, f, "Sheet1", "D14"))
}

func TestWrite_NoPages(t *testing.T) {
	f, err := Write(nil, options())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
	assert.Equal(t, "", cell(t, f, "Sheet1", "A1"))
}

func TestWrite_UnknownLayout(t *testing.T) {
	opts := options()
	opts.SheetLayout = "sideways"
	pages := paginator.Paginate(payments(entry{"A", "a", 1}))

	_, err := Write(pages, opts)
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	pages := paginator.Paginate(payments(entry{"A", "a", 1}))
	f, err := Write(pages, options())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Save(f, path))

	back, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer back.Close()
	assert.Equal(t, "A", cell(t, back, "Page1", "B5"))
}

func TestTitleAndSheetName(t *testing.T) {
	assert.Equal(t, "12月分支払明細書", Title(12))
	assert.Equal(t, "Page3", SheetName(3))
}
