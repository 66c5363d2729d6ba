package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/exmerge/internal/paginator"
	"github.com/ginjaninja78/exmerge/internal/types"
)

func samplePages() []types.Page {
	return paginator.Paginate([]types.Payment{
		{Code: "B", Name: "ｂ", Amount: 2, Source: "one.xlsx", Row: 4},
		{Code: "A", Name: "a", Amount: 1, Source: "two.csv", Row: 9},
		{Code: "A", Name: "a2", Amount: 0, Source: "two.csv", Row: 10},
	})
}

func TestRecords(t *testing.T) {
	records := Records(samplePages())
	require.Len(t, records, 3)

	assert.Equal(t, Record{Page: 1, Code: "A", Name: "a", Amount: 1, GroupStart: true, Source: "two.csv", SourceRow: 9}, *records[0])
	assert.False(t, records[1].GroupStart)
	assert.Equal(t, "ｂ", records[2].Name, "names are exported unfolded")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samplePages()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "page,code,name,amount,group_start,source,source_row", lines[0])
	assert.Equal(t, "1,A,a,1,true,two.csv,9", lines[1])

	var back []*Record
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &back))
	assert.Equal(t, Records(samplePages()), back)
}

func TestWriteCSV_NoPagesKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "page,code,name,amount,group_start,source,source_row", strings.TrimSpace(buf.String()))
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, ExportCSV(path, samplePages()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), "1,B,ｂ,2,true,one.xlsx,4")
}

func TestExportCSV_BadDir(t *testing.T) {
	err := ExportCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), samplePages())
	assert.Error(t, err)
}
