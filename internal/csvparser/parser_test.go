package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/ginjaninja78/exmerge/internal/config"
)

const sample = "支払一覧,,,,\n" +
	",,,,\n" +
	"コード,名前,,,金額\n" +
	"001,山田商店,,,12000\n" +
	"002,\"佐藤, 鈴木\",,,\n" +
	"003,ＡＢＣ,,,abc\n"

func TestParse_UTF8(t *testing.T) {
	payments, err := Parse(strings.NewReader(sample), "mem.csv", config.DefaultInputLayout(), "UTF-8")
	require.NoError(t, err)
	require.Len(t, payments, 3)

	assert.Equal(t, "001", payments[0].Code)
	assert.Equal(t, "山田商店", payments[0].Name)
	assert.Equal(t, int64(12000), payments[0].Amount)
	assert.Equal(t, 4, payments[0].Row)
	assert.Equal(t, "佐藤, 鈴木", payments[1].Name)
	assert.Equal(t, int64(0), payments[1].Amount)
	assert.Equal(t, int64(0), payments[2].Amount)
	assert.Equal(t, "mem.csv", payments[2].Source)
}

func TestParse_BOMIsDropped(t *testing.T) {
	in := "\ufeffX1,name,,,5\n"
	layout := config.DefaultInputLayout()
	layout.DataStartRow = 1

	payments, err := Parse(strings.NewReader(in), "bom.csv", layout, "utf8")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "X1", payments[0].Code)
}

func TestParse_BlankLineEndsData(t *testing.T) {
	in := "h\nh\nh\n001,a,,,1\n\n002,b,,,2\n"

	payments, err := Parse(strings.NewReader(in), "gap.csv", config.DefaultInputLayout(), "UTF-8")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "001", payments[0].Code)
}

func TestParse_BlankLineInHeaderKeepsRowNumbers(t *testing.T) {
	// Line 2 is blank; data still starts on line 4.
	in := "title\n\nheader\n001,a,,,7\n"

	payments, err := Parse(strings.NewReader(in), "hdr.csv", config.DefaultInputLayout(), "UTF-8")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 4, payments[0].Row)
	assert.Equal(t, int64(7), payments[0].Amount)
}

func TestParse_MultiLineFieldIsOneRow(t *testing.T) {
	in := "title\n\nhdr\n001,\"山田\n商店\",,,100\n002,B,,,200\n003,C,,,300\n"

	payments, err := Parse(strings.NewReader(in), "wrap.csv", config.DefaultInputLayout(), "UTF-8")
	require.NoError(t, err)
	require.Len(t, payments, 3)

	assert.Equal(t, "001", payments[0].Code)
	assert.Contains(t, payments[0].Name, "山田")
	assert.Equal(t, []int{4, 5, 6}, []int{payments[0].Row, payments[1].Row, payments[2].Row})
	assert.Equal(t, int64(300), payments[2].Amount)
}

func TestParse_BlankLineAfterMultiLineField(t *testing.T) {
	in := "h\nh\nh\n001,\"a\nb\",,,1\n\n002,c,,,2\n"

	payments, err := Parse(strings.NewReader(in), "wrap.csv", config.DefaultInputLayout(), "UTF-8")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "001", payments[0].Code)
}

func TestReadPayments_ShiftJIS(t *testing.T) {
	encoded, err := japanese.ShiftJIS.NewEncoder().String(sample)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sjis.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	payments, err := ReadPayments(path, config.DefaultInputLayout(), "Shift_JIS")
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, "山田商店", payments[0].Name)
	assert.Equal(t, "ＡＢＣ", payments[2].Name)
}

func TestParse_UnsupportedEncoding(t *testing.T) {
	_, err := Parse(strings.NewReader(sample), "x.csv", config.DefaultInputLayout(), "latin1")
	assert.Error(t, err)
}

func TestReadPayments_MissingFile(t *testing.T) {
	_, err := ReadPayments(filepath.Join(t.TempDir(), "missing.csv"), config.DefaultInputLayout(), "UTF-8")
	assert.Error(t, err)
}
