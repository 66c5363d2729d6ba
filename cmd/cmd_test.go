package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/validation"
)

func TestDefaultMonth(t *testing.T) {
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 12},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC), 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultMonth(tt.now), tt.now.String())
	}
}

func TestDefaultOutputName(t *testing.T) {
	assert.Equal(t, "支払明細書9月", defaultOutputName("9"))
}

func TestApplyOverrides(t *testing.T) {
	t.Setenv("EXMERGE_INPUT_DIR", "/from/env")

	v := viper.New()
	configureEnv(v)
	v.Set("output_dir", "/from/flag")
	v.Set("sheet_layout", "Single")
	v.Set("export_csv", true)

	cfg := config.Default()
	applyOverrides(cfg, v)

	assert.Equal(t, "/from/env", cfg.InputDir)
	assert.Equal(t, "/from/flag", cfg.OutputDir)
	assert.Equal(t, config.LayoutSingle, cfg.SheetLayout)
	assert.True(t, cfg.ExportCSV)
	assert.False(t, cfg.WriteSummary)
	assert.Equal(t, config.EncodingUTF8, cfg.CSVEncoding, "unset keys keep their value")
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A4", "001"))
	require.NoError(t, f.SetCellValue("Sheet1", "B4", "山田商店"))
	require.NoError(t, f.SetCellValue("Sheet1", "E4", 1200))
	input := filepath.Join(dir, "a.xlsx")
	require.NoError(t, f.SaveAs(input))
	require.NoError(t, f.Close())
	return input
}

func TestMergeCommand(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	input := writeInput(t, in)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{
		"merge", input,
		"--config", filepath.Join(in, "none.yaml"),
		"--month", "9",
		"--output-dir", out,
		"--csv",
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), stderr.String())

	assert.Contains(t, stdout.String(), "Wrote "+filepath.Join(out, "支払明細書9月.xlsx"))
	assert.FileExists(t, filepath.Join(out, "支払明細書9月.xlsx"))
	assert.FileExists(t, filepath.Join(out, "支払明細書9月.csv"))
}

func TestMergeCommand_RerunInSameDirectory(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir)

	args := []string{
		"merge",
		"--config", filepath.Join(dir, "none.yaml"),
		"--month", "9",
		"--input-dir", dir,
		"--output-dir", dir,
		"--csv",
	}
	for run := 1; run <= 2; run++ {
		var stdout, stderr bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(&stderr)
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.ExecuteContext(context.Background()), "run %d: %s", run, stderr.String())
		assert.Contains(t, stdout.String(), "(1 pages, 1 payments, total 1200)", "run %d", run)
	}
}

func TestMergeCommand_ValidationErrorIsListed(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	input := writeInput(t, in)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{
		"merge", input,
		"--config", filepath.Join(in, "none.yaml"),
		"--month", "13",
		"--output-dir", out,
	})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Validation failed with 1 error(s):\n1. month"), err.Error())
	assert.NoFileExists(t, filepath.Join(out, "支払明細書13月.xlsx"))
}

func TestMergeError(t *testing.T) {
	plain := errors.New("disk full")
	assert.Same(t, plain, mergeError(plain))

	ve := &validation.ValidationError{Field: "files", Err: validation.ErrNoFiles}
	err := mergeError(fmt.Errorf("wrapped: %w", ve))
	assert.Equal(t, "Validation failed with 1 error(s):\n1. files: no input files selected", err.Error())
}

func TestVersionCommand(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "Payment Statement Merger")
	assert.Contains(t, stdout.String(), Version)
}
