// =============================================================================
// Payment Statement Merger - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the merger, including:
//   - Input file discovery
//   - Output path resolution and removal of a previous statement
//   - Run summary log generation
//
// OUTPUT STRATEGY:
//   - The statement is always written to <output dir>/<name>.xlsx
//   - A statement already at that path is deleted once every input is read
//   - The statement and its CSV export are never picked up as inputs
//   - Input files are never moved or modified
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input extensions picked up by discovery.
var inputExtensions = []string{".xlsx", ".csv"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the merger.
type FileManager struct {
	// InputDir is scanned when no input files are given explicitly.
	InputDir string

	// OutputDir is where the statement and its side files are written.
	OutputDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir string) *FileManager {
	return &FileManager{
		InputDir:  inputDir,
		OutputDir: outputDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the .xlsx and .csv files directly inside InputDir.
//
// PARAMETERS:
//   - exclude: Paths left out of the result, typically the statement and
//     CSV export of the coming run.
//
// RETURNS:
//   - The file paths sorted by name.
//   - An error if the directory cannot be read.
//
// Excel lock files ("~$name.xlsx") and directories are skipped.
func (fm *FileManager) DiscoverInputFiles(exclude ...string) ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		path := filepath.Join(fm.InputDir, entry.Name())
		if IsInputFile(path) && !SamePath(path, exclude...) {
			result = append(result, path)
		}
	}

	sort.Strings(result)
	return result, nil
}

// IsInputFile reports whether path has an extension the readers accept.
func IsInputFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range inputExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// OutputPath returns <OutputDir>/<name>.xlsx. An .xlsx suffix already on name
// is not doubled.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, WithExt(name, ".xlsx"))
}

// WithExt returns name ending in ext, appending it when missing.
func WithExt(name, ext string) string {
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

// OutputFiles returns the statement path for name and its CSV export path.
func (fm *FileManager) OutputFiles(name string) []string {
	statement := fm.OutputPath(name)
	return []string{statement, SiblingPath(statement, ".csv")}
}

// SamePath reports whether path names the same file as any of others.
// Paths are compared after making them absolute and clean.
func SamePath(path string, others ...string) bool {
	abs := absPath(path)
	for _, other := range others {
		if other != "" && absPath(other) == abs {
			return true
		}
	}
	return false
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// SiblingPath returns path with its extension replaced by ext.
func SiblingPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// RemoveExisting deletes the file at path if there is one.
//
// RETURNS:
//   - true when a file was removed.
//   - An error if a file exists but could not be deleted.
func RemoveExisting(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}

	if err := os.Remove(path); err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// NewRunID returns a fresh identifier for one merge run.
func NewRunID() string {
	return uuid.New().String()
}

// RunSummary contains summary information about a merge run.
type RunSummary struct {
	RunID      string
	StartTime  time.Time
	EndTime    time.Time
	IssueMonth int
	OutputFile string
	CSVFile    string
	Inputs     []InputFileInfo
	Payments   int
	Groups     int
	Pages      int
	Total      int64
}

// InputFileInfo describes one input file of a run.
type InputFileInfo struct {
	Path     string
	Payments int
}

// WriteSummaryLog writes a run summary to a text file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if creating, writing or closing the file fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	timestamp := summary.StartTime.Format("20060102_150405")
	summaryFileName := fmt.Sprintf("merge_summary_%s.txt", timestamp)
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if _, err := writer.WriteString(FormatSummary(summary)); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close summary file: %w", err)
	}

	return summaryPath, nil
}

// FormatSummary renders a run summary as the text stored by WriteSummaryLog.
func FormatSummary(summary RunSummary) string {
	var b strings.Builder

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(&b, "Payment Statement Merger - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Issue Month:    %d\n"+
		"  Output:         %s\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.IssueMonth,
		summary.OutputFile)
	if summary.CSVFile != "" {
		fmt.Fprintf(&b, "  CSV Export:     %s\n", summary.CSVFile)
	}

	fmt.Fprintf(&b, "\nStatistics:\n"+
		"  Input Files:    %d\n"+
		"  Payments:       %d\n"+
		"  Payees:         %d\n"+
		"  Pages:          %d\n"+
		"  Total:          %d\n\n",
		len(summary.Inputs),
		summary.Payments,
		summary.Groups,
		summary.Pages,
		summary.Total)

	if len(summary.Inputs) > 0 {
		b.WriteString("Input Files:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, in := range summary.Inputs {
			fmt.Fprintf(&b, "  %-60s %6d\n", in.Path, in.Payments)
		}
		b.WriteString("\n")
	}

	b.WriteString("================================================================================\n" +
		"End of Summary\n")

	return b.String()
}
