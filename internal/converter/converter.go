// =============================================================================
// Payment Statement Merger - Converter Module
// =============================================================================
//
// This module contains the core merge logic. It orchestrates one run of the
// pipeline, from reading the input tables to saving the statement workbook.
//
// MERGE PIPELINE:
//   1. Validate the request
//   2. Read payments from every input file
//   3. Delete a statement left at the output path
//   4. Paginate
//   5. Render and save the workbook
//   6. Write the optional CSV export and run summary
//
// A dry run stops after step 4 and returns the page plan.
//
// CONCURRENCY:
//   A run is single-threaded. The context is checked between input files so
//   an interrupt stops the run before the output is touched.
//
// OWN OUTPUTS:
//   The statement and its CSV export are skipped when they appear among the
//   inputs, so a run whose input and output directories coincide can be
//   repeated.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/csvparser"
	"github.com/ginjaninja78/exmerge/internal/logging"
	"github.com/ginjaninja78/exmerge/internal/paginator"
	"github.com/ginjaninja78/exmerge/internal/report"
	"github.com/ginjaninja78/exmerge/internal/types"
	"github.com/ginjaninja78/exmerge/internal/validation"
	"github.com/ginjaninja78/exmerge/internal/xlsxparser"
	"github.com/ginjaninja78/exmerge/internal/xlsxwriter"
	"github.com/ginjaninja78/exmerge/pkg/utils"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrCleanup is returned when a statement already at the output path
	// cannot be deleted. Inputs have been read but nothing has been written.
	ErrCleanup = errors.New("could not remove the existing output file")

	// ErrWorkbook is returned for any failure while reading inputs or
	// writing the statement.
	ErrWorkbook = errors.New("statement could not be created")
)

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request is one merge invocation. It is built once by the caller and not
// modified by the converter.
type Request struct {
	// Files are the input tables, read in this order.
	Files []string

	// Month is the issue month as typed by the user.
	Month string

	// OutputDir and OutputName give the statement path
	// <OutputDir>/<OutputName>.xlsx.
	OutputDir  string
	OutputName string

	// SheetLayout overrides the configured layout when set.
	SheetLayout string

	// ExportCSV and WriteSummary add the optional side files.
	ExportCSV    bool
	WriteSummary bool

	// DryRun reads and paginates without writing anything.
	DryRun bool
}

// Result represents the outcome of a run.
type Result struct {
	// RunID identifies the run in logs and the summary file.
	RunID string

	// OutputFile is the path of the statement. It is set on dry runs too.
	OutputFile string

	// CSVFile and SummaryFile are set when those files were written.
	CSVFile     string
	SummaryFile string

	// Pages is the page plan.
	Pages []types.Page

	// Success indicates whether the run completed.
	Success bool

	// Error contains the error if the run failed.
	Error error

	// Stats contains run statistics.
	Stats Stats
}

// Stats contains figures about a run.
type Stats struct {
	// Files is the number of input files read.
	Files int

	// Payments is the number of payment rows read.
	Payments int

	// Groups is the number of code blocks over all pages.
	Groups int

	// Pages is the number of output pages.
	Pages int

	// Total is the grand total of all amounts.
	Total int64

	// Duration is the time the run took.
	Duration time.Duration
}

// FileProgress is called after each input file has been read.
type FileProgress func(path string, payments int)

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the merge pipeline for one request.
type Converter struct {
	req    Request
	cfg    *config.MainConfig
	logger *zerolog.Logger
	files  *utils.FileManager

	onFile FileProgress
	now    func() time.Time
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - req: The merge request.
//   - cfg: The application configuration. Nil means config.Default().
//   - logger: The logger. Nil discards log output.
//
// RETURNS:
//   - A new Converter instance.
func New(req Request, cfg *config.MainConfig, logger *zerolog.Logger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Converter{
		req:    req,
		cfg:    cfg,
		logger: logger,
		files:  utils.NewFileManager(cfg.InputDir, req.OutputDir),
		now:    time.Now,
	}
}

// OnFile registers a callback run after each input file is read.
func (c *Converter) OnFile(fn FileProgress) {
	c.onFile = fn
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the merge pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome of the run. Result.Error is a
//     *validation.ValidationError for bad input, wraps ErrCleanup when the old
//     statement could not be deleted, wraps ErrWorkbook for read and write
//     failures, or wraps the context error when the run was interrupted.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := c.now()
	result := Result{RunID: utils.NewRunID()}

	logger := c.logger.With().Str("run_id", result.RunID).Logger()

	// =========================================================================
	// STEP 1: VALIDATE REQUEST
	// =========================================================================

	month, err := validation.ValidateRequest(validation.Request{
		Files:      c.req.Files,
		OutputName: c.req.OutputName,
		IssueMonth: c.req.Month,
		OutputDir:  c.req.OutputDir,
	})
	if err != nil {
		result.Error = err
		return result
	}

	layout := config.NormalizeLayout(c.req.SheetLayout)
	if layout == "" {
		layout = c.cfg.SheetLayout
	}

	result.OutputFile = c.files.OutputPath(c.req.OutputName)
	logger.Info().
		Int("month", month).
		Int("files", len(c.req.Files)).
		Str("output", result.OutputFile).
		Bool("dry_run", c.req.DryRun).
		Msg("starting merge")

	// =========================================================================
	// STEP 2: READ PAYMENTS
	// =========================================================================
	// Inputs are read before the previous statement is removed, so a failed
	// read leaves that statement in place.

	payments, inputs, err := c.readAll(ctx, &logger, c.files.OutputFiles(c.req.OutputName))
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats.Files = len(inputs)
	result.Stats.Payments = len(payments)

	// =========================================================================
	// STEP 3: REMOVE PREVIOUS STATEMENT
	// =========================================================================

	if !c.req.DryRun {
		if err := c.files.EnsureOutputDir(); err != nil {
			result.Error = fmt.Errorf("%w: %w", ErrCleanup, err)
			return result
		}
		removed, err := utils.RemoveExisting(result.OutputFile)
		if err != nil {
			result.Error = fmt.Errorf("%w: %w", ErrCleanup, err)
			return result
		}
		if removed {
			logger.Info().Str("path", result.OutputFile).Msg("removed existing statement")
		}
	}

	// =========================================================================
	// STEP 4: PAGINATE
	// =========================================================================

	pages := paginator.Paginate(payments)
	summary := paginator.Summarize(pages)

	result.Pages = pages
	result.Stats.Pages = summary.Pages
	result.Stats.Groups = summary.Groups
	result.Stats.Total = summary.Total

	logger.Info().
		Int("payments", summary.Rows).
		Int("groups", summary.Groups).
		Int("pages", summary.Pages).
		Int64("total", summary.Total).
		Msg("paginated")

	if c.req.DryRun {
		for _, p := range pages {
			logger.Info().
				Int("page", p.Number).
				Int("rows", len(p.Rows)).
				Int("groups", p.Groups()).
				Int64("subtotal", p.Subtotal).
				Msg("planned page")
		}
		result.Success = true
		result.Stats.Duration = c.now().Sub(startTime)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE STATEMENT
	// =========================================================================

	workbook, err := xlsxwriter.Write(pages, xlsxwriter.Options{
		Month:       month,
		SheetLayout: layout,
		Print:       c.cfg.Print,
		Logger:      &logger,
	})
	if err != nil {
		result.Error = fmt.Errorf("%w: %w", ErrWorkbook, err)
		return result
	}
	if err := xlsxwriter.Save(workbook, result.OutputFile); err != nil {
		result.Error = fmt.Errorf("%w: %w", ErrWorkbook, err)
		return result
	}
	logger.Info().Str("path", result.OutputFile).Msg("statement written")

	// =========================================================================
	// STEP 6: SIDE FILES
	// =========================================================================

	if c.req.ExportCSV || c.cfg.ExportCSV {
		csvPath := utils.SiblingPath(result.OutputFile, ".csv")
		if err := report.ExportCSV(csvPath, pages); err != nil {
			result.Error = err
			return result
		}
		result.CSVFile = csvPath
		logger.Info().Str("path", csvPath).Msg("CSV export written")
	}

	result.Stats.Duration = c.now().Sub(startTime)

	if c.req.WriteSummary || c.cfg.WriteSummary {
		path, err := utils.WriteSummaryLog(utils.RunSummary{
			RunID:      result.RunID,
			StartTime:  startTime,
			EndTime:    startTime.Add(result.Stats.Duration),
			IssueMonth: month,
			OutputFile: result.OutputFile,
			CSVFile:    result.CSVFile,
			Inputs:     inputs,
			Payments:   result.Stats.Payments,
			Groups:     result.Stats.Groups,
			Pages:      result.Stats.Pages,
			Total:      result.Stats.Total,
		}, c.req.OutputDir)
		if err != nil {
			// The statement is complete; a missing summary is not fatal.
			logger.Warn().Err(err).Msg("failed to write run summary")
		} else {
			result.SummaryFile = path
		}
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readAll reads every input file in request order, skipping exclude.
func (c *Converter) readAll(ctx context.Context, logger *zerolog.Logger, exclude []string) ([]types.Payment, []utils.InputFileInfo, error) {
	files := make([]string, 0, len(c.req.Files))
	for _, path := range c.req.Files {
		if utils.SamePath(path, exclude...) {
			logger.Warn().Str("file", path).Msg("skipping input that is an output of this run")
			continue
		}
		files = append(files, path)
	}

	onFile := func(path string, n int) {
		logger.Debug().Str("file", path).Int("payments", n).Msg("read input")
		if c.onFile != nil {
			c.onFile(path, n)
		}
	}

	payments, sources, err := xlsxparser.ReadAll(ctx, files, c.cfg.Layout, c.readFile, onFile)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, nil, fmt.Errorf("merge interrupted: %w", err)
	case err != nil:
		return nil, nil, fmt.Errorf("%w: %w", ErrWorkbook, err)
	}

	inputs := make([]utils.InputFileInfo, len(sources))
	for i, src := range sources {
		inputs[i] = utils.InputFileInfo{Path: src.Path, Payments: src.Payments}
	}
	return payments, inputs, nil
}

// readFile dispatches on the file extension.
func (c *Converter) readFile(path string, layout config.InputLayout) ([]types.Payment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return xlsxparser.ReadPayments(path, layout)
	case ".csv":
		return csvparser.ReadPayments(path, layout, c.cfg.CSVEncoding)
	default:
		return nil, fmt.Errorf("unsupported input file type %q", filepath.Ext(path))
	}
}
