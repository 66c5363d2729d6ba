// =============================================================================
// Payment Statement Merger - Merge Command
// =============================================================================
//
// This file defines the 'merge' command, which is the main command of the
// tool. It builds one converter.Request from flags, environment and config
// and runs the merge pipeline.
//
// COMMAND USAGE:
//   exmerge merge [files...] [flags]
//
// FLAGS:
//   --month        : Issue month 1-12 (default: the previous month)
//   --output-dir   : Directory the statement is written to
//   --output-name  : Statement file name (default: 支払明細書<month>月)
//   --input-dir    : Directory scanned when no files are given
//   --layout       : per-page or single
//   --encoding     : Encoding of .csv inputs (UTF-8, Shift_JIS)
//   --csv          : Also write a CSV export of the statement
//   --summary      : Also write a run summary text file
//   --dry-run      : Read and paginate only
//   --progress     : Show a progress bar while reading inputs
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/exmerge/internal/converter"
	"github.com/ginjaninja78/exmerge/internal/validation"
	"github.com/ginjaninja78/exmerge/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun       bool
	showProgress bool
)

// now is replaced in tests.
var now = time.Now

// =============================================================================
// MERGE COMMAND DEFINITION
// =============================================================================

// mergeCmd represents the 'merge' command.
var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge payment tables into a statement workbook",
	Long: `The merge command reads every given .xlsx or .csv payment table, sorts the
rows by payee code and writes them as a paginated statement: at most 44 rows
per page, rows of one payee kept on one page, a subtotal on every page and the
grand total on the last one.

When no files are given, every .xlsx and .csv file in the input directory is
merged in name order. The statement and its CSV export are left out, so the
input and output directories may be the same.

A statement already at the output path is replaced.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd, args)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(mergeCmd)

	flags := mergeCmd.Flags()
	flags.String("month", "", "Issue month 1-12 (default: the previous month)")
	flags.String("output-dir", "", "Directory to write the statement to")
	flags.String("output-name", "", "Statement file name without extension (default: 支払明細書<month>月)")
	flags.String("input-dir", "", "Directory scanned for inputs when no files are given")
	flags.String("layout", "", "Sheet layout: per-page or single")
	flags.String("encoding", "", "Encoding of .csv inputs: UTF-8 or Shift_JIS")
	flags.Bool("csv", false, "Also write a CSV export next to the statement")
	flags.Bool("summary", false, "Also write a run summary into the output directory")
	flags.BoolVar(&dryRun, "dry-run", false, "Read and paginate without writing files")
	flags.BoolVar(&showProgress, "progress", false, "Show a progress bar while reading inputs")

	_ = viper.BindPFlag("month", flags.Lookup("month"))
	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("output_name", flags.Lookup("output-name"))
	_ = viper.BindPFlag("input_dir", flags.Lookup("input-dir"))
	_ = viper.BindPFlag("sheet_layout", flags.Lookup("layout"))
	_ = viper.BindPFlag("csv_encoding", flags.Lookup("encoding"))
	_ = viper.BindPFlag("export_csv", flags.Lookup("csv"))
	_ = viper.BindPFlag("write_summary", flags.Lookup("summary"))
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runMerge is the main function for the merge command.
func runMerge(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	month := viper.GetString("month")
	if month == "" {
		month = strconv.Itoa(defaultMonth(now()))
	}

	name := cfg.OutputName
	if name == "" {
		name = defaultOutputName(month)
	}

	files := args
	if len(files) == 0 {
		fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir)
		discovered, err := fm.DiscoverInputFiles(fm.OutputFiles(name)...)
		if err != nil {
			return err
		}
		files = discovered
		logger.Info().Str("dir", cfg.InputDir).Int("files", len(files)).Msg("discovered input files")
	}

	req := converter.Request{
		Files:       files,
		Month:       month,
		OutputDir:   cfg.OutputDir,
		OutputName:  name,
		SheetLayout: cfg.SheetLayout,
		DryRun:      dryRun,
	}

	conv := converter.New(req, cfg, logger)

	var bar *progressbar.ProgressBar
	if showProgress && len(files) > 0 {
		bar = newProgressBar(cmd.ErrOrStderr(), len(files))
		conv.OnFile(func(string, int) { _ = bar.Add(1) })
	}

	result := conv.Run(cmd.Context())
	if bar != nil {
		_ = bar.Finish()
	}

	if result.Error != nil {
		logger.Error().Err(result.Error).Str("run_id", result.RunID).Msg("merge failed")
		return mergeError(result.Error)
	}

	printResult(cmd.OutOrStdout(), result, dryRun)
	return nil
}

// mergeError returns the error reported to the user. Validation failures are
// rendered as a numbered list.
func mergeError(err error) error {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return errors.New(strings.TrimSpace(validation.FormatErrors([]error{ve})))
	}
	return err
}

// newProgressBar returns a bar counting input files.
func newProgressBar(w io.Writer, files int) *progressbar.ProgressBar {
	return progressbar.NewOptions(files,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Reading inputs"),
		progressbar.OptionClearOnFinish(),
	)
}

// printResult writes the human-readable outcome of a run.
func printResult(w io.Writer, result converter.Result, dry bool) {
	if dry {
		fmt.Fprintf(w, "Dry run: %d payments on %d pages, total %d\n",
			result.Stats.Payments, result.Stats.Pages, result.Stats.Total)
		for _, p := range result.Pages {
			fmt.Fprintf(w, "  No. %d  rows %2d  payees %2d  subtotal %d\n",
				p.Number, len(p.Rows), p.Groups(), p.Subtotal)
		}
		return
	}

	fmt.Fprintf(w, "Wrote %s (%d pages, %d payments, total %d)\n",
		result.OutputFile, result.Stats.Pages, result.Stats.Payments, result.Stats.Total)
	if result.CSVFile != "" {
		fmt.Fprintf(w, "Wrote %s\n", result.CSVFile)
	}
	if result.SummaryFile != "" {
		fmt.Fprintf(w, "Wrote %s\n", result.SummaryFile)
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaultMonth returns the month before t, since statements are issued for
// the month just closed.
func defaultMonth(t time.Time) int {
	return int(t.AddDate(0, 0, -t.Day()).Month())
}

// defaultOutputName returns the statement name used when none is configured.
func defaultOutputName(month string) string {
	return fmt.Sprintf("支払明細書%s月", month)
}
