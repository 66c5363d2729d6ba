// =============================================================================
// Payment Statement Merger - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
// Every setting has a default, so the configuration file is optional; the
// command layer overlays flags and EXMERGE_* environment variables on top of
// what is loaded here.
//
// CONFIGURATION FILE (config.yaml):
//   input_dir:     ./input           # scanned when no files are given
//   output_dir:    ./output
//   output_name:   ""                # default: 支払明細書<month>月
//   sheet_layout:  per_page          # per_page | single
//   csv_encoding:  UTF-8             # UTF-8 | Shift_JIS
//   export_csv:    false
//   write_summary: false
//   log_level:     info
//   log_format:    console           # console | json
//   print:
//     top_margin: 0.75
//     bottom_margin: 0.75
//     left_margin: 0.7
//     right_margin: 0.7
//   layout:
//     data_start_row: 4
//     code_column: 1
//     name_column: 2
//     amount_column: 5
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sheet layouts.
const (
	// LayoutPerPage writes one worksheet per page.
	LayoutPerPage = "per_page"

	// LayoutSingle stacks all pages on one worksheet separated by page breaks.
	LayoutSingle = "single"
)

// Input encodings understood by the CSV reader.
const (
	EncodingUTF8     = "UTF-8"
	EncodingShiftJIS = "Shift_JIS"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for *.xlsx and *.csv files when no input files are
	// passed on the command line.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory the statement is written to.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputName is the statement file name without the .xlsx extension.
	// Empty means "支払明細書<month>月" for the chosen issue month.
	OutputName string `yaml:"output_name"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// SheetLayout selects LayoutPerPage or LayoutSingle.
	// Default: "per_page"
	SheetLayout string `yaml:"sheet_layout"`

	// ExportCSV writes <name>.csv next to the workbook with one line per row.
	ExportCSV bool `yaml:"export_csv"`

	// WriteSummary writes a plain-text run summary into the output directory.
	WriteSummary bool `yaml:"write_summary"`

	// Print holds the print margins applied to every sheet.
	Print PrintSettings `yaml:"print"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CSVEncoding is the character encoding of .csv input tables.
	// Default: "UTF-8"
	CSVEncoding string `yaml:"csv_encoding"`

	// Layout describes where payment rows live in each input table.
	Layout InputLayout `yaml:"layout"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`
}

// PrintSettings holds page margins in inches.
type PrintSettings struct {
	TopMargin    float64 `yaml:"top_margin"`
	BottomMargin float64 `yaml:"bottom_margin"`
	LeftMargin   float64 `yaml:"left_margin"`
	RightMargin  float64 `yaml:"right_margin"`
}

// InputLayout gives the 1-based row and column positions of payment data in
// an input table.
type InputLayout struct {
	// DataStartRow is the first row holding a payment.
	// Default: 4
	DataStartRow int `yaml:"data_start_row"`

	// CodeColumn holds the payee code. Default: 1 (A)
	CodeColumn int `yaml:"code_column"`

	// NameColumn holds the payee name. Default: 2 (B)
	NameColumn int `yaml:"name_column"`

	// AmountColumn holds the amount. Default: 5 (E)
	AmountColumn int `yaml:"amount_column"`
}

// DefaultInputLayout returns the layout of the payment sheets this tool was
// built for.
func DefaultInputLayout() InputLayout {
	return InputLayout{
		DataStartRow: 4,
		CodeColumn:   1,
		NameColumn:   2,
		AmountColumn: 5,
	}
}

// DefaultPrintSettings returns the margins of the printed statement form.
func DefaultPrintSettings() PrintSettings {
	return PrintSettings{
		TopMargin:    0.75,
		BottomMargin: 0.75,
		LeftMargin:   0.7,
		RightMargin:  0.7,
	}
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A path that does
//     not exist yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file: defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	config.SheetLayout = NormalizeLayout(config.SheetLayout)
	if config.SheetLayout == "" {
		config.SheetLayout = LayoutPerPage
	}
	if config.CSVEncoding == "" {
		config.CSVEncoding = EncodingUTF8
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}

	defPrint := DefaultPrintSettings()
	if config.Print.TopMargin == 0 {
		config.Print.TopMargin = defPrint.TopMargin
	}
	if config.Print.BottomMargin == 0 {
		config.Print.BottomMargin = defPrint.BottomMargin
	}
	if config.Print.LeftMargin == 0 {
		config.Print.LeftMargin = defPrint.LeftMargin
	}
	if config.Print.RightMargin == 0 {
		config.Print.RightMargin = defPrint.RightMargin
	}

	defLayout := DefaultInputLayout()
	if config.Layout.DataStartRow == 0 {
		config.Layout.DataStartRow = defLayout.DataStartRow
	}
	if config.Layout.CodeColumn == 0 {
		config.Layout.CodeColumn = defLayout.CodeColumn
	}
	if config.Layout.NameColumn == 0 {
		config.Layout.NameColumn = defLayout.NameColumn
	}
	if config.Layout.AmountColumn == 0 {
		config.Layout.AmountColumn = defLayout.AmountColumn
	}
}

// Validate checks values that have a fixed set of choices or must be positive.
func (c *MainConfig) Validate() error {
	switch c.SheetLayout {
	case LayoutPerPage, LayoutSingle:
	default:
		return fmt.Errorf("sheet_layout must be %q or %q, got %q", LayoutPerPage, LayoutSingle, c.SheetLayout)
	}

	if NormalizeEncoding(c.CSVEncoding) == "" {
		return fmt.Errorf("unsupported csv_encoding %q", c.CSVEncoding)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be \"console\" or \"json\", got %q", c.LogFormat)
	}

	l := c.Layout
	if l.DataStartRow < 1 || l.CodeColumn < 1 || l.NameColumn < 1 || l.AmountColumn < 1 {
		return fmt.Errorf("layout rows and columns are 1-based and must be positive")
	}

	p := c.Print
	if p.TopMargin < 0 || p.BottomMargin < 0 || p.LeftMargin < 0 || p.RightMargin < 0 {
		return fmt.Errorf("print margins must not be negative")
	}

	return nil
}

// NormalizeLayout accepts "per-page" as well as "per_page", in any case.
func NormalizeLayout(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// NormalizeEncoding maps the accepted spellings of an encoding name to
// EncodingUTF8 or EncodingShiftJIS. Unknown names map to "".
func NormalizeEncoding(name string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")) {
	case "utf_8", "utf8":
		return EncodingUTF8
	case "shift_jis", "shiftjis", "sjis", "cp932", "windows_31j":
		return EncodingShiftJIS
	default:
		return ""
	}
}
