// =============================================================================
// Payment Statement Merger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (exmerge)
//   ├── mergeCmd   (exmerge merge)
//   └── versionCmd (exmerge version)
//
// CONFIGURATION:
//   Settings are layered, later layers winning:
//   1. Built-in defaults
//   2. The YAML file given by --config (missing file is fine)
//   3. EXMERGE_* environment variables, also read from a .env file
//   4. Command-line flags
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/exmerge/internal/config"
	"github.com/ginjaninja78/exmerge/internal/logging"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "EXMERGE"

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// appConfig is the configuration after all layers are applied.
// It is set by initConfig before any subcommand runs.
var appConfig *config.MainConfig

// logger is the application logger, set by initConfig.
var logger *zerolog.Logger

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "exmerge",
	Short: "Payment Statement Merger - merge payment tables into a printable statement",
	Long: `exmerge reads payment tables exported as .xlsx or .csv files, merges their
rows, groups them by payee code and writes a paginated monthly payment
statement workbook ready for printing on A4.

Example Usage:
  exmerge merge a.xlsx b.xlsx --month 9 --output-dir ./out
  exmerge merge --input-dir ./input --csv --summary
  exmerge merge --dry-run                # Show the page plan only`,

	SilenceUsage:      true,
	PersistentPreRunE: initConfig,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command with ctx. This is called by main.main().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "config.yaml", "Path to the configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initConfig loads the configuration and sets up logging.
func initConfig(cmd *cobra.Command, _ []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	configureEnv(viper.GetViper())

	cfg, err := config.LoadMainConfig(viper.GetString("config"))
	if err != nil {
		return err
	}

	applyOverrides(cfg, viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if viper.GetBool("verbose") {
		cfg.LogLevel = "debug"
	}

	l, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	appConfig = cfg
	logger = l
	logger.Debug().Str("config", viper.GetString("config")).Msg("configuration loaded")
	return nil
}

// configureEnv makes EXMERGE_OUTPUT_DIR and friends visible under the
// configuration keys.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// applyOverrides copies every setting given by flag or environment onto cfg.
func applyOverrides(cfg *config.MainConfig, v *viper.Viper) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*dst = v.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("input_dir", &cfg.InputDir)
	setString("output_dir", &cfg.OutputDir)
	setString("output_name", &cfg.OutputName)
	setString("csv_encoding", &cfg.CSVEncoding)
	setString("log_level", &cfg.LogLevel)
	setString("log_format", &cfg.LogFormat)
	setBool("export_csv", &cfg.ExportCSV)
	setBool("write_summary", &cfg.WriteSummary)

	if v.IsSet("sheet_layout") && v.GetString("sheet_layout") != "" {
		cfg.SheetLayout = config.NormalizeLayout(v.GetString("sheet_layout"))
	}
}
