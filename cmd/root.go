// =============================================================================
// CSV to XLSX Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the conversion itself: it takes one input file as its positional argument.
//
// COBRA CLI STRUCTURE:
//   rootCmd (csv2xlsx <input.csv>)
//   ├── verifyCmd  (csv2xlsx verify <output.xlsx>)
//   └── versionCmd (csv2xlsx version)
//
// EXIT CODES:
//   0 on success. On failure the error kind decides the code (see
//   types.Kind.ExitCode) and the kind, message and a suggestion are printed
//   to stderr.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// A missing file is fine unless --config was given explicitly.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// logFile overrides the log file from the configuration file.
var logFile string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the conversion command.
var rootCmd = &cobra.Command{
	Use:   "csv2xlsx <input.csv>",
	Short: "CSV to XLSX Converter - Stream large delimited files into a spreadsheet",
	Long: `CSV to XLSX Converter turns a delimited text file into a single-sheet XLSX
workbook. The input is read and written in fixed-size chunks, so files far
larger than available memory can be converted.

Every cell is written as text: leading zeros, long numbers and values that
look like dates or formulas are kept exactly as they appear in the input.

Example Usage:
  csv2xlsx data.csv                          # Writes data.xlsx
  csv2xlsx data.csv -o report.xlsx -s Dados  # Custom output and sheet name
  csv2xlsx export.txt -d ";" -e latin-1      # Semicolons, Latin-1 text
  csv2xlsx big.csv -c 50000 --skip-rows 2    # Bigger chunks, skip a banner
  csv2xlsx verify report.xlsx                # Inspect a produced workbook`,

	Args:          requireInput,
	SilenceErrors: true,
	SilenceUsage:  true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0])
	},
}

// requireInput accepts exactly one positional argument, the input file.
func requireInput(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return types.Errorf(types.KindConfiguration, "parse arguments",
			"exactly one input file is required, got %d argument(s)", len(args))
	}
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits with the failure's exit code.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(types.KindOf(err).ExitCode())
	}
}

// printError writes the classified failure to w.
//
// OUTPUT:
//   EncodingError: decode record data.csv (record 812, line 813): ...
//     batch 1, 811 rows written before the failure
//     suggestion: re-run with an explicit encoding, e.g. -e latin-1 or -e cp1252
func printError(w io.Writer, err error) {
	kind := types.KindOf(err)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	e, classified := types.AsError(err)
	if classified {
		red.Fprintln(w, err.Error())
	} else {
		red.Fprintf(w, "%s: %v\n", kind, err)
	}

	if classified && e.Batch > 0 {
		fmt.Fprintf(w, "  batch %d, %d rows written before the failure\n", e.Batch, e.RowsWritten)
	}
	yellow.Fprintf(w, "  suggestion: %s\n", kind.Suggestion())
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFile,
		"log-file",
		"",
		`Log file path, "none" to disable (default from config, else conversion.log)`,
	)

	// Flag parsing problems are configuration errors like any other.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return types.NewError(types.KindConfiguration, "parse flags", "", err)
	})

	convOpts.register(rootCmd.Flags())
}
