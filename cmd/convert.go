// =============================================================================
// CSV to XLSX Converter - Convert Command
// =============================================================================
//
// This file holds the conversion flags and the function run by the root
// command.
//
// FLAGS:
//   -o, --output        : Output path (default: input with .xlsx extension)
//   -s, --sheet         : Sheet name (default: Sheet1)
//   -c, --chunk-size    : Rows per batch (default: 10000)
//   -d, --delimiter     : Field delimiter (default: ",")
//   -e, --encoding      : Input encoding or "auto" (default: auto)
//       --skip-rows     : Records skipped before the header (default: 0)
//       --max-rows      : Lower the sheet row ceiling, header included
//       --overlong-rows : "error" or "truncate" for rows longer than the header
//       --lazy-quotes   : Tolerate stray quotes inside fields
//       --force         : Replace an existing output file
//
// PRECEDENCE:
//   flag given on the command line > configuration file > built-in default
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/logging"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// convertOptions holds the conversion flags.
type convertOptions struct {
	output       string
	sheet        string
	chunkSize    int
	delimiter    string
	encoding     string
	skipRows     int
	maxRows      int
	overlongRows string
	lazyQuotes   bool
	force        bool
}

// convOpts is bound to the root command's flags.
var convOpts convertOptions

// register defines the conversion flags on fs.
func (o *convertOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.output, "output", "o", "", "Output XLSX path (default: input path with .xlsx extension)")
	fs.StringVarP(&o.sheet, "sheet", "s", config.DefaultSheetName, "Sheet name")
	fs.IntVarP(&o.chunkSize, "chunk-size", "c", config.DefaultChunkSize, "Rows read and written per batch")
	fs.StringVarP(&o.delimiter, "delimiter", "d", config.DefaultDelimiter, `Field delimiter: one character, or "tab", "pipe", "semicolon"`)
	fs.StringVarP(&o.encoding, "encoding", "e", config.DefaultEncoding, `Input encoding (utf-8, latin-1, cp1252, ...) or "auto"`)
	fs.IntVar(&o.skipRows, "skip-rows", 0, "Records to skip before the header")
	fs.IntVar(&o.maxRows, "max-rows", 0, "Maximum sheet rows, header included (default: 1048576)")
	fs.StringVar(&o.overlongRows, "overlong-rows", "error", `Rows longer than the header: "error" or "truncate"`)
	fs.BoolVar(&o.lazyQuotes, "lazy-quotes", false, "Tolerate stray quotes inside fields")
	fs.BoolVar(&o.force, "force", false, "Replace the output file if it exists")
}

// apply overrides the fields of cfg whose flags were set on the command line.
func (o *convertOptions) apply(cfg config.ConversionConfig, fs *pflag.FlagSet) config.ConversionConfig {
	if fs.Changed("output") {
		cfg.OutputPath = o.output
	}
	if fs.Changed("sheet") {
		cfg.SheetName = o.sheet
	}
	if fs.Changed("chunk-size") {
		cfg.ChunkSize = o.chunkSize
	}
	if fs.Changed("delimiter") {
		cfg.Delimiter = o.delimiter
	}
	if fs.Changed("encoding") {
		cfg.Encoding = o.encoding
	}
	if fs.Changed("skip-rows") {
		cfg.SkipRows = o.skipRows
	}
	if fs.Changed("max-rows") {
		cfg.MaxRows = o.maxRows
	}
	if fs.Changed("overlong-rows") {
		cfg.OverlongRows = o.overlongRows
	}
	if fs.Changed("lazy-quotes") {
		cfg.LazyQuotes = o.lazyQuotes
	}
	if fs.Changed("force") {
		cfg.Overwrite = o.force
	}
	return cfg
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert loads the configuration, sets up logging and runs one conversion.
func runConvert(cmd *cobra.Command, input string) error {
	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fileCfg, err := config.LoadFile(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-file") {
		fileCfg.Log.File = logFile
	}

	// =========================================================================
	// STEP 2: SET UP LOGGING
	// =========================================================================

	logger, closer := logging.Setup(fileCfg.Log, os.Stderr, verbose)
	defer closer.Close()

	// =========================================================================
	// STEP 3: CONVERT
	// =========================================================================

	cfg := convOpts.apply(fileCfg.Conversion.ConversionFor(input), cmd.Flags())
	conv := converter.New(cfg,
		converter.WithLogger(logger),
		converter.WithObserver(logging.NewObserver(logger)),
	)

	report, err := conv.Run()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	printSummary(cmd.OutOrStdout(), report)
	return nil
}

// printSummary writes the human-readable report of a successful run.
func printSummary(w io.Writer, r *converter.Report) {
	color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ %s -> %s (sheet %q)\n", r.InputPath, r.OutputPath, r.Sheet)
	fmt.Fprintf(w, "Rows written:    %d (%d columns, %d batches)\n", r.Rows, r.Columns, r.Batches)
	fmt.Fprintf(w, "Encoding:        %s (%s)\n", r.Encoding, r.EncodingSource)
	fmt.Fprintf(w, "Input size:      %.2f MB\n", utils.ToMB(r.InputBytes))
	fmt.Fprintf(w, "Output size:     %.2f MB\n", utils.ToMB(r.OutputBytes))
	fmt.Fprintf(w, "Time elapsed:    %s\n", r.Elapsed)
	if r.ThroughputKnown {
		fmt.Fprintf(w, "Throughput:      %.0f rows/s, %.2f MB/s\n", r.RowsPerSecond, r.MBPerSecond)
	}
}
