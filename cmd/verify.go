package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/xlsxparser"
)

// verifySheet selects the sheet to inspect; empty means the first sheet.
var verifySheet string

// verifyCmd represents the 'verify' command.
var verifyCmd = &cobra.Command{
	Use:   "verify <file.xlsx>",
	Short: "Inspect a produced workbook",
	Long: `Verify opens a workbook and prints its sheets, the header of the selected
sheet and the number of data rows, so a conversion can be checked against the
row count of the source file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := xlsxparser.Inspect(args[0], verifySheet)
		if err != nil {
			return types.ClassifyFS("verify", args[0], err)
		}

		w := cmd.OutOrStdout()
		color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", summary.Path)
		fmt.Fprintf(w, "Sheets:     %s\n", strings.Join(summary.Sheets, ", "))
		fmt.Fprintf(w, "Sheet:      %s\n", summary.Name)
		fmt.Fprintf(w, "Columns:    %d\n", summary.Columns)
		fmt.Fprintf(w, "Data rows:  %d\n", summary.Rows)
		fmt.Fprintf(w, "Header:     %s\n", strings.Join(summary.Header, " | "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifySheet, "sheet", "s", "", "Sheet to inspect (default: first sheet)")
}
