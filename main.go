// =============================================================================
// CSV to XLSX Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the CSV to XLSX Converter CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   csv2xlsx <input.csv> [flags]  - Convert one delimited file to XLSX
//   csv2xlsx verify <file.xlsx>   - Inspect a produced workbook
//   csv2xlsx version              - Display the application version
//
// ARCHITECTURE:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : Core conversion logic (not for external import)
//   - pkg/      : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
