// =============================================================================
// CSV to XLSX Converter - File Manager Utility
// =============================================================================
//
// This module provides the small file helpers shared by the converter:
//   - Existence and size checks
//   - Output path derivation (extension replacement)
//   - Temporary sibling paths for atomic writes
//   - Directory management
//
// WRITE STRATEGY:
//   The workbook is written to a hidden temporary file next to the final
//   output and renamed into place only after it is complete. A failed run
//   removes the temporary file and never touches an existing output file.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// bytesPerMB is used for the MB figures in logs and reports.
const bytesPerMB = 1024 * 1024

// =============================================================================
// PATH HELPERS
// =============================================================================

// ReplaceExtension returns path with its extension replaced by ext.
//
// EXAMPLE:
//   ReplaceExtension("data/export.csv", ".xlsx") -> "data/export.xlsx"
//   ReplaceExtension("data/export", ".xlsx")     -> "data/export.xlsx"
func ReplaceExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// TempSibling returns a unique hidden path in the same directory as path.
// Keeping the temporary file on the same device makes the final rename atomic.
//
// EXAMPLE:
//   TempSibling("out/report.xlsx") -> "out/.report.xlsx.3f2a...e1.tmp"
func TempSibling(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// FILE INFORMATION
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ToMB converts a byte count to megabytes.
func ToMB(n int64) float64 {
	return float64(n) / bytesPerMB
}

// SamePath reports whether a and b refer to the same file location.
// Paths are compared after cleaning and resolving to absolute form.
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
