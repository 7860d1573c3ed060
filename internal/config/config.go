// =============================================================================
// CSV to XLSX Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the configuration of
// a conversion. It handles both the per-run ConversionConfig and the optional
// YAML configuration file that supplies defaults for it.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults (DefaultFileConfig)
//   2. Configuration file (converter.yaml, or --config)
//   3. Command-line flags that were set explicitly
//
// ARCHITECTURE:
//   ConversionConfig is a plain value. It is built once by the caller, passed
//   by value, and never mutated by the converter.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/charset"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/validation"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/internal/xlsxwriter"
	"github.com/ginjaninja78/CSV-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// FORMAT LIMITS AND DEFAULTS
// =============================================================================

const (
	// MaxSheetNameLength is the longest sheet name the XLSX format accepts.
	MaxSheetNameLength = 31

	// OutputExtension is the extension of the produced workbook.
	OutputExtension = ".xlsx"

	// DefaultConfigFile is the configuration file looked up when --config is not given.
	DefaultConfigFile = "converter.yaml"

	DefaultSheetName = "Sheet1"
	DefaultChunkSize = 10000
	DefaultDelimiter = ","
	DefaultEncoding  = charset.Automatic
	DefaultLogFile   = "conversion.log"
)

// =============================================================================
// CONVERSION CONFIGURATION
// =============================================================================

// ConversionConfig holds the fully-resolved settings of one conversion.
type ConversionConfig struct {
	// InputPath is the delimited text file to convert.
	InputPath string

	// OutputPath is the workbook to produce.
	// Default: InputPath with its extension replaced by ".xlsx".
	OutputPath string

	// SheetName is the name of the single sheet in the workbook.
	// Default: "Sheet1"
	SheetName string

	// ChunkSize is the number of data rows read and written per batch.
	// Must be positive. Default: 10000
	ChunkSize int

	// Delimiter separates fields. A single character, or one of the aliases
	// "tab", "\t", "pipe", "semicolon", "comma", "space".
	// Default: ","
	Delimiter string

	// Encoding is the input text encoding, or "auto" for detection.
	// Default: "auto"
	Encoding string

	// SkipRows is the number of leading records skipped before the header.
	// Must not be negative. Default: 0
	SkipRows int

	// MaxRows lowers the per-sheet row ceiling (header included).
	// Zero means the format ceiling, xlsxwriter.MaxRows.
	MaxRows int

	// OverlongRows is the policy for rows longer than the header:
	// "error" (default) or "truncate".
	OverlongRows string

	// LazyQuotes tolerates stray quotes inside fields.
	// Default: false (standard CSV quoting).
	LazyQuotes bool

	// Overwrite allows replacing an existing output file.
	Overwrite bool

	// EncodingCandidates is the detection priority list for "auto".
	// Default: charset.DefaultCandidates
	EncodingCandidates []string

	// ProbeBytes is the size of the prefix inspected by detection.
	// Default: charset.DefaultProbeBytes
	ProbeBytes int
}

// RowCeiling returns the effective maximum number of sheet rows, header included.
func (c ConversionConfig) RowCeiling() int {
	if c.MaxRows > 0 {
		return c.MaxRows
	}
	return xlsxwriter.MaxRows
}

// ApplyDefaults returns a copy of cfg with unset optional fields filled in.
//
// NOTE: ChunkSize and SkipRows are never defaulted here. A zero chunk size
// given by the caller is a configuration error, not a request for the default.
func ApplyDefaults(cfg ConversionConfig) ConversionConfig {
	if cfg.OutputPath == "" && cfg.InputPath != "" {
		cfg.OutputPath = DefaultOutputPath(cfg.InputPath)
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = DefaultDelimiter
	}
	if cfg.Encoding == "" {
		cfg.Encoding = DefaultEncoding
	}
	if cfg.OverlongRows == "" {
		cfg.OverlongRows = string(validation.PolicyError)
	}
	if len(cfg.EncodingCandidates) == 0 {
		cfg.EncodingCandidates = append([]string(nil), charset.DefaultCandidates...)
	}
	if cfg.ProbeBytes == 0 {
		cfg.ProbeBytes = charset.DefaultProbeBytes
	}
	return cfg
}

// DefaultOutputPath derives the workbook path from the input path.
func DefaultOutputPath(inputPath string) string {
	return utils.ReplaceExtension(inputPath, OutputExtension)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks every setting and reports all problems at once.
//
// RETURNS:
//   - nil if the configuration is valid.
//   - A ConfigurationError-kind *types.Error wrapping every problem found.
//
// NOTE: Validate performs no I/O. Input existence and readability are
// checked by the converter when it starts.
func Validate(cfg ConversionConfig) error {
	var result *multierror.Error

	if strings.TrimSpace(cfg.InputPath) == "" {
		result = multierror.Append(result, errors.New("input path is required"))
	}
	if cfg.ChunkSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize))
	}
	if cfg.SkipRows < 0 {
		result = multierror.Append(result, fmt.Errorf("skip rows must not be negative, got %d", cfg.SkipRows))
	}
	if _, err := ResolveDelimiter(cfg.Delimiter); err != nil {
		result = multierror.Append(result, err)
	}
	if err := ValidateSheetName(cfg.SheetName); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.OutputPath == "" {
		result = multierror.Append(result, errors.New("output path is required"))
	} else {
		if !strings.EqualFold(filepath.Ext(cfg.OutputPath), OutputExtension) {
			result = multierror.Append(result, fmt.Errorf("output path %q must end in %s", cfg.OutputPath, OutputExtension))
		}
		if cfg.InputPath != "" && utils.SamePath(cfg.InputPath, cfg.OutputPath) {
			result = multierror.Append(result, errors.New("output path must differ from input path"))
		}
	}
	if cfg.MaxRows != 0 && (cfg.MaxRows < 2 || cfg.MaxRows > xlsxwriter.MaxRows) {
		result = multierror.Append(result, fmt.Errorf("max rows must be between 2 and %d, got %d", xlsxwriter.MaxRows, cfg.MaxRows))
	}
	if _, err := validation.ParsePolicy(cfg.OverlongRows); err != nil {
		result = multierror.Append(result, err)
	}
	if !charset.Known(cfg.Encoding) {
		result = multierror.Append(result, fmt.Errorf("unknown encoding %q", cfg.Encoding))
	}
	for _, name := range cfg.EncodingCandidates {
		if _, err := charset.Lookup(name); err != nil {
			result = multierror.Append(result, fmt.Errorf("encoding candidate: %w", err))
		}
	}
	if cfg.ProbeBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("probe bytes must not be negative, got %d", cfg.ProbeBytes))
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = joinErrors
	return types.NewError(types.KindConfiguration, "validate configuration", "", result.ErrorOrNil())
}

// joinErrors formats a multierror on a single line.
func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// ResolveDelimiter converts the configured delimiter to the rune used by the
// CSV reader.
//
// SUPPORTED VALUES:
//   - Any single character except '"', '\r', '\n' and U+FFFD.
//   - Aliases: "\t", "tab", "pipe", "semicolon", "comma", "space".
func ResolveDelimiter(delimiter string) (rune, error) {
	switch strings.ToLower(delimiter) {
	case "\\t", "tab":
		return '\t', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	case "space":
		return ' ', nil
	}

	if utf8.RuneCountInString(delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}
	r, _ := utf8.DecodeRuneInString(delimiter)
	switch r {
	case '"', '\r', '\n', utf8.RuneError:
		return 0, fmt.Errorf("delimiter %q is not allowed", delimiter)
	}
	return r, nil
}

// ValidateSheetName checks a sheet name against the XLSX naming rules.
func ValidateSheetName(name string) error {
	if name == "" {
		return errors.New("sheet name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxSheetNameLength {
		return fmt.Errorf("sheet name %q is longer than %d characters", name, MaxSheetNameLength)
	}
	if strings.ContainsAny(name, `:\/?*[]`) {
		return fmt.Errorf("sheet name %q must not contain any of : \\ / ? * [ ]", name)
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return fmt.Errorf("sheet name %q must not begin or end with an apostrophe", name)
	}
	return nil
}

// =============================================================================
// CONFIGURATION FILE
// =============================================================================

// FileConfig is the structure of the YAML configuration file.
type FileConfig struct {
	// Conversion supplies defaults for every conversion setting.
	Conversion ConversionDefaults `yaml:"conversion"`

	// Log configures the log file and console output.
	Log LogConfig `yaml:"log"`
}

// ConversionDefaults are the file-level defaults for ConversionConfig.
type ConversionDefaults struct {
	Sheet              string   `yaml:"sheet"`
	ChunkSize          int      `yaml:"chunk_size"`
	Delimiter          string   `yaml:"delimiter"`
	Encoding           string   `yaml:"encoding"`
	SkipRows           int      `yaml:"skip_rows"`
	MaxRows            int      `yaml:"max_rows"`
	OverlongRows       string   `yaml:"overlong_rows"`
	LazyQuotes         bool     `yaml:"lazy_quotes"`
	Overwrite          bool     `yaml:"overwrite"`
	EncodingCandidates []string `yaml:"encoding_candidates"`
	ProbeBytes         int      `yaml:"probe_bytes"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	// File is the persistent log artifact; "none" disables it.
	// Default: "conversion.log"
	File string `yaml:"file"`

	// Level controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "text" or "json". Default: "text"
	Format string `yaml:"format"`

	// MaxSizeMB is the size at which the log file is rotated. Default: 10
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept. Default: 3
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is the age after which rotated files are removed. Default: 28
	MaxAgeDays int `yaml:"max_age_days"`
}

// DefaultFileConfig returns the built-in defaults.
func DefaultFileConfig() *FileConfig {
	cfg := &FileConfig{}
	applyFileConfigDefaults(cfg)
	return cfg
}

// LoadFile loads the YAML configuration file.
//
// PARAMETERS:
//   - path: The configuration file path.
//   - required: When false, a missing file yields the built-in defaults.
//
// RETURNS:
//   - The configuration with defaults applied.
//   - A ConfigurationError-kind error if the file cannot be read or parsed.
func LoadFile(path string, required bool) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return DefaultFileConfig(), nil
		}
		return nil, types.NewError(types.KindConfiguration, "read config file", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, types.NewError(types.KindConfiguration, "parse config file", path, err)
	}

	applyFileConfigDefaults(&cfg)
	return &cfg, nil
}

// applyFileConfigDefaults sets default values for any unset options.
func applyFileConfigDefaults(cfg *FileConfig) {
	c := &cfg.Conversion
	if c.Sheet == "" {
		c.Sheet = DefaultSheetName
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.OverlongRows == "" {
		c.OverlongRows = string(validation.PolicyError)
	}
	if len(c.EncodingCandidates) == 0 {
		c.EncodingCandidates = append([]string(nil), charset.DefaultCandidates...)
	}
	if c.ProbeBytes == 0 {
		c.ProbeBytes = charset.DefaultProbeBytes
	}

	l := &cfg.Log
	if l.File == "" {
		l.File = DefaultLogFile
	}
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = 10
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = 3
	}
	if l.MaxAgeDays == 0 {
		l.MaxAgeDays = 28
	}
}

// ConversionFor builds a ConversionConfig for inputPath from the file defaults.
// The caller overrides individual fields (typically from explicit flags)
// before validating.
func (d ConversionDefaults) ConversionFor(inputPath string) ConversionConfig {
	return ConversionConfig{
		InputPath:          inputPath,
		SheetName:          d.Sheet,
		ChunkSize:          d.ChunkSize,
		Delimiter:          d.Delimiter,
		Encoding:           d.Encoding,
		SkipRows:           d.SkipRows,
		MaxRows:            d.MaxRows,
		OverlongRows:       d.OverlongRows,
		LazyQuotes:         d.LazyQuotes,
		Overwrite:          d.Overwrite,
		EncodingCandidates: append([]string(nil), d.EncodingCandidates...),
		ProbeBytes:         d.ProbeBytes,
	}
}
