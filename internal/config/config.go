// =============================================================================
// aqtools - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION FILE (config.yaml):
//   log_level: info
//   csv:
//     delimiter: ","
//     missing_markers: ["", "NaN", "nan", "NA", "null"]
//   database:
//     driver: postgres
//     dsn: "host=localhost dbname=soramame sslmode=disable"
//     table: data
//     parameter: pm25
//   preprocess:
//     steps:
//       - type: fill_missing
//         value: 0
//
// The file is optional: when the default path does not exist the built-in
// defaults are used. An explicitly requested file must exist.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "config.yaml"

// identifierPattern restricts SQL identifiers taken from configuration.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFile is the path to the log file. Empty logs to stderr.
	LogFile string `yaml:"log_file"`

	// SummaryDir is the directory run summaries are written to.
	// Empty disables summaries.
	SummaryDir string `yaml:"summary_dir"`

	// SummaryFormat is the file name format for run summaries.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {command}
	// Default: "{command}_summary_{timestamp}_{uuid}.txt"
	SummaryFormat string `yaml:"summary_format"`

	CSV           CSVSettings           `yaml:"csv"`
	XLSX          XLSXSettings          `yaml:"xlsx"`
	Transactional TransactionalSettings `yaml:"transactional"`
	Database      DatabaseSettings      `yaml:"database"`
	Preprocess    PreprocessSettings    `yaml:"preprocess"`
	Impute        ImputeSettings        `yaml:"impute"`
	Validation    ValidationSettings    `yaml:"validation"`
}

// =============================================================================
// SECTION STRUCTURES
// =============================================================================

// CSVSettings contains settings for reading and writing table CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Aliases: "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// MissingMarkers lists the cell values read as missing.
	// Default: "", "NaN", "nan", "NA", "null"
	MissingMarkers []string `yaml:"missing_markers"`

	// MissingOutput is written for missing cells.
	// Default: "NaN"
	MissingOutput string `yaml:"missing_output"`
}

// XLSXSettings contains settings for reading tables from workbooks.
type XLSXSettings struct {
	// Sheet is the sheet to read. Empty reads the first sheet.
	Sheet string `yaml:"sheet"`
}

// TransactionalSettings contains settings for reading transactional files.
type TransactionalSettings struct {
	// Separator splits the items of a transaction when computing statistics.
	// Default: "\t"
	Separator string `yaml:"separator"`
}

// DatabaseSettings describes the relational store holding sensor readings.
type DatabaseSettings struct {
	// Driver is "postgres" or "sqlite".
	// Default: "postgres"
	Driver string `yaml:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn"`

	// Table holds one reading per station and hour.
	// Default: "data"
	Table string `yaml:"table"`

	// StationColumn identifies the station.
	// Default: "sname"
	StationColumn string `yaml:"station_column"`

	// TimeColumn holds the reading timestamp.
	// Default: "time"
	TimeColumn string `yaml:"time_column"`

	// Parameter is the measured quantity to extract (e.g. "pm25", "no2").
	// Default: "pm25"
	Parameter string `yaml:"parameter"`

	// Sentinels are values the loggers use for "no reading".
	// Default: -1000, 9999
	Sentinels []float64 `yaml:"sentinels"`
}

// PreprocessSettings holds the cleaning pipeline.
type PreprocessSettings struct {
	// Steps are applied in order.
	Steps []Step `yaml:"steps"`
}

// Step is one preprocessing action.
type Step struct {
	// Type is the action to apply.
	// Supported types:
	//   - "drop_columns"       : Remove the listed item columns
	//   - "fill_missing"       : Replace missing cells by Value
	//   - "zero_as_missing"    : Mark zero cells as missing
	//   - "replace_where"      : Replace cells satisfying Operator/Threshold by Value
	//   - "drop_columns_where" : Remove columns with any cell satisfying Operator/Threshold
	//   - "filter_sparse"      : Remove columns whose share of Value cells exceeds MaxFraction
	//   - "rename_unnamed"     : Rename Column_<n> labels using Format
	//   - "rename_id"          : Rename the identifier column to Name
	//   - "head"               : Keep the first Rows rows and Columns item columns
	//   - "impute_linear"      : Fill missing cells by linear regression
	Type string `yaml:"type"`

	Columns     []string `yaml:"columns,omitempty"`
	Value       float64  `yaml:"value,omitempty"`
	Operator    string   `yaml:"operator,omitempty"`
	Threshold   float64  `yaml:"threshold,omitempty"`
	MaxFraction float64  `yaml:"max_fraction,omitempty"`
	Format      string   `yaml:"format,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	Rows        int      `yaml:"rows,omitempty"`
	Cols        int      `yaml:"cols,omitempty"`
}

// ImputeSettings configures the linear-regression imputer.
type ImputeSettings struct {
	// ZeroAsMissing treats zero readings as missing before fitting.
	ZeroAsMissing bool `yaml:"zero_as_missing"`
}

// ValidationSettings configures the table validator.
type ValidationSettings struct {
	// MissingIsError reports missing cells as errors instead of warnings.
	MissingIsError bool `yaml:"missing_is_error"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from path.
//
// PARAMETERS:
//   - path: The configuration file.
//   - required: When false, a missing file yields the defaults.
//
// RETURNS:
//   - The loaded configuration with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SummaryFormat == "" {
		cfg.SummaryFormat = "{command}_summary_{timestamp}_{uuid}.txt"
	}

	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.CSV.MissingMarkers == nil {
		cfg.CSV.MissingMarkers = []string{"", "NaN", "nan", "NA", "null"}
	}
	if cfg.CSV.MissingOutput == "" {
		cfg.CSV.MissingOutput = "NaN"
	}

	if cfg.Transactional.Separator == "" {
		cfg.Transactional.Separator = "\t"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = "data"
	}
	if cfg.Database.StationColumn == "" {
		cfg.Database.StationColumn = "sname"
	}
	if cfg.Database.TimeColumn == "" {
		cfg.Database.TimeColumn = "time"
	}
	if cfg.Database.Parameter == "" {
		cfg.Database.Parameter = "pm25"
	}
	if cfg.Database.Sentinels == nil {
		cfg.Database.Sentinels = []float64{-1000, 9999}
	}

	for i := range cfg.Preprocess.Steps {
		step := &cfg.Preprocess.Steps[i]
		step.Type = strings.ToLower(strings.TrimSpace(step.Type))
		if step.Type == "rename_id" && step.Name == "" {
			step.Name = "TID"
		}
		if step.Type == "rename_unnamed" && step.Format == "" {
			step.Format = "Point{n}"
		}
	}
}

// validate checks values that would otherwise fail deep inside a run.
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", cfg.LogLevel)
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q must be postgres or sqlite", cfg.Database.Driver)
	}

	identifiers := map[string]string{
		"database.table":          cfg.Database.Table,
		"database.station_column": cfg.Database.StationColumn,
		"database.time_column":    cfg.Database.TimeColumn,
	}
	for key, value := range identifiers {
		if !ValidIdentifier(value) {
			return fmt.Errorf("%s %q is not a valid identifier", key, value)
		}
	}

	for i, step := range cfg.Preprocess.Steps {
		if step.Type == "" {
			return fmt.Errorf("preprocess step %d has no type", i+1)
		}
		if step.Type == "filter_sparse" && (step.MaxFraction < 0 || step.MaxFraction > 1) {
			return fmt.Errorf("preprocess step %d: max_fraction must be between 0 and 1", i+1)
		}
	}

	return nil
}

// ValidIdentifier reports whether s is safe to use as an SQL identifier.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
