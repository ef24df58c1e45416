// =============================================================================
// Subscription CSV Customiser - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing configuration. It
// handles both the main application configuration (config.yaml) and the
// business rules document (rules.yaml, see rules.go).
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. Main config file (config.yaml, optional)
//   3. Environment variables prefixed with CUSTOMISER_
//
// Every loaded configuration is validated before it is returned.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "CUSTOMISER"

// DefaultOutputPrefix is prepended to the original file name of every
// converted file.
const DefaultOutputPrefix = "AUTO_CONVERTED_WEIGHT+IOSS_ADDED_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is where relative --file paths are resolved.
	// Default: "./input"
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`

	// OutputDir is where converted files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`

	// InputArchiveDir is where processed input files are moved when
	// ArchiveInput is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" envconfig:"INPUT_ARCHIVE_DIR" validate:"required"`

	// ArchiveInput moves the source file to InputArchiveDir after a
	// successful conversion.
	ArchiveInput bool `yaml:"archive_input" envconfig:"ARCHIVE_INPUT"`

	// ArchiveByDate files archived inputs under YYYY/MM/DD subdirectories.
	ArchiveByDate bool `yaml:"archive_by_date" envconfig:"ARCHIVE_BY_DATE"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional log file. Logs always go to stdout as well.
	LogFile string `yaml:"log_file" envconfig:"LOG_FILE"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// LogFormat selects the slog handler: "text" or "json".
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=text json"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputPrefix is prepended to the original file name.
	// Default: "AUTO_CONVERTED_WEIGHT+IOSS_ADDED_"
	OutputPrefix string `yaml:"output_prefix" envconfig:"OUTPUT_PREFIX" validate:"required"`

	// OutputFormat is the export format: "csv" or "xlsx".
	OutputFormat string `yaml:"output_format" envconfig:"OUTPUT_FORMAT" validate:"oneof=csv xlsx"`

	// RulesFile optionally replaces the embedded business rules.
	RulesFile string `yaml:"rules_file" envconfig:"RULES_FILE"`

	// CSVSettings contains settings for reading and writing CSV files.
	CSVSettings CSVSettings `yaml:"csv_settings" envconfig:"CSV"`

	// Server contains the HTTP upload/download settings.
	Server ServerConfig `yaml:"server" envconfig:"SERVER"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"required"`

	// Encoding is the character encoding of input files.
	// Valid values: "UTF-8", "WINDOWS-1252", "ISO-8859-1"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=UTF-8 WINDOWS-1252 ISO-8859-1"`
}

// ServerConfig holds settings for the `serve` command.
type ServerConfig struct {
	Addr           string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"min=1s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"min=1s"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a MainConfig with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// A missing file is not an error: the defaults are used. Environment
// variables are applied on top of the file, then the result is validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var cfg MainConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyMainConfigDefaults(&cfg)

	if err := validateMainConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	config.LogFormat = strings.ToLower(config.LogFormat)
	if config.OutputPrefix == "" {
		config.OutputPrefix = DefaultOutputPrefix
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "csv"
	}
	config.OutputFormat = strings.ToLower(config.OutputFormat)

	// CSV settings defaults.
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}
	config.CSVSettings.Encoding = strings.ToUpper(config.CSVSettings.Encoding)

	// Server defaults.
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 15 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 60 * time.Second
	}
	if config.Server.MaxUploadBytes == 0 {
		config.Server.MaxUploadBytes = 10 << 20
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	return validate.Struct(config)
}
