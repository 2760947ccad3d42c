package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "regkareport/internal/errors"
)

// EnvPrefix namespaces every environment variable (REGKA_PIPELINE_WORK_DIR, ...)
const EnvPrefix = "REGKA"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PipelineConfig locates the inputs and outputs of the three stages.
// Relative directories resolve against WorkDir.
type PipelineConfig struct {
	WorkDir         string `yaml:"work_dir" envconfig:"WORK_DIR" validate:"required"`
	FragmentDir     string `yaml:"fragment_dir" envconfig:"FRAGMENT_DIR" validate:"required"`
	FragmentPattern string `yaml:"fragment_pattern" envconfig:"FRAGMENT_PATTERN" validate:"required"`
}

// ReportConfig controls the reporter's optional outputs
type ReportConfig struct {
	ExportCSV bool   `yaml:"export_csv" envconfig:"EXPORT_CSV"`
	CSVDir    string `yaml:"csv_dir" envconfig:"CSV_DIR" validate:"required_if=ExportCSV true"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	EnableTracing   bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceFile       string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=EnableTracing true"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// Load loads configuration from the first well-known config file (if any)
// and environment variables.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration with precedence env > file > defaults.
// An empty filePath skips the file layer.
func LoadFrom(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", filePath), err)
		}
	}

	// Fields carry no default tags, so unset variables leave the
	// file/default value untouched.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	// Always JSON
	c.Logging.Format = "json"

	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"regkareport.yaml",
		"configs/regkareport.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Pipeline: PipelineConfig{
			WorkDir:         ".",
			FragmentDir:     DefaultFragmentDir,
			FragmentPattern: DefaultFragmentPattern,
		},
		Report: ReportConfig{
			ExportCSV: false,
			CSVDir:    "reports",
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}
