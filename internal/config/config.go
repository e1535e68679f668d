package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete suite configuration. Precedence is
// defaults, then the YAML config file, then SALESPIPE_-prefixed environment
// variables, then command-line flags applied by the individual binaries.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Generator GeneratorConfig `yaml:"generator" envconfig:"GENERATOR"`
	Benchmark BenchmarkConfig `yaml:"benchmark" envconfig:"BENCHMARK"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Tracing   TracingConfig   `yaml:"tracing" envconfig:"TRACING"`
}

// PipelineConfig contains the pipeline run configuration
type PipelineConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputPath    string `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	FileExtension string `yaml:"file_extension" envconfig:"FILE_EXTENSION" validate:"required,startswith=."`
	DateFormat    string `yaml:"date_format" envconfig:"DATE_FORMAT" validate:"required"`
	ParallelLoad  bool   `yaml:"parallel_load" envconfig:"PARALLEL_LOAD"`
}

// GeneratorConfig contains synthetic data generation configuration
type GeneratorConfig struct {
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	TargetSize string `yaml:"target_size" envconfig:"TARGET_SIZE" validate:"required"`
	Files      int    `yaml:"files" envconfig:"FILES" validate:"min=0"`
	Seed       int64  `yaml:"seed" envconfig:"SEED"`
}

// BenchmarkConfig contains benchmark harness configuration
type BenchmarkConfig struct {
	Runs            int                    `yaml:"runs" envconfig:"RUNS" validate:"min=1"`
	Pause           time.Duration          `yaml:"pause" envconfig:"PAUSE" validate:"min=0"`
	ResultsPath     string                 `yaml:"results_path" envconfig:"RESULTS_PATH" validate:"required"`
	Implementations []ImplementationConfig `yaml:"implementations" ignored:"true" validate:"min=1,dive"`
}

// ImplementationConfig names one runnable pipeline variant. Command is the
// full argv; any "{data_dir}" element is replaced with the benchmark's data
// directory at run time.
type ImplementationConfig struct {
	Name    string   `yaml:"name" validate:"required"`
	Command []string `yaml:"command" validate:"required,min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TracingConfig contains stage tracing configuration. Tracing is disabled
// by default: the exporter adds allocation noise that would show up in the
// very numbers the pipeline exists to measure.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	Exporter    string  `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=file stdout none"`
	OutputPath  string  `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
}

// Load loads configuration with the default config file discovery.
func Load() (*Config, error) {
	return LoadFromPath(getConfigFilePath())
}

// LoadFromPath loads configuration, reading the YAML file at path when it
// exists (an empty path skips the file layer), then applying environment
// overrides and validating the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	// Environment variables override file values.
	if err := envconfig.Process("SALESPIPE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg. Fields absent
// from the file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	// Normalize before structural validation so a blank section falls back
	// to usable values instead of failing.
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "file"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/salespipe.log"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "file"
	}

	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
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
		Pipeline: PipelineConfig{
			DataDir:       "data",
			OutputPath:    "results/go_output.csv",
			FileExtension: ".csv",
			DateFormat:    "2006-01-02",
			ParallelLoad:  false,
		},
		Generator: GeneratorConfig{
			OutputDir:  "data",
			TargetSize: "500MB",
			Files:      0, // 0 selects a file count from the target size
			Seed:       0, // 0 seeds from the current time
		},
		Benchmark: BenchmarkConfig{
			Runs:        5,
			Pause:       2 * time.Second,
			ResultsPath: "results/benchmark_results.json",
			Implementations: []ImplementationConfig{
				{
					Name:    "go",
					Command: []string{"./pipeline", "-data", "{data_dir}", "-output", "results/go_output.csv"},
				},
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "file",
			FilePath:    "logs/salespipe.log",
			Development: false,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "file",
			OutputPath:  "logs/trace.json",
			SampleRatio: 1.0,
		},
	}
}
