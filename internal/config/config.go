// Package config loads the client configuration from a YAML file with
// environment variable expansion, then applies BARALGA_* overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/baralga/internal/model"
	"github.com/sadopc/baralga/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. BARALGA_API_BASE_URL.
const EnvPrefix = "baralga"

type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
	Filter  FilterConfig  `yaml:"filter"`
}

func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return nil
}

// APIConfig points at the Baralga backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" split_words:"true"`
	Timeout time.Duration `yaml:"timeout" split_words:"true"`
}

var httpURL = regexp.MustCompile(`^https?://[^\s/]+`)

func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.Match(httpURL).Error("must be an http(s) url")),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

type StorageConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

type ExportConfig struct {
	Dir        string `yaml:"dir" split_words:"true"`
	BackupFile string `yaml:"backup_file" split_words:"true"`
}

func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.BackupFile, validation.Required),
	)
}

// LogConfig controls the log file. The terminal belongs to the UI, so
// logs never go to stdout.
type LogConfig struct {
	Level string `yaml:"level" split_words:"true"`
	File  string `yaml:"file" split_words:"true"`
}

func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.By(func(v any) error {
			_, err := zerolog.ParseLevel(v.(string))
			return err
		})),
	)
}

type FilterConfig struct {
	Timespan model.Timespan `yaml:"timespan" split_words:"true"`
}

func (c *FilterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timespan, validation.Required, validation.In(
			model.TimespanYear, model.TimespanQuarter, model.TimespanMonth, model.TimespanWeek,
		)),
	)
}

// Default returns a Config with sensible default values.
func Default() *Config {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = "baralga.db"
	}
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{Path: dbPath},
		Export: ExportConfig{
			Dir:        ".",
			BackupFile: "baralga_backup.xml",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(filepath.Dir(dbPath), "baralga.log"),
		},
		Filter: FilterConfig{
			Timespan: model.TimespanMonth,
		},
	}
}

// Load reads filename over the defaults. A missing file is not an error;
// the defaults plus environment overrides are used instead.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", filename, err)
		default:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", filename, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.config/baralga/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "baralga", "config.yaml")
}
