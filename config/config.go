package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/bikestats/engine"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	Data     DataConfig     `yaml:"data"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Segments SegmentsConfig `yaml:"segments"`
	Report   ReportConfig   `yaml:"report"`

	categorizer *engine.Categorizer
}

type DataConfig struct {
	Daily  string `yaml:"daily" env:"BIKESTATS_DAILY"`
	Hourly string `yaml:"hourly" env:"BIKESTATS_HOURLY"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"BIKESTATS_ADDR"`
	AllowOrigins    []string      `yaml:"allow_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"BIKESTATS_LOG_LEVEL"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type SegmentsConfig struct {
	Thresholds []float64 `yaml:"thresholds"`
	Labels     []string  `yaml:"labels"`
}

type ReportConfig struct {
	PeakHours int    `yaml:"peak_hours"`
	Reply     string `yaml:"reply"`
}

// Load reads .env (if present), then the YAML file, then environment
// overrides, then fills defaults and validates. path wins over
// BIKESTATS_CONFIG; a missing default config.yaml is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := true
	if path == "" {
		path = os.Getenv("BIKESTATS_CONFIG")
	}
	if path == "" {
		path = defaultConfigFile
		explicit = false
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults and environment only
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a validated configuration with no file or environment
// applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		panic(err) // defaults are valid
	}
	return &cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BIKESTATS_DAILY"); v != "" {
		c.Data.Daily = v
	}
	if v := os.Getenv("BIKESTATS_HOURLY"); v != "" {
		c.Data.Hourly = v
	}
	if v := os.Getenv("BIKESTATS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("BIKESTATS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Data.Daily == "" {
		c.Data.Daily = "data/day.csv"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if len(c.Segments.Thresholds) == 0 {
		c.Segments.Thresholds = append([]float64(nil), engine.DefaultThresholds...)
	}
	if len(c.Segments.Labels) == 0 && len(c.Segments.Thresholds) == len(engine.DefaultThresholds) {
		c.Segments.Labels = append([]string(nil), engine.DefaultLabels...)
	}
	if c.Report.PeakHours == 0 {
		c.Report.PeakHours = engine.DefaultPeakHours
	}
	if c.Report.Reply == "" {
		c.Report.Reply = engine.DefaultReply
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (set BIKESTATS_LOG_LEVEL or log.level)", c.Log.Level)
	}
	if c.Report.PeakHours < 0 || c.Report.PeakHours > 24 {
		return fmt.Errorf("report.peak_hours must be between 1 and 24, got %d", c.Report.PeakHours)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	cat, err := engine.NewCategorizer(c.Segments.Thresholds, c.Segments.Labels)
	if err != nil {
		return fmt.Errorf("segments: %w", err)
	}
	c.categorizer = cat
	return nil
}

// Categorizer returns the volume categorizer built from the segments section.
func (c *Config) Categorizer() *engine.Categorizer {
	return c.categorizer
}
