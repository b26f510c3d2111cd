// Package config loads the parser's YAML configuration and the channel
// list files it references.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"telegram-parser/parser"
	"telegram-parser/pkg/channel"
)

// Config is the full runtime configuration. File values override the
// defaults, command-line flags override the file.
type Config struct {
	Auth     Auth             `yaml:"auth"`
	Parser   Parser           `yaml:"parser"`
	Channels []channel.Target `yaml:"channels"`
	Output   Output           `yaml:"output"`
}

// Auth configures the browser session.
type Auth struct {
	Phone    string `yaml:"phone"`
	Headless bool   `yaml:"headless"`
	Proxy    string `yaml:"proxy"`
	// SessionDir holds the persisted browser profile. Empty means a
	// throwaway profile that forgets the login on exit.
	SessionDir string `yaml:"session_dir"`
}

// Parser configures collection behavior.
type Parser struct {
	Limit       int         `yaml:"limit"`
	DateRange   DateBounds  `yaml:"date_range"`
	Performance Performance `yaml:"performance"`
}

// DateBounds carries the raw YYYY-MM-DD bounds as written in the file.
type DateBounds struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Performance tunes the scroll loop. Delays are in seconds, matching how
// operators think about them in the config file.
type Performance struct {
	ScrollDelay float64 `yaml:"scroll_delay"`
	BatchSize   int     `yaml:"batch_size"`
	WaitTime    float64 `yaml:"wait_time"`
	ScrollStep  float64 `yaml:"scroll_step"`
}

// Output configures where and how results are written.
type Output struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"`
	// GCSBucket, when set, mirrors every exported file to Cloud Storage.
	GCSBucket string `yaml:"gcs_bucket"`
	// CredentialsFile is an optional service-account key for the bucket.
	CredentialsFile string `yaml:"credentials_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Auth: Auth{
			Headless:   false,
			SessionDir: "sessions",
		},
		Parser: Parser{
			Limit: 100,
			Performance: Performance{
				ScrollDelay: 0.2,
				BatchSize:   10,
				WaitTime:    1.0,
				ScrollStep:  600,
			},
		},
		Output: Output{
			Directory: "output",
			Format:    "xlsx",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing path is not
// an error; the defaults stand.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	logger.Info("loaded configuration",
		"path", path,
		"channels", len(cfg.Channels),
		"limit", cfg.Parser.Limit,
		"format", cfg.Output.Format)
	return cfg, nil
}

// DateRange resolves the configured bounds. A malformed bound is logged and
// dropped rather than failing the run.
func (c *Config) DateRange(logger *slog.Logger) channel.DateRange {
	var r channel.DateRange
	if c.Parser.DateRange.Start != "" {
		t, err := time.Parse("2006-01-02", c.Parser.DateRange.Start)
		if err != nil {
			logger.Error("invalid start date, ignoring", "value", c.Parser.DateRange.Start, "expected", "YYYY-MM-DD")
		} else {
			r.Start = t
		}
	}
	if c.Parser.DateRange.End != "" {
		t, err := time.Parse("2006-01-02", c.Parser.DateRange.End)
		if err != nil {
			logger.Error("invalid end date, ignoring", "value", c.Parser.DateRange.End, "expected", "YYYY-MM-DD")
		} else {
			r.End = t
		}
	}
	return r
}

// ParserOptions maps the configuration onto the engine's options.
func (c *Config) ParserOptions(logger *slog.Logger) parser.Options {
	perf := c.Parser.Performance
	return parser.Options{
		Limit:            c.Parser.Limit,
		DateRange:        c.DateRange(logger),
		ScrollBatchSize:  perf.BatchSize,
		ScrollStepPx:     perf.ScrollStep,
		InterScrollDelay: seconds(perf.ScrollDelay),
		PostScrollSettle: seconds(perf.WaitTime),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
