package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every application setting. Secrets are overridden from the
// environment after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr      string `yaml:"addr"`
		PprofAddr string `yaml:"pprof_addr"`
	} `yaml:"server"`

	API struct {
		Quotes struct {
			BaseURL         string   `yaml:"base_url"`
			FallbackURL     string   `yaml:"fallback_url"`
			StreamURL       string   `yaml:"stream_url"`
			Key             string   `yaml:"key"`
			Symbols         []string `yaml:"symbols"`
			PollIntervalSec int      `yaml:"poll_interval_sec"`
		} `yaml:"quotes"`
		News struct {
			BaseURL string   `yaml:"base_url"`
			Key     string   `yaml:"key"`
			Topics  []string `yaml:"topics"`
		} `yaml:"news"`
		Gemini struct {
			Model string `yaml:"model"`
			Key   string `yaml:"key"`
		} `yaml:"gemini"`
	} `yaml:"api"`

	Dashboard struct {
		HistoryDays   int             `yaml:"history_days"`
		RiskThreshold decimal.Decimal `yaml:"risk_threshold"`
		CacheTTLSec   int             `yaml:"cache_ttl_sec"`
	} `yaml:"dashboard"`

	Storage struct {
		Path string `yaml:"path"` // empty: resolved under the user config dir
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}

	if c.API.Quotes.BaseURL == "" || !strings.HasPrefix(c.API.Quotes.BaseURL, "http") {
		return fmt.Errorf("invalid quotes base URL: %s", c.API.Quotes.BaseURL)
	}
	if c.API.Quotes.StreamURL != "" &&
		!strings.HasPrefix(c.API.Quotes.StreamURL, "ws://") && !strings.HasPrefix(c.API.Quotes.StreamURL, "wss://") {
		return fmt.Errorf("invalid quotes stream URL: %s", c.API.Quotes.StreamURL)
	}
	if len(c.API.Quotes.Symbols) == 0 {
		return fmt.Errorf("at least one tracked symbol is required")
	}
	if c.API.Quotes.PollIntervalSec <= 0 {
		return fmt.Errorf("quote poll interval must be positive")
	}

	if c.Dashboard.HistoryDays <= 0 {
		return fmt.Errorf("history days must be positive")
	}
	if c.Dashboard.RiskThreshold.IsNegative() || c.Dashboard.RiskThreshold.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("risk threshold must be within [0, 1]")
	}

	return nil
}

// overrideWithEnv overwrites settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("FOLIO_QUOTES_KEY"); key != "" {
		cfg.API.Quotes.Key = key
	}
	if key := os.Getenv("FOLIO_NEWS_KEY"); key != "" {
		cfg.API.News.Key = key
	}
	if key := os.Getenv("FOLIO_GEMINI_KEY"); key != "" {
		cfg.API.Gemini.Key = key
	}
	if path := os.Getenv("FOLIO_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
