package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TradeLogURL       string        `yaml:"trade_log_url"`
	RefreshInterval   time.Duration `yaml:"refresh_interval"`
	ListenAddr        string        `yaml:"listen_addr"`
	InitialPortfolio  float64       `yaml:"initial_portfolio"`
	ScrollDelay       time.Duration `yaml:"scroll_delay"`
	HighlightDuration time.Duration `yaml:"highlight_duration"`
	StorePath         string        `yaml:"store_path"` // default in-memory
	TracingEnabled    bool          `yaml:"tracing_enabled"`
	LogFormat         string        `yaml:"log_format"` // "text" or "json"
}

const defaultTradeLogURL = "https://storage.googleapis.com/gabe-jay-stock/data/trade_log.csv"

// Load reads .env (if present), then the environment, then the optional YAML
// file named by DASHBOARD_CONFIG. Values in the file win over the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TradeLogURL:      getEnvDefault("TRADE_LOG_URL", defaultTradeLogURL),
		ListenAddr:       getEnvDefault("LISTEN_ADDR", ":8080"),
		StorePath:        getEnvDefault("STORE_PATH", ":memory:"),
		LogFormat:        getEnvDefault("LOG_FORMAT", "text"),
		TracingEnabled:   getEnvDefault("TRACING_ENABLED", "false") == "true",
		InitialPortfolio: 1_000_000,
	}

	var err error
	if cfg.RefreshInterval, err = durationEnv("REFRESH_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.ScrollDelay, err = durationEnv("SCROLL_DELAY", 300*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HighlightDuration, err = durationEnv("HIGHLIGHT_DURATION", 2*time.Second); err != nil {
		return nil, err
	}
	if v := os.Getenv("INITIAL_PORTFOLIO"); v != "" {
		cfg.InitialPortfolio, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("INITIAL_PORTFOLIO: %w", err)
		}
	}

	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay applies non-zero fields from a YAML file on top of cfg.
func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(b, &file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.TradeLogURL != "" {
		c.TradeLogURL = file.TradeLogURL
	}
	if file.RefreshInterval != 0 {
		c.RefreshInterval = file.RefreshInterval
	}
	if file.ListenAddr != "" {
		c.ListenAddr = file.ListenAddr
	}
	if file.InitialPortfolio != 0 {
		c.InitialPortfolio = file.InitialPortfolio
	}
	if file.ScrollDelay != 0 {
		c.ScrollDelay = file.ScrollDelay
	}
	if file.HighlightDuration != 0 {
		c.HighlightDuration = file.HighlightDuration
	}
	if file.StorePath != "" {
		c.StorePath = file.StorePath
	}
	if file.TracingEnabled {
		c.TracingEnabled = true
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
	}
	return nil
}

func (c *Config) Validate() error {
	if c.TradeLogURL == "" {
		return fmt.Errorf("TRADE_LOG_URL is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	if c.InitialPortfolio <= 0 {
		return fmt.Errorf("initial portfolio must be positive, got %v", c.InitialPortfolio)
	}
	if c.ScrollDelay < 0 || c.HighlightDuration < 0 {
		return fmt.Errorf("selection delays must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", c.LogFormat)
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// durationEnv accepts Go durations ("1s", "300ms") or a bare millisecond count.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
