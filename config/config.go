package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds client configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax  time.Duration `yaml:"retry_backoff_max"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	SearchDebounce   time.Duration `yaml:"search_debounce"`
	NotificationTTL  time.Duration `yaml:"notification_ttl"`
	MaxNotifications int           `yaml:"max_notifications"`
	DetailsCacheSize int           `yaml:"details_cache_size"`
	OutputFile       string        `yaml:"output_file"`
	OutputFormat     string        `yaml:"output_format"` // csv, json, or dual
	UserAgent        string        `yaml:"user_agent"`
	Verbose          bool          `yaml:"verbose"`
	MetricsAddr      string        `yaml:"metrics_addr"`
}

// DefaultConfig returns defaults matching a backend started locally on port 8080.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "http://localhost:8080/api",
		ProbeTimeout:     4 * time.Second,
		RequestTimeout:   10 * time.Second,
		MaxRetries:       1,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		RefreshInterval:  30 * time.Second,
		SearchDebounce:   300 * time.Millisecond,
		NotificationTTL:  5 * time.Second,
		MaxNotifications: 8,
		DetailsCacheSize: 128,
		OutputFile:       "output/books.csv",
		OutputFormat:     "csv",
		UserAgent:        "library-desk/1.0",
		Verbose:          false,
		MetricsAddr:      "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search debounce cannot be negative")
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification ttl must be positive")
	}
	if c.MaxNotifications <= 0 {
		return fmt.Errorf("max notifications must be positive")
	}
	if c.DetailsCacheSize <= 0 {
		return fmt.Errorf("details cache size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
