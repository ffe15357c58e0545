package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of key and whether it was set to something non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer. Unset keys report ok=false without error.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s=%q: %w", key, raw, err)
	}
	return value, true, nil
}

// ApplyEnv overlays the LIBRARIAN_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if value, ok := EnvString("LIBRARIAN_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok := EnvString("LIBRARIAN_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := EnvInt("LIBRARIAN_TIMEOUT_MS"); err != nil {
		return err
	} else if ok {
		cfg.RequestTimeout = time.Duration(value) * time.Millisecond
	}
	if value, ok, err := EnvInt("LIBRARIAN_RETRIES"); err != nil {
		return err
	} else if ok {
		cfg.MaxRetries = value
	}
	return nil
}
