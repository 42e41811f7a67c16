package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var validWaitStrategies = map[string]bool{
	"network-idle": true, "load": true, "stable": true,
}

var validStorageTypes = map[string]bool{
	"json": true, "jsonl": true, "csv": true, "mongodb": true, "sqlite": true,
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Engine.Concurrency < 1 {
		return fmt.Errorf("engine.concurrency must be >= 1, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Engine.Concurrency > 100 {
		return fmt.Errorf("engine.concurrency must be <= 100, got %d", cfg.Engine.Concurrency)
	}

	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 1 {
		return fmt.Errorf("fetcher.max_retries must be >= 1, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.BackoffBase < 0 || cfg.Fetcher.BackoffMax < cfg.Fetcher.BackoffBase {
		return fmt.Errorf("fetcher.backoff_base must be >= 0 and <= backoff_max")
	}
	if cfg.Fetcher.DomainDelay < 0 {
		return fmt.Errorf("fetcher.domain_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Blocking.MinBytes < 0 {
		return fmt.Errorf("blocking.min_bytes must be >= 0, got %d", cfg.Blocking.MinBytes)
	}
	if cfg.Blocking.MaxBytes > 0 && cfg.Blocking.MaxBytes <= cfg.Blocking.MinBytes {
		return fmt.Errorf("blocking.max_bytes must be > min_bytes")
	}

	if cfg.Extractor.MinTextLengthOK < 1 {
		return fmt.Errorf("extractor.min_text_length_ok must be >= 1, got %d", cfg.Extractor.MinTextLengthOK)
	}
	if cfg.Extractor.MinTextLengthWarning < 0 || cfg.Extractor.MinTextLengthWarning > cfg.Extractor.MinTextLengthOK {
		return fmt.Errorf("extractor.min_text_length_warning must be between 0 and min_text_length_ok, got %d",
			cfg.Extractor.MinTextLengthWarning)
	}
	for _, d := range cfg.Extractor.Domains {
		if strings.TrimSpace(d.Domain) == "" {
			return fmt.Errorf("extractor.domains entry has an empty domain")
		}
		if len(d.Selectors) == 0 {
			return fmt.Errorf("extractor.domains[%s] has no selectors", d.Domain)
		}
	}

	if cfg.Render.MaxCalls < 0 {
		return fmt.Errorf("render.max_calls must be >= 0, got %d", cfg.Render.MaxCalls)
	}
	if cfg.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be > 0")
	}
	if !validWaitStrategies[cfg.Render.WaitStrategy] {
		return fmt.Errorf("render.wait_strategy must be one of network-idle/load/stable, got %q", cfg.Render.WaitStrategy)
	}

	for _, p := range cfg.Cleaner.RemovePatterns {
		if _, err := regexp.Compile("(?im)" + p); err != nil {
			return fmt.Errorf("cleaner.remove_patterns: invalid pattern %q: %w", p, err)
		}
	}
	if cfg.Cleaner.MaxConsecutiveNewlines < 1 {
		return fmt.Errorf("cleaner.max_consecutive_newlines must be >= 1")
	}

	for _, t := range StorageTypes(cfg.Storage.Type) {
		if !validStorageTypes[t] {
			return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb, sqlite)", t)
		}
	}
	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// StorageTypes splits a comma-separated storage.type value.
func StorageTypes(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ValidateURL checks if a URL string is valid for fetching.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
