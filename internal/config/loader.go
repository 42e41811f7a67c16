package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// ARTICLEGOAT_RENDER_ENABLED=true.
const EnvPrefix = "ARTICLEGOAT"

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("articlegoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".articlegoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("engine.concurrency", cfg.Engine.Concurrency)
	v.SetDefault("engine.queue_size", cfg.Engine.QueueSize)

	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.backoff_base", cfg.Fetcher.BackoffBase)
	v.SetDefault("fetcher.backoff_max", cfg.Fetcher.BackoffMax)
	v.SetDefault("fetcher.domain_delay", cfg.Fetcher.DomainDelay)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.headers", cfg.Fetcher.Headers)

	v.SetDefault("blocking.min_bytes", cfg.Blocking.MinBytes)
	v.SetDefault("blocking.max_bytes", cfg.Blocking.MaxBytes)
	v.SetDefault("blocking.phrases", cfg.Blocking.Phrases)

	v.SetDefault("extractor.min_text_length_ok", cfg.Extractor.MinTextLengthOK)
	v.SetDefault("extractor.min_text_length_warning", cfg.Extractor.MinTextLengthWarning)
	v.SetDefault("extractor.language_hint", cfg.Extractor.LanguageHint)
	v.SetDefault("extractor.strip_selectors", cfg.Extractor.StripSelectors)
	v.SetDefault("extractor.selectors_file", cfg.Extractor.SelectorsFile)

	v.SetDefault("render.enabled", cfg.Render.Enabled)
	v.SetDefault("render.timeout", cfg.Render.Timeout)
	v.SetDefault("render.whitelist", cfg.Render.Whitelist)
	v.SetDefault("render.max_calls", cfg.Render.MaxCalls)
	v.SetDefault("render.wait_strategy", cfg.Render.WaitStrategy)
	v.SetDefault("render.headless", cfg.Render.Headless)
	v.SetDefault("render.stealth", cfg.Render.Stealth)
	v.SetDefault("render.browser_bin", cfg.Render.BrowserBin)

	v.SetDefault("cleaner.remove_patterns", cfg.Cleaner.RemovePatterns)
	v.SetDefault("cleaner.max_consecutive_newlines", cfg.Cleaner.MaxConsecutiveNewlines)
	v.SetDefault("cleaner.min_line_length", cfg.Cleaner.MinLineLength)

	v.SetDefault("source.keywords", cfg.Source.Keywords)
	v.SetDefault("source.feed_timeout", cfg.Source.FeedTimeout)
	v.SetDefault("source.max_items", cfg.Source.MaxItems)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.output_file", cfg.Storage.OutputFile)
	v.SetDefault("storage.failed_file", cfg.Storage.FailedFile)
	v.SetDefault("storage.report_file", cfg.Storage.ReportFile)
	v.SetDefault("storage.batch_size", cfg.Storage.BatchSize)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)
	v.SetDefault("storage.sqlite.path", cfg.Storage.SQLite.Path)
	v.SetDefault("storage.sqlite.table", cfg.Storage.SQLite.Table)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
