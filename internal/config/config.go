package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ArticleGoat.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"    yaml:"engine"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Blocking  BlockingConfig  `mapstructure:"blocking"  yaml:"blocking"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Render    RenderConfig    `mapstructure:"render"    yaml:"render"`
	Cleaner   CleanerConfig   `mapstructure:"cleaner"   yaml:"cleaner"`
	Source    SourceConfig    `mapstructure:"source"    yaml:"source"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// EngineConfig controls the worker pool.
type EngineConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	QueueSize   int `mapstructure:"queue_size"  yaml:"queue_size"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	Timeout         time.Duration     `mapstructure:"timeout"           yaml:"timeout"`
	MaxRetries      int               `mapstructure:"max_retries"       yaml:"max_retries"`
	BackoffBase     time.Duration     `mapstructure:"backoff_base"      yaml:"backoff_base"`
	BackoffMax      time.Duration     `mapstructure:"backoff_max"       yaml:"backoff_max"`
	DomainDelay     time.Duration     `mapstructure:"domain_delay"      yaml:"domain_delay"`
	FollowRedirects bool              `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int               `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64             `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool              `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration     `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string          `mapstructure:"user_agents"       yaml:"user_agents"`
	Headers         map[string]string `mapstructure:"headers"           yaml:"headers"`
}

// BlockingConfig tunes the block-page heuristics.
type BlockingConfig struct {
	MinBytes int      `mapstructure:"min_bytes" yaml:"min_bytes"`
	MaxBytes int      `mapstructure:"max_bytes" yaml:"max_bytes"`
	Phrases  []string `mapstructure:"phrases"   yaml:"phrases"`
}

// ExtractorConfig controls the primary and selector extractors.
type ExtractorConfig struct {
	MinTextLengthOK      int              `mapstructure:"min_text_length_ok"      yaml:"min_text_length_ok"`
	MinTextLengthWarning int              `mapstructure:"min_text_length_warning" yaml:"min_text_length_warning"`
	LanguageHint         string           `mapstructure:"language_hint"           yaml:"language_hint"`
	StripSelectors       []string         `mapstructure:"strip_selectors"         yaml:"strip_selectors"`
	Domains              []DomainSelector `mapstructure:"domains"                 yaml:"domains"`
	SelectorsFile        string           `mapstructure:"selectors_file"          yaml:"selectors_file"`
}

// DomainSelector maps one registrable domain to its ordered selectors.
// Selectors are CSS unless prefixed with "xpath:".
type DomainSelector struct {
	Domain    string   `mapstructure:"domain"    yaml:"domain"`
	Selectors []string `mapstructure:"selectors" yaml:"selectors"`
}

// RenderConfig controls the headless-browser fallback.
type RenderConfig struct {
	Enabled      bool          `mapstructure:"enabled"       yaml:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	Whitelist    []string      `mapstructure:"whitelist"     yaml:"whitelist"`
	MaxCalls     int           `mapstructure:"max_calls"     yaml:"max_calls"`
	WaitStrategy string        `mapstructure:"wait_strategy" yaml:"wait_strategy"`
	Headless     bool          `mapstructure:"headless"      yaml:"headless"`
	Stealth      bool          `mapstructure:"stealth"       yaml:"stealth"`
	BrowserBin   string        `mapstructure:"browser_bin"   yaml:"browser_bin"`
}

// CleanerConfig controls text normalization.
type CleanerConfig struct {
	RemovePatterns         []string `mapstructure:"remove_patterns"          yaml:"remove_patterns"`
	MaxConsecutiveNewlines int      `mapstructure:"max_consecutive_newlines" yaml:"max_consecutive_newlines"`
	MinLineLength          int      `mapstructure:"min_line_length"          yaml:"min_line_length"`
}

// SourceConfig controls task intake from feeds.
type SourceConfig struct {
	Keywords    []string      `mapstructure:"keywords"     yaml:"keywords"`
	FeedTimeout time.Duration `mapstructure:"feed_timeout" yaml:"feed_timeout"`
	MaxItems    int           `mapstructure:"max_items"    yaml:"max_items"`
}

// StorageConfig controls where records, failures and the report land.
type StorageConfig struct {
	Type       string        `mapstructure:"type"        yaml:"type"` // jsonl, json, csv, mongodb, sqlite; comma-separated for several
	OutputDir  string        `mapstructure:"output_dir"  yaml:"output_dir"`
	OutputFile string        `mapstructure:"output_file" yaml:"output_file"`
	FailedFile string        `mapstructure:"failed_file" yaml:"failed_file"`
	ReportFile string        `mapstructure:"report_file" yaml:"report_file"`
	BatchSize  int           `mapstructure:"batch_size"  yaml:"batch_size"`
	Mongo      MongoConfig   `mapstructure:"mongo"       yaml:"mongo"`
	SQLite     SQLiteConfig  `mapstructure:"sqlite"      yaml:"sqlite"`
}

// MongoConfig configures the MongoDB sink.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// SQLiteConfig configures the SQLite sink.
type SQLiteConfig struct {
	Path  string `mapstructure:"path"  yaml:"path"`
	Table string `mapstructure:"table" yaml:"table"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Concurrency: 5,
			QueueSize:   100,
		},
		Fetcher: FetcherConfig{
			Timeout:         15 * time.Second,
			MaxRetries:      3,
			BackoffBase:     2 * time.Second,
			BackoffMax:      10 * time.Second,
			DomainDelay:     1 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			Headers: map[string]string{
				"Accept-Language": "es-ES,es;q=0.9,en;q=0.8",
			},
		},
		Blocking: BlockingConfig{
			MinBytes: 512,
			MaxBytes: 10 * 1024 * 1024,
			Phrases:  DefaultBlockPhrases(),
		},
		Extractor: ExtractorConfig{
			MinTextLengthOK:      200,
			MinTextLengthWarning: 100,
			StripSelectors:       DefaultStripSelectors(),
			Domains:              DefaultDomainSelectors(),
		},
		Render: RenderConfig{
			Enabled:      false,
			Timeout:      30 * time.Second,
			MaxCalls:     10,
			WaitStrategy: "network-idle",
			Headless:     true,
			Stealth:      true,
		},
		Cleaner: CleanerConfig{
			RemovePatterns:         DefaultRemovePatterns(),
			MaxConsecutiveNewlines: 2,
			MinLineLength:          3,
		},
		Source: SourceConfig{
			Keywords:    []string{"china", "chino", "china's", "beijing", "pekín", "xi jinping", "中国"},
			FeedTimeout: 20 * time.Second,
		},
		Storage: StorageConfig{
			Type:       "jsonl",
			OutputDir:  "./output",
			OutputFile: "articles_full.jsonl",
			FailedFile: "failed_extractions.jsonl",
			ReportFile: "extraction_report.json",
			BatchSize:  50,
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "articlegoat",
				Collection: "articles",
			},
			SQLite: SQLiteConfig{
				Path:  "./output/articles.db",
				Table: "articles",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
