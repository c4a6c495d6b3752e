// Package config handles YAML configuration loading, environment variable
// expansion, defaults and validation for tgpost.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	// Empty is accepted and treated as "1".
	Version string `yaml:"version"`

	// ChatID is the destination chat: a numeric id or an @channel name.
	// It is checked at send time, not at load time.
	ChatID string `yaml:"chat_id"`

	// ParseMode is None, MarkdownV2, Markdown or HTML.
	ParseMode string `yaml:"parse_mode"`

	// PrependFilename adds the file name as the first header line.
	PrependFilename bool `yaml:"prepend_filename"`

	// IncludeMetadata adds a "<language> • <timestamp>" header line.
	IncludeMetadata bool `yaml:"include_metadata"`

	// ChunkSize is clamped into [1000, 4000] when messages are split.
	// An explicit 0 is kept and clamps to 1000.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkUnit is "byte" (default) or "rune".
	ChunkUnit string `yaml:"chunk_unit"`

	// APIURL is the Bot API base URL.
	APIURL string `yaml:"api_url"`

	// RequestTimeout bounds each sendMessage call. Zero means no limit.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// DataDir holds the secrets database.
	DataDir string `yaml:"data_dir"`

	Serve  ServeConfig  `yaml:"serve"`
	Sentry SentryConfig `yaml:"sentry"`
}

// ServeConfig configures the local HTTP gateway.
type ServeConfig struct {
	Bind            string        `yaml:"bind"`
	BearerToken     string        `yaml:"bearer_token"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// DefaultChunkSize is used when chunk_size is absent.
const DefaultChunkSize = 4000

// Parse modes accepted in parse_mode.
const (
	ParseModeNone       = "None"
	ParseModeMarkdownV2 = "MarkdownV2"
	ParseModeMarkdown   = "Markdown"
	ParseModeHTML       = "HTML"
)

// seed returns a Config holding the defaults whose zero value is also a
// meaningful setting. YAML is decoded over it so absent keys keep them.
func seed() *Config {
	return &Config{PrependFilename: true, ChunkSize: DefaultChunkSize}
}

// Defaults applies default values to unset fields.
func (c *Config) Defaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.ParseMode == "" {
		c.ParseMode = ParseModeMarkdownV2
	}
	if c.ChunkUnit == "" {
		c.ChunkUnit = "byte"
	}
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Serve.Bind == "" {
		c.Serve.Bind = "127.0.0.1:8088"
	}
	if c.Serve.ReadTimeout <= 0 {
		c.Serve.ReadTimeout = 10 * time.Second
	}
	if c.Serve.WriteTimeout <= 0 {
		c.Serve.WriteTimeout = 2 * time.Minute
	}
	if c.Serve.ShutdownTimeout <= 0 {
		c.Serve.ShutdownTimeout = 5 * time.Second
	}
	if c.Sentry.Environment == "" {
		c.Sentry.Environment = "production"
	}
}

// Default returns a configuration with every default applied. It is used
// when no configuration file exists.
func Default() *Config {
	cfg := seed()
	cfg.Defaults()
	return cfg
}
