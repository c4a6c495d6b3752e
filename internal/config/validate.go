package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
)

// Validate checks field constraints after defaults have been applied.
// An empty chat_id is not an error here: it is reported when sending.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	switch cfg.ParseMode {
	case ParseModeNone, ParseModeMarkdownV2, ParseModeMarkdown, ParseModeHTML:
	default:
		errs = append(errs, fmt.Errorf("config: parse_mode must be one of None, MarkdownV2, Markdown, HTML, got %q", cfg.ParseMode))
	}

	if cfg.ChunkUnit != "byte" && cfg.ChunkUnit != "rune" {
		errs = append(errs, fmt.Errorf("config: chunk_unit must be byte or rune, got %q", cfg.ChunkUnit))
	}

	if u, err := url.Parse(cfg.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("config: api_url must be a valid http/https URL, got %q", cfg.APIURL))
	}

	if cfg.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: request_timeout must not be negative, got %s", cfg.RequestTimeout))
	}

	if _, ok := ParseLevel(cfg.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("config: log_level must be debug, info, warn or error, got %q", cfg.LogLevel))
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.Serve.Bind); err != nil {
		errs = append(errs, errors.New("config: serve.bind: invalid address: "+cfg.Serve.Bind))
	}

	return errors.Join(errs...)
}

// ParseLevel maps a log_level value to a slog.Level.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
