package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/flemzord/tgpost/internal/config"
	"github.com/flemzord/tgpost/internal/errreport"
	"github.com/flemzord/tgpost/internal/notify"
	"github.com/flemzord/tgpost/internal/poster"
	"github.com/flemzord/tgpost/internal/secret"
	"github.com/flemzord/tgpost/internal/security"
)

// overrides are command-line values that win over the configuration file.
type overrides struct {
	chatID    string
	parseMode string
	bind      string
}

func (o overrides) apply(cfg *config.Config) {
	if o.chatID != "" {
		cfg.ChatID = o.chatID
	}
	if o.parseMode != "" {
		cfg.ParseMode = o.parseMode
	}
	if o.bind != "" {
		cfg.Serve.Bind = o.bind
	}
}

// app holds what every command shares: configuration, logging, error
// reporting and the secrets store.
type app struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	redactor *security.Redactor
	reporter errreport.Reporter

	db      *secret.SQLite
	secrets secret.Store
}

// newApp loads the environment file and configuration, applies overrides
// and validates the result.
func newApp(cmd *cobra.Command, override func(*overrides)) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, cfgPath, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	var o overrides
	if override != nil {
		override(&o)
	}
	o.apply(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	redactor := security.NewRedactor()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(security.NewLogHandler(cmd.ErrOrStderr(), level, redactor))

	reporter, err := errreport.New(errreport.Options{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     "tgpost@" + version,
	})
	if err != nil {
		logger.Warn("error reporting disabled", "error", err)
		reporter = errreport.Nop{}
	}

	return &app{
		cfg:      cfg,
		cfgPath:  cfgPath,
		logger:   logger,
		redactor: redactor,
		reporter: reporter,
	}, nil
}

// loadConfig reads path, or the first file found in the standard
// locations, or falls back to defaults when there is none.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = config.ResolvePath()
	}
	if path == "" {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// source describes where the configuration came from.
func (a *app) source() string {
	if a.cfgPath == "" {
		return "defaults, no " + config.FileName + " found"
	}
	return a.cfgPath
}

// Secrets opens the secrets database on first use. TGPOST_BOT_TOKEN, when
// set, takes precedence over the stored token.
func (a *app) Secrets(ctx context.Context) (secret.Store, error) {
	if a.secrets != nil {
		return a.secrets, nil
	}
	db, err := secret.OpenSQLite(ctx, a.cfg.SecretsPath())
	if err != nil {
		return nil, err
	}
	a.db = db
	a.secrets = secret.WithEnv(db, secret.BotTokenKey, secret.BotTokenEnv)

	// Keep the current token out of every log line from here on.
	if token, err := a.secrets.Get(ctx, secret.BotTokenKey); err == nil {
		a.redactor.AddLiteral(strings.TrimSpace(token))
	} else if !errors.Is(err, secret.ErrNotFound) {
		a.logger.Warn("reading bot token failed", "error", err)
	}
	return a.secrets, nil
}

// poster builds a Poster with the shared collaborators filled into d.
func (a *app) poster(ctx context.Context, d poster.Deps) (*poster.Poster, error) {
	store, err := a.Secrets(ctx)
	if err != nil {
		return nil, err
	}
	d.Secrets = store
	d.Logger = a.logger
	d.Reporter = a.reporter
	if d.Notifier == nil {
		d.Notifier = notify.NewConsole(os.Stderr)
	}
	return poster.New(*a.cfg, d), nil
}

// interactivePoster builds a Poster for a terminal session. Prompts and the
// spinner are only offered when stdin and stderr are terminals.
func (a *app) interactivePoster(ctx context.Context) (*poster.Poster, error) {
	d := poster.Deps{Notifier: notify.NewConsole(os.Stderr)}
	if isTerminal(os.Stdin) && isTerminal(os.Stderr) {
		d.Prompter = notify.Prompter{Accessible: os.Getenv("ACCESSIBLE") != ""}
		d.Progress = notify.Spinner{}
	}
	return a.poster(ctx, d)
}

// Close flushes pending error reports and closes the secrets database.
func (a *app) Close() {
	a.reporter.Flush(2 * time.Second)
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing secrets store failed", "error", err)
		}
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
