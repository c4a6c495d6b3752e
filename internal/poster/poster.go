// Package poster implements the user-facing actions: send a selection to
// Telegram, set the bot token and clear it.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flemzord/tgpost/internal/compose"
	"github.com/flemzord/tgpost/internal/config"
	"github.com/flemzord/tgpost/internal/errreport"
	"github.com/flemzord/tgpost/internal/secret"
	"github.com/flemzord/tgpost/internal/selection"
	"github.com/flemzord/tgpost/internal/telegram"
)

// Sentinel errors. Each aborts a send before any network call.
var (
	// ErrConfiguration indicates the chat id is missing.
	ErrConfiguration = errors.New("chat id is not configured")

	// ErrMissingCredential indicates no bot token is stored.
	ErrMissingCredential = errors.New("bot token is not set")

	// ErrEmptyInput indicates there is no text to send.
	ErrEmptyInput = errors.New("nothing to send")

	// ErrInvalidToken indicates a token that does not look like <bot id>:<hash>.
	ErrInvalidToken = errors.New("invalid bot token format")

	// ErrNonInteractive indicates a prompt was needed but none is available.
	ErrNonInteractive = errors.New("no interactive prompt available")
)

// Send outcome labels reported to the Recorder.
const (
	OutcomeOK             = "ok"
	OutcomeConfigError    = "config_error"
	OutcomeMissingToken   = "missing_token"
	OutcomeSelectionError = "selection_error"
	OutcomeEmptyInput     = "empty_input"
	OutcomeTelegramError  = "telegram_error"
)

const (
	sendingTitle = "Sending to Telegram…"
	tokenExample = "Looks like 123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
)

// Notifier shows messages to the user.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Prompter asks the user for input.
type Prompter interface {
	Confirm(title, affirmative string) (bool, error)
	Secret(title, description string, validate func(string) error) (string, error)
}

// Progress shows an indicator while fn runs.
type Progress interface {
	Run(ctx context.Context, title string, fn func(context.Context) error) error
}

// SelectionProvider yields the text to send.
type SelectionProvider interface {
	Selection() (selection.Payload, error)
}

// ChunkSender delivers the chunks of one message in order.
type ChunkSender interface {
	Send(ctx context.Context, chatID, parseMode string, chunks []string) (int, error)
}

// Recorder observes send operations.
type Recorder interface {
	ObserveSend(outcome string, composed, delivered int)
}

// Result is the outcome of a send.
type Result struct {
	// Chunks is the number of messages the selection was split into.
	Chunks int
	// Sent is the number of messages delivered.
	Sent int
}

// Deps are the collaborators of a Poster. Secrets and Notifier are
// required; everything else has a default.
type Deps struct {
	Secrets  secret.Store
	Notifier Notifier

	// Prompter is nil when nobody can answer prompts.
	Prompter Prompter
	Progress Progress
	Reporter errreport.Reporter
	Metrics  Recorder
	Logger   *slog.Logger
	Now      func() time.Time

	// NewSender builds the sender for a token. Defaults to a telegram.Sender
	// on a client for cfg.APIURL.
	NewSender func(token string) ChunkSender
}

// Poster runs the actions against one configuration.
type Poster struct {
	cfg       config.Config
	secrets   secret.Store
	notifier  Notifier
	prompter  Prompter
	progress  Progress
	reporter  errreport.Reporter
	metrics   Recorder
	logger    *slog.Logger
	composer  compose.Composer
	newSender func(token string) ChunkSender
}

// New creates a Poster. cfg is copied; later changes do not affect it.
func New(cfg config.Config, d Deps) *Poster {
	p := &Poster{
		cfg:       cfg,
		secrets:   d.Secrets,
		notifier:  d.Notifier,
		prompter:  d.Prompter,
		progress:  d.Progress,
		reporter:  d.Reporter,
		metrics:   d.Metrics,
		logger:    d.Logger,
		composer:  compose.Composer{Now: d.Now},
		newSender: d.NewSender,
	}
	if p.progress == nil {
		p.progress = directProgress{}
	}
	if p.reporter == nil {
		p.reporter = errreport.Nop{}
	}
	if p.metrics == nil {
		p.metrics = nopRecorder{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.newSender == nil {
		p.newSender = func(token string) ChunkSender {
			client := telegram.NewClient(token, cfg.APIURL, cfg.RequestTimeout)
			return telegram.NewSender(client, p.logger)
		}
	}
	return p
}

// SendSelection checks configuration and credentials, reads the selection,
// composes it and sends every chunk in order. The first failing chunk
// aborts the rest; chunks already delivered stay delivered.
func (p *Poster) SendSelection(ctx context.Context, src SelectionProvider) (Result, error) {
	logger := p.logger.With("send_id", uuid.NewString())

	chatID := strings.TrimSpace(p.cfg.ChatID)
	if chatID == "" {
		p.notifier.Error("Telegram: chat_id is empty. Set chat_id in " + config.FileName + " or pass --chat-id.")
		p.metrics.ObserveSend(OutcomeConfigError, 0, 0)
		return Result{}, ErrConfiguration
	}

	token, err := p.botToken(ctx)
	if err != nil {
		p.notifier.Error("Telegram: could not read bot token: " + err.Error())
		p.metrics.ObserveSend(OutcomeMissingToken, 0, 0)
		return Result{}, err
	}
	if token == "" {
		p.offerTokenSetup(ctx, logger)
		p.metrics.ObserveSend(OutcomeMissingToken, 0, 0)
		return Result{}, ErrMissingCredential
	}

	payload, err := src.Selection()
	if err != nil {
		p.notifier.Error("Could not read the selection: " + err.Error())
		p.metrics.ObserveSend(OutcomeSelectionError, 0, 0)
		return Result{}, err
	}
	if payload.Empty() {
		p.notifier.Info("Nothing to send: selection is empty.")
		p.metrics.ObserveSend(OutcomeEmptyInput, 0, 0)
		return Result{}, ErrEmptyInput
	}

	msg := p.composer.Compose(payload, p.composeOptions())
	res := Result{Chunks: len(msg.Chunks)}
	if res.Chunks == 0 {
		p.notifier.Info("Nothing to send: selection is empty.")
		p.metrics.ObserveSend(OutcomeEmptyInput, 0, 0)
		return res, ErrEmptyInput
	}

	logger.Info("sending selection",
		"file", payload.FileName,
		"language", payload.LanguageID,
		"bytes", len(msg.Text),
		"chunks", res.Chunks,
	)

	sender := p.newSender(token)
	err = p.progress.Run(ctx, sendingTitle, func(ctx context.Context) error {
		var sendErr error
		res.Sent, sendErr = sender.Send(ctx, chatID, p.cfg.ParseMode, msg.Chunks)
		return sendErr
	})
	if err != nil {
		logger.Error("send failed", "sent", res.Sent, "chunks", res.Chunks, "error", err)
		p.reporter.Capture(err, map[string]string{
			"chunks": strconv.Itoa(res.Chunks),
			"sent":   strconv.Itoa(res.Sent),
		})
		p.notifier.Error("Telegram send failed: " + err.Error())
		p.metrics.ObserveSend(OutcomeTelegramError, res.Chunks, res.Sent)
		return res, err
	}

	logger.Info("selection sent", "chunks", res.Sent)
	p.notifier.Info(fmt.Sprintf("Sent %d message%s to Telegram.", res.Sent, plural(res.Sent)))
	p.metrics.ObserveSend(OutcomeOK, res.Chunks, res.Sent)
	return res, nil
}

// offerTokenSetup warns about the missing token and, when someone can
// answer, offers to set it. The original send is not resumed.
func (p *Poster) offerTokenSetup(ctx context.Context, logger *slog.Logger) {
	p.notifier.Warn("Telegram bot token not set. You must set it before sending.")
	if p.prompter == nil {
		return
	}

	ok, err := p.prompter.Confirm("Set the bot token now?", "Set Bot Token")
	if err != nil {
		logger.Warn("token prompt failed", "error", err)
		return
	}
	if ok {
		if err := p.SetBotToken(ctx); err != nil {
			logger.Warn("setting bot token failed", "error", err)
		}
	}
}

// SetBotToken prompts for the token (masked) and stores it. Submitting an
// empty value changes nothing.
func (p *Poster) SetBotToken(ctx context.Context) error {
	if p.prompter == nil {
		return ErrNonInteractive
	}

	token, err := p.prompter.Secret("Enter Telegram Bot Token", tokenExample, validateTokenInput)
	if err != nil {
		p.notifier.Error("Telegram: token prompt failed: " + err.Error())
		return err
	}
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return p.StoreBotToken(ctx, token)
}

// StoreBotToken saves token after trimming and format validation.
func (p *Poster) StoreBotToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if !telegram.ValidToken(token) {
		p.notifier.Error("Telegram: that does not look like a bot token. " + tokenExample)
		return ErrInvalidToken
	}
	if err := p.secrets.Set(ctx, secret.BotTokenKey, token); err != nil {
		p.notifier.Error("Telegram: could not save bot token: " + err.Error())
		return err
	}
	p.notifier.Info("Telegram bot token saved securely.")
	return nil
}

// ClearBotToken deletes the stored token. When a token is still available
// afterwards, it comes from the environment and the user is warned that
// sends will keep using it.
func (p *Poster) ClearBotToken(ctx context.Context) error {
	if err := p.secrets.Delete(ctx, secret.BotTokenKey); err != nil {
		p.notifier.Error("Telegram: could not clear bot token: " + err.Error())
		return err
	}

	remaining, err := p.botToken(ctx)
	if err != nil {
		p.logger.Warn("re-reading bot token failed", "error", err)
	}
	if remaining != "" {
		p.notifier.Warn("Stored Telegram bot token cleared, but " + secret.BotTokenEnv +
			" still provides one. Unset it to stop sending.")
		return nil
	}

	p.notifier.Info("Telegram bot token cleared.")
	return nil
}

// botToken returns the stored token, or "" when none is stored.
func (p *Poster) botToken(ctx context.Context) (string, error) {
	token, err := p.secrets.Get(ctx, secret.BotTokenKey)
	if errors.Is(err, secret.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (p *Poster) composeOptions() compose.Options {
	unit, err := compose.ParseUnit(p.cfg.ChunkUnit)
	if err != nil {
		p.logger.Warn("unknown chunk unit, using bytes", "value", p.cfg.ChunkUnit)
		unit = compose.UnitByte
	}
	return compose.Options{
		ParseMode:       p.cfg.ParseMode,
		PrependFilename: p.cfg.PrependFilename,
		IncludeMetadata: p.cfg.IncludeMetadata,
		ChunkSize:       p.cfg.ChunkSize,
		Unit:            unit,
	}
}

func validateTokenInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || telegram.ValidToken(s) {
		return nil
	}
	return ErrInvalidToken
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type directProgress struct{}

func (directProgress) Run(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSend(string, int, int) {}
