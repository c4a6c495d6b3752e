package poster

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flemzord/tgpost/internal/config"
	"github.com/flemzord/tgpost/internal/secret"
	"github.com/flemzord/tgpost/internal/selection"
	"github.com/flemzord/tgpost/internal/telegram"
)

const validToken = "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

type recordingNotifier struct {
	infos, warns, errs []string
}

func (n *recordingNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *recordingNotifier) Warn(msg string)  { n.warns = append(n.warns, msg) }
func (n *recordingNotifier) Error(msg string) { n.errs = append(n.errs, msg) }

type fakePrompter struct {
	confirm    bool
	secret     string
	confirmed  int
	secretAsks int
}

func (p *fakePrompter) Confirm(string, string) (bool, error) {
	p.confirmed++
	return p.confirm, nil
}

func (p *fakePrompter) Secret(_, _ string, validate func(string) error) (string, error) {
	p.secretAsks++
	if validate != nil {
		if err := validate(p.secret); err != nil {
			return "", err
		}
	}
	return p.secret, nil
}

type fakeSender struct {
	calls  int
	chunks []string
	chatID string
	mode   string
	sent   int
	err    error
}

func (s *fakeSender) Send(_ context.Context, chatID, parseMode string, chunks []string) (int, error) {
	s.calls++
	s.chatID, s.mode, s.chunks = chatID, parseMode, chunks
	if s.err != nil {
		return s.sent, s.err
	}
	return len(chunks), nil
}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) ObserveSend(outcome string, _, _ int) {
	r.outcomes = append(r.outcomes, outcome)
}

type staticSelection struct {
	payload selection.Payload
	err     error
}

func (s staticSelection) Selection() (selection.Payload, error) { return s.payload, s.err }

type harness struct {
	poster   *Poster
	notifier *recordingNotifier
	prompter *fakePrompter
	sender   *fakeSender
	secrets  *secret.Memory
	metrics  *fakeRecorder
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.ChatID = "-100123"
	cfg.ParseMode = "None"
	if mutate != nil {
		mutate(cfg)
	}

	h := &harness{
		notifier: &recordingNotifier{},
		prompter: &fakePrompter{},
		sender:   &fakeSender{},
		secrets:  secret.NewMemory(),
		metrics:  &fakeRecorder{},
	}
	require.NoError(t, h.secrets.Set(context.Background(), secret.BotTokenKey, validToken))

	h.poster = New(*cfg, Deps{
		Secrets:   h.secrets,
		Notifier:  h.notifier,
		Prompter:  h.prompter,
		Metrics:   h.metrics,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) },
		NewSender: func(string) ChunkSender { return h.sender },
	})
	return h
}

func pySelection() staticSelection {
	return staticSelection{payload: selection.Payload{Text: "print('hi')", LanguageID: "python", FileName: "a.py"}}
}

func TestSendSelection(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.poster.SendSelection(context.Background(), pySelection())
	require.NoError(t, err)

	assert.Equal(t, Result{Chunks: 1, Sent: 1}, res)
	assert.Equal(t, []string{"a.py\n\n```python\nprint('hi')\n```"}, h.sender.chunks)
	assert.Equal(t, "-100123", h.sender.chatID)
	assert.Equal(t, "None", h.sender.mode)
	assert.Equal(t, []string{"Sent 1 message to Telegram."}, h.notifier.infos)
	assert.Equal(t, []string{OutcomeOK}, h.metrics.outcomes)
}

func TestSendSelectionPluralMessage(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.ChunkSize = 1000 })
	sel := staticSelection{payload: selection.Payload{Text: strings.Repeat("x", 2500), FileName: "big.txt"}}

	res, err := h.poster.SendSelection(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, []string{"Sent 3 messages to Telegram."}, h.notifier.infos)
}

func TestSendSelectionEmptyChatID(t *testing.T) {
	for _, chatID := range []string{"", "   \t"} {
		h := newHarness(t, func(c *config.Config) { c.ChatID = chatID })

		_, err := h.poster.SendSelection(context.Background(), pySelection())
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Zero(t, h.sender.calls)
		assert.Len(t, h.notifier.errs, 1)
		assert.Equal(t, []string{OutcomeConfigError}, h.metrics.outcomes)
	}
}

func TestSendSelectionEmptyChatIDMakesNoNetworkCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.APIURL = srv.URL
	secrets := secret.NewMemory()
	require.NoError(t, secrets.Set(context.Background(), secret.BotTokenKey, validToken))

	p := New(*cfg, Deps{Secrets: secrets, Notifier: &recordingNotifier{}})
	_, err := p.SendSelection(context.Background(), pySelection())

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, calls.Load())
}

func TestSendSelectionMissingToken(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.secrets.Delete(context.Background(), secret.BotTokenKey))

	_, err := h.poster.SendSelection(context.Background(), pySelection())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, h.sender.calls)
	assert.Len(t, h.notifier.warns, 1)
	assert.Equal(t, 1, h.prompter.confirmed)
	assert.Zero(t, h.prompter.secretAsks, "declined prompt must not ask for a token")
}

func TestSendSelectionMissingTokenAcceptPromptDoesNotResume(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.secrets.Delete(context.Background(), secret.BotTokenKey))
	h.prompter.confirm = true
	h.prompter.secret = "  " + validToken + "  "

	_, err := h.poster.SendSelection(context.Background(), pySelection())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, h.sender.calls, "send must not resume after setting the token")

	stored, err := h.secrets.Get(context.Background(), secret.BotTokenKey)
	require.NoError(t, err)
	assert.Equal(t, validToken, stored)
}

func TestSendSelectionMissingTokenNonInteractive(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.secrets.Delete(context.Background(), secret.BotTokenKey))
	h.poster.prompter = nil

	_, err := h.poster.SendSelection(context.Background(), pySelection())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, h.prompter.confirmed)
}

func TestSendSelectionEmptyInput(t *testing.T) {
	h := newHarness(t, nil)
	sel := staticSelection{payload: selection.Payload{Text: " \n\t ", FileName: "a.py"}}

	_, err := h.poster.SendSelection(context.Background(), sel)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, h.sender.calls)
	assert.Equal(t, []string{"Nothing to send: selection is empty."}, h.notifier.infos)
}

func TestSendSelectionSelectionError(t *testing.T) {
	h := newHarness(t, nil)
	boom := errors.New("read failed")

	_, err := h.poster.SendSelection(context.Background(), staticSelection{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, h.sender.calls)
	assert.Equal(t, []string{OutcomeSelectionError}, h.metrics.outcomes)
}

func TestSendSelectionChecksOrder(t *testing.T) {
	// Configuration is checked before the token, the token before the selection.
	h := newHarness(t, func(c *config.Config) { c.ChatID = "" })
	require.NoError(t, h.secrets.Delete(context.Background(), secret.BotTokenKey))

	_, err := h.poster.SendSelection(context.Background(), staticSelection{err: errors.New("unused")})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, h.prompter.confirmed)
}

func TestSendSelectionTelegramFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.sender.err = &telegram.TransportError{Method: "sendMessage", StatusCode: 400, Body: "Bad Request"}
	h.sender.sent = 0

	res, err := h.poster.SendSelection(context.Background(), pySelection())

	var tErr *telegram.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 1, res.Chunks)
	assert.Zero(t, res.Sent)
	require.Len(t, h.notifier.errs, 1)
	assert.Contains(t, h.notifier.errs[0], "Telegram send failed: ")
	assert.Contains(t, h.notifier.errs[0], "Bad Request")
	assert.Equal(t, []string{OutcomeTelegramError}, h.metrics.outcomes)
}

func TestSendSelectionStopsAfterHTTPFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.ChatID = "1"
	cfg.APIURL = srv.URL
	cfg.ChunkSize = 1000
	secrets := secret.NewMemory()
	require.NoError(t, secrets.Set(context.Background(), secret.BotTokenKey, validToken))
	notifier := &recordingNotifier{}

	p := New(*cfg, Deps{
		Secrets:  secrets,
		Notifier: notifier,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	sel := staticSelection{payload: selection.Payload{Text: strings.Repeat("y", 3000), FileName: "f"}}

	res, err := p.SendSelection(context.Background(), sel)

	var tErr *telegram.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusBadGateway, tErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "later chunks must not be attempted")
	assert.Equal(t, 4, res.Chunks)
	assert.Zero(t, res.Sent)
	assert.Len(t, notifier.errs, 1)
}

func TestSetBotToken(t *testing.T) {
	h := newHarness(t, nil)
	h.prompter.secret = validToken

	require.NoError(t, h.poster.SetBotToken(context.Background()))
	assert.Equal(t, []string{"Telegram bot token saved securely."}, h.notifier.infos)
}

func TestSetBotTokenCancelled(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.secrets.Delete(context.Background(), secret.BotTokenKey))
	h.prompter.secret = ""

	require.NoError(t, h.poster.SetBotToken(context.Background()))
	_, err := h.secrets.Get(context.Background(), secret.BotTokenKey)
	assert.ErrorIs(t, err, secret.ErrNotFound)
	assert.Empty(t, h.notifier.infos)
}

func TestSetBotTokenNonInteractive(t *testing.T) {
	h := newHarness(t, nil)
	h.poster.prompter = nil
	assert.ErrorIs(t, h.poster.SetBotToken(context.Background()), ErrNonInteractive)
}

func TestStoreBotTokenInvalid(t *testing.T) {
	h := newHarness(t, nil)
	err := h.poster.StoreBotToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	stored, _ := h.secrets.Get(context.Background(), secret.BotTokenKey)
	assert.Equal(t, validToken, stored, "invalid token must not replace the stored one")
}

func TestClearBotToken(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.poster.ClearBotToken(context.Background()))
	_, err := h.secrets.Get(context.Background(), secret.BotTokenKey)
	assert.ErrorIs(t, err, secret.ErrNotFound)
	assert.Equal(t, []string{"Telegram bot token cleared."}, h.notifier.infos)
}

func TestClearBotTokenWithEnvironmentToken(t *testing.T) {
	t.Setenv(secret.BotTokenEnv, validToken)
	h := newHarness(t, nil)

	sender := &fakeSender{}
	p := New(*config.Default(), Deps{
		Secrets:   secret.WithEnv(h.secrets, secret.BotTokenKey, secret.BotTokenEnv),
		Notifier:  h.notifier,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewSender: func(string) ChunkSender { return sender },
	})

	require.NoError(t, p.ClearBotToken(context.Background()))

	_, err := h.secrets.Get(context.Background(), secret.BotTokenKey)
	assert.ErrorIs(t, err, secret.ErrNotFound, "stored token is deleted")
	assert.Empty(t, h.notifier.infos, "must not claim the token is gone")
	require.Len(t, h.notifier.warns, 1)
	assert.Contains(t, h.notifier.warns[0], secret.BotTokenEnv)
}

func TestValidateTokenInput(t *testing.T) {
	assert.NoError(t, validateTokenInput(""))
	assert.NoError(t, validateTokenInput(" "+validToken+" "))
	assert.ErrorIs(t, validateTokenInput("nope"), ErrInvalidToken)
	assert.ErrorIs(t, validateTokenInput("1:a"), ErrInvalidToken)
}
