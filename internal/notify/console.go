// Package notify is the user-facing surface: notifications, prompts and
// the progress indicator shown while sending.
package notify

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// Console prints notifications to a terminal, colored by severity.
type Console struct {
	out  io.Writer
	info *color.Color
	warn *color.Color
	err  *color.Color
}

// NewConsole writes notifications to out. Color output follows
// color.NoColor, which fatih/color derives from the terminal and NO_COLOR.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:  out,
		info: color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		err:  color.New(color.FgRed, color.Bold),
	}
}

// Info implements poster.Notifier.
func (c *Console) Info(msg string) {
	_, _ = c.info.Fprintln(c.out, msg)
}

// Warn implements poster.Notifier.
func (c *Console) Warn(msg string) {
	_, _ = c.warn.Fprintln(c.out, msg)
}

// Error implements poster.Notifier.
func (c *Console) Error(msg string) {
	_, _ = c.err.Fprintln(c.out, msg)
}

// Log sends notifications to a logger. Used when nobody is watching a
// terminal, such as requests handled by the gateway.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a notifier that logs at the matching level.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Info implements poster.Notifier.
func (l *Log) Info(msg string) { l.logger.Info(msg) }

// Warn implements poster.Notifier.
func (l *Log) Warn(msg string) { l.logger.Warn(msg) }

// Error implements poster.Notifier.
func (l *Log) Error(msg string) { l.logger.Error(msg) }
