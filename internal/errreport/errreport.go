// Package errreport forwards send failures to Sentry when configured.
package errreport

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter records failures for later inspection.
type Reporter interface {
	Capture(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// Options configures New.
type Options struct {
	DSN         string
	Environment string
	Release     string

	// BeforeSend may inspect or drop events. Tests use it to observe them.
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// New returns a Sentry-backed Reporter, or Nop when opts.DSN is empty.
func New(opts Options) (Reporter, error) {
	if opts.DSN == "" {
		return Nop{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Never ship user or request data.
			event.User = sentry.User{}
			event.Request = nil
			if opts.BeforeSend != nil {
				return opts.BeforeSend(event, hint)
			}
			return event
		},
	})
	if err != nil {
		return nil, fmt.Errorf("errreport: init sentry: %w", err)
	}

	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Sentry reports to a Sentry project through its own hub.
type Sentry struct {
	hub *sentry.Hub
}

// Capture implements Reporter.
func (s *Sentry) Capture(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		s.hub.CaptureException(err)
	})
}

// Flush implements Reporter.
func (s *Sentry) Flush(timeout time.Duration) {
	s.hub.Flush(timeout)
}

// Nop discards everything.
type Nop struct{}

// Capture implements Reporter.
func (Nop) Capture(error, map[string]string) {}

// Flush implements Reporter.
func (Nop) Flush(time.Duration) {}
