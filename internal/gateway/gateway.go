// Package gateway exposes the send action over a local HTTP endpoint so
// editor plugins can post selections without shelling out.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/tgpost/internal/config"
	"github.com/flemzord/tgpost/internal/poster"
)

// SelectionSender is the action the gateway serves.
type SelectionSender interface {
	SendSelection(ctx context.Context, src poster.SelectionProvider) (poster.Result, error)
}

// Gateway is the HTTP server. It never prompts: requests that need a bot
// token fail until one is set from the command line.
type Gateway struct {
	config    config.ServeConfig
	sender    SelectionSender
	metrics   http.Handler
	logger    *slog.Logger
	server    *http.Server
	listener  net.Listener
	startedAt time.Time
}

// New creates a Gateway. metrics may be nil to leave /metrics unmounted.
func New(cfg config.ServeConfig, sender SelectionSender, metrics http.Handler, logger *slog.Logger) *Gateway {
	return &Gateway{
		config:  cfg,
		sender:  sender,
		metrics: metrics,
		logger:  logger,
	}
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}
	g.listener = ln

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
