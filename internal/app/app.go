// Package app wires up all subsystems and owns the application lifecycle.
//
// Startup order:
//  1. initCatalog:  debug catalogue and business registry
//  2. initServices: dispatch logger, metrics registry
//  3. initVendors:  credential resolver, mock generator, live back-ends, dispatcher
//  4. initServer:   debug aggregator and HTTP routes
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/config"
	"github.com/nulpointcorp/hackstack/internal/debug"
	"github.com/nulpointcorp/hackstack/internal/logger"
	"github.com/nulpointcorp/hackstack/internal/metrics"
	"github.com/nulpointcorp/hackstack/internal/registry"
	"github.com/nulpointcorp/hackstack/internal/server"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

// App owns all long-lived resources and exposes Run / Close.
type App struct {
	version string
	cfg     *config.Config
	baseCtx context.Context
	log     *slog.Logger
	started time.Time

	cat *catalog.Catalog
	reg *registry.Registry

	dispatchLog *logger.Logger
	prom        *metrics.Registry

	disp *vendors.Dispatcher
	agg  *debug.Aggregator
	srv  *server.Server
}

// New initialises all subsystems and returns a ready-to-run App.
// All resources allocated here are released by Close.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, version string) (*App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("app: context must not be nil")
	}

	a := &App{cfg: cfg, version: version, baseCtx: ctx, log: log, started: time.Now()}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"catalog", a.initCatalog},
		{"services", a.initServices},
		{"vendors", a.initVendors},
		{"server", a.initServer},
	}

	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: init %s: %w", s.name, err)
		}
	}

	return a, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or an error
// occurs. It closes the app gracefully when returning.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Port)

	a.log.Info("starting hackstack",
		slog.String("version", a.version),
		slog.String("addr", addr),
		slog.String("mode", a.disp.Mode()),
		slog.Any("live_vendors", a.disp.Available()),
		slog.Bool("force_mock", a.cfg.ForceMock),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.srv.ListenAndServe(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		if err := a.srv.Shutdown(); err != nil {
			a.log.Error("server shutdown error", slog.String("error", err.Error()))
		}
		a.Close()
		return nil
	})

	return g.Wait()
}

// Close releases all resources in reverse-init order. Safe to call multiple
// times.
func (a *App) Close() {
	if a.dispatchLog != nil {
		if err := a.dispatchLog.Close(); err != nil {
			a.log.Error("dispatch logger close error", slog.String("error", err.Error()))
		}
		a.dispatchLog = nil
	}
}

// Server exposes the wired HTTP server, mainly for tests.
func (a *App) Server() *server.Server { return a.srv }

// redactURL replaces the userinfo portion of a URL with "***" for safe logging.
// e.g. "redis://:secret@cache:6379" → "redis://***@cache:6379"
func redactURL(raw string) string {
	for i, c := range raw {
		if c == '@' {
			for j := i - 1; j >= 0; j-- {
				if j+2 < len(raw) && raw[j:j+3] == "://" {
					return raw[:j+3] + "***" + raw[i:]
				}
			}
			return "***" + raw[i:]
		}
	}
	return raw
}
