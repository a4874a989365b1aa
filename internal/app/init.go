package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
	"github.com/nulpointcorp/hackstack/internal/debug"
	"github.com/nulpointcorp/hackstack/internal/logger"
	"github.com/nulpointcorp/hackstack/internal/metrics"
	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/registry"
	"github.com/nulpointcorp/hackstack/internal/server"
	"github.com/nulpointcorp/hackstack/internal/vendors"
	"github.com/nulpointcorp/hackstack/internal/vendors/anthropic"
	"github.com/nulpointcorp/hackstack/internal/vendors/llamaindex"
	"github.com/nulpointcorp/hackstack/internal/vendors/openai"
	"github.com/nulpointcorp/hackstack/internal/vendors/weaviate"
)

// initCatalog loads the debug catalogue and the business registry. A broken
// catalogue file is fatal; a missing one falls back to the built-in default.
func (a *App) initCatalog(_ context.Context) error {
	cat, source, err := catalog.Find(a.cfg.DebugConfigPath)
	if err != nil {
		return err
	}
	a.cat = cat

	targets := make([]string, 0, len(cat.Services))
	for _, name := range cat.ServiceNames() {
		if u := cat.Services[name].URL; u != "" {
			targets = append(targets, name+"="+redactURL(u))
		}
	}
	a.log.Info("catalogue loaded",
		slog.String("source", source),
		slog.Int("vendors", len(cat.Vendors)),
		slog.Any("services", targets),
	)

	reg, err := registry.Load(a.cfg.DataPath)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	a.reg = reg
	a.log.Info("business registry loaded", slog.Int("businesses", reg.Len()))

	return nil
}

// initServices creates the dispatch logger and Prometheus metrics registry.
func (a *App) initServices(ctx context.Context) error {
	dl, err := logger.New(ctx, a.log)
	if err != nil {
		return err
	}
	a.dispatchLog = dl

	a.prom = metrics.New(dl.DroppedLogs)
	a.prom.SetBuildInfo(a.version)

	return nil
}

// initVendors builds the live back-ends and the dispatcher that chooses
// between them and the mock generator.
func (a *App) initVendors(_ context.Context) error {
	httpClient := vendors.NewHTTPClient()

	lives := []vendors.LiveVendor{
		openai.New(
			openai.WithBaseURL(a.cfg.OpenAI.BaseURL),
			openai.WithModel(a.cfg.OpenAI.Model),
		),
		anthropic.New(
			anthropic.WithBaseURL(a.cfg.Anthropic.BaseURL),
			anthropic.WithModel(a.cfg.Anthropic.Model),
		),
		weaviate.New(
			weaviate.WithClass(a.cfg.Weaviate.Class),
			weaviate.WithHTTPClient(httpClient),
		),
		llamaindex.New(
			llamaindex.WithBaseURL(a.cfg.LlamaCloud.BaseURL),
			llamaindex.WithPipeline(a.cfg.LlamaCloud.PipelineID),
			llamaindex.WithHTTPClient(httpClient),
		),
	}

	a.disp = vendors.NewDispatcher(a.cat,
		credentials.NewResolver(a.cfg.EnvFile),
		mock.New(a.cfg.MockSeed, a.reg.List(0)),
		vendors.WithLive(lives...),
		vendors.WithForceMock(a.cfg.ForceMock),
		vendors.WithTimeout(a.cfg.VendorTimeout),
		vendors.WithMetrics(a.prom),
		vendors.WithDispatchLog(a.dispatchLog),
		vendors.WithLogger(a.log),
	)

	a.log.Info("vendors configured",
		slog.String("mode", a.disp.Mode()),
		slog.Any("live", a.disp.Available()),
	)
	return nil
}

// initServer wires the aggregator and HTTP routes.
func (a *App) initServer(_ context.Context) error {
	a.agg = debug.New(a.disp,
		debug.WithTimeout(a.cfg.HealthTimeout),
		debug.WithGauges(a.prom),
		debug.WithLogger(a.log),
	)

	a.srv = server.New(server.Options{
		Dispatcher:  a.disp,
		Aggregator:  a.agg,
		Registry:    a.reg,
		Metrics:     a.prom,
		Prometheus:  a.prom.Handler(),
		Dropped:     a.dispatchLog.DroppedLogs,
		CORSOrigins: a.cfg.CORSOrigins,
		Logger:      a.log,
		Version:     a.version,
		StartupTime: time.Since(a.started),
	})
	return nil
}
