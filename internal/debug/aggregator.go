// Package debug assembles the on-demand debug report: concurrent service
// health probes, per-vendor integration status, aggregate scores and demo
// readiness.
//
// Aggregation never fails. A probe that errors or times out is recorded as
// unhealthy and the remaining entries are still returned.
package debug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

const defaultProbeTimeout = 3 * time.Second

// ReadyThreshold is the minimum criteria percentage for demo readiness.
const ReadyThreshold = 75

// Gauges receives the results of each aggregation.
type Gauges interface {
	SetServiceHealth(service, status string)
	SetScores(integration, credential float64)
}

type Aggregator struct {
	dispatcher *vendors.Dispatcher
	timeout    time.Duration
	probers    map[string]prober
	gauges     Gauges
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Aggregator)

// WithTimeout bounds every probe. Per-service timeouts from the catalogue
// may shorten it but never extend it.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithGauges(g Gauges) Option {
	return func(a *Aggregator) { a.gauges = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithHTTPClient replaces the client used by http probes.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(a *Aggregator) { a.probers[catalog.ProbeHTTP] = httpProber{client: c} }
}

func New(d *vendors.Dispatcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		dispatcher: d,
		timeout:    defaultProbeTimeout,
		probers: map[string]prober{
			catalog.ProbeSelf:  selfProber{},
			catalog.ProbeRedis: redisProber{},
			catalog.ProbeHTTP: httpProber{client: &fasthttp.Client{
				Name:                "hackstack-health",
				MaxIdleConnDuration: 10 * time.Second,
			}},
		},
		log: slog.Default(),
		now: time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Aggregate probes every declared service concurrently and joins on all
// of them. Total latency is bounded by the probe timeout, not the sum.
func (a *Aggregator) Aggregate(ctx context.Context) Report {
	start := a.now()
	cat := a.dispatcher.Catalog()

	services := a.probeServices(ctx, cat)
	vendorReports := a.vendorReports(cat)

	rep := Report{
		Project:         cat.Project,
		Timestamp:       start.UTC(),
		OverallHealth:   overallHealth(services),
		EnvironmentMode: a.dispatcher.Mode(),
		ForceMock:       a.dispatcher.ForceMock(),
		Services:        services,
		Vendors:         vendorReports,
	}
	rep.IntegrationScore = integrationScore(vendorReports)
	rep.CredentialScore = credentialScore(vendorReports)
	rep.MissingDetails = missingDetails(cat, vendorReports)
	rep.Summary = summarize(services, vendorReports)
	rep.DemoReady = demoReadiness(cat.DemoReadiness, rep)

	if a.gauges != nil {
		for name, s := range services {
			a.gauges.SetServiceHealth(name, string(s.Status))
		}
		a.gauges.SetScores(float64(rep.IntegrationScore), float64(rep.CredentialScore))
	}

	a.log.DebugContext(ctx, "debug_report_built",
		slog.String("overall_health", string(rep.OverallHealth)),
		slog.Int("integration_score", rep.IntegrationScore),
		slog.Int("credential_score", rep.CredentialScore),
		slog.Duration("took", time.Since(start)),
	)
	return rep
}

func (a *Aggregator) probeServices(ctx context.Context, cat *catalog.Catalog) map[string]ServiceHealth {
	names := cat.ServiceNames()
	results := make([]ServiceHealth, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.checkService(ctx, name, cat.Services[name])
		}()
	}
	wg.Wait()

	out := make(map[string]ServiceHealth, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out
}

func (a *Aggregator) checkService(ctx context.Context, key string, svc catalog.ServiceConfig) ServiceHealth {
	timeout := a.timeout
	if t := svc.HealthCheck.Timeout; t > 0 && t < timeout {
		timeout = t
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h := ServiceHealth{
		Name:     svc.Name,
		Type:     svc.Type,
		URL:      svc.URL,
		Critical: svc.Critical,
		Features: svc.Features,
	}
	if h.Features == nil {
		h.Features = []string{}
	}

	p, ok := a.probers[svc.Probe]
	if !ok {
		h.Status = Unhealthy
		h.Error = fmt.Sprintf("unknown probe %q", svc.Probe)
		return h
	}

	start := time.Now()
	status, err := p.probe(ctx, svc)
	h.ResponseTimeMs = time.Since(start).Milliseconds()
	h.Status = status
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			h.Status = Unhealthy
			h.Error = fmt.Sprintf("health check timed out after %s", timeout)
		} else {
			h.Error = err.Error()
		}
		a.log.WarnContext(ctx, "service_probe_failed",
			slog.String("service", key),
			slog.String("status", string(h.Status)),
			slog.String("error", h.Error),
		)
	}
	return h
}

func (a *Aggregator) vendorReports(cat *catalog.Catalog) map[string]VendorReport {
	available := make(map[string]bool)
	for _, v := range a.dispatcher.Available() {
		available[v] = true
	}

	force := a.dispatcher.ForceMock()
	out := make(map[string]VendorReport, len(cat.Vendors))
	for _, key := range cat.VendorNames() {
		cfg := cat.Vendors[key]
		status := a.dispatcher.Resolver().Resolve(cfg).Status

		mode := vendors.ModeMock
		if available[key] {
			mode = vendors.ModeLive
		}

		features := cfg.Features
		if features == nil {
			features = []catalog.Feature{}
		}
		out[key] = VendorReport{
			Name:              cfg.Name,
			Type:              cfg.Type,
			Enabled:           cfg.IsEnabled(),
			Sponsor:           cfg.Sponsor,
			Mode:              mode,
			IntegrationStatus: vendors.IntegrationStatusFor(status, cfg, force),
			Credentials:       status,
			Operations:        cfg.Operations,
			Features:          features,
		}
	}
	return out
}
