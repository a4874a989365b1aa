package vendors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
	"github.com/nulpointcorp/hackstack/internal/logger"
	"github.com/nulpointcorp/hackstack/internal/mock"
)

// Recorder receives per-dispatch metrics. *metrics.Registry satisfies it.
type Recorder interface {
	RecordDispatch(vendor, operation, mode, status string)
	ObserveLiveCall(vendor, operation, outcome string, dur time.Duration)
}

// DispatchLogger receives one entry per dispatch. *logger.Logger satisfies it.
type DispatchLogger interface {
	Log(entry logger.DispatchLog)
}

// Dispatcher decides per call between the live back-end and the mock
// generator. It is safe for concurrent use.
type Dispatcher struct {
	catalog  *catalog.Catalog
	resolver *credentials.Resolver
	mock     *mock.Generator
	live     map[string]LiveVendor

	forceMock bool
	timeout   time.Duration

	metrics Recorder
	dlog    DispatchLogger
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLive registers live back-ends by their Name.
func WithLive(vs ...LiveVendor) Option {
	return func(d *Dispatcher) {
		for _, v := range vs {
			d.live[v.Name()] = v
		}
	}
}

// WithForceMock routes every operation to the mock generator.
func WithForceMock(force bool) Option {
	return func(d *Dispatcher) { d.forceMock = force }
}

// WithTimeout bounds each live call.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func WithMetrics(r Recorder) Option {
	return func(d *Dispatcher) { d.metrics = r }
}

func WithDispatchLog(l DispatchLogger) Option {
	return func(d *Dispatcher) { d.dlog = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClock overrides time.Now. Useful in tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher over the given catalogue.
func NewDispatcher(cat *catalog.Catalog, resolver *credentials.Resolver, gen *mock.Generator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog:  cat,
		resolver: resolver,
		mock:     gen,
		live:     make(map[string]LiveVendor),
		timeout:  DefaultTimeout,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ForceMock reports the global force-mock flag.
func (d *Dispatcher) ForceMock() bool { return d.forceMock }

// Catalog returns the catalogue the dispatcher serves.
func (d *Dispatcher) Catalog() *catalog.Catalog { return d.catalog }

// Resolver returns the credential resolver.
func (d *Dispatcher) Resolver() *credentials.Resolver { return d.resolver }

// HasLive reports whether a live back-end is registered for vendor.
func (d *Dispatcher) HasLive(vendor string) bool {
	_, ok := d.live[vendor]
	return ok
}

// Dispatch serves one operation. The returned error is non-nil only for
// unknown vendors or operations; live failures are reported in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, vendor, operation string, data map[string]any) (Result, error) {
	cfg, ok := d.catalog.Vendors[vendor]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownVendor, vendor)
	}
	if !cfg.Supports(operation) {
		return Result{}, fmt.Errorf("%w: %s does not support %q", ErrUnknownOperation, vendor, operation)
	}
	if data == nil {
		data = map[string]any{}
	}

	start := d.now()
	var res Result

	creds := d.resolver.Resolve(cfg)
	live, hasLive := d.live[vendor]

	switch {
	case d.forceMock:
		res = d.mockResult(vendor, operation, data, ReasonForceMock)
	case !creds.HasCredentials:
		res = d.mockResult(vendor, operation, data, ReasonMissingCredentials)
	case !cfg.IsEnabled():
		res = d.mockResult(vendor, operation, data, ReasonDisabled)
	case !hasLive || !live.Supports(operation):
		res = d.mockResult(vendor, operation, data, ReasonNotLive)
	default:
		res = d.liveResult(ctx, live, Call{Operation: operation, Data: data, Credentials: creds})
	}

	res.Vendor = vendor
	res.Operation = operation
	res.Meta.Vendor = vendor
	res.Meta.Operation = operation
	res.Meta.Mode = res.Mode
	res.Meta.Timestamp = d.now().UTC()
	res.Meta.LatencyMs = d.now().Sub(start).Milliseconds()

	d.record(res)
	return res, nil
}

func (d *Dispatcher) mockResult(vendor, operation string, data map[string]any, reason string) Result {
	return Result{
		Status: StatusSuccess,
		Mode:   ModeMock,
		Result: d.mock.Generate(vendor, operation, data),
		Meta:   Meta{Reason: reason},
	}
}

func (d *Dispatcher) liveResult(ctx context.Context, v LiveVendor, call Call) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	out, err := v.Call(ctx, call)
	dur := time.Since(start)

	outcome := "success"
	res := Result{Status: StatusSuccess, Mode: ModeLive, Result: out}
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
			err = fmt.Errorf("%s: request timed out after %s", v.Name(), d.timeout)
		}
		res = Result{Status: StatusError, Mode: ModeLive, Error: err.Error()}
		d.log.WarnContext(ctx, "vendor_live_call_failed",
			slog.String("vendor", v.Name()),
			slog.String("operation", call.Operation),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
	}
	if d.metrics != nil {
		d.metrics.ObserveLiveCall(v.Name(), call.Operation, outcome, dur)
	}
	return res
}

func (d *Dispatcher) record(res Result) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(res.Vendor, res.Operation, string(res.Mode), res.Status)
	}
	if d.dlog != nil {
		d.dlog.Log(logger.DispatchLog{
			Vendor:    res.Vendor,
			Operation: res.Operation,
			Mode:      string(res.Mode),
			Status:    res.Status,
			Reason:    res.Meta.Reason,
			Error:     res.Error,
			LatencyMs: res.Meta.LatencyMs,
			CreatedAt: res.Meta.Timestamp,
		})
	}
}

// DefaultOperation returns the first operation the vendor declares.
func (d *Dispatcher) DefaultOperation(vendor string) (string, error) {
	cfg, ok := d.catalog.Vendors[vendor]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVendor, vendor)
	}
	return cfg.Operations[0], nil
}

// Available lists the vendors whose next call would go live, sorted by key.
func (d *Dispatcher) Available() []string {
	out := make([]string, 0, len(d.catalog.Vendors))
	if d.forceMock {
		return out
	}
	for _, key := range d.catalog.VendorNames() {
		cfg := d.catalog.Vendors[key]
		if !cfg.IsEnabled() || !d.HasLive(key) {
			continue
		}
		if d.resolver.Resolve(cfg).HasCredentials {
			out = append(out, key)
		}
	}
	return out
}

// Mode is mock when no vendor is live-eligible, live when every vendor is,
// and hybrid otherwise.
func (d *Dispatcher) Mode() string {
	live := len(d.Available())
	switch {
	case live == 0:
		return GlobalMock
	case live == len(d.catalog.Vendors):
		return GlobalLive
	default:
		return GlobalHybrid
	}
}
