package debug

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/catalog"
)

// HealthStatus is the outcome of one service probe.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Degraded  HealthStatus = "degraded"
	Unhealthy HealthStatus = "unhealthy"
)

// ServiceHealth is produced per probe and never stored.
type ServiceHealth struct {
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	Status         HealthStatus `json:"status"`
	URL            string       `json:"url"`
	Critical       bool         `json:"critical"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	Features       []string     `json:"features"`
	Error          string       `json:"error,omitempty"`
}

// prober checks a single service. Every prober must return within the
// deadline of ctx.
type prober interface {
	probe(ctx context.Context, svc catalog.ServiceConfig) (HealthStatus, error)
}

type selfProber struct{}

func (selfProber) probe(context.Context, catalog.ServiceConfig) (HealthStatus, error) {
	return Healthy, nil
}

type httpProber struct {
	client *fasthttp.Client
}

func (p httpProber) probe(ctx context.Context, svc catalog.ServiceConfig) (HealthStatus, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultProbeTimeout)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(joinURL(svc.URL, svc.HealthCheck.Endpoint))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := p.client.DoDeadline(req, resp, deadline); err != nil {
		return Unhealthy, err
	}
	if sc := resp.StatusCode(); sc != svc.HealthCheck.ExpectedStatus {
		return Degraded, fmt.Errorf("unexpected status %d, expected %d", sc, svc.HealthCheck.ExpectedStatus)
	}
	return Healthy, nil
}

type redisProber struct{}

func (redisProber) probe(ctx context.Context, svc catalog.ServiceConfig) (HealthStatus, error) {
	opts, err := redis.ParseURL(svc.URL)
	if err != nil {
		return Unhealthy, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = -1

	rdb := redis.NewClient(opts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return Unhealthy, err
	}
	return Healthy, nil
}

func joinURL(base, endpoint string) string {
	if endpoint == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}
