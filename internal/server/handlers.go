package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/discovery"
	"github.com/nulpointcorp/hackstack/pkg/apierr"
)

type healthResponse struct {
	Status           string   `json:"status"`
	Mode             string   `json:"mode"`
	AvailableVendors []string `json:"available_vendors"`
	DemoReady        bool     `json:"demo_ready"`
	StartupTime      string   `json:"startup_time"`
	Version          string   `json:"version,omitempty"`
}

// handleHealth is cheap: it never probes services. The mock path keeps the
// demo usable, so demo_ready is always true here; /api/debug has the
// criteria-based answer.
func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	d := s.opts.Dispatcher
	writeJSON(ctx, healthResponse{
		Status:           "healthy",
		Mode:             d.Mode(),
		AvailableVendors: d.Available(),
		DemoReady:        true,
		StartupTime:      s.opts.StartupTime.Round(time.Millisecond).String(),
		Version:          s.opts.Version,
	})
}

type demoMetrics struct {
	UptimeSeconds   int64  `json:"uptime_seconds"`
	RequestsServed  int64  `json:"requests_served"`
	MockDispatches  int64  `json:"mock_dispatches"`
	LiveDispatches  int64  `json:"live_dispatches"`
	LiveErrors      int64  `json:"live_errors"`
	MockModeUsage   string `json:"mock_mode_usage"`
	DroppedLogLines int64  `json:"dispatch_logs_dropped"`
}

func (s *Server) handleDemoMetrics(ctx *fasthttp.RequestCtx) {
	mock, live := s.mockCalls.Load(), s.liveCalls.Load()
	usage := "0%"
	if total := mock + live; total > 0 {
		usage = strconv.FormatInt(mock*100/total, 10) + "%"
	}
	m := demoMetrics{
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		RequestsServed: s.requests.Load(),
		MockDispatches: mock,
		LiveDispatches: live,
		LiveErrors:     s.callErrors.Load(),
		MockModeUsage:  usage,
	}
	if s.opts.Dropped != nil {
		m.DroppedLogLines = s.opts.Dropped()
	}
	writeJSON(ctx, m)
}

func (s *Server) handleDebug(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, s.opts.Aggregator.Aggregate(ctx))
}

func (s *Server) handleEndpoints(ctx *fasthttp.RequestCtx) {
	cat := s.opts.Dispatcher.Catalog()
	writeJSON(ctx, discovery.Discover(s.router.List(), cat.Endpoints))
}

// ── businesses ───────────────────────────────────────────────────────────────

func (s *Server) handleBusinesses(ctx *fasthttp.RequestCtx) {
	limit, ok := queryInt(ctx, "limit", defaultListLimit)
	if !ok {
		apierr.BadRequest(ctx, "limit must be an integer", apierr.CodeInvalidRequest)
		return
	}
	writeJSON(ctx, s.opts.Registry.List(limit))
}

func (s *Server) handleBusiness(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.Atoi(raw)
	if err != nil {
		apierr.BadRequest(ctx, "business id must be an integer", apierr.CodeInvalidRequest)
		return
	}
	b, ok := s.opts.Registry.Get(id)
	if !ok {
		apierr.NotFound(ctx, "business "+raw+" not found", apierr.CodeNotFound)
		return
	}
	writeJSON(ctx, b)
}

func (s *Server) handleSearch(ctx *fasthttp.RequestCtx) {
	q := string(ctx.QueryArgs().Peek("q"))
	if strings.TrimSpace(q) == "" {
		q = defaultQuery
	}
	limit, ok := queryInt(ctx, "limit", 0)
	if !ok {
		apierr.BadRequest(ctx, "limit must be an integer", apierr.CodeInvalidRequest)
		return
	}
	results := s.opts.Registry.Search(q, limit)
	writeJSON(ctx, map[string]any{
		"query":   q,
		"results": results,
		"total":   len(results),
	})
}

func handleNotFound(ctx *fasthttp.RequestCtx) {
	apierr.NotFound(ctx, "route "+string(ctx.Path())+" not found", apierr.CodeNotFound)
}

func queryInt(ctx *fasthttp.RequestCtx, key string, def int) (int, bool) {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return def, true
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}
