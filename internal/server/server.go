// Package server exposes the hackstack HTTP API on fasthttp.
package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/debug"
	"github.com/nulpointcorp/hackstack/internal/registry"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

const (
	defaultListLimit = 10
	defaultQuery     = "innovative"
)

// Options carries the subsystems a Server depends on. Dispatcher, Aggregator
// and Registry are required.
type Options struct {
	Dispatcher  *vendors.Dispatcher
	Aggregator  *debug.Aggregator
	Registry    *registry.Registry
	Metrics     HTTPRecorder
	Prometheus  fasthttp.RequestHandler
	Dropped     func() int64
	CORSOrigins []string
	Logger      *slog.Logger
	Version     string
	// StartupTime is how long process initialisation took.
	StartupTime time.Duration
}

type Server struct {
	opts    Options
	log     *slog.Logger
	router  *router.Router
	handler fasthttp.RequestHandler
	srv     *fasthttp.Server
	started time.Time

	requests   atomic.Int64
	mockCalls  atomic.Int64
	liveCalls  atomic.Int64
	callErrors atomic.Int64
}

func New(opts Options) *Server {
	s := &Server{opts: opts, log: opts.Logger, started: time.Now()}
	if s.log == nil {
		s.log = slog.Default()
	}

	r := router.New()
	r.SaveMatchedRoutePath = true
	r.NotFound = handleNotFound
	s.routes(r)
	s.router = r

	s.handler = applyMiddleware(s.count(r.Handler),
		recovery(s.log),
		requestID,
		timing(opts.Metrics),
		corsHandler(opts.CORSOrigins),
		securityHeaders,
	)
	s.srv = &fasthttp.Server{
		Handler:      s.handler,
		Name:         "hackstack",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) routes(r *router.Router) {
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/metrics", s.handleDemoMetrics)
	if s.opts.Prometheus != nil {
		r.GET("/metrics", s.opts.Prometheus)
	}

	r.GET("/api/debug", s.handleDebug)
	r.GET("/api/debug/endpoints", s.handleEndpoints)
	r.GET("/api/debug/test/{vendor_name}", s.handleVendorTest)

	r.GET("/api/businesses", s.handleBusinesses)
	r.GET("/api/businesses/{id}", s.handleBusiness)
	r.GET("/api/search", s.handleSearch)

	r.POST("/api/vendor/{vendor_name}", s.handleVendor)

	r.POST("/api/llamaindex/process", s.passthrough("llamaindex", "process_document"))
	r.POST("/api/llamaindex/query", s.passthrough("llamaindex", "query"))
	r.GET("/api/llamaindex/jobs/{job_id}", s.handleJobStatus)
	r.GET("/api/llamaindex/status", s.vendorStatus("llamaindex"))
	r.POST("/api/pdf/process", s.passthrough("llamaindex", "parse_pdf"))

	r.POST("/api/weaviate/search", s.passthrough("weaviate", "similarity_search"))
	r.GET("/api/weaviate/businesses/{name}/similar", s.handleSimilar)
	r.GET("/api/weaviate/status", s.vendorStatus("weaviate"))
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() fasthttp.RequestHandler { return s.handler }

// Routes lists registered paths per method.
func (s *Server) Routes() map[string][]string { return s.router.List() }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

func (s *Server) count(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		s.requests.Add(1)
		next(ctx)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	ctx.SetContentType("application/json")
	data, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":{"message":"encode response","type":"server_error","code":"internal_error"}}`)
		return
	}
	ctx.SetBody(data)
}
