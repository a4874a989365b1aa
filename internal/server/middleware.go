package server

import (
	"log/slog"
	"slices"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/pkg/apierr"
)

// HTTPRecorder receives per-request metrics.
type HTTPRecorder interface {
	IncInFlight()
	DecInFlight()
	ObserveHTTP(route string, statusCode int, dur time.Duration)
}

// recovery catches panics in any handler and returns a 500 without crashing
// the server process.
func recovery(log *slog.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler_panic",
						slog.Any("panic", r),
						slog.String("path", string(ctx.Path())),
						slog.String("method", string(ctx.Method())),
						slog.Any("request_id", ctx.UserValue(apierr.RequestIDKey)),
					)
					ctx.ResetBody()
					apierr.Internal(ctx, "internal server error")
				}
			}()
			next(ctx)
		}
	}
}

// requestID ensures every request has an X-Request-ID header. If the client
// does not supply one a UUID v4 is generated.
func requestID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek("X-Request-ID"))
		if id == "" {
			id = uuid.New().String()
		}
		ctx.Response.Header.Set("X-Request-ID", id)
		ctx.SetUserValue(apierr.RequestIDKey, id)
		next(ctx)
	}
}

// timing sets X-Response-Time and, when rec is non-nil, records the request
// under its matched route pattern so path parameters do not explode label
// cardinality.
func timing(rec HTTPRecorder) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if rec != nil {
				rec.IncInFlight()
				defer rec.DecInFlight()
			}

			start := time.Now()
			next(ctx)
			dur := time.Since(start)
			ctx.Response.Header.Set("X-Response-Time", dur.String())

			if rec != nil {
				rec.ObserveHTTP(routeLabel(ctx), ctx.Response.StatusCode(), dur)
			}
		}
	}
}

func routeLabel(ctx *fasthttp.RequestCtx) string {
	if p, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && p != "" {
		return p
	}
	return "unmatched"
}

// securityHeaders adds the OWASP response headers to every response.
func securityHeaders(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		next(ctx)
		h := &ctx.Response.Header
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")
	}
}

// corsHandler answers for the configured origins.
//
//   - nil or []string{"*"} → Access-Control-Allow-Origin: *
//   - specific origins      → the request Origin is echoed when allowed
//
// OPTIONS preflight requests are answered with 204 No Content and no body.
func corsHandler(origins []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	open := len(origins) == 0 || slices.Contains(origins, "*")
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			h := &ctx.Response.Header
			origin := string(ctx.Request.Header.Peek("Origin"))
			switch {
			case open:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

			if string(ctx.Method()) == fasthttp.MethodOptions {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

// applyMiddleware wraps h with the given middleware chain. The first
// middleware in the slice becomes the outermost wrapper:
//
//	applyMiddleware(h, mw1, mw2) → mw1(mw2(h))
func applyMiddleware(h fasthttp.RequestHandler, mws ...func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
