// Command hackstack is the hackathon demo backend.
//
// It serves the business registry, dispatches vendor operations to live
// APIs or to the mock generator, and reports integration readiness on
// /api/debug.
//
// Quick-start (everything mocked, no credentials required):
//
//	./hackstack
//
// Set OPENAI_API_KEY, ANTHROPIC_API_KEY, WEAVIATE_URL + WEAVIATE_API_KEY or
// LLAMA_CLOUD_API_KEY (in the environment or .env) to switch vendors live.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nulpointcorp/hackstack/internal/app"
	"github.com/nulpointcorp/hackstack/internal/config"
)

// version is overridden at build time via -ldflags="-X main.version=x.y.z".
var version = "0.1.0"

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "version" || os.Args[1] == "-version") {
		fmt.Println("hackstack", version)
		return
	}
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger, version)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		return 1
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Source locations are attached in debug mode.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", "hackstack"))
}
