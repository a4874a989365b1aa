// Command upstreams runs lightweight HTTP servers that stand in for the
// vendor APIs hackstack talks to in live mode. Point the backend at them to
// demo the live path without real accounts:
//
//	OPENAI_BASE_URL=http://localhost:19001/v1
//	ANTHROPIC_BASE_URL=http://localhost:19002
//	WEAVIATE_URL=http://localhost:19003
//	LLAMA_CLOUD_BASE_URL=http://localhost:19004
//
// Any non-empty API key is accepted. Each upstream listens on its own port:
//
//	OpenAI      :19001
//	Anthropic   :19002
//	Weaviate    :19003
//	LlamaCloud  :19004
//
// Environment overrides (PORT_<UPSTREAM>):
//
//	PORT_OPENAI, PORT_ANTHROPIC, PORT_WEAVIATE, PORT_LLAMACLOUD
//
// Behaviour flags (via env):
//
//	MOCK_LATENCY_MS  artificial latency added to every response (default 0)
//	MOCK_ERROR_RATE  fraction [0,1] of requests that return HTTP 500 (default 0)
//	MOCK_JOB_POLLS   job status polls answered PENDING before SUCCESS (default 1)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// Config holds runtime configuration shared across all upstream servers.
type Config struct {
	LatencyMS int
	ErrorRate float64
	JobPolls  int
}

func loadConfig() Config {
	c := Config{JobPolls: 1}

	if v := os.Getenv("MOCK_LATENCY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LatencyMS = n
		}
	}
	if v := os.Getenv("MOCK_ERROR_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			c.ErrorRate = f
		}
	}
	if v := os.Getenv("MOCK_JOB_POLLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.JobPolls = n
		}
	}
	return c
}

func portFromEnv(key string, defaultPort int) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return strconv.Itoa(defaultPort)
}

func startServer(name, addr string, h http.Handler, log *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Info("mock upstream listening", slog.String("upstream", name), slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("upstream", name), slog.String("error", err.Error()))
		}
	}()
	return srv
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := loadConfig()

	log.Info("starting mock upstreams",
		slog.Int("latency_ms", cfg.LatencyMS),
		slog.Float64("error_rate", cfg.ErrorRate),
		slog.Int("job_polls", cfg.JobPolls),
	)

	servers := []*http.Server{
		startServer("openai", ":"+portFromEnv("PORT_OPENAI", 19001), newOpenAIHandler(cfg), log),
		startServer("anthropic", ":"+portFromEnv("PORT_ANTHROPIC", 19002), newAnthropicHandler(cfg), log),
		startServer("weaviate", ":"+portFromEnv("PORT_WEAVIATE", 19003), newWeaviateHandler(cfg), log),
		startServer("llamacloud", ":"+portFromEnv("PORT_LLAMACLOUD", 19004), newLlamaCloudHandler(cfg), log),
	}

	fmt.Println("READY")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down mock upstreams")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
	wg.Wait()
	log.Info("mock upstreams stopped")
}
