package main

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

var themes = []string{
	"community", "heritage", "craft", "innovation", "sustainability",
	"nightlife", "education", "music", "food", "neighborhood",
}

// pick returns n distinct entries of pool in random order.
func pick(pool []string, n int) []string {
	idx := rand.Perm(len(pool))
	out := make([]string, 0, n)
	for _, i := range idx[:min(n, len(pool))] {
		out = append(out, pool[i])
	}
	return out
}

// injectFault delays the request by the configured latency and reports
// whether it should fail with a simulated upstream error.
func injectFault(cfg Config) bool {
	if cfg.LatencyMS > 0 {
		time.Sleep(time.Duration(cfg.LatencyMS) * time.Millisecond)
	}
	return cfg.ErrorRate > 0 && rand.Float64() < cfg.ErrorRate
}

// bearer reports whether r carries a non-empty bearer token.
func bearer(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && strings.TrimSpace(token) != ""
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mustJSON renders v for embedding in a model reply.
func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// writeError writes the OpenAI-style error envelope shared by the openai,
// weaviate and llamacloud mocks.
func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"message": msg,
			"type":    http.StatusText(status),
			"code":    code,
		},
	})
}
