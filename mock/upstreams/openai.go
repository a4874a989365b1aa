package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

// newOpenAIHandler returns an http.Handler that simulates the chat
// completions endpoint. The reply content is the JSON analysis object the
// analyze operation asks for, wrapped in a code fence like real models do.
func newOpenAIHandler(cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if !bearer(r) {
			writeError(w, http.StatusUnauthorized, "missing API key", "invalid_api_key")
			return
		}
		if injectFault(cfg) {
			writeError(w, http.StatusInternalServerError, "mock internal server error", "server_error")
			return
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
			return
		}

		model := req.Model
		if model == "" {
			model = "gpt-4o-mini"
		}

		analysis := map[string]any{
			"analysis":               "A neighborhood anchor with a loyal following. The story leans on craft and continuity.",
			"sentiment":              []string{"positive", "neutral", "mixed"}[rand.IntN(3)],
			"key_themes":             pick(themes, 3),
			"suggested_improvements": []string{"Publish opening hours online", "Collect customer stories"},
			"confidence":             0.7 + rand.Float64()*0.25,
		}
		content := "```json\n" + mustJSON(analysis) + "\n```"

		inTokens := 0
		for _, m := range req.Messages {
			inTokens += len(m.Content) / 4
		}
		outTokens := len(content) / 4

		writeJSON(w, http.StatusOK, map[string]any{
			"id":      fmt.Sprintf("chatcmpl-mock%x", rand.Int64()),
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   model,
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]string{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{
				"prompt_tokens":     inTokens,
				"completion_tokens": outTokens,
				"total_tokens":      inTokens + outTokens,
			},
		})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("mock: unknown path %s", r.URL.Path), "not_found")
	})

	return mux
}
