package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
)

// newAnthropicHandler returns an http.Handler that simulates the Anthropic
// messages API for the extract_structure operation.
func newAnthropicHandler(cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") == "" {
			writeAnthropicError(w, http.StatusUnauthorized, "x-api-key header is required", "authentication_error")
			return
		}
		if injectFault(cfg) {
			writeAnthropicError(w, http.StatusInternalServerError, "mock internal error", "overloaded_error")
			return
		}

		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAnthropicError(w, http.StatusBadRequest, "invalid request body", "invalid_request_error")
			return
		}
		if req.MaxTokens <= 0 {
			writeAnthropicError(w, http.StatusBadRequest, "max_tokens: field required", "invalid_request_error")
			return
		}

		model := req.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}

		structure := map[string]any{
			"structured_data": map[string]any{
				"business_category":        "Independent retail",
				"community_impact":         "Long-running gathering place for the block",
				"unique_value_proposition": "Decades of local know-how",
				"target_demographic":       "Neighbors and curious visitors",
				"competitive_advantages":   pick(themes, 2),
				"growth_potential":         []string{"Low", "Medium", "High"}[rand.IntN(3)],
			},
			"narrative_quality":  "Compelling",
			"story_completeness": 0.6 + rand.Float64()*0.35,
		}
		content := mustJSON(structure)

		writeJSON(w, http.StatusOK, map[string]any{
			"id":            fmt.Sprintf("msg_%x", rand.Int64()),
			"type":          "message",
			"role":          "assistant",
			"model":         model,
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]string{
				{"type": "text", "text": content},
			},
			"usage": map[string]int{
				"input_tokens":  120,
				"output_tokens": len(content) / 4,
			},
		})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeAnthropicError(w, http.StatusNotFound, fmt.Sprintf("mock: unknown path %s", r.URL.Path), "not_found_error")
	})

	return mux
}

func writeAnthropicError(w http.ResponseWriter, status int, msg, typ string) {
	writeJSON(w, status, map[string]any{
		"type": "error",
		"error": map[string]string{
			"type":    typ,
			"message": msg,
		},
	})
}
