package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// jobs tracks parsing jobs created through the upload endpoint.
type jobs struct {
	mu    sync.Mutex
	polls map[string]int
	src   map[string]string
}

// newLlamaCloudHandler returns an http.Handler that simulates the LlamaCloud
// parsing and retrieval APIs. Upload creates a job; the job reports PENDING
// for cfg.JobPolls polls and SUCCESS afterwards.
func newLlamaCloudHandler(cfg Config) http.Handler {
	mux := http.NewServeMux()
	js := &jobs{polls: map[string]int{}, src: map[string]string{}}

	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !bearer(r) {
				writeError(w, http.StatusUnauthorized, "invalid API key", "unauthorized")
				return
			}
			if injectFault(cfg) {
				writeError(w, http.StatusInternalServerError, "mock internal server error", "server_error")
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /api/v1/parsing/upload", auth(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "expected multipart form", "invalid_request")
			return
		}
		src := r.FormValue("input_url")
		if src == "" {
			writeError(w, http.StatusBadRequest, "either file or input_url is required", "invalid_request")
			return
		}

		id := uuid.NewString()
		js.mu.Lock()
		js.polls[id] = 0
		js.src[id] = src
		js.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "PENDING"})
	}))

	mux.HandleFunc("GET /api/v1/parsing/job/{id}", auth(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		js.mu.Lock()
		n, ok := js.polls[id]
		if ok {
			js.polls[id] = n + 1
		}
		js.mu.Unlock()

		if !ok {
			writeError(w, http.StatusNotFound, "job not found", "not_found")
			return
		}
		status := "SUCCESS"
		if n < cfg.JobPolls {
			status = "PENDING"
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": status})
	}))

	mux.HandleFunc("GET /api/v1/parsing/job/{id}/result/markdown", auth(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		js.mu.Lock()
		src, ok := js.src[id]
		js.mu.Unlock()

		if !ok {
			writeError(w, http.StatusNotFound, "job not found", "not_found")
			return
		}
		name := src[strings.LastIndex(src, "/")+1:]
		writeJSON(w, http.StatusOK, map[string]any{
			"markdown": "# " + name + "\n\nFounded in 1952, the shop has served the neighborhood for three generations.\n",
			"job_metadata": map[string]int{
				"job_pages": 2,
			},
		})
	}))

	mux.HandleFunc("POST /api/v1/pipelines/{id}/retrieve", auth(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
			TopK  int    `json:"similarity_top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
			return
		}
		if req.TopK <= 0 {
			req.TopK = 2
		}

		nodes := make([]map[string]any, 0, req.TopK)
		for i := range req.TopK {
			nodes = append(nodes, map[string]any{
				"node": map[string]any{
					"id_":  uuid.NewString(),
					"text": "Passage " + string(rune('A'+i)) + " mentions " + req.Query + ".",
					"metadata": map[string]string{
						"pipeline_id": r.PathValue("id"),
					},
				},
				"score": 0.9 - float64(i)*0.1,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"retrieval_nodes": nodes})
	}))

	return mux
}
