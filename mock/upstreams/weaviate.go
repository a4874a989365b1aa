package main

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

var (
	classRe = regexp.MustCompile(`Get\s*\{\s*(\w+)\s*\(`)
	limitRe = regexp.MustCompile(`limit:\s*(\d+)`)
)

var legacyBusinesses = []struct {
	name, tagline, kind, neighborhood string
}{
	{"Tadich Grill", "Seafood since the Gold Rush", "Restaurant", "Financial District"},
	{"City Lights Booksellers", "Beat-era poetry and prose", "Bookstore", "North Beach"},
	{"Vesuvio Cafe", "Where the Beats drank", "Bar", "North Beach"},
	{"Sam Wo", "Late-night jook", "Restaurant", "Chinatown"},
	{"Amoeba Music", "Records by the mile", "Record Store", "Haight-Ashbury"},
	{"Dianda's Italian Bakery", "Cannoli on Mission Street", "Bakery", "Mission"},
	{"The Roxie Theater", "Independent film since 1909", "Cinema", "Mission"},
}

// newWeaviateHandler returns an http.Handler that simulates the Weaviate
// GraphQL endpoint for nearText queries, plus the readiness probe.
func newWeaviateHandler(cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/.well-known/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		if !bearer(r) {
			writeError(w, http.StatusUnauthorized, "anonymous access not enabled", "unauthorized")
			return
		}
		if injectFault(cfg) {
			writeError(w, http.StatusInternalServerError, "mock internal server error", "server_error")
			return
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
			return
		}

		m := classRe.FindStringSubmatch(req.Query)
		if m == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"errors": []map[string]string{{"message": "mock: query has no Get clause"}},
			})
			return
		}
		class := m[1]

		limit := 3
		if lm := limitRe.FindStringSubmatch(req.Query); lm != nil {
			limit, _ = strconv.Atoi(lm[1])
		}

		hits := make([]map[string]any, 0, limit)
		for i, j := range rand.Perm(len(legacyBusinesses))[:min(limit, len(legacyBusinesses))] {
			b := legacyBusinesses[j]
			certainty := 0.95 - float64(i)*0.07
			hits = append(hits, map[string]any{
				"business_name": b.name,
				"tagline":       b.tagline,
				"business_type": b.kind,
				"neighborhood":  b.neighborhood,
				"_additional": map[string]any{
					"id":        uuid.NewString(),
					"certainty": certainty,
					"distance":  2 * (1 - certainty),
				},
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"Get": map[string]any{class: hits},
			},
		})
	})

	return mux
}
