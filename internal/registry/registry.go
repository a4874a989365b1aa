// Package registry holds the read-only list of legacy businesses served by
// the /api/businesses endpoints and used as the corpus for mock similarity
// results.
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed businesses.json
var sampleJSON []byte

// Business is one registry entry.
type Business struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Tagline      string   `json:"tagline"`
	Type         string   `json:"type"`
	Neighborhood string   `json:"neighborhood"`
	Founded      int      `json:"founded"`
	Story        string   `json:"story"`
	Features     []string `json:"features"`
	Status       string   `json:"status"`
	AISummary    string   `json:"ai_summary"`
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	businesses []Business
	byID       map[int]int
}

// Load reads the registry from path, or from the embedded sample when path
// is empty.
func Load(path string) (*Registry, error) {
	data := sampleJSON
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("registry: read %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a JSON array of businesses. IDs must be unique.
func Parse(data []byte) (*Registry, error) {
	var list []Business
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("registry: decode: %w", err)
	}
	return New(list)
}

// New builds a registry from an in-memory list.
func New(list []Business) (*Registry, error) {
	r := &Registry{
		businesses: make([]Business, len(list)),
		byID:       make(map[int]int, len(list)),
	}
	copy(r.businesses, list)
	for i, b := range r.businesses {
		if _, dup := r.byID[b.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate business id %d", b.ID)
		}
		r.byID[b.ID] = i
	}
	return r, nil
}

// Len returns the number of businesses.
func (r *Registry) Len() int { return len(r.businesses) }

// List returns up to limit businesses in file order. limit <= 0 means all.
func (r *Registry) List(limit int) []Business {
	return clip(r.businesses, limit)
}

// Get returns the business with the given id.
func (r *Registry) Get(id int) (Business, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Business{}, false
	}
	return r.businesses[i], true
}

// Search does a case-insensitive substring match on name, tagline and story.
// An empty query matches everything.
func (r *Registry) Search(query string, limit int) []Business {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Business, 0)
	for _, b := range r.businesses {
		if q == "" ||
			strings.Contains(strings.ToLower(b.Name), q) ||
			strings.Contains(strings.ToLower(b.Tagline), q) ||
			strings.Contains(strings.ToLower(b.Story), q) {
			out = append(out, b)
		}
	}
	return clip(out, limit)
}

func clip(list []Business, limit int) []Business {
	if limit <= 0 || limit >= len(list) {
		return append([]Business(nil), list...)
	}
	return append([]Business(nil), list[:limit]...)
}
