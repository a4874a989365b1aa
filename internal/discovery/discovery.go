// Package discovery merges the routes registered at runtime with the endpoint
// sections declared in the YAML catalogue.
//
// Discover is a pure function: it never mutates either input and produces the
// same catalogue for the same inputs.
package discovery

import (
	"maps"
	"slices"
	"strings"

	"github.com/nulpointcorp/hackstack/internal/catalog"
)

const (
	UntrackedSection  = "untracked"
	UntrackedPriority = "low"
)

type (
	Catalogue struct {
		Sections  []Section `json:"sections"`
		Untracked Section   `json:"untracked"`
		// Stale lists catalogue entries with no runtime route. They are
		// reported but not counted.
		Stale   []Endpoint `json:"stale"`
		Summary Summary    `json:"summary"`
	}

	Section struct {
		Name        string     `json:"name"`
		Description string     `json:"description,omitempty"`
		Endpoints   []Endpoint `json:"endpoints"`
	}

	Endpoint struct {
		Path        string         `json:"path"`
		Methods     []string       `json:"methods"`
		Priority    string         `json:"priority"`
		Configured  bool           `json:"configured"`
		Section     string         `json:"section"`
		Description string         `json:"description,omitempty"`
		Example     map[string]any `json:"example,omitempty"`
	}

	Summary struct {
		TotalSections       int `json:"total_sections"`
		TotalEndpoints      int `json:"total_endpoints"`
		EndpointsConfigured int `json:"endpoints_configured"`
		EndpointsUntracked  int `json:"endpoints_untracked"`
		EndpointsStale      int `json:"endpoints_stale"`
	}
)

// Discover merges routes (method -> paths, as returned by router.List) with
// the catalogue sections. A runtime route is one distinct path; its methods
// are the union across registrations. Sections keep their YAML order and a
// path claimed by more than one section belongs to the first.
func Discover(routes map[string][]string, eps catalog.Endpoints) Catalogue {
	runtime := methodsByPath(routes)
	claimed := make(map[string]bool, len(runtime))

	out := Catalogue{
		Sections: make([]Section, 0, len(eps.Sections)),
		Stale:    []Endpoint{},
	}

	for _, sec := range eps.Sections {
		s := Section{Name: sec.Name, Description: sec.Description, Endpoints: []Endpoint{}}
		for _, e := range sec.Endpoints {
			methods, ok := runtime[e.Path]
			if !ok {
				out.Stale = append(out.Stale, Endpoint{
					Path:        e.Path,
					Methods:     upper(e.Methods),
					Priority:    priority(e.Priority),
					Section:     sec.Name,
					Description: e.Description,
				})
				continue
			}
			if claimed[e.Path] {
				continue
			}
			claimed[e.Path] = true
			s.Endpoints = append(s.Endpoints, Endpoint{
				Path:        e.Path,
				Methods:     methods,
				Priority:    priority(e.Priority),
				Configured:  true,
				Section:     sec.Name,
				Description: e.Description,
				Example:     e.Example,
			})
		}
		out.Sections = append(out.Sections, s)
	}

	out.Untracked = Section{
		Name:        UntrackedSection,
		Description: "Registered routes missing from the endpoint catalogue",
		Endpoints:   []Endpoint{},
	}
	for _, path := range slices.Sorted(maps.Keys(runtime)) {
		if claimed[path] {
			continue
		}
		out.Untracked.Endpoints = append(out.Untracked.Endpoints, Endpoint{
			Path:     path,
			Methods:  runtime[path],
			Priority: UntrackedPriority,
			Section:  UntrackedSection,
		})
	}

	out.Summary = Summary{
		TotalSections:       len(out.Sections),
		TotalEndpoints:      len(runtime),
		EndpointsConfigured: len(claimed),
		EndpointsUntracked:  len(out.Untracked.Endpoints),
		EndpointsStale:      len(out.Stale),
	}
	if out.Summary.EndpointsUntracked > 0 {
		out.Summary.TotalSections++
	}
	return out
}

func methodsByPath(routes map[string][]string) map[string][]string {
	set := make(map[string]map[string]struct{})
	for method, paths := range routes {
		for _, p := range paths {
			if set[p] == nil {
				set[p] = make(map[string]struct{})
			}
			set[p][strings.ToUpper(method)] = struct{}{}
		}
	}

	out := make(map[string][]string, len(set))
	for p, ms := range set {
		out[p] = slices.Sorted(maps.Keys(ms))
	}
	return out
}

func priority(p string) string {
	if p == "" {
		return "medium"
	}
	return p
}

func upper(ms []string) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = strings.ToUpper(m)
	}
	return out
}
