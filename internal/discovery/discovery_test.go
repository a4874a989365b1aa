package discovery

import (
	"slices"
	"testing"

	"github.com/nulpointcorp/hackstack/internal/catalog"
)

func routes() map[string][]string {
	return map[string][]string{
		"GET":     {"/api/health", "/api/debug", "/api/businesses", "/api/vendor/{vendor_name}"},
		"POST":    {"/api/vendor/{vendor_name}", "/api/weaviate/search"},
		"OPTIONS": {"/api/weaviate/search"},
	}
}

func endpoints() catalog.Endpoints {
	return catalog.Endpoints{Sections: []catalog.Section{
		{Name: "System", Endpoints: []catalog.Endpoint{
			{Path: "/api/health", Methods: []string{"GET"}, Priority: "high"},
			{Path: "/api/debug", Methods: []string{"get"}},
			{Path: "/api/removed", Methods: []string{"GET"}, Description: "gone"},
		}},
		{Name: "Vendors", Endpoints: []catalog.Endpoint{
			{Path: "/api/vendor/{vendor_name}", Methods: []string{"POST"}, Priority: "high",
				Example: map[string]any{"operation": "analyze"}},
			{Path: "/api/health"},
		}},
	}}
}

func TestDiscover(t *testing.T) {
	c := Discover(routes(), endpoints())

	if len(c.Sections) != 2 || c.Sections[0].Name != "System" || c.Sections[1].Name != "Vendors" {
		t.Fatalf("sections must keep catalogue order, got %+v", c.Sections)
	}

	sys := c.Sections[0].Endpoints
	if len(sys) != 2 {
		t.Fatalf("expected 2 system endpoints, got %+v", sys)
	}
	if sys[1].Priority != "medium" || !sys[1].Configured {
		t.Errorf("expected default priority medium, got %+v", sys[1])
	}

	v := c.Sections[1].Endpoints
	if len(v) != 1 {
		t.Fatalf("a path claimed by an earlier section must not repeat, got %+v", v)
	}
	if !slices.Equal(v[0].Methods, []string{"GET", "POST"}) {
		t.Errorf("expected runtime methods GET,POST, got %v", v[0].Methods)
	}
	if v[0].Example["operation"] != "analyze" {
		t.Errorf("example not carried: %v", v[0].Example)
	}

	un := c.Untracked.Endpoints
	if len(un) != 2 || un[0].Path != "/api/businesses" || un[1].Path != "/api/weaviate/search" {
		t.Fatalf("unexpected untracked %+v", un)
	}
	if un[1].Priority != UntrackedPriority || un[1].Configured || !slices.Equal(un[1].Methods, []string{"OPTIONS", "POST"}) {
		t.Errorf("unexpected untracked entry %+v", un[1])
	}

	if len(c.Stale) != 1 || c.Stale[0].Path != "/api/removed" || c.Stale[0].Section != "System" {
		t.Errorf("unexpected stale %+v", c.Stale)
	}

	want := Summary{TotalSections: 3, TotalEndpoints: 5, EndpointsConfigured: 3, EndpointsUntracked: 2, EndpointsStale: 1}
	if c.Summary != want {
		t.Errorf("expected summary %+v, got %+v", want, c.Summary)
	}
}

func TestDiscover_EmptyCatalogue(t *testing.T) {
	c := Discover(routes(), catalog.Endpoints{})
	if c.Summary.EndpointsConfigured != 0 || c.Summary.EndpointsUntracked != 5 {
		t.Errorf("every route must be untracked, got %+v", c.Summary)
	}
	if c.Sections == nil || c.Stale == nil {
		t.Error("sections and stale must be empty lists, not null")
	}
}

func TestDiscover_CountsMatchRuntimeRoutes(t *testing.T) {
	full := endpoints()
	variants := []catalog.Endpoints{
		{},
		full,
		{Sections: full.Sections[:1]},
		{Sections: []catalog.Section{{Name: "Only stale", Endpoints: []catalog.Endpoint{{Path: "/nope"}}}}},
		{Sections: []catalog.Section{{Name: "Empty"}}},
	}
	for i, eps := range variants {
		c := Discover(routes(), eps)
		s := c.Summary
		if s.EndpointsConfigured+s.EndpointsUntracked != s.TotalEndpoints || s.TotalEndpoints != 5 {
			t.Errorf("variant %d: configured %d + untracked %d != runtime 5", i, s.EndpointsConfigured, s.EndpointsUntracked)
		}
	}
}

func TestDiscover_DoesNotMutateInputs(t *testing.T) {
	r := routes()
	eps := endpoints()
	before := slices.Clone(eps.Sections[0].Endpoints[1].Methods)

	a := Discover(r, eps)
	b := Discover(r, eps)

	if !slices.Equal(eps.Sections[0].Endpoints[1].Methods, before) {
		t.Error("catalogue methods were mutated")
	}
	if a.Summary != b.Summary || len(a.Untracked.Endpoints) != len(b.Untracked.Endpoints) {
		t.Error("discover is not idempotent")
	}
}
