package vendors

import (
	"testing"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
)

func TestIntegrationStatusFor(t *testing.T) {
	allLive := catalog.VendorConfig{Features: []catalog.Feature{{Name: "a", Live: true}}}
	someMock := catalog.VendorConfig{Features: []catalog.Feature{{Name: "a", Live: true}, {Name: "b"}}}

	none := credentials.Status{Required: []string{"A", "B"}, Missing: []string{"A", "B"}}
	partial := credentials.Status{Required: []string{"A", "B"}, Present: []string{"A"}, Missing: []string{"B"}}
	full := credentials.Status{Required: []string{"A", "B"}, Present: []string{"A", "B"}, HasCredentials: true}

	cases := []struct {
		name   string
		status credentials.Status
		cfg    catalog.VendorConfig
		force  bool
		want   IntegrationStatus
	}{
		{"none", none, allLive, false, MockOnly},
		{"none forced", none, allLive, true, MockOnly},
		{"partial", partial, allLive, false, PartialMockMissingKeys},
		{"partial forced", partial, allLive, true, PartialMockMissingKeys},
		{"full forced", full, allLive, true, CredentialsReadyUntested},
		{"full some mock features", full, someMock, false, PartialLive},
		{"full all live", full, allLive, false, FullyIntegrated},
		{"full no features", full, catalog.VendorConfig{}, false, FullyIntegrated},
	}
	for _, tc := range cases {
		got := IntegrationStatusFor(tc.status, tc.cfg, tc.force)
		if got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
		if again := IntegrationStatusFor(tc.status, tc.cfg, tc.force); again != got {
			t.Errorf("%s: not deterministic (%q then %q)", tc.name, got, again)
		}
	}
}

func TestLiveEligible(t *testing.T) {
	for s, want := range map[IntegrationStatus]bool{
		FullyIntegrated:          true,
		PartialLive:              true,
		PartialMockMissingKeys:   false,
		MockOnly:                 false,
		CredentialsReadyUntested: false,
	} {
		if got := s.LiveEligible(); got != want {
			t.Errorf("%s: expected %v, got %v", s, want, got)
		}
	}
}
