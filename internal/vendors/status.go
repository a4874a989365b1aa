package vendors

import (
	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
)

// IntegrationStatus summarizes how live a vendor's configuration is.
type IntegrationStatus string

const (
	FullyIntegrated          IntegrationStatus = "fully_integrated"
	PartialLive              IntegrationStatus = "partial_live"
	PartialMockMissingKeys   IntegrationStatus = "partial_mock_missing_keys"
	MockOnly                 IntegrationStatus = "mock_only"
	CredentialsReadyUntested IntegrationStatus = "credentials_ready_untested"
)

// IntegrationStatusFor is a pure function of the credential status, the
// vendor's declared features and the force-mock flag.
func IntegrationStatusFor(status credentials.Status, cfg catalog.VendorConfig, forceMock bool) IntegrationStatus {
	switch {
	case len(status.Present) == 0:
		return MockOnly
	case len(status.Missing) > 0:
		return PartialMockMissingKeys
	case forceMock:
		return CredentialsReadyUntested
	}
	for _, f := range cfg.Features {
		if !f.Live {
			return PartialLive
		}
	}
	return FullyIntegrated
}

// LiveEligible reports whether at least part of the vendor runs live.
func (s IntegrationStatus) LiveEligible() bool {
	return s == FullyIntegrated || s == PartialLive
}
