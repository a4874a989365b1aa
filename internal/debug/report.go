package debug

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

type (
	// Report is the full /api/debug document.
	Report struct {
		Project          catalog.Project          `json:"project"`
		Timestamp        time.Time                `json:"timestamp"`
		OverallHealth    HealthStatus             `json:"overall_health"`
		EnvironmentMode  string                   `json:"environment_mode"`
		ForceMock        bool                     `json:"force_mock"`
		Services         map[string]ServiceHealth `json:"services"`
		Vendors          map[string]VendorReport  `json:"vendors"`
		IntegrationScore int                      `json:"integration_score"`
		CredentialScore  int                      `json:"credential_score"`
		MissingDetails   MissingDetails           `json:"missing_details"`
		Summary          Summary                  `json:"summary"`
		DemoReady        DemoReady                `json:"demo_ready"`
	}

	VendorReport struct {
		Name              string                    `json:"name"`
		Type              string                    `json:"type"`
		Enabled           bool                      `json:"enabled"`
		Sponsor           bool                      `json:"sponsor"`
		Mode              vendors.Mode              `json:"mode"`
		IntegrationStatus vendors.IntegrationStatus `json:"integration_status"`
		Credentials       credentials.Status        `json:"credentials"`
		Operations        []string                  `json:"operations"`
		Features          []catalog.Feature         `json:"features"`
	}

	// MissingDetails are derived views over the vendor reports.
	MissingDetails struct {
		MissingCredentials  []MissingCredential `json:"missing_credentials"`
		PartialIntegrations []VendorReason      `json:"partial_integrations"`
		MockOnly            []VendorReason      `json:"mock_only"`
	}

	MissingCredential struct {
		Vendor    string   `json:"vendor"`
		Variables []string `json:"variables"`
	}

	VendorReason struct {
		Vendor string                    `json:"vendor"`
		Status vendors.IntegrationStatus `json:"status"`
		Reason string                    `json:"reason"`
	}

	Summary struct {
		TotalServices   int `json:"total_services"`
		HealthyServices int `json:"healthy_services"`
		TotalVendors    int `json:"total_vendors"`
		LiveVendors     int `json:"live_vendors"`
		MockVendors     int `json:"mock_vendors"`
	}

	DemoReady struct {
		Ready   bool    `json:"ready"`
		Score   int     `json:"score"`
		Message string  `json:"message"`
		Checks  []Check `json:"checks"`
	}

	Check struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
		Weight int    `json:"weight"`
	}
)

// Demo readiness checks understood by demoReadiness.
const (
	CheckServicesHealthy = "services_healthy"
	CheckAPIResponsive   = "api_responsive"
	CheckFrontendHealthy = "frontend_healthy"
	CheckVendorAvailable = "vendor_available"
)

func overallHealth(services map[string]ServiceHealth) HealthStatus {
	healthy := 0
	for _, s := range services {
		if s.Status == Healthy {
			healthy++
		}
	}
	switch {
	case healthy == len(services):
		return Healthy
	case healthy > 0:
		return Degraded
	default:
		return Unhealthy
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}

// integrationScore is the share of vendors that are fully integrated or
// partially integrated.
func integrationScore(vs map[string]VendorReport) int {
	n := 0
	for _, v := range vs {
		switch v.IntegrationStatus {
		case vendors.FullyIntegrated, vendors.PartialLive, vendors.PartialMockMissingKeys:
			n++
		}
	}
	return percent(n, len(vs))
}

// credentialScore is the share of required variables present across all
// vendors.
func credentialScore(vs map[string]VendorReport) int {
	present, required := 0, 0
	for _, v := range vs {
		present += len(v.Credentials.Present)
		required += len(v.Credentials.Required)
	}
	return percent(present, required)
}

func missingDetails(cat *catalog.Catalog, vs map[string]VendorReport) MissingDetails {
	md := MissingDetails{
		MissingCredentials:  []MissingCredential{},
		PartialIntegrations: []VendorReason{},
		MockOnly:            []VendorReason{},
	}

	for _, key := range cat.VendorNames() {
		v := vs[key]
		if len(v.Credentials.Missing) > 0 {
			md.MissingCredentials = append(md.MissingCredentials, MissingCredential{
				Vendor:    key,
				Variables: v.Credentials.Missing,
			})
		}

		r := VendorReason{Vendor: key, Status: v.IntegrationStatus}
		switch v.IntegrationStatus {
		case vendors.PartialMockMissingKeys:
			r.Reason = "missing " + strings.Join(v.Credentials.Missing, ", ")
			md.PartialIntegrations = append(md.PartialIntegrations, r)
		case vendors.PartialLive:
			r.Reason = "mock-only features: " + strings.Join(mockFeatures(v.Features), ", ")
			md.PartialIntegrations = append(md.PartialIntegrations, r)
		case vendors.MockOnly:
			r.Reason = "no credentials configured (" + strings.Join(v.Credentials.Required, ", ") + ")"
			md.MockOnly = append(md.MockOnly, r)
		case vendors.CredentialsReadyUntested:
			r.Reason = "FORCE_MOCK is set; credentials present but not exercised"
			md.MockOnly = append(md.MockOnly, r)
		}

		if !v.Enabled && v.IntegrationStatus != vendors.MockOnly && v.IntegrationStatus != vendors.CredentialsReadyUntested {
			md.MockOnly = append(md.MockOnly, VendorReason{
				Vendor: key,
				Status: v.IntegrationStatus,
				Reason: "disabled in catalogue",
			})
		}
	}
	return md
}

func mockFeatures(fs []catalog.Feature) []string {
	var out []string
	for _, f := range fs {
		if !f.Live {
			out = append(out, f.Name)
		}
	}
	return out
}

func summarize(services map[string]ServiceHealth, vs map[string]VendorReport) Summary {
	s := Summary{TotalServices: len(services), TotalVendors: len(vs)}
	for _, svc := range services {
		if svc.Status == Healthy {
			s.HealthyServices++
		}
	}
	for _, v := range vs {
		if v.Mode == vendors.ModeLive {
			s.LiveVendors++
		} else {
			s.MockVendors++
		}
	}
	return s
}

// demoReadiness scores the weighted criteria. Ready additionally requires
// every critical service to be healthy and the integration score to be
// strictly above the configured minimum, so a mock-only report is never ready.
func demoReadiness(cfg catalog.DemoReadiness, rep Report) DemoReady {
	dr := DemoReady{Checks: []Check{}}

	if len(cfg.Criteria) == 0 {
		dr.Score = 100
	} else {
		score, total := 0, 0
		for _, c := range cfg.Criteria {
			passed := evalCheck(c.Check, rep)
			if passed {
				score += c.Weight
			}
			total += c.Weight
			dr.Checks = append(dr.Checks, Check{Name: c.Name, Passed: passed, Weight: c.Weight})
		}
		dr.Score = percent(score, total)
	}

	var blockers []string
	if dr.Score < ReadyThreshold {
		blockers = append(blockers, fmt.Sprintf("readiness score %d below %d", dr.Score, ReadyThreshold))
	}
	for _, name := range sortedServiceNames(rep.Services) {
		if s := rep.Services[name]; s.Critical && s.Status != Healthy {
			blockers = append(blockers, "critical service "+name+" is "+string(s.Status))
		}
	}
	if rep.IntegrationScore <= cfg.MinIntegrationScore {
		blockers = append(blockers, fmt.Sprintf("integration score %d not above %d", rep.IntegrationScore, cfg.MinIntegrationScore))
	}

	dr.Ready = len(blockers) == 0
	switch {
	case dr.Ready && len(cfg.Criteria) == 0:
		dr.Message = "No criteria configured"
	case dr.Ready:
		dr.Message = "Demo ready!"
	default:
		dr.Message = "Issues detected: " + strings.Join(blockers, "; ")
	}
	return dr
}

func evalCheck(check string, rep Report) bool {
	switch check {
	case CheckServicesHealthy:
		return rep.OverallHealth == Healthy || rep.OverallHealth == Degraded
	case CheckAPIResponsive:
		return anyHealthy(rep.Services, "api")
	case CheckFrontendHealthy:
		return anyHealthy(rep.Services, "web")
	case CheckVendorAvailable:
		return len(rep.Vendors) > 0
	default:
		return false
	}
}

func anyHealthy(services map[string]ServiceHealth, typ string) bool {
	for _, s := range services {
		if s.Type == typ && s.Status == Healthy {
			return true
		}
	}
	return false
}

func sortedServiceNames(services map[string]ServiceHealth) []string {
	return slices.Sorted(maps.Keys(services))
}
