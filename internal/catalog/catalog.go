// Package catalog loads the static YAML catalogue that declares the services
// probed by the debug report, the AI vendors and their credentials, and the
// endpoint sections used by auto-discovery.
//
// The catalogue is read once at startup and treated as read-only for the
// lifetime of the process.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// SearchPaths are the locations probed by Find, in order.
var SearchPaths = []string{
	"/app/config/debug.yaml",
	"./config/debug.yaml",
	"/config/debug.yaml",
}

type (
	// Catalog is the parsed YAML document.
	Catalog struct {
		Project       Project                  `yaml:"project" json:"project"`
		Services      map[string]ServiceConfig `yaml:"services" json:"services"`
		Vendors       map[string]VendorConfig  `yaml:"vendors" json:"vendors"`
		Endpoints     Endpoints                `yaml:"endpoints" json:"endpoints"`
		DemoReadiness DemoReadiness            `yaml:"demo_readiness" json:"demo_readiness"`
	}

	// Project describes the demo for the debug UI header.
	Project struct {
		Name        string `yaml:"name" json:"name"`
		Description string `yaml:"description" json:"description"`
		Version     string `yaml:"version" json:"version"`
	}

	// ServiceConfig declares one internal service probed by the aggregator.
	ServiceConfig struct {
		Name string `yaml:"name" json:"name"`
		// Type is one of api, web, proxy, cache.
		Type string `yaml:"type" json:"type"`
		URL  string `yaml:"url" json:"url"`
		// SelfService marks the process itself; it is reported healthy
		// without a network round-trip.
		SelfService bool `yaml:"self_service" json:"self_service"`
		// Critical services must be healthy for the demo to be ready.
		Critical bool `yaml:"critical" json:"critical"`
		// Probe selects the health check: http (default), redis or self.
		Probe       string      `yaml:"probe" json:"probe"`
		HealthCheck HealthCheck `yaml:"health_check" json:"health_check"`
		Features    []string    `yaml:"features" json:"features"`
	}

	// HealthCheck tunes an HTTP probe.
	HealthCheck struct {
		Endpoint       string        `yaml:"endpoint" json:"endpoint"`
		ExpectedStatus int           `yaml:"expected_status" json:"expected_status"`
		Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	}

	// VendorConfig is the static descriptor of one AI vendor.
	VendorConfig struct {
		Name string `yaml:"name" json:"name"`
		Type string `yaml:"type" json:"type"`
		// EnvVars lists every variable that must be non-empty for the vendor
		// to count as credentialed.
		EnvVars      []string  `yaml:"env_vars" json:"env_vars"`
		LiveEndpoint string    `yaml:"live_endpoint" json:"live_endpoint"`
		MockEndpoint string    `yaml:"mock_endpoint" json:"mock_endpoint"`
		Sponsor      bool      `yaml:"sponsor" json:"sponsor"`
		// Enabled defaults to true when omitted. Disabled vendors always
		// dispatch to the mock generator.
		Enabled    *bool     `yaml:"enabled" json:"enabled,omitempty"`
		Operations []string  `yaml:"operations" json:"operations"`
		Features   []Feature `yaml:"features" json:"features"`
	}

	// Feature is a vendor capability and whether it has a live implementation.
	Feature struct {
		Name string `yaml:"name" json:"name"`
		Live bool   `yaml:"live" json:"live"`
	}

	// Endpoints groups documented routes into sections.
	Endpoints struct {
		Sections []Section `yaml:"sections" json:"sections"`
	}

	// Section is a named group of documented endpoints.
	Section struct {
		Name        string     `yaml:"name" json:"name"`
		Description string     `yaml:"description" json:"description"`
		Endpoints   []Endpoint `yaml:"endpoints" json:"endpoints"`
	}

	// Endpoint documents one route.
	Endpoint struct {
		Path        string         `yaml:"path" json:"path"`
		Methods     []string       `yaml:"methods" json:"methods"`
		Priority    string         `yaml:"priority" json:"priority"`
		Description string         `yaml:"description" json:"description"`
		Example     map[string]any `yaml:"example" json:"example,omitempty"`
	}

	// DemoReadiness configures the demo_ready block of the debug report.
	DemoReadiness struct {
		// MinIntegrationScore is the integration score (0-100) the demo needs.
		MinIntegrationScore int         `yaml:"min_integration_score" json:"min_integration_score"`
		Criteria            []Criterion `yaml:"criteria" json:"criteria"`
	}

	// Criterion is one weighted readiness check.
	Criterion struct {
		Name   string `yaml:"name" json:"name"`
		Check  string `yaml:"check" json:"check"`
		Weight int    `yaml:"weight" json:"weight"`
	}
)

// Default returns the built-in catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads and validates the catalogue at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Find loads the explicit path when set. Otherwise it tries SearchPaths and
// falls back to Default. The returned string names the source that was used.
func Find(explicit string) (*Catalog, string, error) {
	if explicit != "" {
		c, err := Load(explicit)
		return c, explicit, err
	}
	for _, p := range SearchPaths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("catalog: stat %s: %w", p, err)
		}
		c, err := Load(p)
		return c, p, err
	}
	c, err := Default()
	return c, "builtin", err
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) applyDefaults() {
	if c.Services == nil {
		c.Services = map[string]ServiceConfig{}
	}
	if c.Vendors == nil {
		c.Vendors = map[string]VendorConfig{}
	}
	for key, s := range c.Services {
		if s.Name == "" {
			s.Name = key
		}
		if s.Probe == "" {
			if s.SelfService {
				s.Probe = ProbeSelf
			} else {
				s.Probe = ProbeHTTP
			}
		}
		if s.HealthCheck.Endpoint == "" {
			s.HealthCheck.Endpoint = "/"
		}
		if s.HealthCheck.ExpectedStatus == 0 {
			s.HealthCheck.ExpectedStatus = 200
		}
		c.Services[key] = s
	}
	for key, v := range c.Vendors {
		if v.Name == "" {
			v.Name = key
		}
		c.Vendors[key] = v
	}
	for i := range c.DemoReadiness.Criteria {
		if c.DemoReadiness.Criteria[i].Weight == 0 {
			c.DemoReadiness.Criteria[i].Weight = 10
		}
	}
}

// Probe kinds.
const (
	ProbeHTTP  = "http"
	ProbeRedis = "redis"
	ProbeSelf  = "self"
)

func (c *Catalog) validate() error {
	for key, s := range c.Services {
		switch s.Probe {
		case ProbeHTTP, ProbeRedis:
			if s.URL == "" {
				return fmt.Errorf("service %q: url is required for %s probe", key, s.Probe)
			}
		case ProbeSelf:
		default:
			return fmt.Errorf("service %q: unknown probe %q", key, s.Probe)
		}
	}
	for key, v := range c.Vendors {
		if len(v.EnvVars) == 0 {
			return fmt.Errorf("vendor %q: at least one env var is required", key)
		}
		if len(v.Operations) == 0 {
			return fmt.Errorf("vendor %q: at least one operation is required", key)
		}
	}
	if c.DemoReadiness.MinIntegrationScore < 0 || c.DemoReadiness.MinIntegrationScore > 100 {
		return fmt.Errorf("demo_readiness: min_integration_score must be in 0..100")
	}
	return nil
}

// VendorNames returns the declared vendor keys in sorted order.
func (c *Catalog) VendorNames() []string {
	return sortedKeys(c.Vendors)
}

// ServiceNames returns the declared service keys in sorted order.
func (c *Catalog) ServiceNames() []string {
	return sortedKeys(c.Services)
}

// IsEnabled reports whether the vendor may be called live.
func (v VendorConfig) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// Supports reports whether the vendor declares the operation.
func (v VendorConfig) Supports(operation string) bool {
	for _, op := range v.Operations {
		if op == operation {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
