// Package credentials inspects the process environment for the variables each
// vendor declares and classifies where they came from.
//
// Resolution is stateless and cheap: every call re-reads the environment and
// the secrets file so the debug report always reflects the current state.
package credentials

import (
	"os"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/nulpointcorp/hackstack/internal/catalog"
)

// Source says where a vendor's credentials were found.
type Source string

const (
	SourceNone    Source = "none"
	SourceHostEnv Source = "host_env"
	SourceEnvFile Source = "env_file"
)

// HostEnvWarning is attached to credentials that were not declared in the
// secrets file.
const HostEnvWarning = "Using host environment key - insecure! Use .env file instead"

// Status is the serializable credential summary for one vendor. It never
// carries secret values.
type Status struct {
	Vendor         string   `json:"vendor"`
	HasCredentials bool     `json:"has_credentials"`
	Source         Source   `json:"source"`
	IsSecure       bool     `json:"is_secure"`
	Warning        string   `json:"warning,omitempty"`
	Required       []string `json:"required"`
	Present        []string `json:"present"`
	Missing        []string `json:"missing"`
}

// Complete reports whether every required variable is present.
func (s Status) Complete() bool {
	return len(s.Required) > 0 && len(s.Missing) == 0
}

// Credentials pairs a Status with the resolved values. Values are
// unexported so they cannot leak through JSON encoding.
type Credentials struct {
	Status
	values map[string]string
}

// Get returns the resolved value of an environment variable.
func (c Credentials) Get(name string) string {
	return c.values[name]
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookup replaces os.LookupEnv. Useful in tests.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(r *Resolver) { r.lookup = fn }
}

// Resolver resolves vendor credentials.
type Resolver struct {
	lookup  func(string) (string, bool)
	envFile string
}

// NewResolver creates a Resolver. envFile is the secrets file consulted to
// classify the credential source; it does not need to exist.
func NewResolver(envFile string, opts ...Option) *Resolver {
	r := &Resolver{lookup: os.LookupEnv, envFile: envFile}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve inspects every variable the vendor declares. A variable set to an
// empty or whitespace-only string counts as missing.
func (r *Resolver) Resolve(v catalog.VendorConfig) Credentials {
	c := Credentials{
		Status: Status{
			Vendor:   v.Name,
			Source:   SourceNone,
			Required: append([]string(nil), v.EnvVars...),
			Present:  []string{},
			Missing:  []string{},
		},
		values: make(map[string]string, len(v.EnvVars)),
	}

	for _, name := range v.EnvVars {
		val, ok := r.lookup(name)
		val = strings.TrimSpace(val)
		if !ok || val == "" {
			c.Missing = append(c.Missing, name)
			continue
		}
		c.Present = append(c.Present, name)
		c.values[name] = val
	}

	if len(c.Present) == 0 {
		return c
	}

	c.HasCredentials = len(c.Missing) == 0
	if r.declaredInFile(c.Present) {
		c.Source = SourceEnvFile
		c.IsSecure = true
	} else {
		c.Source = SourceHostEnv
		c.Warning = HostEnvWarning
	}
	return c
}

// ResolveAll resolves every vendor in the catalogue, keyed by vendor key.
func (r *Resolver) ResolveAll(cat *catalog.Catalog) map[string]Credentials {
	out := make(map[string]Credentials, len(cat.Vendors))
	for key, v := range cat.Vendors {
		out[key] = r.Resolve(v)
	}
	return out
}

func (r *Resolver) declaredInFile(names []string) bool {
	if r.envFile == "" {
		return false
	}
	env, err := gotenv.Read(r.envFile)
	if err != nil {
		return false
	}
	for _, name := range names {
		if strings.TrimSpace(env[name]) == "" {
			return false
		}
	}
	return true
}
