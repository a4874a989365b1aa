package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nulpointcorp/hackstack/internal/catalog"
)

func envMap(m map[string]string) Option {
	return WithLookup(func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	})
}

var weaviate = catalog.VendorConfig{
	Name:    "weaviate",
	EnvVars: []string{"WEAVIATE_API_KEY", "WEAVIATE_URL"},
}

func TestResolve_NoneSet(t *testing.T) {
	r := NewResolver("", envMap(nil))
	c := r.Resolve(weaviate)

	if c.HasCredentials || c.Source != SourceNone || c.IsSecure {
		t.Errorf("unexpected status: %+v", c.Status)
	}
	if len(c.Missing) != 2 || len(c.Present) != 0 {
		t.Errorf("expected both vars missing, got present=%v missing=%v", c.Present, c.Missing)
	}
	if c.Warning != "" {
		t.Errorf("expected no warning, got %q", c.Warning)
	}
}

func TestResolve_PartialIsNotCredentialed(t *testing.T) {
	r := NewResolver("", envMap(map[string]string{"WEAVIATE_API_KEY": "k"}))
	c := r.Resolve(weaviate)

	if c.HasCredentials {
		t.Error("one of two vars must not count as credentialed")
	}
	if c.Complete() {
		t.Error("Complete must be false with a missing var")
	}
	if c.Source != SourceHostEnv || c.Warning != HostEnvWarning {
		t.Errorf("expected host_env with warning, got %+v", c.Status)
	}
	if c.Get("WEAVIATE_API_KEY") != "k" {
		t.Errorf("expected resolved value, got %q", c.Get("WEAVIATE_API_KEY"))
	}
}

func TestResolve_WhitespaceCountsAsMissing(t *testing.T) {
	r := NewResolver("", envMap(map[string]string{"WEAVIATE_API_KEY": "  ", "WEAVIATE_URL": "http://w"}))
	c := r.Resolve(weaviate)
	if c.HasCredentials {
		t.Error("blank key must count as missing")
	}
	if len(c.Missing) != 1 || c.Missing[0] != "WEAVIATE_API_KEY" {
		t.Errorf("expected WEAVIATE_API_KEY missing, got %v", c.Missing)
	}
}

func TestResolve_EnvFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WEAVIATE_API_KEY=k\nWEAVIATE_URL=http://w\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewResolver(path, envMap(map[string]string{"WEAVIATE_API_KEY": "k", "WEAVIATE_URL": "http://w"}))
	c := r.Resolve(weaviate)

	if !c.HasCredentials || c.Source != SourceEnvFile || !c.IsSecure {
		t.Errorf("expected secure env_file credentials, got %+v", c.Status)
	}
	if c.Warning != "" {
		t.Errorf("expected no warning, got %q", c.Warning)
	}
}

func TestResolve_MixedSourceIsHostEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WEAVIATE_API_KEY=k\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewResolver(path, envMap(map[string]string{"WEAVIATE_API_KEY": "k", "WEAVIATE_URL": "http://w"}))
	c := r.Resolve(weaviate)

	if c.Source != SourceHostEnv || c.IsSecure {
		t.Errorf("expected host_env when a var is missing from the file, got %+v", c.Status)
	}
}

func TestCredentials_JSONHasNoSecrets(t *testing.T) {
	r := NewResolver("", envMap(map[string]string{"WEAVIATE_API_KEY": "sk-secret", "WEAVIATE_URL": "http://w"}))
	b, err := json.Marshal(r.Resolve(weaviate))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "sk-secret") {
		t.Errorf("secret leaked into JSON: %s", b)
	}
	if !strings.Contains(string(b), `"has_credentials":true`) {
		t.Errorf("expected has_credentials in JSON: %s", b)
	}
}

func TestResolveAll(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	r := NewResolver("", envMap(map[string]string{"OPENAI_API_KEY": "sk"}))
	all := r.ResolveAll(cat)

	if len(all) != len(cat.Vendors) {
		t.Fatalf("expected %d vendors, got %d", len(cat.Vendors), len(all))
	}
	if !all["openai"].HasCredentials {
		t.Error("expected openai credentialed")
	}
	for _, name := range []string{"anthropic", "weaviate", "llamaindex"} {
		if all[name].Source != SourceNone {
			t.Errorf("%s: expected source none, got %q", name, all[name].Source)
		}
	}
}
