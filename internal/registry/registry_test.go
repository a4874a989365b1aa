package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmbeddedSample(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() != 4 {
		t.Fatalf("expected 4 sample businesses, got %d", r.Len())
	}
	b, ok := r.Get(1)
	if !ok || b.Name != "Quantum Coffee Co." {
		t.Errorf("expected Quantum Coffee Co. for id 1, got %+v", b)
	}
	if _, ok := r.Get(99); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestList_Limit(t *testing.T) {
	r, _ := Load("")
	if got := len(r.List(2)); got != 2 {
		t.Errorf("List(2): expected 2, got %d", got)
	}
	if got := len(r.List(0)); got != 4 {
		t.Errorf("List(0): expected all 4, got %d", got)
	}
	if got := len(r.List(100)); got != 4 {
		t.Errorf("List(100): expected 4, got %d", got)
	}

	list := r.List(1)
	list[0].Name = "mutated"
	if b, _ := r.Get(1); b.Name == "mutated" {
		t.Error("List must return a copy")
	}
}

func TestSearch(t *testing.T) {
	r, _ := Load("")

	cases := []struct {
		query string
		want  int
	}{
		{"coffee", 1},
		{"DIGITAL", 2},
		{"ramen", 1},
		{"nothing-like", 0},
		{"", 4},
	}
	for _, tc := range cases {
		if got := len(r.Search(tc.query, 0)); got != tc.want {
			t.Errorf("Search(%q): expected %d results, got %d", tc.query, tc.want, got)
		}
	}
	if got := len(r.Search("", 2)); got != 2 {
		t.Errorf("expected limit to apply, got %d", got)
	}
}

func TestParse_DuplicateID(t *testing.T) {
	if _, err := Parse([]byte(`[{"id":1,"name":"a"},{"id":1,"name":"b"}]`)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.json")
	if err := os.WriteFile(path, []byte(`[{"id":7,"name":"Fog City Forge"}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b, ok := r.Get(7); !ok || b.Name != "Fog City Forge" {
		t.Errorf("unexpected entry: %+v", b)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
