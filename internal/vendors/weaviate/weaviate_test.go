package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

func testCall(t *testing.T, url string, data map[string]any) vendors.Call {
	t.Helper()
	env := map[string]string{EnvAPIKey: "wv-key", EnvURL: url}
	r := credentials.NewResolver("", credentials.WithLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	return vendors.Call{
		Operation:   OpSimilaritySearch,
		Data:        data,
		Credentials: r.Resolve(catalog.VendorConfig{Name: vendorName, EnvVars: []string{EnvAPIKey, EnvURL}}),
	}
}

func TestVendor_Call_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/graphql" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer wv-key" {
			t.Errorf("wrong Authorization header: %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		q := body["query"]
		if !strings.Contains(q, `LegacyBusiness(nearText: {concepts: ["coffee \"shop\""]}, limit: 2)`) {
			t.Errorf("unexpected query %q", q)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"Get":{"LegacyBusiness":[
			{"business_name":"Code & Coffee","neighborhood":"SoMa","_additional":{"id":"a1","certainty":0.91,"distance":0.18}},
			{"business_name":"Analog Digital","_additional":{"id":"b2","certainty":null,"distance":0.25}}
		]}}}`))
	}))
	defer srv.Close()

	out, err := New().Call(context.Background(), testCall(t, srv.URL+"/", map[string]any{"query": `coffee "shop"`, "limit": float64(2)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := out.(mock.Similarity)
	if s.TotalResults != 2 || len(s.SimilarBusinesses) != 2 {
		t.Fatalf("expected 2 results, got %+v", s)
	}
	if s.SimilarBusinesses[0].Name != "Code & Coffee" || s.SimilarBusinesses[0].SimilarityScore != 0.91 {
		t.Errorf("unexpected first hit: %+v", s.SimilarBusinesses[0])
	}
	if s.SimilarBusinesses[1].SimilarityScore != 0.75 {
		t.Errorf("expected distance fallback 0.75, got %v", s.SimilarBusinesses[1].SimilarityScore)
	}
	if s.SimilarBusinesses[0].ID != "a1" || s.SimilarBusinesses[0].Neighborhood != "SoMa" {
		t.Errorf("expected object id and neighborhood carried over, got %+v", s.SimilarBusinesses[0])
	}
	if s.Query != `coffee "shop"` {
		t.Errorf("unexpected query echo %q", s.Query)
	}
}

func TestVendor_Call_GraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Cannot query field \"LegacyBusiness\""}]}`))
	}))
	defer srv.Close()

	_, err := New().Call(context.Background(), testCall(t, srv.URL, map[string]any{"query": "x"}))
	var ve *vendors.VendorError
	if !errors.As(err, &ve) || !strings.Contains(ve.Message, "Cannot query field") {
		t.Fatalf("expected GraphQL VendorError, got %v", err)
	}
}

func TestVendor_Call_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"anonymous access not enabled"}`))
	}))
	defer srv.Close()

	_, err := New().Call(context.Background(), testCall(t, srv.URL, nil))
	var ve *vendors.VendorError
	if !errors.As(err, &ve) || ve.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 VendorError, got %v", err)
	}
}

func TestVendor_Call_EmptyHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Get":{"Shop":[]}}}`))
	}))
	defer srv.Close()

	out, err := New(WithClass("Shop")).Call(context.Background(), testCall(t, srv.URL, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := out.(mock.Similarity); s.TotalResults != 0 || s.SimilarBusinesses == nil {
		t.Errorf("expected empty non-nil hits, got %+v", s)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: 3, -4: 3, 5: 5, 100: 25} {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
