package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulpointcorp/hackstack/internal/catalog"
	"github.com/nulpointcorp/hackstack/internal/credentials"
	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

func testCall(t *testing.T, data map[string]any) vendors.Call {
	t.Helper()
	r := credentials.NewResolver("", credentials.WithLookup(func(k string) (string, bool) {
		return "mock-api-key", k == EnvAPIKey
	}))
	return vendors.Call{
		Operation:   OpExtractStructure,
		Data:        data,
		Credentials: r.Resolve(catalog.VendorConfig{Name: vendorName, EnvVars: []string{EnvAPIKey}}),
	}
}

func isMessagesPath(p string) bool {
	return p == "/messages" || p == "/v1/messages"
}

func respondMessageJSON(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    "msg_01",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-3-5-haiku-latest",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage": map[string]any{
			"input_tokens":  120,
			"output_tokens": 64,
		},
	})
}

func TestVendor_Call_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMessagesPath(r.URL.Path) {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "mock-api-key" {
			t.Errorf("missing or wrong x-api-key header: %q", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["max_tokens"] != float64(defaultMaxTokens) {
			t.Errorf("expected max_tokens %d, got %v", defaultMaxTokens, body["max_tokens"])
		}
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("expected one user message, got %d", len(msgs))
		}
		if _, ok := body["system"]; !ok {
			t.Error("expected system prompt")
		}

		respondMessageJSON(w, `{"structured_data":{"business_category":"Tech Cafe","competitive_advantages":["fast wifi"]},"narrative_quality":"good","story_completeness":0.8}`)
	}))
	defer srv.Close()

	out, err := New(WithBaseURL(srv.URL)).Call(context.Background(), testCall(t, map[string]any{"story": "We opened in 2019."}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := out.(mock.Structure)
	if s.StructuredData.BusinessCategory != "Tech Cafe" || s.StoryCompleteness != 0.8 {
		t.Errorf("unexpected structure: %+v", s)
	}
	if s.InputTokens != 120 || s.OutputTokens != 64 {
		t.Errorf("unexpected usage: %d/%d", s.InputTokens, s.OutputTokens)
	}
}

func TestVendor_Call_MalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondMessageJSON(w, "Here is a summary without any structure.")
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Call(context.Background(), testCall(t, nil))
	var ve *vendors.VendorError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VendorError, got %v", err)
	}
}

func TestVendor_Call_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Call(context.Background(), testCall(t, nil))
	var ve *vendors.VendorError
	if !errors.As(err, &ve) || ve.HTTPStatus() != http.StatusTooManyRequests {
		t.Fatalf("expected 429 VendorError, got %v", err)
	}
}

func TestBuildParams_FallsBackToPayload(t *testing.T) {
	v := New(WithModel("claude-test"), WithMaxTokens(256))
	p := v.buildParams(vendors.Call{Data: map[string]any{"name": "El Faro"}})
	if string(p.Model) != "claude-test" || p.MaxTokens != 256 {
		t.Errorf("options not applied: model=%s max=%d", p.Model, p.MaxTokens)
	}
	text := p.Messages[0].Content[0].OfText.Text
	if text == "" || text == "{}" {
		t.Errorf("expected payload rendered into prompt, got %q", text)
	}
}
