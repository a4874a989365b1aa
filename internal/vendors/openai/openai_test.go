package openai

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

func testCall(t *testing.T, key string) vendors.Call {
	t.Helper()
	r := credentials.NewResolver("", credentials.WithLookup(func(k string) (string, bool) {
		if k == EnvAPIKey && key != "" {
			return key, true
		}
		return "", false
	}))
	creds := r.Resolve(catalog.VendorConfig{Name: vendorName, EnvVars: []string{EnvAPIKey}})
	return vendors.Call{
		Operation:   OpAnalyze,
		Data:        map[string]any{"content": "Quantum Coffee Co. serves espresso to startup founders."},
		Credentials: creds,
	}
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []any{
			map[string]any{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     42,
			"completion_tokens": 17,
			"total_tokens":      59,
		},
	}
}

func TestVendor_NameAndSupports(t *testing.T) {
	v := New()
	if v.Name() != "openai" {
		t.Fatalf("expected 'openai', got %q", v.Name())
	}
	if !v.Supports("analyze") || v.Supports("extract_structure") {
		t.Error("openai supports analyze only")
	}
}

func TestVendor_Call_Success(t *testing.T) {
	reply := "```json\n" + `{"analysis":"A busy cafe.","sentiment":"positive","key_themes":["community"],"suggested_improvements":["longer hours"],"confidence":0.91}` + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing or wrong Authorization header: %s", r.Header.Get("Authorization"))
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("expected default model, got %v", body["model"])
		}
		if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
			t.Errorf("expected system and user messages, got %d", len(msgs))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(reply))
	}))
	defer srv.Close()

	out, err := New(WithBaseURL(srv.URL)).Call(context.Background(), testCall(t, "sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, ok := out.(mock.Analysis)
	if !ok {
		t.Fatalf("expected mock.Analysis, got %T", out)
	}
	if a.Sentiment != "positive" || a.Confidence != 0.91 {
		t.Errorf("unexpected analysis: %+v", a)
	}
	if len(a.KeyThemes) != 1 || a.KeyThemes[0] != "community" {
		t.Errorf("unexpected themes: %v", a.KeyThemes)
	}
	if a.InputTokens != 42 || a.OutputTokens != 17 {
		t.Errorf("unexpected usage: in=%d out=%d", a.InputTokens, a.OutputTokens)
	}
}

func TestVendor_Call_MalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("I cannot help with that."))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Call(context.Background(), testCall(t, "sk-test"))
	var ve *vendors.VendorError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VendorError, got %v", err)
	}
	if !strings.Contains(ve.Message, "malformed") {
		t.Errorf("unexpected message %q", ve.Message)
	}
}

func TestVendor_Call_UpstreamError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Call(context.Background(), testCall(t, "sk-bad"))
	var ve *vendors.VendorError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VendorError, got %v", err)
	}
	if ve.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", ve.StatusCode)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestVendor_Call_NoKey(t *testing.T) {
	if _, err := New().Call(context.Background(), testCall(t, "")); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestVendor_Call_WrongOperation(t *testing.T) {
	call := testCall(t, "sk-test")
	call.Operation = "translate"
	if _, err := New().Call(context.Background(), call); !errors.Is(err, vendors.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}
