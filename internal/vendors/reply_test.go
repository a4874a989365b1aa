package vendors

import (
	"strings"
	"testing"
)

func TestDecodeJSONReply(t *testing.T) {
	var out struct {
		Sentiment string `json:"sentiment"`
	}

	cases := []string{
		`{"sentiment":"positive"}`,
		"```json\n{\"sentiment\":\"positive\"}\n```",
		`Sure! Here it is: {"sentiment": "positive"} Hope that helps.`,
	}
	for _, in := range cases {
		out.Sentiment = ""
		if err := DecodeJSONReply(in, &out); err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if out.Sentiment != "positive" {
			t.Errorf("%q: expected positive, got %q", in, out.Sentiment)
		}
	}

	for _, bad := range []string{"", "no json here", "{not json}", "} backwards {"} {
		if err := DecodeJSONReply(bad, &out); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestPromptPayload(t *testing.T) {
	if got := PromptPayload(nil); got != "{}" {
		t.Errorf("expected {} for empty data, got %q", got)
	}
	got := PromptPayload(map[string]any{"content": "Quantum Coffee Co."})
	if !strings.Contains(got, `"content": "Quantum Coffee Co."`) {
		t.Errorf("unexpected payload %q", got)
	}
}

func TestCallAccessors(t *testing.T) {
	c := Call{Data: map[string]any{"query": "  coffee ", "limit": float64(4), "empty": ""}}
	if got := c.String("missing", "empty", "query"); got != "coffee" {
		t.Errorf("expected coffee, got %q", got)
	}
	if got := c.Int("limit", 1); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := c.Int("missing", 9); got != 9 {
		t.Errorf("expected default 9, got %d", got)
	}
}

func TestVendorError(t *testing.T) {
	e := &VendorError{Vendor: "weaviate", StatusCode: 503, Message: "unavailable"}
	if e.HTTPStatus() != 503 {
		t.Errorf("expected 503, got %d", e.HTTPStatus())
	}
	if !strings.Contains(e.Error(), "status=503") {
		t.Errorf("unexpected message %q", e.Error())
	}
	if got := (&VendorError{Vendor: "x", Message: "m"}).Error(); got != "x: m" {
		t.Errorf("unexpected message %q", got)
	}
}
