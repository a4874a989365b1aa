// Package anthropic is the live back-end for the anthropic vendor. It turns a
// free-text business story into structured fields via the Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

const (
	vendorName       = "anthropic"
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024

	EnvAPIKey = "ANTHROPIC_API_KEY"

	OpExtractStructure = "extract_structure"
)

const extractPrompt = `You extract structured facts from stories about small local businesses.
Reply with one JSON object and nothing else:
{"structured_data": {"business_category": string, "community_impact": string,
"unique_value_proposition": string, "target_demographic": string,
"competitive_advantages": [string], "growth_potential": string},
"narrative_quality": string, "story_completeness": number between 0 and 1}`

// Vendor implements vendors.LiveVendor on the official Anthropic SDK.
type Vendor struct {
	baseURL   string
	model     string
	maxTokens int64
	client    anthropic.Client
}

// Option configures a Vendor.
type Option func(*Vendor)

// WithBaseURL overrides the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(v *Vendor) { v.baseURL = url }
}

func WithModel(m string) Option {
	return func(v *Vendor) {
		if m != "" {
			v.model = m
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(v *Vendor) {
		if n > 0 {
			v.maxTokens = int64(n)
		}
	}
}

func New(opts ...Option) *Vendor {
	v := &Vendor{model: defaultModel, maxTokens: defaultMaxTokens}
	for _, o := range opts {
		o(v)
	}

	clientOpts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{}),
		option.WithMaxRetries(0),
	}
	if v.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(v.baseURL))
	}
	v.client = anthropic.NewClient(clientOpts...)

	return v
}

func (v *Vendor) Name() string { return vendorName }

func (v *Vendor) Supports(operation string) bool { return operation == OpExtractStructure }

func (v *Vendor) Call(ctx context.Context, call vendors.Call) (any, error) {
	if call.Operation != OpExtractStructure {
		return nil, fmt.Errorf("anthropic: %w: %q", vendors.ErrUnknownOperation, call.Operation)
	}

	key := call.Credentials.Get(EnvAPIKey)
	if key == "" {
		return nil, fmt.Errorf("anthropic: no API key configured")
	}

	msg, err := v.client.Messages.New(ctx, v.buildParams(call), option.WithAPIKey(key))
	if err != nil {
		return nil, toVendorError(err)
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		switch t := b.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(t.Text)
		case *anthropic.TextBlock:
			sb.WriteString(t.Text)
		}
	}

	var out mock.Structure
	if err := vendors.DecodeJSONReply(sb.String(), &out); err != nil {
		return nil, &vendors.VendorError{Vendor: vendorName, Message: "malformed structure: " + err.Error()}
	}
	out.Model = string(msg.Model)
	out.InputTokens = msg.Usage.InputTokens
	out.OutputTokens = msg.Usage.OutputTokens
	return out, nil
}

func (v *Vendor) buildParams(call vendors.Call) anthropic.MessageNewParams {
	story := call.String("content", "story", "text")
	if story == "" {
		story = vendors.PromptPayload(call.Data)
	}

	return anthropic.MessageNewParams{
		Model:     anthropic.Model(v.model),
		MaxTokens: v.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: extractPrompt}},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					{OfText: &anthropic.TextBlockParam{Text: story}},
				},
			},
		},
	}
}

func toVendorError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &vendors.VendorError{
			Vendor:     vendorName,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
		}
	}
	return err
}
