// Package openai is the live back-end for the openai vendor. It serves the
// analyze operation through the chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openaiSDK "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

const (
	vendorName   = "openai"
	defaultModel = "gpt-4o-mini"

	// EnvAPIKey is the credential variable read from the resolved call.
	EnvAPIKey = "OPENAI_API_KEY"

	OpAnalyze = "analyze"
)

const analyzePrompt = `You analyze small local businesses for a community registry.
Reply with a single JSON object and nothing else, using these keys:
"analysis" (string, two sentences), "sentiment" (one of positive, neutral, mixed),
"key_themes" (array of strings), "suggested_improvements" (array of strings),
"confidence" (number between 0 and 1).`

type Vendor struct {
	baseURL string
	model   string
	client  openaiSDK.Client
}

type Option func(*Vendor)

// WithBaseURL overrides the API endpoint (useful for testing).
func WithBaseURL(u string) Option {
	return func(v *Vendor) { v.baseURL = u }
}

// WithModel sets the chat model.
func WithModel(m string) Option {
	return func(v *Vendor) {
		if m != "" {
			v.model = m
		}
	}
}

func New(opts ...Option) *Vendor {
	v := &Vendor{model: defaultModel}
	for _, o := range opts {
		o(v)
	}

	clientOpts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{}),
		// The dispatcher makes exactly one attempt per call.
		option.WithMaxRetries(0),
	}
	if v.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(v.baseURL))
	}
	v.client = openaiSDK.NewClient(clientOpts...)

	return v
}

func (v *Vendor) Name() string { return vendorName }

func (v *Vendor) Supports(operation string) bool { return operation == OpAnalyze }

// Call returns a mock.Analysis, the shape shared with mock results.
func (v *Vendor) Call(ctx context.Context, call vendors.Call) (any, error) {
	if call.Operation != OpAnalyze {
		return nil, fmt.Errorf("openai: %w: %q", vendors.ErrUnknownOperation, call.Operation)
	}

	opts, err := requestOptions(call)
	if err != nil {
		return nil, err
	}

	params := openaiSDK.ChatCompletionNewParams{
		Messages: []openaiSDK.ChatCompletionMessageParamUnion{
			openaiSDK.SystemMessage(analyzePrompt),
			openaiSDK.UserMessage(vendors.PromptPayload(call.Data)),
		},
		Model: v.model,
	}

	resp, err := v.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, toVendorError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &vendors.VendorError{Vendor: vendorName, Message: "response has no choices"}
	}

	var out mock.Analysis
	if err := vendors.DecodeJSONReply(resp.Choices[0].Message.Content, &out); err != nil {
		return nil, &vendors.VendorError{Vendor: vendorName, Message: "malformed analysis: " + err.Error()}
	}
	out.Subject = call.String("content", "business_name", "text")
	out.Model = resp.Model
	out.InputTokens = resp.Usage.PromptTokens
	out.OutputTokens = resp.Usage.CompletionTokens
	return out, nil
}

func requestOptions(call vendors.Call) ([]option.RequestOption, error) {
	key := call.Credentials.Get(EnvAPIKey)
	if key == "" {
		return nil, fmt.Errorf("openai: no API key configured")
	}
	return []option.RequestOption{option.WithAPIKey(key)}, nil
}

func toVendorError(err error) error {
	var apierr *openaiSDK.Error
	if errors.As(err, &apierr) {
		return &vendors.VendorError{
			Vendor:     vendorName,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
		}
	}
	return err
}
