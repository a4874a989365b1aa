// Package weaviate is the live back-end for the weaviate vendor. Similarity
// search runs as a GraphQL nearText query against the configured class.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

const (
	vendorName   = "weaviate"
	defaultClass = "LegacyBusiness"
	defaultLimit = 3
	maxLimit     = 25

	EnvAPIKey = "WEAVIATE_API_KEY"
	EnvURL    = "WEAVIATE_URL"

	OpSimilaritySearch = "similarity_search"
)

type Vendor struct {
	class  string
	client *fasthttp.Client
}

type Option func(*Vendor)

// WithClass sets the Weaviate class searched by nearText.
func WithClass(c string) Option {
	return func(v *Vendor) {
		if c != "" {
			v.class = c
		}
	}
}

func WithHTTPClient(c *fasthttp.Client) Option {
	return func(v *Vendor) { v.client = c }
}

func New(opts ...Option) *Vendor {
	v := &Vendor{class: defaultClass}
	for _, o := range opts {
		o(v)
	}
	if v.client == nil {
		v.client = vendors.NewHTTPClient()
	}
	return v
}

func (v *Vendor) Name() string { return vendorName }

func (v *Vendor) Supports(operation string) bool { return operation == OpSimilaritySearch }

func (v *Vendor) Call(ctx context.Context, call vendors.Call) (any, error) {
	if call.Operation != OpSimilaritySearch {
		return nil, fmt.Errorf("weaviate: %w: %q", vendors.ErrUnknownOperation, call.Operation)
	}

	base := strings.TrimRight(call.Credentials.Get(EnvURL), "/")
	key := call.Credentials.Get(EnvAPIKey)
	if base == "" || key == "" {
		return nil, fmt.Errorf("weaviate: url and API key are required")
	}

	query := call.String("query", "business_name", "name", "content")
	limit := clampLimit(call.Int("limit", defaultLimit))

	body, err := json.Marshal(map[string]string{"query": v.nearTextQuery(query, limit)})
	if err != nil {
		return nil, fmt.Errorf("weaviate: encode query: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(base + "/v1/graphql")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	req.SetBody(body)

	start := time.Now()
	if err := vendors.Do(ctx, v.client, req, resp); err != nil {
		return nil, fmt.Errorf("weaviate: %w", err)
	}
	if sc := resp.StatusCode(); sc < 200 || sc >= 300 {
		return nil, vendors.NewStatusError(vendorName, resp)
	}

	return v.parse(query, resp.Body(), time.Since(start))
}

func (v *Vendor) nearTextQuery(query string, limit int) string {
	concept, _ := json.Marshal(query)
	return fmt.Sprintf(
		`{ Get { %s(nearText: {concepts: [%s]}, limit: %d) { business_name tagline business_type neighborhood _additional { id certainty distance } } } }`,
		v.class, concept, limit,
	)
}

func (v *Vendor) parse(query string, body []byte, took time.Duration) (mock.Similarity, error) {
	if !gjson.ValidBytes(body) {
		return mock.Similarity{}, &vendors.VendorError{Vendor: vendorName, Message: "response is not valid JSON"}
	}

	doc := gjson.ParseBytes(body)
	if errs := doc.Get("errors"); errs.Exists() && len(errs.Array()) > 0 {
		return mock.Similarity{}, &vendors.VendorError{Vendor: vendorName, Message: errs.Get("0.message").String()}
	}

	out := mock.Similarity{Query: query, SearchTimeMs: took.Milliseconds(), SimilarBusinesses: []mock.SimilarBusiness{}}
	doc.Get("data.Get." + v.class).ForEach(func(_, hit gjson.Result) bool {
		out.SimilarBusinesses = append(out.SimilarBusinesses, mock.SimilarBusiness{
			ID:              hit.Get("_additional.id").String(),
			Name:            hit.Get("business_name").String(),
			Tagline:         hit.Get("tagline").String(),
			BusinessType:    hit.Get("business_type").String(),
			Neighborhood:    hit.Get("neighborhood").String(),
			SimilarityScore: score(hit.Get("_additional")),
		})
		return true
	})
	out.TotalResults = len(out.SimilarBusinesses)
	return out, nil
}

// score prefers certainty and falls back to 1 - distance.
func score(meta gjson.Result) float64 {
	if c := meta.Get("certainty"); c.Exists() && c.Type == gjson.Number {
		return c.Float()
	}
	if d := meta.Get("distance"); d.Exists() && d.Type == gjson.Number {
		return max(0, 1-d.Float())
	}
	return 0
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}
