// Package llamaindex is the live back-end for the llamaindex vendor, backed by
// the LlamaCloud REST API: parsing uploads, job polling, pipeline retrieval.
package llamaindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/mock"
	"github.com/nulpointcorp/hackstack/internal/vendors"
)

const (
	vendorName     = "llamaindex"
	defaultBaseURL = "https://api.cloud.llamaindex.ai"
	defaultTopK    = 5

	EnvAPIKey = "LLAMA_CLOUD_API_KEY"

	OpProcessDocument = "process_document"
	OpParsePDF        = "parse_pdf"
	OpQuery           = "query"
	OpJobStatus       = "job_status"
)

// upload is the parse job created for a source document.
type upload struct {
	jobID     string
	status    string
	sourceURL string
}

type Vendor struct {
	baseURL    string
	pipelineID string
	client     *fasthttp.Client
}

type Option func(*Vendor)

// WithBaseURL overrides the LlamaCloud endpoint (useful for testing).
func WithBaseURL(u string) Option {
	return func(v *Vendor) {
		if u != "" {
			v.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithPipeline enables the query operation against a managed pipeline.
func WithPipeline(id string) Option {
	return func(v *Vendor) { v.pipelineID = id }
}

func WithHTTPClient(c *fasthttp.Client) Option {
	return func(v *Vendor) { v.client = c }
}

func New(opts ...Option) *Vendor {
	v := &Vendor{baseURL: defaultBaseURL}
	for _, o := range opts {
		o(v)
	}
	if v.client == nil {
		v.client = vendors.NewHTTPClient()
	}
	return v
}

func (v *Vendor) Name() string { return vendorName }

// Supports reports query only when a pipeline is configured; without one the
// dispatcher serves it from the mock generator.
func (v *Vendor) Supports(operation string) bool {
	switch operation {
	case OpProcessDocument, OpParsePDF, OpJobStatus:
		return true
	case OpQuery:
		return v.pipelineID != ""
	default:
		return false
	}
}

func (v *Vendor) Call(ctx context.Context, call vendors.Call) (any, error) {
	key := call.Credentials.Get(EnvAPIKey)
	if key == "" {
		return nil, fmt.Errorf("llamaindex: no API key configured")
	}

	switch call.Operation {
	case OpProcessDocument:
		u, err := v.upload(ctx, key, call)
		if err != nil {
			return nil, err
		}
		return mock.Document{JobID: u.jobID, Status: u.status, SourceURL: u.sourceURL}, nil
	case OpParsePDF:
		u, err := v.upload(ctx, key, call)
		if err != nil {
			return nil, err
		}
		return mock.PDFExtraction{JobID: u.jobID, Status: u.status, SourceURL: u.sourceURL}, nil
	case OpJobStatus:
		return v.jobStatus(ctx, key, call)
	case OpQuery:
		if v.pipelineID == "" {
			return nil, fmt.Errorf("llamaindex: no pipeline configured")
		}
		return v.retrieve(ctx, key, call)
	default:
		return nil, fmt.Errorf("llamaindex: %w: %q", vendors.ErrUnknownOperation, call.Operation)
	}
}

// ── operations ───────────────────────────────────────────────────────────────

func (v *Vendor) upload(ctx context.Context, key string, call vendors.Call) (upload, error) {
	src := call.String("document_url", "pdf_url", "url")
	if src == "" {
		return upload{}, &vendors.VendorError{Vendor: vendorName, Message: "document_url is required"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("input_url", src); err != nil {
		return upload{}, fmt.Errorf("llamaindex: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return upload{}, fmt.Errorf("llamaindex: build form: %w", err)
	}

	body, err := v.do(ctx, fasthttp.MethodPost, "/api/v1/parsing/upload", key, mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return upload{}, err
	}

	doc := gjson.ParseBytes(body)
	return upload{
		jobID:     doc.Get("id").String(),
		status:    doc.Get("status").String(),
		sourceURL: src,
	}, nil
}

func (v *Vendor) jobStatus(ctx context.Context, key string, call vendors.Call) (mock.JobStatus, error) {
	id := call.String("job_id", "id")
	if id == "" {
		return mock.JobStatus{}, &vendors.VendorError{Vendor: vendorName, Message: "job_id is required"}
	}

	path := "/api/v1/parsing/job/" + url.PathEscape(id)
	body, err := v.do(ctx, fasthttp.MethodGet, path, key, "", nil)
	if err != nil {
		return mock.JobStatus{}, err
	}

	job := mock.JobStatus{JobID: id, Status: gjson.GetBytes(body, "status").String()}
	if job.Status != "SUCCESS" {
		return job, nil
	}

	result, err := v.do(ctx, fasthttp.MethodGet, path+"/result/markdown", key, "", nil)
	if err != nil {
		return mock.JobStatus{}, err
	}
	job.Markdown = gjson.GetBytes(result, "markdown").String()
	job.Pages = gjson.GetBytes(result, "job_metadata.job_pages").Int()
	return job, nil
}

func (v *Vendor) retrieve(ctx context.Context, key string, call vendors.Call) (mock.Query, error) {
	query := call.String("query", "q")
	payload, err := json.Marshal(map[string]any{
		"query":            query,
		"similarity_top_k": call.Int("top_k", defaultTopK),
	})
	if err != nil {
		return mock.Query{}, fmt.Errorf("llamaindex: encode query: %w", err)
	}

	start := time.Now()
	path := "/api/v1/pipelines/" + url.PathEscape(v.pipelineID) + "/retrieve"
	body, err := v.do(ctx, fasthttp.MethodPost, path, key, "application/json", payload)
	if err != nil {
		return mock.Query{}, err
	}

	out := mock.Query{Query: query, DocumentID: call.String("document_id"), Nodes: []mock.Node{}}
	gjson.GetBytes(body, "retrieval_nodes").ForEach(func(_, n gjson.Result) bool {
		node := mock.Node{
			ID:    n.Get("node.id_").String(),
			Text:  n.Get("node.text").String(),
			Score: n.Get("score").Float(),
		}
		if md, ok := n.Get("node.metadata").Value().(map[string]any); ok && len(md) > 0 {
			node.Metadata = md
		}
		out.Nodes = append(out.Nodes, node)
		return true
	})
	out.TotalResults = len(out.Nodes)
	out.ProcessingTimeMs = time.Since(start).Milliseconds()
	return out, nil
}

// ── transport ────────────────────────────────────────────────────────────────

func (v *Vendor) do(ctx context.Context, method, path, key, contentType string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(v.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if body != nil {
		req.SetBody(body)
	}

	if err := vendors.Do(ctx, v.client, req, resp); err != nil {
		return nil, fmt.Errorf("llamaindex: %w", err)
	}
	if sc := resp.StatusCode(); sc < 200 || sc >= 300 {
		return nil, vendors.NewStatusError(vendorName, resp)
	}
	if !gjson.ValidBytes(resp.Body()) {
		return nil, &vendors.VendorError{Vendor: vendorName, Message: "response is not valid JSON"}
	}

	// resp is released on return; copy the body out.
	return append([]byte(nil), resp.Body()...), nil
}
