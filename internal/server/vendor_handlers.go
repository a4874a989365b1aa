package server

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/valyala/fasthttp"

	"github.com/nulpointcorp/hackstack/internal/vendors"
	"github.com/nulpointcorp/hackstack/pkg/apierr"
)

type vendorRequest struct {
	Operation string         `json:"operation"`
	Data      map[string]any `json:"data"`
}

// handleVendor serves POST /api/vendor/{vendor_name}. An empty operation
// selects the vendor's first declared operation.
func (s *Server) handleVendor(ctx *fasthttp.RequestCtx) {
	vendor, _ := ctx.UserValue("vendor_name").(string)

	var req vendorRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			apierr.BadRequest(ctx, "invalid JSON body: "+err.Error(), apierr.CodeInvalidJSON)
			return
		}
	}

	op := req.Operation
	if op == "" {
		def, err := s.opts.Dispatcher.DefaultOperation(vendor)
		if err != nil {
			s.dispatchError(ctx, err)
			return
		}
		op = def
	}
	s.dispatch(ctx, vendor, op, req.Data)
}

// handleVendorTest dispatches the vendor's default operation with empty
// input so the debug UI can smoke-test one vendor at a time.
func (s *Server) handleVendorTest(ctx *fasthttp.RequestCtx) {
	vendor, _ := ctx.UserValue("vendor_name").(string)
	op, err := s.opts.Dispatcher.DefaultOperation(vendor)
	if err != nil {
		s.dispatchError(ctx, err)
		return
	}
	s.dispatch(ctx, vendor, op, map[string]any{})
}

// passthrough dispatches a fixed vendor operation with the JSON request body
// as its data.
func (s *Server) passthrough(vendor, operation string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		data := map[string]any{}
		if body := ctx.PostBody(); len(body) > 0 {
			if err := json.Unmarshal(body, &data); err != nil {
				apierr.BadRequest(ctx, "invalid JSON body: "+err.Error(), apierr.CodeInvalidJSON)
				return
			}
		}
		s.dispatch(ctx, vendor, operation, data)
	}
}

func (s *Server) handleJobStatus(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("job_id").(string)
	s.dispatch(ctx, "llamaindex", "job_status", map[string]any{"job_id": id})
}

func (s *Server) handleSimilar(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)
	limit, ok := queryInt(ctx, "limit", 3)
	if !ok {
		apierr.BadRequest(ctx, "limit must be an integer", apierr.CodeInvalidRequest)
		return
	}
	s.dispatch(ctx, "weaviate", "similarity_search", map[string]any{
		"query":         name,
		"business_name": name,
		"limit":         limit,
	})
}

type vendorStatusResponse struct {
	Vendor            string                    `json:"vendor"`
	Name              string                    `json:"name"`
	Mode              vendors.Mode              `json:"mode"`
	IntegrationStatus vendors.IntegrationStatus `json:"integration_status"`
	HasCredentials    bool                      `json:"has_credentials"`
	Missing           []string                  `json:"missing"`
	Operations        []string                  `json:"operations"`
}

func (s *Server) vendorStatus(vendor string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		d := s.opts.Dispatcher
		cfg, ok := d.Catalog().Vendors[vendor]
		if !ok {
			apierr.NotFound(ctx, "vendor "+vendor+" is not configured", apierr.CodeUnknownVendor)
			return
		}
		st := d.Resolver().Resolve(cfg).Status

		mode := vendors.ModeMock
		for _, v := range d.Available() {
			if v == vendor {
				mode = vendors.ModeLive
			}
		}
		writeJSON(ctx, vendorStatusResponse{
			Vendor:            vendor,
			Name:              cfg.Name,
			Mode:              mode,
			IntegrationStatus: vendors.IntegrationStatusFor(st, cfg, d.ForceMock()),
			HasCredentials:    st.HasCredentials,
			Missing:           st.Missing,
			Operations:        cfg.Operations,
		})
	}
}

func (s *Server) dispatch(ctx *fasthttp.RequestCtx, vendor, operation string, data map[string]any) {
	res, err := s.opts.Dispatcher.Dispatch(ctx, vendor, operation, data)
	if err != nil {
		s.dispatchError(ctx, err)
		return
	}

	switch {
	case res.Mode == vendors.ModeMock:
		s.mockCalls.Add(1)
	case res.Status == vendors.StatusError:
		s.liveCalls.Add(1)
		s.callErrors.Add(1)
	default:
		s.liveCalls.Add(1)
	}
	writeJSON(ctx, res)
}

func (s *Server) dispatchError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, vendors.ErrUnknownVendor):
		apierr.NotFound(ctx, err.Error(), apierr.CodeUnknownVendor)
	case errors.Is(err, vendors.ErrUnknownOperation):
		apierr.BadRequest(ctx, err.Error(), apierr.CodeUnknownOperation)
	default:
		s.log.Error("dispatch_failed", slog.String("error", err.Error()))
		apierr.Internal(ctx, "dispatch failed")
	}
}
