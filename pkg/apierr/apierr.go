// Package apierr writes the structured JSON error envelope used for
// transport-level failures (bad request bodies, unknown vendors, panics).
//
// Vendor call failures are not transport failures: they are reported inside
// a 200 response with status "error" and never go through this package.
package apierr

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// RequestIDKey is the user value the request-id middleware stores the
// current id under. Envelopes echo it so a failing call can be found in the
// logs.
const RequestIDKey = "request_id"

const (
	TypeInvalidRequest = "invalid_request_error"
	TypeNotFound       = "not_found_error"
	TypeServerError    = "server_error"
)

const (
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidJSON      = "invalid_json"
	CodeUnknownVendor    = "unknown_vendor"
	CodeUnknownOperation = "unknown_operation"
	CodeNotFound         = "not_found"
	CodeInternalError    = "internal_error"
)

// APIError is the body of every transport-level failure.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// Write sets status and writes {"error": {...}}.
func Write(ctx *fasthttp.RequestCtx, status int, message, errType, code string) {
	e := APIError{Message: message, Type: errType, Code: code}
	if id, ok := ctx.UserValue(RequestIDKey).(string); ok {
		e.RequestID = id
	}

	body, err := json.Marshal(map[string]APIError{"error": e})
	if err != nil {
		// APIError holds only strings; Marshal cannot fail in practice.
		body = []byte(`{"error":{"message":"internal error","type":"server_error","code":"internal_error"}}`)
	}

	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func BadRequest(ctx *fasthttp.RequestCtx, message, code string) {
	Write(ctx, fasthttp.StatusBadRequest, message, TypeInvalidRequest, code)
}

func NotFound(ctx *fasthttp.RequestCtx, message, code string) {
	Write(ctx, fasthttp.StatusNotFound, message, TypeNotFound, code)
}

// Internal writes a 500. message is shown to the client verbatim, so it must
// not carry upstream error text.
func Internal(ctx *fasthttp.RequestCtx, message string) {
	Write(ctx, fasthttp.StatusInternalServerError, message, TypeServerError, CodeInternalError)
}
