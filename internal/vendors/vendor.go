// Package vendors routes vendor operations to either a live back-end or the
// mock generator and wraps every outcome in a common Result envelope.
//
// Each live back-end lives in its own sub-package and implements LiveVendor.
// The dispatcher holds no per-call state; every decision is a function of the
// current environment, the catalogue and the request.
package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nulpointcorp/hackstack/internal/credentials"
)

// DefaultTimeout bounds a single live call when none is configured.
const DefaultTimeout = 8 * time.Second

var (
	// ErrUnknownVendor is returned for vendors missing from the catalogue.
	ErrUnknownVendor = errors.New("unknown vendor")
	// ErrUnknownOperation is returned for operations a vendor does not declare.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Mode says how a single operation was served.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
)

// Global modes reported by Dispatcher.Mode.
const (
	GlobalMock   = "mock"
	GlobalHybrid = "hybrid"
	GlobalLive   = "live"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Reasons attached to mock results.
const (
	ReasonForceMock          = "force_mock"
	ReasonMissingCredentials = "missing_credentials"
	ReasonDisabled           = "disabled"
	ReasonNotLive            = "not_live"
)

type (
	// Result is the envelope returned for every vendor operation.
	Result struct {
		Vendor    string `json:"vendor"`
		Operation string `json:"operation"`
		Status    string `json:"status"`
		Mode      Mode   `json:"mode"`
		Result    any    `json:"result"`
		Error     string `json:"error,omitempty"`
		Meta      Meta   `json:"meta"`
	}

	// Meta carries routing details for a Result.
	Meta struct {
		Vendor    string    `json:"vendor"`
		Operation string    `json:"operation"`
		Mode      Mode      `json:"mode"`
		Timestamp time.Time `json:"timestamp"`
		LatencyMs int64     `json:"latency_ms"`
		// Reason explains a mock result; empty for live calls.
		Reason string `json:"reason,omitempty"`
	}

	// Call is one live operation handed to a LiveVendor.
	Call struct {
		Operation   string
		Data        map[string]any
		Credentials credentials.Credentials
	}
)

// LiveVendor is a real vendor back-end.
type LiveVendor interface {
	// Name is the catalogue key the back-end serves, e.g. "openai".
	Name() string
	// Supports reports whether operation has a live implementation.
	Supports(operation string) bool
	// Call performs exactly one attempt. ctx carries the call deadline.
	Call(ctx context.Context, call Call) (any, error)
}

// String returns the first non-empty string among keys in the call data.
func (c Call) String(keys ...string) string {
	for _, k := range keys {
		if s, ok := c.Data[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Int reads an integer field that JSON decoding may have turned into float64.
func (c Call) Int(key string, def int) int {
	switch v := c.Data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// VendorError is a non-2xx or malformed response from a live vendor.
type VendorError struct {
	Vendor     string
	StatusCode int
	Message    string
}

func (e *VendorError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Vendor, e.Message)
	}
	return fmt.Sprintf("%s: %s (status=%d)", e.Vendor, e.Message, e.StatusCode)
}

func (e *VendorError) HTTPStatus() int { return e.StatusCode }
