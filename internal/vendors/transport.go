package vendors

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
)

// NewHTTPClient returns the fasthttp client shared by REST-style live vendors.
func NewHTTPClient() *fasthttp.Client {
	return &fasthttp.Client{
		Name:                "hackstack",
		MaxConnsPerHost:     32,
		MaxIdleConnDuration: 30 * time.Second,
		ReadTimeout:         DefaultTimeout,
		WriteTimeout:        DefaultTimeout,
	}
}

// Do executes req on c, bounded by the deadline of ctx (DefaultTimeout when
// ctx has none). A fasthttp timeout is reported as context.DeadlineExceeded.
func Do(ctx context.Context, c *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}

	err := c.DoDeadline(req, resp, deadline)
	if errors.Is(err, fasthttp.ErrTimeout) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// maxErrorBody caps how much of an upstream error body is kept, in bytes.
const maxErrorBody = 256

// NewStatusError builds a VendorError from a non-2xx fasthttp response. The
// body is truncated to maxErrorBody on a rune boundary.
func NewStatusError(vendor string, resp *fasthttp.Response) *VendorError {
	msg := string(resp.Body())
	if len(msg) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	if msg == "" {
		msg = fasthttp.StatusMessage(resp.StatusCode())
	}
	return &VendorError{Vendor: vendor, StatusCode: resp.StatusCode(), Message: msg}
}
