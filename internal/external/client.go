// Package external provides the anti-corruption layer between the onboarding
// jobs and the Bot Framework connector. All outbound HTTP calls go through
// BaseClient, which makes exactly one attempt and maps failures to
// *types.DeliveryError. Retrying is the caller's decision.
package external

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"onboarding/internal/types"
)

// maxErrorBody caps how much of an error response is kept in DeliveryError.Message.
const maxErrorBody = 512

// BaseClient wraps an *http.Client with header injection and error mapping.
type BaseClient struct {
	client    *http.Client
	userAgent string
}

// NewBaseClient creates a BaseClient. The http client carries authentication
// and the per-call timeout.
func NewBaseClient(httpClient *http.Client, userAgent string) *BaseClient {
	return &BaseClient{client: httpClient, userAgent: userAgent}
}

// Do executes req once.
//
// A 2xx response is returned as-is; the caller closes the body. Any other
// status, and any transport-level failure, is returned as *types.DeliveryError
// with the response body already drained and closed. Network failures carry
// StatusCode 0.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &types.DeliveryError{
			Message: "connector request failed",
			Err:     unwrapTokenError(err),
		}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &types.DeliveryError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(fmt.Sprintf("connector returned %d: %s", resp.StatusCode, body)),
	}
}

// unwrapTokenError keeps the url.Error chain but surfaces token acquisition
// failures as an auth AppError so logs name the real cause.
func unwrapTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return types.NewAppError(types.ErrCodeUpstreamAuth, "failed to acquire bot token", err)
	}
	return err
}
