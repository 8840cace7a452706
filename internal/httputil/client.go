// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// maxBodyBytes bounds how much of a provider response is read.
const maxBodyBytes = 8 << 20

// NewClient returns an http.Client with the configured timeout that sets
// the configured User-Agent on requests that lack one.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base:      http.DefaultTransport,
			userAgent: cfg.UserAgent,
		},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// NoRetry makes a single request. Callers that run their own retry loop
// pass it so a 429 is not retried at two layers.
const NoRetry = -1

// GetBody performs a GET and returns the response body when the status is
// 200. Any other status yields a *types.UpstreamError naming provider.
// A 429 is retried by DoWithRetry with its default budget.
func GetBody(ctx context.Context, client *http.Client, provider, url string, header http.Header) ([]byte, error) {
	return getBody(ctx, client, provider, url, header, 0)
}

// GetBodyOnce is GetBody without the 429 retry.
func GetBodyOnce(ctx context.Context, client *http.Client, provider, url string, header http.Header) ([]byte, error) {
	return getBody(ctx, client, provider, url, header, NoRetry)
}

func getBody(ctx context.Context, client *http.Client, provider, url string, header http.Header, maxRetries int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", provider, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := DoWithRetry(ctx, client, req, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &types.UpstreamError{Provider: provider, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", provider, err)
	}
	return body, nil
}

// GetJSON performs a GET via GetBody and decodes the body into out.
func GetJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, out any) error {
	body, err := GetBody(ctx, client, provider, url, header)
	if err != nil {
		return err
	}
	return decodeJSON(provider, body, out)
}

// GetJSONOnce is GetJSON without the 429 retry.
func GetJSONOnce(ctx context.Context, client *http.Client, provider, url string, header http.Header, out any) error {
	body, err := GetBodyOnce(ctx, client, provider, url, header)
	if err != nil {
		return err
	}
	return decodeJSON(provider, body, out)
}

func decodeJSON(provider string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", provider, err)
	}
	return nil
}
