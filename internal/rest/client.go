package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/evanofslack/zone-update/provider"
)

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

// Authenticator decorates outgoing requests with credentials.
type Authenticator interface {
	Authenticate(req *http.Request) error
}

// Client is the blocking JSON transport shared by the REST adapters.
type Client struct {
	base string
	auth Authenticator
	http Httper
}

// New returns a client rooted at base. auth may be nil for APIs that take
// credentials in the request body.
func New(base string, auth Authenticator, h Httper) *Client {
	if h == nil {
		h = http.DefaultClient
	}
	return &Client{
		base: strings.TrimSuffix(base, "/"),
		auth: auth,
		http: h,
	}
}

// URL joins path and query onto the client base.
func (c *Client) URL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.base + path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", provider.ErrURL, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// Get is Fetch for GET requests without a body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (bool, error) {
	return c.Fetch(ctx, http.MethodGet, path, query, nil, out)
}

// Fetch performs a lookup. A 2xx body is decoded into out, a 404 reports
// found=false with no error and any other status is an *provider.APIError.
func (c *Client) Fetch(ctx context.Context, method, path string, query url.Values, body, out any) (bool, error) {
	status, data, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		slog.Default().Warn("lookup returned not found", "method", method, "path", path)
		return false, nil
	}
	if status < 200 || status > 299 {
		return false, &provider.APIError{Status: status, Body: string(data)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return false, fmt.Errorf("%w: decode %s %s: %w", provider.ErrCodec, method, path, err)
		}
	}
	return true, nil
}

// Send performs a mutating call. Every non-2xx status, 404 included, is
// an *provider.APIError. out may be nil.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	status, data, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &provider.APIError{Status: status, Body: string(data)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode %s %s: %w", provider.ErrCodec, method, path, err)
		}
	}
	return nil
}

// DryRun logs the mutating call that would have been sent.
func (c *Client) DryRun(method, path string, body any) {
	u, _ := c.URL(path, nil)
	var rendered string
	if body != nil {
		b, err := json.Marshal(body)
		if err == nil {
			rendered = string(b)
		}
	}
	slog.Default().Info("DRY-RUN: skipping request", "method", method, "url", u, "body", rendered)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	u, err := c.URL(path, query)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: encode %s %s: %w", provider.ErrCodec, method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", provider.ErrURL, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		if err := c.auth.Authenticate(req); err != nil {
			return 0, nil, fmt.Errorf("%w: %w", provider.ErrAuth, err)
		}
	}

	slog.Default().Debug("provider request", "method", method, "url", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", provider.ErrHTTP, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %w", provider.ErrIO, err)
	}
	return resp.StatusCode, data, nil
}
