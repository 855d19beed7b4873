package provider

import (
	"net/http"
	"strings"
)

// Options carries construction-time overrides common to all adapters.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
}

type Option func(*Options)

// WithEndpoint points an adapter at an alternate API base URL, such as a
// sandbox or a test server.
func WithEndpoint(url string) Option {
	return func(o *Options) {
		o.Endpoint = strings.TrimSuffix(url, "/")
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = c
	}
}

// ApplyOptions resolves opts over the adapter's default endpoint.
func ApplyOptions(defaultEndpoint string, opts ...Option) Options {
	o := Options{Endpoint: defaultEndpoint, HTTPClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
