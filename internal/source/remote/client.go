// Package remote reads desired records from an HTTP inventory endpoint
// serving {"records": [{"host": "www", "type": "A", "value": "10.0.0.1"}]}.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/evanofslack/zone-update/internal/metrics"
	"github.com/evanofslack/zone-update/internal/rest"
	"github.com/evanofslack/zone-update/internal/source"
)

type inventory struct {
	Records []source.Record `json:"records"`
}

type client struct {
	url     string
	auth    rest.Authenticator
	http    rest.Httper
	metrics *metrics.Metrics
}

// New returns a source reading url. auth may be nil.
func New(url string, auth rest.Authenticator, metrics *metrics.Metrics) source.Source {
	return &client{
		url:     url,
		auth:    auth,
		http:    &http.Client{},
		metrics: metrics,
	}
}

func (c *client) Records(ctx context.Context) ([]source.Record, error) {
	inv, err := c.getInventory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]source.Record, 0, len(inv.Records))
	for _, r := range inv.Records {
		if r.Host == "" || !r.Type.Known() {
			slog.Default().Warn("skipping incomplete inventory entry", "host", r.Host, "type", r.Type)
			continue
		}
		out = append(out, r)
	}
	c.metrics.SetSourceRecords(len(out))
	return out, nil
}

func (c *client) getInventory(ctx context.Context) (inventory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return inventory{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		if err := c.auth.Authenticate(req); err != nil {
			return inventory{}, err
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncSourceRequest(false, 0)
		return inventory{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.IncSourceRequest(false, resp.StatusCode)
		return inventory{}, fmt.Errorf("inventory request, status=%d", resp.StatusCode)
	}

	var inv inventory
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		c.metrics.IncSourceRequest(false, resp.StatusCode)
		return inventory{}, fmt.Errorf("parse inventory, err=%w", err)
	}
	c.metrics.IncSourceRequest(true, resp.StatusCode)
	return inv, nil
}
