// Package digitalocean talks to the DigitalOcean domains API.
package digitalocean

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/evanofslack/zone-update/internal/rest"
	"github.com/evanofslack/zone-update/provider"
)

const Endpoint = "https://api.digitalocean.com/v2/domains"

var codes = provider.StringCodes("digitalocean",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.MX,
	provider.NS, provider.SRV, provider.TXT,
)

type Auth struct {
	Key string `mapstructure:"key"`
}

type DigitalOcean struct {
	cfg    provider.Config
	client *rest.Client
}

var _ provider.Provider = (*DigitalOcean)(nil)

func init() {
	provider.Register("digitalocean", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*DigitalOcean, error) {
	if auth.Key == "" {
		return nil, fmt.Errorf("%w: digitalocean token required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &DigitalOcean{
		cfg:    cfg,
		client: rest.New(o.Endpoint, rest.Bearer{Token: auth.Key}, o.HTTPClient),
	}, nil
}

type record struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	TTL  uint32 `json:"ttl"`
	Data string `json:"data"`
}

type records struct {
	DomainRecords []record `json:"domain_records"`
}

type createUpdate struct {
	Type string `json:"type"`
	Name string `json:"name"`
	TTL  uint32 `json:"ttl"`
	Data string `json:"data"`
}

// name is the record name the API expects; the apex is "@".
func name(host string) string {
	if host == "" {
		return "@"
	}
	return host
}

func (d *DigitalOcean) lookup(ctx context.Context, rtype provider.RecordType, host string) (*record, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"type": {tag},
		"name": {provider.FQDN(host, d.cfg.Domain)},
	}
	var resp records
	found, err := d.client.Get(ctx, "/"+d.cfg.Domain+"/records", q, &resp)
	if err != nil || !found {
		return nil, err
	}
	return provider.Single(resp.DomainRecords)
}

func (d *DigitalOcean) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	r, err := d.lookup(ctx, rtype, host)
	if err != nil || r == nil {
		return nil, err
	}
	rt, err := codes.Decode(r.Type)
	if err != nil {
		return nil, err
	}
	return &provider.Record{
		ID:    strconv.FormatUint(r.ID, 10),
		Host:  host,
		Type:  rt,
		Value: r.Data,
		TTL:   r.TTL,
	}, nil
}

func (d *DigitalOcean) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	path := "/" + d.cfg.Domain + "/records"
	body := createUpdate{Type: tag, Name: name(host), TTL: provider.DefaultTTL, Data: value}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRecord reports ErrRecordNotFound when there is nothing to update.
func (d *DigitalOcean) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, err := d.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: %s %s", provider.ErrRecordNotFound, rtype, provider.FQDN(host, d.cfg.Domain))
	}
	path := fmt.Sprintf("/%s/records/%d", d.cfg.Domain, r.ID)
	body := createUpdate{Type: r.Type, Name: name(host), TTL: provider.DefaultTTL, Data: value}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPut, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPut, path, nil, body, nil)
}

func (d *DigitalOcean) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, err := d.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "digitalocean", "host", host, "type", rtype)
		return nil
	}
	path := fmt.Sprintf("/%s/records/%d", d.cfg.Domain, r.ID)

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return d.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
