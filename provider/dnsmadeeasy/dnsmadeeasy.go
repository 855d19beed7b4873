// Package dnsmadeeasy talks to the DNS Made Easy v2 API. Every request is
// signed with an HMAC of the request date.
package dnsmadeeasy

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

const (
	Endpoint        = "https://api.dnsmadeeasy.com/V2.0"
	SandboxEndpoint = "https://api.sandbox.dnsmadeeasy.com/V2.0"
)

var codes = provider.StringCodes("dnsmadeeasy",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.HINFO, provider.HTTPS,
	provider.MX, provider.NS, provider.PTR, provider.SPF, provider.SRV, provider.SVCB, provider.TXT,
)

type Auth struct {
	Key    string `mapstructure:"key"`
	Secret string `mapstructure:"secret"`
}

type DNSMadeEasy struct {
	cfg      provider.Config
	client   *rest.Client
	domainID provider.IDCache[uint64]
}

var _ provider.Provider = (*DNSMadeEasy)(nil)

func init() {
	provider.Register("dnsmadeeasy", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*DNSMadeEasy, error) {
	if auth.Key == "" || auth.Secret == "" {
		return nil, fmt.Errorf("%w: dnsmadeeasy key and secret required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &DNSMadeEasy{
		cfg:    cfg,
		client: rest.New(o.Endpoint, rest.HMACSigner{Key: auth.Key, Secret: auth.Secret}, o.HTTPClient),
	}, nil
}

type domain struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type record struct {
	ID          uint64 `json:"id,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	TTL         uint32 `json:"ttl"`
	GtdLocation string `json:"gtdLocation"`
}

type records struct {
	Data []record `json:"data"`
}

func (d *DNSMadeEasy) domain(ctx context.Context) (uint64, error) {
	return d.domainID.Get(ctx, func(ctx context.Context) (uint64, error) {
		slog.Default().Info("resolving dnsmadeeasy domain id", "domain", d.cfg.Domain)
		var dom domain
		found, err := d.client.Get(ctx, "/dns/managed/name", url.Values{"domainname": {d.cfg.Domain}}, &dom)
		if err != nil {
			return 0, err
		}
		if !found || dom.ID == 0 {
			return 0, fmt.Errorf("%w: no managed domain %s", provider.ErrRecordNotFound, d.cfg.Domain)
		}
		return dom.ID, nil
	})
}

func name(host string) string {
	if host == "@" {
		return ""
	}
	return host
}

func (d *DNSMadeEasy) lookup(ctx context.Context, rtype provider.RecordType, host string) (*record, uint64, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, 0, err
	}
	did, err := d.domain(ctx)
	if err != nil {
		return nil, 0, err
	}
	var recs records
	q := url.Values{"recordName": {name(host)}, "type": {tag}}
	found, err := d.client.Get(ctx, fmt.Sprintf("/dns/managed/%d/records", did), q, &recs)
	if err != nil || !found {
		return nil, did, err
	}
	r, err := provider.Single(recs.Data)
	return r, did, err
}

func (d *DNSMadeEasy) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	r, _, err := d.lookup(ctx, rtype, host)
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
		Value: r.Value,
		TTL:   r.TTL,
	}, nil
}

func (d *DNSMadeEasy) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	did, err := d.domain(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/dns/managed/%d/records", did)
	body := record{Name: name(host), Type: tag, Value: value, TTL: provider.DefaultTTL, GtdLocation: "DEFAULT"}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRecord creates the record when it doesn't exist yet.
func (d *DNSMadeEasy) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, did, err := d.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("update target missing, creating instead", "provider", "dnsmadeeasy", "host", host, "type", rtype)
		return d.CreateRecord(ctx, rtype, host, value)
	}
	path := fmt.Sprintf("/dns/managed/%d/records/%d", did, r.ID)
	body := record{ID: r.ID, Name: r.Name, Type: r.Type, Value: value, TTL: provider.DefaultTTL, GtdLocation: "DEFAULT"}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPut, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPut, path, nil, body, nil)
}

func (d *DNSMadeEasy) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, did, err := d.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "dnsmadeeasy", "host", host, "type", rtype)
		return nil
	}
	path := fmt.Sprintf("/dns/managed/%d/records/%d", did, r.ID)

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return d.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
