// Package desec talks to the deSEC rrset API. Records are addressed by
// subname and type, so no identifier lookups are needed.
package desec

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/evanofslack/zone-update/internal/rest"
	"github.com/evanofslack/zone-update/provider"
)

const Endpoint = "https://desec.io/api/v1"

// MinTTL is the lowest TTL deSEC accepts.
const MinTTL = 3600

var codes = provider.StringCodes("desec",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.HINFO, provider.HTTPS,
	provider.MX, provider.NAPTR, provider.NS, provider.PTR, provider.SRV, provider.SSHFP,
	provider.SVCB, provider.TXT,
)

type Auth struct {
	Key string `mapstructure:"key"`
}

type DeSEC struct {
	cfg    provider.Config
	client *rest.Client
}

var _ provider.Provider = (*DeSEC)(nil)

func init() {
	provider.Register("desec", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*DeSEC, error) {
	if auth.Key == "" {
		return nil, fmt.Errorf("%w: desec token required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &DeSEC{
		cfg:    cfg,
		client: rest.New(o.Endpoint, rest.Bearer{Scheme: "Token", Token: auth.Key}, o.HTTPClient),
	}, nil
}

type rrset struct {
	Domain  string   `json:"domain,omitempty"`
	Name    string   `json:"name,omitempty"`
	Subname string   `json:"subname"`
	Type    string   `json:"type"`
	TTL     uint32   `json:"ttl"`
	Records []string `json:"records"`
}

func subname(host string) string {
	if host == "@" {
		return ""
	}
	return host
}

func (d *DeSEC) rrsetPath(tag, host string) string {
	label := host
	if label == "" {
		label = "@"
	}
	return fmt.Sprintf("/domains/%s/rrsets/%s/%s/", d.cfg.Domain, label, tag)
}

func (d *DeSEC) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, err
	}
	var set rrset
	found, err := d.client.Get(ctx, d.rrsetPath(tag, host), nil, &set)
	if err != nil || !found {
		return nil, err
	}
	value, err := provider.Single(set.Records)
	if err != nil || value == nil {
		return nil, err
	}
	rt, err := codes.Decode(set.Type)
	if err != nil {
		return nil, err
	}
	return &provider.Record{
		ID:    set.Name,
		Host:  host,
		Type:  rt,
		Value: *value,
		TTL:   set.TTL,
	}, nil
}

func (d *DeSEC) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/domains/%s/rrsets/", d.cfg.Domain)
	body := rrset{Subname: subname(host), Type: tag, TTL: MinTTL, Records: []string{value}}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRecord replaces the rrset, creating it when it doesn't exist yet.
func (d *DeSEC) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	existing, err := d.GetRecord(ctx, rtype, host)
	if err != nil {
		return err
	}
	if existing == nil {
		slog.Default().Warn("update target missing, creating instead", "provider", "desec", "host", host, "type", rtype)
		return d.CreateRecord(ctx, rtype, host, value)
	}
	tag, _ := codes.Encode(rtype)
	path := d.rrsetPath(tag, host)
	body := rrset{Subname: subname(host), Type: tag, TTL: MinTTL, Records: []string{value}}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPut, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPut, path, nil, body, nil)
}

func (d *DeSEC) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	existing, err := d.GetRecord(ctx, rtype, host)
	if err != nil {
		return err
	}
	if existing == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "desec", "host", host, "type", rtype)
		return nil
	}
	tag, _ := codes.Encode(rtype)
	path := d.rrsetPath(tag, host)

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return d.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
