// Package bunny talks to the Bunny DNS API.
package bunny

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

const Endpoint = "https://api.bunny.net/dnszone"

// Bunny numbers record types itself.
var codes = provider.NewCodes("bunny", map[provider.RecordType]uint64{
	provider.A:     0,
	provider.AAAA:  1,
	provider.CNAME: 2,
	provider.TXT:   3,
	provider.MX:    4,
	provider.SRV:   8,
	provider.CAA:   9,
	provider.PTR:   10,
	provider.NS:    12,
	provider.SVCB:  13,
	provider.HTTPS: 14,
})

type Auth struct {
	Key string `mapstructure:"key"`
}

type Bunny struct {
	cfg    provider.Config
	client *rest.Client
	zoneID provider.IDCache[uint64]
}

var _ provider.Provider = (*Bunny)(nil)

func init() {
	provider.Register("bunny", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*Bunny, error) {
	if auth.Key == "" {
		return nil, fmt.Errorf("%w: bunny access key required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &Bunny{
		cfg:    cfg,
		client: rest.New(o.Endpoint, rest.HeaderKey{Header: "AccessKey", Key: auth.Key}, o.HTTPClient),
	}, nil
}

type zoneInfo struct {
	ID     uint64 `json:"Id"`
	Domain string `json:"Domain"`
}

type zoneList struct {
	Items []zoneInfo `json:"Items"`
}

type record struct {
	ID    uint64 `json:"Id"`
	Type  uint64 `json:"Type"`
	Value string `json:"Value"`
	Name  string `json:"Name"`
	TTL   uint32 `json:"Ttl"`
}

type zone struct {
	Records []record `json:"Records"`
}

type createUpdate struct {
	Type  uint64 `json:"Type"`
	Value string `json:"Value"`
	Name  string `json:"Name"`
	TTL   uint32 `json:"Ttl"`
}

func (b *Bunny) zone(ctx context.Context) (uint64, error) {
	return b.zoneID.Get(ctx, func(ctx context.Context) (uint64, error) {
		slog.Default().Info("resolving bunny zone id", "domain", b.cfg.Domain)
		var zones zoneList
		found, err := b.client.Get(ctx, "", url.Values{"search": {b.cfg.Domain}}, &zones)
		if err != nil {
			return 0, err
		}
		if found {
			for _, z := range zones.Items {
				if z.Domain == b.cfg.Domain {
					return z.ID, nil
				}
			}
		}
		return 0, fmt.Errorf("%w: no bunny zone for %s", provider.ErrRecordNotFound, b.cfg.Domain)
	})
}

// name is the record name bunny uses; the apex is the empty string.
func name(host string) string {
	if host == "@" {
		return ""
	}
	return host
}

// lookup lists the whole zone and filters client side since the API can't
// filter by type.
func (b *Bunny) lookup(ctx context.Context, rtype provider.RecordType, host string) (*record, error) {
	code, err := codes.Encode(rtype)
	if err != nil {
		return nil, err
	}
	zid, err := b.zone(ctx)
	if err != nil {
		return nil, err
	}

	var z zone
	found, err := b.client.Get(ctx, "/"+strconv.FormatUint(zid, 10), nil, &z)
	if err != nil || !found {
		return nil, err
	}

	var matches []record
	for _, r := range z.Records {
		if r.Type == code && r.Name == name(host) {
			matches = append(matches, r)
		}
	}
	return provider.Single(matches)
}

func (b *Bunny) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	r, err := b.lookup(ctx, rtype, host)
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

func (b *Bunny) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	code, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	zid, err := b.zone(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/%d/records", zid)
	body := createUpdate{Type: code, Value: value, Name: name(host), TTL: provider.DefaultTTL}

	if b.cfg.DryRun {
		b.client.DryRun(http.MethodPut, path, body)
		return nil
	}
	return b.client.Send(ctx, http.MethodPut, path, nil, body, nil)
}

func (b *Bunny) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, err := b.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("update skipped, record does not exist", "provider", "bunny", "host", host, "type", rtype)
		return nil
	}
	zid, err := b.zone(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/%d/records/%d", zid, r.ID)
	body := createUpdate{Type: r.Type, Value: value, Name: name(host), TTL: provider.DefaultTTL}

	if b.cfg.DryRun {
		b.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return b.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

func (b *Bunny) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, err := b.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "bunny", "host", host, "type", rtype)
		return nil
	}
	zid, err := b.zone(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/%d/records/%d", zid, r.ID)

	if b.cfg.DryRun {
		b.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return b.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
