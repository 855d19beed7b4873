// Package linode talks to the Linode v4 domains API.
package linode

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

const Endpoint = "https://api.linode.com/v4/domains"

// pageSize is the largest page the API hands out.
const pageSize = "500"

var codes = provider.StringCodes("linode",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.MX,
	provider.NS, provider.PTR, provider.SRV, provider.TXT,
)

type Auth struct {
	Key string `mapstructure:"key"`
}

type Linode struct {
	cfg      provider.Config
	client   *rest.Client
	domainID provider.IDCache[uint64]
}

var _ provider.Provider = (*Linode)(nil)

func init() {
	provider.Register("linode", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*Linode, error) {
	if auth.Key == "" {
		return nil, fmt.Errorf("%w: linode token required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &Linode{
		cfg:    cfg,
		client: rest.New(o.Endpoint, rest.Bearer{Token: auth.Key}, o.HTTPClient),
	}, nil
}

type list[T any] struct {
	Data  []T `json:"data"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type domain struct {
	ID     uint64 `json:"id"`
	Domain string `json:"domain"`
}

type record struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Target string `json:"target"`
	Type   string `json:"type"`
	TTL    uint32 `json:"ttl_sec"`
}

type createUpdate struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Type   string `json:"type"`
	TTL    uint32 `json:"ttl_sec"`
}

func (l *Linode) domain(ctx context.Context) (uint64, error) {
	return l.domainID.Get(ctx, func(ctx context.Context) (uint64, error) {
		slog.Default().Info("resolving linode domain id", "domain", l.cfg.Domain)
		var domains list[domain]
		found, err := l.client.Get(ctx, "", url.Values{"page_size": {pageSize}}, &domains)
		if err != nil {
			return 0, err
		}
		if found {
			for _, d := range domains.Data {
				if d.Domain == l.cfg.Domain {
					return d.ID, nil
				}
			}
		}
		return 0, fmt.Errorf("%w: no linode domain %s", provider.ErrRecordNotFound, l.cfg.Domain)
	})
}

func name(host string) string {
	if host == "@" {
		return ""
	}
	return host
}

// lookup lists the domain's records and filters client side.
func (l *Linode) lookup(ctx context.Context, rtype provider.RecordType, host string) (*record, uint64, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, 0, err
	}
	did, err := l.domain(ctx)
	if err != nil {
		return nil, 0, err
	}
	var recs list[record]
	found, err := l.client.Get(ctx, fmt.Sprintf("/%d/records", did), url.Values{"page_size": {pageSize}}, &recs)
	if err != nil || !found {
		return nil, did, err
	}
	var matches []record
	for _, r := range recs.Data {
		if r.Type == tag && r.Name == name(host) {
			matches = append(matches, r)
		}
	}
	r, err := provider.Single(matches)
	return r, did, err
}

func (l *Linode) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	r, _, err := l.lookup(ctx, rtype, host)
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
		Value: r.Target,
		TTL:   r.TTL,
	}, nil
}

func (l *Linode) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	did, err := l.domain(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/%d/records", did)
	body := createUpdate{Name: name(host), Target: value, Type: tag, TTL: provider.DefaultTTL}

	if l.cfg.DryRun {
		l.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return l.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRecord reports ErrRecordNotFound when there is nothing to update.
func (l *Linode) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, did, err := l.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: %s %s", provider.ErrRecordNotFound, rtype, provider.FQDN(host, l.cfg.Domain))
	}
	path := fmt.Sprintf("/%d/records/%d", did, r.ID)
	body := createUpdate{Name: r.Name, Target: value, Type: r.Type, TTL: provider.DefaultTTL}

	if l.cfg.DryRun {
		l.client.DryRun(http.MethodPut, path, body)
		return nil
	}
	return l.client.Send(ctx, http.MethodPut, path, nil, body, nil)
}

func (l *Linode) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, did, err := l.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "linode", "host", host, "type", rtype)
		return nil
	}
	path := fmt.Sprintf("/%d/records/%d", did, r.ID)

	if l.cfg.DryRun {
		l.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return l.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
