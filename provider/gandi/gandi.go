// Package gandi talks to the Gandi LiveDNS v5 API.
package gandi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/evanofslack/zone-update/internal/rest"
	"github.com/evanofslack/zone-update/provider"
)

const Endpoint = "https://api.gandi.net/v5/livedns"

var codes = provider.StringCodes("gandi",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.HINFO, provider.HTTPS,
	provider.MX, provider.NAPTR, provider.NS, provider.PTR, provider.SPF, provider.SRV,
	provider.SSHFP, provider.SVCB, provider.TXT,
)

// AuthKind selects between Gandi's two credential schemes.
type AuthKind int

const (
	// APIKey is the legacy per-user key, sent as "Apikey <key>".
	APIKey AuthKind = iota
	// PersonalAccessToken is sent as a bearer token.
	PersonalAccessToken
)

type Auth struct {
	Kind AuthKind
	Key  string
}

func (a Auth) authenticator() rest.Bearer {
	if a.Kind == PersonalAccessToken {
		return rest.Bearer{Scheme: "Bearer", Token: a.Key}
	}
	return rest.Bearer{Scheme: "Apikey", Token: a.Key}
}

type settings struct {
	APIKey string `mapstructure:"apiKey"`
	PAT    string `mapstructure:"pat"`
}

type Gandi struct {
	cfg    provider.Config
	client *rest.Client
}

var _ provider.Provider = (*Gandi)(nil)

func init() {
	provider.Register("gandi", func(cfg provider.Config, raw map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var s settings
		if err := provider.DecodeSettings(raw, &s); err != nil {
			return nil, err
		}
		switch {
		case s.APIKey != "" && s.PAT != "":
			return nil, fmt.Errorf("%w: gandi takes either apiKey or pat, not both", provider.ErrAuth)
		case s.PAT != "":
			return New(cfg, Auth{Kind: PersonalAccessToken, Key: s.PAT}, opts...)
		default:
			return New(cfg, Auth{Kind: APIKey, Key: s.APIKey}, opts...)
		}
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*Gandi, error) {
	if auth.Key == "" {
		return nil, fmt.Errorf("%w: gandi api key or personal access token required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &Gandi{
		cfg:    cfg,
		client: rest.New(o.Endpoint, auth.authenticator(), o.HTTPClient),
	}, nil
}

type rrset struct {
	Name   string   `json:"rrset_name"`
	Type   string   `json:"rrset_type"`
	Values []string `json:"rrset_values"`
	Href   string   `json:"rrset_href"`
	TTL    *uint32  `json:"rrset_ttl,omitempty"`
}

type rrsetUpdate struct {
	Values []string `json:"rrset_values"`
	TTL    uint32   `json:"rrset_ttl"`
}

func (g *Gandi) path(tag, host string) string {
	if host == "" {
		host = "@"
	}
	return fmt.Sprintf("/domains/%s/records/%s/%s", g.cfg.Domain, host, tag)
}

func (g *Gandi) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, err
	}
	var set rrset
	found, err := g.client.Get(ctx, g.path(tag, host), nil, &set)
	if err != nil || !found {
		return nil, err
	}
	value, err := provider.Single(set.Values)
	if err != nil || value == nil {
		return nil, err
	}
	rt, err := codes.Decode(set.Type)
	if err != nil {
		return nil, err
	}
	rec := &provider.Record{ID: set.Href, Host: host, Type: rt, Value: *value}
	if set.TTL != nil {
		rec.TTL = *set.TTL
	}
	return rec, nil
}

func (g *Gandi) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	path := g.path(tag, host)
	body := rrsetUpdate{Values: []string{value}, TTL: provider.DefaultTTL}

	if g.cfg.DryRun {
		g.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return g.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRecord replaces the rrset. A PUT on a missing rrset creates it, so
// updates of missing records behave like creates.
func (g *Gandi) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	path := g.path(tag, host)
	body := rrsetUpdate{Values: []string{value}, TTL: provider.DefaultTTL}

	if g.cfg.DryRun {
		g.client.DryRun(http.MethodPut, path, body)
		return nil
	}
	return g.client.Send(ctx, http.MethodPut, path, nil, body, nil)
}

func (g *Gandi) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	existing, err := g.GetRecord(ctx, rtype, host)
	if err != nil {
		return err
	}
	if existing == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "gandi", "host", host, "type", rtype)
		return nil
	}
	tag, _ := codes.Encode(rtype)
	path := g.path(tag, host)

	if g.cfg.DryRun {
		g.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return g.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
