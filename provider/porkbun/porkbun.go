// Package porkbun talks to the Porkbun v3 JSON API. Credentials travel in
// every request body, so all calls are POSTs.
package porkbun

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evanofslack/zone-update/internal/rest"
	"github.com/evanofslack/zone-update/provider"
)

const Endpoint = "https://api.porkbun.com/api/json/v3/dns"

var codes = provider.StringCodes("porkbun",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.HTTPS, provider.MX,
	provider.NS, provider.SRV, provider.SSHFP, provider.SVCB, provider.TXT,
)

type Auth struct {
	Key    string `mapstructure:"key"`
	Secret string `mapstructure:"secret"`
}

type Porkbun struct {
	cfg    provider.Config
	auth   Auth
	client *rest.Client
}

var _ provider.Provider = (*Porkbun)(nil)

func init() {
	provider.Register("porkbun", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*Porkbun, error) {
	if auth.Key == "" || auth.Secret == "" {
		return nil, fmt.Errorf("%w: porkbun key and secret required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	return &Porkbun{
		cfg:    cfg,
		auth:   auth,
		client: rest.New(o.Endpoint, nil, o.HTTPClient),
	}, nil
}

type authOnly struct {
	SecretAPIKey string `json:"secretapikey"`
	APIKey       string `json:"apikey"`
}

type createUpdate struct {
	SecretAPIKey string `json:"secretapikey,omitempty"`
	APIKey       string `json:"apikey,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	TTL          string `json:"ttl"`
}

type record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     string `json:"ttl"`
}

type records struct {
	Status  string   `json:"status"`
	Records []record `json:"records"`
}

func (p *Porkbun) authOnly() authOnly {
	return authOnly{SecretAPIKey: p.auth.Secret, APIKey: p.auth.Key}
}

// subdomain maps the apex label to the empty name Porkbun expects.
func subdomain(host string) string {
	if host == "@" {
		return ""
	}
	return host
}

func (p *Porkbun) lookup(ctx context.Context, rtype provider.RecordType, host string) (*record, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/retrieveByNameType/%s/%s/%s", p.cfg.Domain, tag, subdomain(host))

	var resp records
	found, err := p.client.Fetch(ctx, http.MethodPost, strings.TrimSuffix(path, "/"), nil, p.authOnly(), &resp)
	if err != nil || !found {
		return nil, err
	}
	return provider.Single(resp.Records)
}

func (p *Porkbun) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	r, err := p.lookup(ctx, rtype, host)
	if err != nil || r == nil {
		return nil, err
	}
	rt, err := codes.Decode(r.Type)
	if err != nil {
		return nil, err
	}
	ttl, _ := strconv.ParseUint(r.TTL, 10, 32)
	return &provider.Record{
		ID:    r.ID,
		Host:  host,
		Type:  rt,
		Value: r.Content,
		TTL:   uint32(ttl),
	}, nil
}

func (p *Porkbun) body(tag, host, value string) createUpdate {
	return createUpdate{
		SecretAPIKey: p.auth.Secret,
		APIKey:       p.auth.Key,
		Name:         subdomain(host),
		Type:         tag,
		Content:      value,
		TTL:          strconv.Itoa(provider.DefaultTTL),
	}
}

// redacted drops the credentials so the body can be logged.
func (b createUpdate) redacted() createUpdate {
	b.SecretAPIKey, b.APIKey = "", ""
	return b
}

func (p *Porkbun) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	path := "/create/" + p.cfg.Domain
	body := p.body(tag, host, value)

	if p.cfg.DryRun {
		p.client.DryRun(http.MethodPost, path, body.redacted())
		return nil
	}
	return p.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

// UpdateRecord creates the record when it doesn't exist yet.
func (p *Porkbun) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, err := p.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("update target missing, creating instead", "provider", "porkbun", "host", host, "type", rtype)
		return p.CreateRecord(ctx, rtype, host, value)
	}
	path := fmt.Sprintf("/edit/%s/%s", p.cfg.Domain, r.ID)
	body := p.body(r.Type, host, value)

	if p.cfg.DryRun {
		p.client.DryRun(http.MethodPost, path, body.redacted())
		return nil
	}
	return p.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

func (p *Porkbun) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, err := p.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "porkbun", "host", host, "type", rtype)
		return nil
	}
	path := fmt.Sprintf("/delete/%s/%s", p.cfg.Domain, r.ID)

	if p.cfg.DryRun {
		p.client.DryRun(http.MethodPost, path, nil)
		return nil
	}
	return p.client.Send(ctx, http.MethodPost, path, nil, p.authOnly(), nil)
}
