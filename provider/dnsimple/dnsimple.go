// Package dnsimple talks to the DNSimple v2 API.
package dnsimple

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
	Endpoint        = "https://api.dnsimple.com/v2"
	SandboxEndpoint = "https://api.sandbox.dnsimple.com/v2"
)

var codes = provider.StringCodes("dnsimple",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.HINFO, provider.HTTPS,
	provider.MX, provider.NAPTR, provider.NS, provider.PTR, provider.SRV, provider.SPF,
	provider.SSHFP, provider.SVCB, provider.TXT,
)

type Auth struct {
	Key string `mapstructure:"key"`
	// AccountID skips the account lookup. Required when the token can see
	// more than one account.
	AccountID uint64 `mapstructure:"accountId"`
}

type DNSimple struct {
	cfg       provider.Config
	client    *rest.Client
	accountID provider.IDCache[uint64]
}

var _ provider.Provider = (*DNSimple)(nil)

func init() {
	provider.Register("dnsimple", func(cfg provider.Config, settings map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var auth Auth
		if err := provider.DecodeSettings(settings, &auth); err != nil {
			return nil, err
		}
		return New(cfg, auth, opts...)
	})
}

func New(cfg provider.Config, auth Auth, opts ...provider.Option) (*DNSimple, error) {
	if auth.Key == "" {
		return nil, fmt.Errorf("%w: dnsimple token required", provider.ErrAuth)
	}
	o := provider.ApplyOptions(Endpoint, opts...)
	d := &DNSimple{
		cfg:    cfg,
		client: rest.New(o.Endpoint, rest.Bearer{Token: auth.Key}, o.HTTPClient),
	}
	if auth.AccountID != 0 {
		d.accountID.Seed(auth.AccountID)
	}
	return d, nil
}

type account struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

type list[T any] struct {
	Data []T `json:"data"`
}

type record struct {
	ID      uint64 `json:"id"`
	ZoneID  string `json:"zone_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     uint32 `json:"ttl"`
	Type    string `json:"type"`
}

type create struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     uint32 `json:"ttl"`
}

type update struct {
	Content string `json:"content"`
}

func (d *DNSimple) account(ctx context.Context) (uint64, error) {
	return d.accountID.Get(ctx, func(ctx context.Context) (uint64, error) {
		slog.Default().Info("fetching dnsimple account id")
		var accounts list[account]
		found, err := d.client.Get(ctx, "/accounts", nil, &accounts)
		if err != nil {
			return 0, err
		}
		switch {
		case !found || len(accounts.Data) == 0:
			return 0, fmt.Errorf("%w: no accounts returned", provider.ErrAPI)
		case len(accounts.Data) > 1:
			return 0, fmt.Errorf("%w: %d accounts returned, an account id must be configured", provider.ErrAPI, len(accounts.Data))
		}
		return accounts.Data[0].ID, nil
	})
}

func name(host string) string {
	if host == "@" {
		return ""
	}
	return host
}

func (d *DNSimple) recordsPath(acc uint64) string {
	return fmt.Sprintf("/%d/zones/%s/records", acc, d.cfg.Domain)
}

func (d *DNSimple) lookup(ctx context.Context, rtype provider.RecordType, host string) (*record, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, err
	}
	acc, err := d.account(ctx)
	if err != nil {
		return nil, err
	}
	var recs list[record]
	q := url.Values{"name": {name(host)}, "type": {tag}}
	found, err := d.client.Get(ctx, d.recordsPath(acc), q, &recs)
	if err != nil || !found {
		return nil, err
	}
	return provider.Single(recs.Data)
}

func (d *DNSimple) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
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
		Value: r.Content,
		TTL:   r.TTL,
	}, nil
}

func (d *DNSimple) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	acc, err := d.account(ctx)
	if err != nil {
		return err
	}
	path := d.recordsPath(acc)
	body := create{Name: name(host), Type: tag, Content: value, TTL: provider.DefaultTTL}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPost, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPost, path, nil, body, nil)
}

func (d *DNSimple) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, err := d.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("update skipped, record does not exist", "provider", "dnsimple", "host", host, "type", rtype)
		return nil
	}
	acc, err := d.account(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("%s/%d", d.recordsPath(acc), r.ID)
	body := update{Content: value}

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodPatch, path, body)
		return nil
	}
	return d.client.Send(ctx, http.MethodPatch, path, nil, body, nil)
}

func (d *DNSimple) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, err := d.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "dnsimple", "host", host, "type", rtype)
		return nil
	}
	acc, err := d.account(ctx)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("%s/%d", d.recordsPath(acc), r.ID)

	if d.cfg.DryRun {
		d.client.DryRun(http.MethodDelete, path, nil)
		return nil
	}
	return d.client.Send(ctx, http.MethodDelete, path, nil, nil, nil)
}
