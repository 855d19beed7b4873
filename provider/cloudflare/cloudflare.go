// Package cloudflare manages records through the Cloudflare API client.
package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/evanofslack/zone-update/provider"
)

var codes = provider.StringCodes("cloudflare",
	provider.A, provider.AAAA, provider.CAA, provider.CNAME, provider.HTTPS, provider.MX,
	provider.NAPTR, provider.NS, provider.PTR, provider.SRV, provider.SSHFP, provider.SVCB,
	provider.TXT,
)

type Settings struct {
	Token string `mapstructure:"token"`
	// RateLimit caps requests per second. Zero keeps the client default.
	RateLimit float64 `mapstructure:"rateLimit"`
}

type CloudflareProvider struct {
	cfg    provider.Config
	client *cloudflare.API
	zoneID provider.IDCache[string]
}

var _ provider.Provider = (*CloudflareProvider)(nil)

func init() {
	provider.Register("cloudflare", func(cfg provider.Config, raw map[string]any, opts ...provider.Option) (provider.Provider, error) {
		var s Settings
		if err := provider.DecodeSettings(raw, &s); err != nil {
			return nil, err
		}
		return New(cfg, s, opts...)
	})
}

func New(cfg provider.Config, s Settings, opts ...provider.Option) (*CloudflareProvider, error) {
	if s.Token == "" {
		return nil, fmt.Errorf("%w: cloudflare api token required", provider.ErrAuth)
	}
	o := provider.ApplyOptions("", opts...)

	cfOpts := []cloudflare.Option{cloudflare.HTTPClient(o.HTTPClient)}
	if o.Endpoint != "" {
		cfOpts = append(cfOpts, cloudflare.BaseURL(o.Endpoint))
	}
	if s.RateLimit > 0 {
		cfOpts = append(cfOpts, cloudflare.UsingRateLimit(s.RateLimit))
	}
	client, err := cloudflare.NewWithAPIToken(s.Token, cfOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create cloudflare client: %w", provider.ErrAuth, err)
	}
	return &CloudflareProvider{cfg: cfg, client: client}, nil
}

func apiError(op string, err error) error {
	return fmt.Errorf("%w: cloudflare %s: %w", provider.ErrAPI, op, err)
}

func (p *CloudflareProvider) zone(ctx context.Context) (*cloudflare.ResourceContainer, error) {
	id, err := p.zoneID.Get(ctx, func(ctx context.Context) (string, error) {
		slog.Default().Info("resolving cloudflare zone id", "zone", p.cfg.Domain)
		zones, err := p.client.ListZonesContext(ctx, cloudflare.WithZoneFilters(p.cfg.Domain, "", ""))
		if err != nil {
			return "", apiError("list zones", err)
		}
		for _, z := range zones.Result {
			if z.Name == p.cfg.Domain {
				return z.ID, nil
			}
		}
		return "", fmt.Errorf("%w: no cloudflare zone %s", provider.ErrRecordNotFound, p.cfg.Domain)
	})
	if err != nil {
		return nil, err
	}
	return cloudflare.ZoneIdentifier(id), nil
}

func (p *CloudflareProvider) lookup(ctx context.Context, rtype provider.RecordType, host string) (*cloudflare.DNSRecord, *cloudflare.ResourceContainer, error) {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return nil, nil, err
	}
	rc, err := p.zone(ctx)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	// An explicit page size turns off the client's auto pagination; a
	// single host and type never spans pages.
	records, _, err := p.client.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{
		Type:       tag,
		Name:       provider.FQDN(host, p.cfg.Domain),
		ResultInfo: cloudflare.ResultInfo{PerPage: 100},
	})
	if err != nil {
		return nil, rc, apiError("list dns records", err)
	}
	slog.Default().Debug("retrieved dns records", "zone", p.cfg.Domain, "host", host, "count", len(records), "duration", time.Since(start))

	r, err := provider.Single(records)
	return r, rc, err
}

func (p *CloudflareProvider) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	r, _, err := p.lookup(ctx, rtype, host)
	if err != nil || r == nil {
		return nil, err
	}
	rt, err := codes.Decode(r.Type)
	if err != nil {
		return nil, err
	}
	return &provider.Record{
		ID:    r.ID,
		Host:  host,
		Type:  rt,
		Value: r.Content,
		TTL:   uint32(r.TTL),
	}, nil
}

func (p *CloudflareProvider) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	tag, err := codes.Encode(rtype)
	if err != nil {
		return err
	}
	rc, err := p.zone(ctx)
	if err != nil {
		return err
	}
	params := cloudflare.CreateDNSRecordParams{
		Type:    tag,
		Name:    provider.FQDN(host, p.cfg.Domain),
		Content: value,
		TTL:     provider.DefaultTTL,
	}

	if p.cfg.DryRun {
		slog.Default().Info("DRY-RUN: skipping create", "provider", "cloudflare", "zone", rc.Identifier, "name", params.Name, "type", params.Type, "content", params.Content)
		return nil
	}
	if _, err := p.client.CreateDNSRecord(ctx, rc, params); err != nil {
		return apiError("create dns record", err)
	}
	return nil
}

func (p *CloudflareProvider) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	r, rc, err := p.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("update skipped, record does not exist", "provider", "cloudflare", "host", host, "type", rtype)
		return nil
	}
	params := cloudflare.UpdateDNSRecordParams{
		ID:      r.ID,
		Type:    r.Type,
		Name:    r.Name,
		Content: value,
		TTL:     provider.DefaultTTL,
	}

	if p.cfg.DryRun {
		slog.Default().Info("DRY-RUN: skipping update", "provider", "cloudflare", "zone", rc.Identifier, "id", r.ID, "name", r.Name, "content", value)
		return nil
	}
	if _, err := p.client.UpdateDNSRecord(ctx, rc, params); err != nil {
		return apiError("update dns record", err)
	}
	return nil
}

func (p *CloudflareProvider) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	r, rc, err := p.lookup(ctx, rtype, host)
	if err != nil {
		return err
	}
	if r == nil {
		slog.Default().Warn("delete skipped, record does not exist", "provider", "cloudflare", "host", host, "type", rtype)
		return nil
	}

	if p.cfg.DryRun {
		slog.Default().Info("DRY-RUN: skipping delete", "provider", "cloudflare", "zone", rc.Identifier, "id", r.ID, "name", r.Name)
		return nil
	}
	if err := p.client.DeleteDNSRecord(ctx, rc, r.ID); err != nil {
		return apiError("delete dns record", err)
	}
	return nil
}
