// Package acme answers ACME DNS-01 challenges through any provider.
package acme

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/challenge/dns01"

	"github.com/evanofslack/zone-update/provider"
)

const (
	DefaultTimeout  = 2 * time.Minute
	DefaultInterval = 5 * time.Second
)

// Provider implements lego's challenge.Provider by writing the challenge
// TXT record with the zone's TXT helpers.
type Provider struct {
	client   provider.Helpers
	domain   string
	timeout  time.Duration
	interval time.Duration
}

var (
	_ challenge.Provider        = (*Provider)(nil)
	_ challenge.ProviderTimeout = (*Provider)(nil)
)

func New(p provider.Provider, domain string) *Provider {
	return &Provider{
		client:   provider.NewClient(p),
		domain:   strings.TrimSuffix(domain, "."),
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
	}
}

// WithTimeout changes how long lego waits for propagation.
func (p *Provider) WithTimeout(timeout, interval time.Duration) *Provider {
	p.timeout, p.interval = timeout, interval
	return p
}

func (p *Provider) Present(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	host, err := p.host(info.EffectiveFQDN)
	if err != nil {
		return err
	}
	ctx := context.Background()

	existing, err := p.client.GetTXTRecord(ctx, host)
	if err != nil {
		return fmt.Errorf("acme: look up %s: %w", host, err)
	}
	if existing == nil {
		err = p.client.CreateTXTRecord(ctx, host, info.Value)
	} else {
		err = p.client.UpdateTXTRecord(ctx, host, info.Value)
	}
	if err != nil {
		return fmt.Errorf("acme: present %s: %w", host, err)
	}
	slog.Default().Info("presented dns-01 challenge", "domain", domain, "host", host)
	return nil
}

func (p *Provider) CleanUp(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	host, err := p.host(info.EffectiveFQDN)
	if err != nil {
		return err
	}
	if err := p.client.DeleteTXTRecord(context.Background(), host); err != nil {
		return fmt.Errorf("acme: clean up %s: %w", host, err)
	}
	return nil
}

func (p *Provider) Timeout() (timeout, interval time.Duration) {
	return p.timeout, p.interval
}

// host converts a challenge FQDN into a label relative to the zone.
func (p *Provider) host(fqdn string) (string, error) {
	name := strings.ToLower(strings.TrimSuffix(fqdn, "."))
	zone := strings.ToLower(p.domain)
	if name == zone {
		return "@", nil
	}
	if !strings.HasSuffix(name, "."+zone) {
		return "", fmt.Errorf("acme: %s is outside zone %s", fqdn, p.domain)
	}
	return strings.TrimSuffix(name, "."+zone), nil
}
