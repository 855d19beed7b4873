package all

import (
	"errors"
	"reflect"
	"testing"

	"github.com/evanofslack/zone-update/provider"
)

func TestRegistered(t *testing.T) {
	want := []string{"bunny", "cloudflare", "desec", "digitalocean", "dnsimple", "dnsmadeeasy", "gandi", "linode", "porkbun"}
	if got := provider.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("registered providers = %v, want %v", got, want)
	}
}

func TestNewFromSettings(t *testing.T) {
	cfg := provider.Config{Domain: "example.com"}
	tests := []struct {
		name     string
		provider string
		settings map[string]any
		wantErr  error
	}{
		{name: "bunny", provider: "bunny", settings: map[string]any{"key": "k"}},
		{name: "cloudflare", provider: "cloudflare", settings: map[string]any{"token": "t", "rateLimit": "10"}},
		{name: "dnsimple with account", provider: "dnsimple", settings: map[string]any{"key": "k", "accountId": 42}},
		{name: "dnsimple weak account", provider: "dnsimple", settings: map[string]any{"key": "k", "accountId": "42"}},
		{name: "porkbun", provider: "porkbun", settings: map[string]any{"key": "k", "secret": "s"}},
		{name: "porkbun missing secret", provider: "porkbun", settings: map[string]any{"key": "k"}, wantErr: provider.ErrAuth},
		{name: "linode missing token", provider: "linode", settings: nil, wantErr: provider.ErrAuth},
		{name: "bad settings type", provider: "desec", settings: map[string]any{"key": map[string]any{"nested": 1}}, wantErr: provider.ErrCodec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := provider.New(tt.provider, cfg, tt.settings)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatalf("nil provider")
			}
		})
	}
}

func TestUnknownProvider(t *testing.T) {
	if _, err := provider.New("route53", provider.Config{}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
