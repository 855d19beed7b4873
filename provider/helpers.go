package provider

import (
	"context"
	"fmt"
	"net/netip"
)

// Helpers are the TXT and A conveniences layered on the four primitives.
type Helpers interface {
	GetTXTRecord(ctx context.Context, host string) (*string, error)
	CreateTXTRecord(ctx context.Context, host, text string) error
	UpdateTXTRecord(ctx context.Context, host, text string) error
	DeleteTXTRecord(ctx context.Context, host string) error
	GetARecord(ctx context.Context, host string) (*netip.Addr, error)
	CreateARecord(ctx context.Context, host string, addr netip.Addr) error
	UpdateARecord(ctx context.Context, host string, addr netip.Addr) error
	DeleteARecord(ctx context.Context, host string) error
}

// Client adds Helpers to any Provider.
type Client struct {
	Provider
}

var _ Helpers = Client{}

func NewClient(p Provider) Client {
	return Client{Provider: p}
}

func (c Client) GetTXTRecord(ctx context.Context, host string) (*string, error) {
	v, err := Get[string](ctx, c.Provider, TXT, host)
	if err != nil || v == nil {
		return nil, err
	}
	s := StripQuotes(*v)
	return &s, nil
}

func (c Client) CreateTXTRecord(ctx context.Context, host, text string) error {
	return c.CreateRecord(ctx, TXT, host, EnsureQuotes(text))
}

func (c Client) UpdateTXTRecord(ctx context.Context, host, text string) error {
	return c.UpdateRecord(ctx, TXT, host, EnsureQuotes(text))
}

func (c Client) DeleteTXTRecord(ctx context.Context, host string) error {
	return c.DeleteRecord(ctx, TXT, host)
}

func (c Client) GetARecord(ctx context.Context, host string) (*netip.Addr, error) {
	return Get[netip.Addr](ctx, c.Provider, A, host)
}

func (c Client) CreateARecord(ctx context.Context, host string, addr netip.Addr) error {
	if !addr.Is4() {
		return fmt.Errorf("%w: %s is not an ipv4 address", ErrAddrParse, addr)
	}
	return Create(ctx, c.Provider, A, host, addr)
}

func (c Client) UpdateARecord(ctx context.Context, host string, addr netip.Addr) error {
	if !addr.Is4() {
		return fmt.Errorf("%w: %s is not an ipv4 address", ErrAddrParse, addr)
	}
	return Update(ctx, c.Provider, A, host, addr)
}

func (c Client) DeleteARecord(ctx context.Context, host string) error {
	return c.DeleteRecord(ctx, A, host)
}
