package async

import (
	"context"
	"net/netip"

	"github.com/evanofslack/zone-update/provider"
)

// Provider is the non-blocking face of a provider.Provider. The wrapped
// provider is shared by every in-flight call and must be safe for
// concurrent use, which all bundled adapters are.
//
// Calls never wait on the network, but they do wait for admission: backed
// by a full Pool, a method blocks its caller until the job is accepted or
// ctx ends.
type Provider struct {
	inner   provider.Provider
	helpers provider.Client
	off     Offloader
}

func New(p provider.Provider, off Offloader) *Provider {
	if off == nil {
		off = Spawn{}
	}
	return &Provider{inner: p, helpers: provider.NewClient(p), off: off}
}

func (a *Provider) GetRecord(ctx context.Context, rtype provider.RecordType, host string) *Future[*provider.Record] {
	return Run(ctx, a.off, func(ctx context.Context) (*provider.Record, error) {
		return a.inner.GetRecord(ctx, rtype, host)
	})
}

func (a *Provider) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.inner.CreateRecord(ctx, rtype, host, value)
	})
}

func (a *Provider) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.inner.UpdateRecord(ctx, rtype, host, value)
	})
}

func (a *Provider) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.inner.DeleteRecord(ctx, rtype, host)
	})
}

func (a *Provider) GetTXTRecord(ctx context.Context, host string) *Future[*string] {
	return Run(ctx, a.off, func(ctx context.Context) (*string, error) {
		return a.helpers.GetTXTRecord(ctx, host)
	})
}

func (a *Provider) CreateTXTRecord(ctx context.Context, host, text string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.helpers.CreateTXTRecord(ctx, host, text)
	})
}

func (a *Provider) UpdateTXTRecord(ctx context.Context, host, text string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.helpers.UpdateTXTRecord(ctx, host, text)
	})
}

func (a *Provider) DeleteTXTRecord(ctx context.Context, host string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.helpers.DeleteTXTRecord(ctx, host)
	})
}

func (a *Provider) GetARecord(ctx context.Context, host string) *Future[*netip.Addr] {
	return Run(ctx, a.off, func(ctx context.Context) (*netip.Addr, error) {
		return a.helpers.GetARecord(ctx, host)
	})
}

func (a *Provider) CreateARecord(ctx context.Context, host string, addr netip.Addr) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.helpers.CreateARecord(ctx, host, addr)
	})
}

func (a *Provider) UpdateARecord(ctx context.Context, host string, addr netip.Addr) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.helpers.UpdateARecord(ctx, host, addr)
	})
}

func (a *Provider) DeleteARecord(ctx context.Context, host string) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return a.helpers.DeleteARecord(ctx, host)
	})
}

// Get is provider.Get offloaded.
func Get[T any](ctx context.Context, a *Provider, rtype provider.RecordType, host string) *Future[*T] {
	return Run(ctx, a.off, func(ctx context.Context) (*T, error) {
		return provider.Get[T](ctx, a.inner, rtype, host)
	})
}

func Create[T any](ctx context.Context, a *Provider, rtype provider.RecordType, host string, value T) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return provider.Create(ctx, a.inner, rtype, host, value)
	})
}

func Update[T any](ctx context.Context, a *Provider, rtype provider.RecordType, host string, value T) *Future[struct{}] {
	return run0(ctx, a.off, func(ctx context.Context) error {
		return provider.Update(ctx, a.inner, rtype, host, value)
	})
}
