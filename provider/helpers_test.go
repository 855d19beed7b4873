package provider_test

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/evanofslack/zone-update/provider"
	"github.com/evanofslack/zone-update/provider/providertest"
)

func TestTXTHelpersQuote(t *testing.T) {
	ctx := context.Background()
	mem := providertest.NewMemory()
	c := provider.NewClient(mem)

	if err := c.CreateTXTRecord(ctx, "h", "a text reference"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if raw, _ := mem.Value(provider.TXT, "h"); raw != `"a text reference"` {
		t.Fatalf("expected quoted upstream value, got %q", raw)
	}
	got, err := c.GetTXTRecord(ctx, "h")
	if err != nil || got == nil || *got != "a text reference" {
		t.Fatalf("get: %v, %v", got, err)
	}

	// Primitives pass values through untouched.
	if err := mem.CreateRecord(ctx, provider.TXT, "raw", "unquoted"); err != nil {
		t.Fatalf("create raw: %v", err)
	}
	v, err := provider.Get[string](ctx, mem, provider.TXT, "raw")
	if err != nil || *v != "unquoted" {
		t.Fatalf("generic get: %v, %v", v, err)
	}
	got, err = c.GetTXTRecord(ctx, "raw")
	if err != nil || *got != "unquoted" {
		t.Fatalf("helper get of unquoted value: %v, %v", got, err)
	}
}

func TestARecordHelpers(t *testing.T) {
	ctx := context.Background()
	c := provider.NewClient(providertest.NewMemory())
	addr := netip.MustParseAddr("10.9.8.7")

	if err := c.CreateARecord(ctx, "abcxyz", addr); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := c.GetARecord(ctx, "abcxyz")
	if err != nil || got == nil || *got != addr {
		t.Fatalf("get: %v, %v", got, err)
	}
	if err := c.UpdateARecord(ctx, "abcxyz", netip.MustParseAddr("10.1.2.3")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.DeleteARecord(ctx, "abcxyz"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := c.GetARecord(ctx, "abcxyz"); got != nil || err != nil {
		t.Fatalf("expected gone, got %v, %v", got, err)
	}

	if err := c.CreateARecord(ctx, "v6", netip.MustParseAddr("2001:db8::1")); !errors.Is(err, provider.ErrAddrParse) {
		t.Fatalf("expected ErrAddrParse for ipv6 A record, got %v", err)
	}
}

func TestGenericDecodeErrors(t *testing.T) {
	ctx := context.Background()
	mem := providertest.NewMemory()
	_ = mem.CreateRecord(ctx, provider.A, "bad", "not-an-ip")

	if _, err := provider.Get[netip.Addr](ctx, mem, provider.A, "bad"); !errors.Is(err, provider.ErrAddrParse) {
		t.Fatalf("expected ErrAddrParse, got %v", err)
	}
	if _, err := provider.Get[int](ctx, mem, provider.A, "bad"); !errors.Is(err, provider.ErrCodec) {
		t.Fatalf("expected ErrCodec for undecodable type, got %v", err)
	}
	if v, err := provider.Get[netip.Addr](ctx, mem, provider.A, "missing"); v != nil || err != nil {
		t.Fatalf("expected nil, nil for missing record, got %v, %v", v, err)
	}
}

func TestGenericValueTypes(t *testing.T) {
	ctx := context.Background()
	mem := providertest.NewMemory()

	if err := provider.Create(ctx, mem, provider.CNAME, "alias", "target.example.net."); err != nil {
		t.Fatalf("create string: %v", err)
	}
	if err := provider.Create(ctx, mem, provider.AAAA, "v6", netip.MustParseAddr("2001:db8::1")); err != nil {
		t.Fatalf("create addr: %v", err)
	}
	if raw, _ := mem.Value(provider.AAAA, "v6"); raw != "2001:db8::1" {
		t.Fatalf("unexpected rendered address %q", raw)
	}
	if err := provider.Update(ctx, mem, provider.AAAA, "v6", netip.MustParseAddr("2001:db8::2")); err != nil {
		t.Fatalf("update addr: %v", err)
	}
	v, err := provider.Get[netip.Addr](ctx, mem, provider.AAAA, "v6")
	if err != nil || v.String() != "2001:db8::2" {
		t.Fatalf("get addr: %v, %v", v, err)
	}
	if err := provider.Create(ctx, mem, provider.TXT, "n", 12); !errors.Is(err, provider.ErrCodec) {
		t.Fatalf("expected ErrCodec for unencodable value, got %v", err)
	}
}
