package providertest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/evanofslack/zone-update/provider"
)

// MissingUpdate is what an adapter does when asked to update a record
// that doesn't exist upstream.
type MissingUpdate int

const (
	UpdateIgnored MissingUpdate = iota
	UpdateCreates
	UpdateFails
)

// Suite describes one adapter under test.
type Suite struct {
	// Store backs Handler.
	Store   *Store
	Handler http.Handler
	// New builds the adapter against the fake server.
	New func(endpoint string, dryRun bool) (provider.Provider, error)
	// Stored is the upstream text for a TXT value written by the helpers.
	// Defaults to the quoted form.
	Stored func(text string) string
	// Host is how the fake server names a host label in its store.
	// Defaults to the label itself, with the apex "@" stored as "".
	Host          func(host string) string
	MissingUpdate MissingUpdate
	// CachesID is set for adapters that resolve a zone or account id.
	CachesID bool
}

func (s Suite) host(h string) string {
	if s.Host != nil {
		return s.Host(h)
	}
	if h == "@" {
		return ""
	}
	return h
}

func (s Suite) build(t *testing.T, dryRun bool) provider.Provider {
	t.Helper()
	srv := httptest.NewServer(s.Handler)
	t.Cleanup(srv.Close)
	p, err := s.New(srv.URL, dryRun)
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}
	return p
}

// Run exercises the behaviour every adapter shares.
func Run(t *testing.T, s Suite) {
	t.Run("round trip", func(t *testing.T) { roundTrip(t, s) })
	t.Run("txt helpers", func(t *testing.T) { txtHelpers(t, s) })
	t.Run("not found", func(t *testing.T) { notFound(t, s) })
	t.Run("cardinality", func(t *testing.T) { cardinality(t, s) })
	t.Run("dry run", func(t *testing.T) { dryRun(t, s) })
	t.Run("delete missing", func(t *testing.T) { deleteMissing(t, s) })
	t.Run("update missing", func(t *testing.T) { updateMissing(t, s) })
	t.Run("apex", func(t *testing.T) { apex(t, s) })
	if s.CachesID {
		t.Run("identifier cached", func(t *testing.T) { identifierCached(t, s) })
	}
}

func roundTrip(t *testing.T, s Suite) {
	ctx := context.Background()
	c := provider.NewClient(s.build(t, false))
	first := netip.MustParseAddr("10.9.8.7")
	second := netip.MustParseAddr("10.1.2.3")

	if err := c.CreateARecord(ctx, "abcxyz", first); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := c.GetARecord(ctx, "abcxyz")
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if got == nil || *got != first {
		t.Fatalf("expected %s after create, got %v", first, got)
	}
	entries := s.Store.Find(s.host("abcxyz"), "A")
	if len(entries) != 1 || entries[0].TTL < provider.DefaultTTL {
		t.Fatalf("unexpected upstream state %+v", entries)
	}

	if err := c.UpdateARecord(ctx, "abcxyz", second); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = c.GetARecord(ctx, "abcxyz")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got == nil || *got != second {
		t.Fatalf("expected %s after update, got %v", second, got)
	}

	if err := c.DeleteARecord(ctx, "abcxyz"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = c.GetARecord(ctx, "abcxyz")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no record after delete, got %s", got)
	}
}

func txtHelpers(t *testing.T, s Suite) {
	ctx := context.Background()
	c := provider.NewClient(s.build(t, false))
	text := "a text reference"

	if err := c.CreateTXTRecord(ctx, "txthost", text); err != nil {
		t.Fatalf("create txt: %v", err)
	}
	want := provider.EnsureQuotes(text)
	if s.Stored != nil {
		want = s.Stored(text)
	}
	entries := s.Store.Find(s.host("txthost"), "TXT")
	if len(entries) != 1 || entries[0].Value != want {
		t.Fatalf("expected upstream value %q, got %+v", want, entries)
	}

	got, err := c.GetTXTRecord(ctx, "txthost")
	if err != nil {
		t.Fatalf("get txt: %v", err)
	}
	if got == nil || *got != text {
		t.Fatalf("expected %q, got %v", text, got)
	}

	if err := c.UpdateTXTRecord(ctx, "txthost", "another reference"); err != nil {
		t.Fatalf("update txt: %v", err)
	}
	got, err = c.GetTXTRecord(ctx, "txthost")
	if err != nil || got == nil || *got != "another reference" {
		t.Fatalf("unexpected txt after update: %v %v", got, err)
	}

	if err := c.DeleteTXTRecord(ctx, "txthost"); err != nil {
		t.Fatalf("delete txt: %v", err)
	}
	if got, err := c.GetTXTRecord(ctx, "txthost"); err != nil || got != nil {
		t.Fatalf("expected txt gone, got %v %v", got, err)
	}
}

func notFound(t *testing.T, s Suite) {
	p := s.build(t, false)
	rec, err := p.GetRecord(context.Background(), provider.A, "missing")
	if err != nil {
		t.Fatalf("not found should not be an error, got %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func cardinality(t *testing.T, s Suite) {
	p := s.build(t, false)
	s.Store.Seed(s.host("twice"), "A", "10.0.0.1")
	s.Store.Seed(s.host("twice"), "A", "10.0.0.2")

	_, err := p.GetRecord(context.Background(), provider.A, "twice")
	if !errors.Is(err, provider.ErrUnexpectedRecord) {
		t.Fatalf("expected ErrUnexpectedRecord, got %v", err)
	}
}

func dryRun(t *testing.T, s Suite) {
	ctx := context.Background()
	p := s.build(t, true)
	seeded := s.Store.Seed(s.host("dry"), "A", "10.0.0.1")
	before := s.Store.Mutations()

	if err := p.CreateRecord(ctx, provider.A, "drynew", "10.0.0.9"); err != nil {
		t.Fatalf("dry-run create: %v", err)
	}
	if err := p.UpdateRecord(ctx, provider.A, "dry", "10.0.0.2"); err != nil {
		t.Fatalf("dry-run update: %v", err)
	}
	if err := p.DeleteRecord(ctx, provider.A, "dry"); err != nil {
		t.Fatalf("dry-run delete: %v", err)
	}
	if got := s.Store.Mutations(); got != before {
		t.Fatalf("dry run sent %d mutating calls", got-before)
	}

	rec, err := p.GetRecord(ctx, provider.A, "dry")
	if err != nil || rec == nil || rec.Value != seeded.Value {
		t.Fatalf("expected seeded record unchanged, got %+v %v", rec, err)
	}
	if rec, _ := p.GetRecord(ctx, provider.A, "drynew"); rec != nil {
		t.Fatalf("dry-run create reached upstream: %+v", rec)
	}
}

func deleteMissing(t *testing.T, s Suite) {
	p := s.build(t, false)
	if err := p.DeleteRecord(context.Background(), provider.A, "ghost"); err != nil {
		t.Fatalf("deleting a missing record should succeed, got %v", err)
	}
}

func updateMissing(t *testing.T, s Suite) {
	p := s.build(t, false)
	err := p.UpdateRecord(context.Background(), provider.A, "phantom", "10.0.0.5")
	created := s.Store.Find(s.host("phantom"), "A")

	switch s.MissingUpdate {
	case UpdateIgnored:
		if err != nil || len(created) != 0 {
			t.Fatalf("expected ignored update, got err=%v records=%+v", err, created)
		}
	case UpdateCreates:
		if err != nil || len(created) != 1 || created[0].Value != "10.0.0.5" {
			t.Fatalf("expected update to create, got err=%v records=%+v", err, created)
		}
	case UpdateFails:
		if !errors.Is(err, provider.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	}
}

func identifierCached(t *testing.T, s Suite) {
	ctx := context.Background()
	p := s.build(t, false)
	before := s.Store.Lookups()
	for i := 0; i < 5; i++ {
		if _, err := p.GetRecord(ctx, provider.TXT, "cached"); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if err := p.CreateRecord(ctx, provider.TXT, "cached", `"v"`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := s.Store.Lookups() - before; got != 1 {
		t.Fatalf("expected exactly one identifier lookup, got %d", got)
	}
}

// apex checks that "@" and "" both address the zone apex.
func apex(t *testing.T, s Suite) {
	ctx := context.Background()
	p := s.build(t, false)
	at := s.host("@")
	s.Store.Seed(at, "A", "10.0.0.50")

	for _, host := range []string{"@", ""} {
		rec, err := p.GetRecord(ctx, provider.A, host)
		if err != nil || rec == nil || rec.Value != "10.0.0.50" {
			t.Fatalf("get apex as %q: expected seeded record, got %+v %v", host, rec, err)
		}
	}

	if err := p.DeleteRecord(ctx, provider.A, "@"); err != nil {
		t.Fatalf("delete apex: %v", err)
	}
	if left := s.Store.Find(at, "A"); len(left) != 0 {
		t.Fatalf("expected apex deleted, got %+v", left)
	}

	if err := p.CreateRecord(ctx, provider.A, "@", "10.0.0.51"); err != nil {
		t.Fatalf("create apex: %v", err)
	}
	created := s.Store.Find(at, "A")
	if len(created) != 1 || created[0].Value != "10.0.0.51" {
		t.Fatalf("expected one apex record, got %+v", created)
	}

	if err := p.UpdateRecord(ctx, provider.A, "", "10.0.0.52"); err != nil {
		t.Fatalf("update apex: %v", err)
	}
	rec, err := p.GetRecord(ctx, provider.A, "@")
	if err != nil || rec == nil || rec.Value != "10.0.0.52" {
		t.Fatalf("expected updated apex record, got %+v %v", rec, err)
	}

	if err := p.DeleteRecord(ctx, provider.A, ""); err != nil {
		t.Fatalf("delete apex: %v", err)
	}
	if left := s.Store.Find(at, "A"); len(left) != 0 {
		t.Fatalf("expected apex deleted, got %+v", left)
	}
}
