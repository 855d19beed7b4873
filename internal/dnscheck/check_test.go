package dnscheck

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/evanofslack/zone-update/provider"
)

type zone struct {
	mu      sync.Mutex
	answers map[string][]dns.RR
}

func (z *zone) set(rr string) {
	r, err := dns.NewRR(rr)
	if err != nil {
		panic(err)
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	k := r.Header().Name + dns.TypeToString[r.Header().Rrtype]
	z.answers[k] = append(z.answers[k], r)
}

func (z *zone) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	z.mu.Lock()
	defer z.mu.Unlock()
	m := new(dns.Msg)
	m.SetReply(req)
	q := req.Question[0]
	if q.Name == "servfail.example.com." {
		m.Rcode = dns.RcodeServerFailure
	} else if rrs, ok := z.answers[q.Name+dns.TypeToString[q.Qtype]]; ok {
		m.Answer = rrs
	} else {
		m.Rcode = dns.RcodeNameError
	}
	w.WriteMsg(m)
}

func startServer(t *testing.T, z *zone) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: z, NotifyStartedFunc: func() { close(started) }}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })
	return pc.LocalAddr().String()
}

func newZone() *zone {
	z := &zone{answers: map[string][]dns.RR{}}
	z.set("www.example.com. 300 IN A 10.0.0.1")
	z.set("docs.example.com. 300 IN CNAME Pages.Example.net.")
	z.set(`_acme-challenge.example.com. 60 IN TXT "token-one"`)
	z.set(`_acme-challenge.example.com. 60 IN TXT "token-two"`)
	return z
}

func TestPropagated(t *testing.T) {
	c := New(startServer(t, newZone()), time.Second)

	tests := []struct {
		name    string
		rtype   provider.RecordType
		host    string
		value   string
		want    bool
		wantErr bool
	}{
		{name: "a match", rtype: provider.A, host: "www.example.com", value: "10.0.0.1", want: true},
		{name: "a mismatch", rtype: provider.A, host: "www.example.com", value: "10.0.0.2"},
		{name: "cname ignores case and dot", rtype: provider.CNAME, host: "docs.example.com", value: "pages.example.net.", want: true},
		{name: "txt quoted", rtype: provider.TXT, host: "_acme-challenge.example.com", value: `"token-two"`, want: true},
		{name: "txt bare", rtype: provider.TXT, host: "_acme-challenge.example.com", value: "token-one", want: true},
		{name: "nxdomain", rtype: provider.A, host: "missing.example.com", value: "10.0.0.1"},
		{name: "servfail", rtype: provider.A, host: "servfail.example.com", value: "10.0.0.1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Propagated(context.Background(), tt.rtype, tt.host, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Propagated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookupTXTJoined(t *testing.T) {
	c := New(startServer(t, newZone()), time.Second)
	values, err := c.Lookup(context.Background(), provider.TXT, "_acme-challenge.example.com.")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 || values[0] != "token-one" || values[1] != "token-two" {
		t.Errorf("values = %q", values)
	}
}

func TestWait(t *testing.T) {
	z := newZone()
	c := New(startServer(t, z), time.Second)

	go func() {
		time.Sleep(50 * time.Millisecond)
		z.set("api.example.com. 300 IN A 10.0.0.9")
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx, provider.A, "api.example.com", "10.0.0.9", 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	err := c.Wait(short, provider.A, "never.example.com", "10.0.0.1", 10*time.Millisecond)
	if !errors.Is(err, ErrNotPropagated) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected ErrNotPropagated wrapping deadline, got %v", err)
	}
}

func TestNewDefaultsPort(t *testing.T) {
	if c := New("192.0.2.53", time.Second); c.nameserver != "192.0.2.53:53" {
		t.Errorf("nameserver = %q", c.nameserver)
	}
	if c := New("[::1]:5353", time.Second); c.nameserver != "[::1]:5353" {
		t.Errorf("nameserver = %q", c.nameserver)
	}
}
