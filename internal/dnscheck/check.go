// Package dnscheck asks a nameserver directly whether a record change is
// visible yet.
package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/evanofslack/zone-update/provider"
)

var ErrNotPropagated = errors.New("record not propagated")

type Checker struct {
	nameserver string
	client     *dns.Client
}

// New queries nameserver ("host" or "host:port", port 53 by default).
func New(nameserver string, timeout time.Duration) *Checker {
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}
	return &Checker{
		nameserver: nameserver,
		client:     &dns.Client{Timeout: timeout},
	}
}

// Lookup returns the values served for name, in provider text form. TXT
// strings are joined without quotes.
func (c *Checker) Lookup(ctx context.Context, rtype provider.RecordType, name string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), uint16(rtype))
	m.RecursionDesired = true

	in, rtt, err := c.client.ExchangeContext(ctx, m, c.nameserver)
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", rtype, name, err)
	}
	slog.Default().Debug("dns query", "name", name, "type", rtype, "rcode", dns.RcodeToString[in.Rcode], "rtt", rtt)
	if in.Rcode == dns.RcodeNameError {
		return nil, nil
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("query %s %s: %s", rtype, name, dns.RcodeToString[in.Rcode])
	}

	var values []string
	for _, rr := range in.Answer {
		if rr.Header().Rrtype != uint16(rtype) {
			continue
		}
		values = append(values, valueOf(rr))
	}
	return values, nil
}

func valueOf(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return strings.TrimSuffix(v.Target, ".")
	case *dns.NS:
		return strings.TrimSuffix(v.Ns, ".")
	case *dns.TXT:
		return strings.Join(v.Txt, "")
	default:
		return strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String()))
	}
}

// Propagated reports whether name currently serves value.
func (c *Checker) Propagated(ctx context.Context, rtype provider.RecordType, name, value string) (bool, error) {
	values, err := c.Lookup(ctx, rtype, name)
	if err != nil {
		return false, err
	}
	want := normalize(rtype, value)
	for _, v := range values {
		if normalize(rtype, v) == want {
			return true, nil
		}
	}
	return false, nil
}

// Wait polls until value is served or ctx ends.
func (c *Checker) Wait(ctx context.Context, rtype provider.RecordType, name, value string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := c.Propagated(ctx, rtype, name, value)
		if err != nil {
			slog.Default().Warn("propagation check failed", "name", name, "type", rtype, "error", err)
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("%w: %s %s: %w", ErrNotPropagated, rtype, name, ctx.Err())
		}
	}
}

func normalize(rtype provider.RecordType, v string) string {
	switch rtype {
	case provider.TXT:
		return strings.TrimSuffix(strings.TrimPrefix(v, `"`), `"`)
	case provider.CNAME, provider.NS:
		return strings.ToLower(strings.TrimSuffix(v, "."))
	}
	return v
}
