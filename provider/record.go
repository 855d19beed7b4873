package provider

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// RecordType is a DNS resource record type. The underlying value is the
// IANA type code so it can be handed straight to a resolver.
type RecordType uint16

const (
	A     = RecordType(dns.TypeA)
	AAAA  = RecordType(dns.TypeAAAA)
	CAA   = RecordType(dns.TypeCAA)
	CNAME = RecordType(dns.TypeCNAME)
	HINFO = RecordType(dns.TypeHINFO)
	MX    = RecordType(dns.TypeMX)
	NAPTR = RecordType(dns.TypeNAPTR)
	NS    = RecordType(dns.TypeNS)
	PTR   = RecordType(dns.TypePTR)
	SRV   = RecordType(dns.TypeSRV)
	SPF   = RecordType(dns.TypeSPF)
	SSHFP = RecordType(dns.TypeSSHFP)
	TXT   = RecordType(dns.TypeTXT)
	SVCB  = RecordType(dns.TypeSVCB)
	HTTPS = RecordType(dns.TypeHTTPS)
)

// RecordTypes lists every type the library knows about.
var RecordTypes = []RecordType{A, AAAA, CAA, CNAME, HINFO, MX, NAPTR, NS, PTR, SRV, SPF, SSHFP, TXT, SVCB, HTTPS}

func (t RecordType) Known() bool {
	for _, k := range RecordTypes {
		if k == t {
			return true
		}
	}
	return false
}

func (t RecordType) String() string {
	if s, ok := dns.TypeToString[uint16(t)]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// ParseRecordType accepts the canonical tag of a known type, in any case.
func ParseRecordType(s string) (RecordType, error) {
	code, ok := dns.StringToType[strings.ToUpper(strings.TrimSpace(s))]
	if !ok || !RecordType(code).Known() {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
	return RecordType(code), nil
}

func (t RecordType) MarshalText() ([]byte, error) {
	if !t.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint16(t))
	}
	return []byte(t.String()), nil
}

func (t *RecordType) UnmarshalText(b []byte) error {
	rt, err := ParseRecordType(string(b))
	if err != nil {
		return err
	}
	*t = rt
	return nil
}

// Record is a record as observed upstream. ID is whatever the provider
// assigned and is only meaningful to that provider.
type Record struct {
	ID    string
	Host  string
	Type  RecordType
	Value string
	TTL   uint32
}

// FQDN joins a host label with the zone apex. "@" and "" name the apex itself.
func FQDN(host, domain string) string {
	if host == "" || host == "@" {
		return domain
	}
	return host + "." + domain
}
