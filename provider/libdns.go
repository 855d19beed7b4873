package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/libdns/libdns"
)

// FromLibdns converts a libdns record whose name is relative to zone.
func FromLibdns(r libdns.Record) (Record, error) {
	rr := r.RR()
	rtype, err := ParseRecordType(rr.Type)
	if err != nil {
		return Record{}, err
	}
	host := rr.Name
	if host == "" {
		host = "@"
	}
	return Record{
		Host:  host,
		Type:  rtype,
		Value: rr.Data,
		TTL:   uint32(rr.TTL / time.Second),
	}, nil
}

func ToLibdns(r Record) libdns.RR {
	return libdns.RR{
		Name: r.Host,
		Type: r.Type.String(),
		Data: r.Value,
		TTL:  time.Duration(r.TTL) * time.Second,
	}
}

// Libdns exposes a Provider through the libdns record interfaces so it can
// be handed to libdns consumers such as ACME clients.
type Libdns struct {
	p      Provider
	domain string
}

var (
	_ libdns.RecordAppender = (*Libdns)(nil)
	_ libdns.RecordSetter   = (*Libdns)(nil)
	_ libdns.RecordDeleter  = (*Libdns)(nil)
)

func NewLibdns(p Provider, domain string) *Libdns {
	return &Libdns{p: p, domain: domain}
}

func (l *Libdns) checkZone(zone string) error {
	if strings.TrimSuffix(zone, ".") != l.domain {
		return fmt.Errorf("zone %q is not managed by this provider (domain %q)", zone, l.domain)
	}
	return nil
}

func (l *Libdns) AppendRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	if err := l.checkZone(zone); err != nil {
		return nil, err
	}
	var done []libdns.Record
	for _, r := range recs {
		rec, err := FromLibdns(r)
		if err != nil {
			return done, err
		}
		if err := l.p.CreateRecord(ctx, rec.Type, rec.Host, rec.Value); err != nil {
			return done, err
		}
		done = append(done, r)
	}
	return done, nil
}

// SetRecords updates each record in place, creating it when the provider
// has no existing record for the host and type.
func (l *Libdns) SetRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	if err := l.checkZone(zone); err != nil {
		return nil, err
	}
	var done []libdns.Record
	for _, r := range recs {
		rec, err := FromLibdns(r)
		if err != nil {
			return done, err
		}
		existing, err := l.p.GetRecord(ctx, rec.Type, rec.Host)
		if err != nil {
			return done, err
		}
		if existing == nil {
			err = l.p.CreateRecord(ctx, rec.Type, rec.Host, rec.Value)
		} else {
			err = l.p.UpdateRecord(ctx, rec.Type, rec.Host, rec.Value)
		}
		if err != nil {
			return done, err
		}
		done = append(done, r)
	}
	return done, nil
}

func (l *Libdns) DeleteRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	if err := l.checkZone(zone); err != nil {
		return nil, err
	}
	var done []libdns.Record
	for _, r := range recs {
		rec, err := FromLibdns(r)
		if err != nil {
			return done, err
		}
		if err := l.p.DeleteRecord(ctx, rec.Type, rec.Host); err != nil {
			return done, err
		}
		done = append(done, r)
	}
	return done, nil
}
