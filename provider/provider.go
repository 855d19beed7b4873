package provider

import (
	"context"
)

// DefaultTTL is applied to every record an adapter creates unless the
// provider enforces a higher floor.
const DefaultTTL = 300

// Config is shared by every adapter.
type Config struct {
	// Domain is the zone apex, e.g. "example.com".
	Domain string `yaml:"domain" toml:"domain" json:"domain"`
	// DryRun logs mutating calls instead of sending them.
	DryRun bool `yaml:"dryRun" toml:"dryRun" json:"dryRun"`
}

// Provider is the capability set every DNS adapter implements. Hosts are
// labels relative to Config.Domain. Values are passed in the provider's
// text form and never quoted or unquoted on the caller's behalf.
type Provider interface {
	// GetRecord returns the single record matching host and type, or nil
	// when there is none. More than one match is ErrUnexpectedRecord.
	GetRecord(ctx context.Context, rtype RecordType, host string) (*Record, error)
	CreateRecord(ctx context.Context, rtype RecordType, host, value string) error
	UpdateRecord(ctx context.Context, rtype RecordType, host, value string) error
	DeleteRecord(ctx context.Context, rtype RecordType, host string) error
}

// Single reduces a filtered lookup result to at most one record.
func Single[R any](matches []R) (*R, error) {
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, TooManyRecords(len(matches))
	}
}
