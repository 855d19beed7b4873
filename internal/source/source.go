// Package source supplies the records a sync run should converge to.
package source

import (
	"context"
	"fmt"

	"github.com/evanofslack/zone-update/provider"
)

// Record is a desired record. Host is relative to the zone.
type Record struct {
	Host  string              `json:"host"`
	Type  provider.RecordType `json:"type"`
	Value string              `json:"value"`
}

type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// Static serves a fixed list, usually taken from the config file.
type Static []Record

func (s Static) Records(ctx context.Context) ([]Record, error) {
	out := make([]Record, len(s))
	copy(out, s)
	return out, nil
}

// Merge concatenates sources in order. A later source may not redefine a
// host and type an earlier one already set.
type Merge []Source

func (m Merge) Records(ctx context.Context) ([]Record, error) {
	seen := map[string]Record{}
	var out []Record
	for _, s := range m {
		recs, err := s.Records(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			k := r.Type.String() + ":" + r.Host
			if prev, ok := seen[k]; ok {
				if prev.Value == r.Value {
					continue
				}
				return nil, fmt.Errorf("conflicting values for %s %s: %q and %q", r.Type, r.Host, prev.Value, r.Value)
			}
			seen[k] = r
			out = append(out, r)
		}
	}
	return out, nil
}
