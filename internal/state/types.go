package state

import (
	"fmt"
	"strings"

	"github.com/evanofslack/zone-update/provider"
)

// Key identifies a managed record within the zone.
type Key struct {
	Host string
	Type provider.RecordType
}

func (k Key) String() string {
	return k.Type.String() + ":" + k.Host
}

func parseKey(s string) (Key, error) {
	rtype, host, ok := strings.Cut(s, ":")
	if !ok || host == "" {
		return Key{}, fmt.Errorf("malformed state key %q", s)
	}
	t, err := provider.ParseRecordType(rtype)
	if err != nil {
		return Key{}, err
	}
	return Key{Host: host, Type: t}, nil
}

// State is the set of records this instance created and still owns.
type State struct {
	Records map[Key]Entry
}

func NewState() State {
	return State{Records: make(map[Key]Entry)}
}

type Entry struct {
	Value    string `json:"value"`
	Owner    string `json:"owner"`
	RunID    string `json:"runId,omitempty"`
	LastSeen int64  `json:"lastSeen"`
}
