package providertest

import (
	"context"
	"sync"

	"github.com/evanofslack/zone-update/provider"
)

type key struct {
	rtype provider.RecordType
	host  string
}

// Memory is an in-process Provider. Err, when set, is returned by every
// call.
type Memory struct {
	mu      sync.Mutex
	records map[key]string
	calls   map[string]int
	Err     error
}

var _ provider.Provider = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{records: map[key]string{}, calls: map[string]int{}}
}

func (m *Memory) record(op string) error {
	m.calls[op]++
	return m.Err
}

// Calls reports how many times op ("get", "create", "update", "delete")
// was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Value returns the raw stored value.
func (m *Memory) Value(rtype provider.RecordType, host string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[key{rtype, host}]
	return v, ok
}

func (m *Memory) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("get"); err != nil {
		return nil, err
	}
	v, ok := m.records[key{rtype, host}]
	if !ok {
		return nil, nil
	}
	return &provider.Record{ID: host + "/" + rtype.String(), Host: host, Type: rtype, Value: v, TTL: provider.DefaultTTL}, nil
}

func (m *Memory) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create"); err != nil {
		return err
	}
	m.records[key{rtype, host}] = value
	return nil
}

func (m *Memory) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("update"); err != nil {
		return err
	}
	if _, ok := m.records[key{rtype, host}]; !ok {
		return provider.ErrRecordNotFound
	}
	m.records[key{rtype, host}] = value
	return nil
}

func (m *Memory) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete"); err != nil {
		return err
	}
	delete(m.records, key{rtype, host})
	return nil
}
