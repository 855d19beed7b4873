package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"

	"github.com/evanofslack/zone-update/internal/metrics"
)

const recordPrefix = "record:"

type Manager interface {
	LoadState(ctx context.Context) (State, error)
	SaveState(ctx context.Context, state State) error
	Close() error
}

type badgerManager struct {
	db      *badger.DB
	metrics *metrics.Metrics
}

func New(path string, metrics *metrics.Metrics) (Manager, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerManager{db: db, metrics: metrics}, nil
}

func (m *badgerManager) LoadState(ctx context.Context) (State, error) {
	state := NewState()

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key, err := parseKey(string(item.Key()[len(recordPrefix):]))
			if err != nil {
				slog.Default().Warn("skipping unreadable state entry", "key", string(item.Key()), "error", err)
				continue
			}
			err = item.Value(func(val []byte) error {
				var entry Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				state.Records[key] = entry
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	m.metrics.IncBadgerRequest("read", err == nil)
	return state, err
}

// SaveState replaces the stored state with state in one transaction.
func (m *badgerManager) SaveState(ctx context.Context, state State) error {
	txn := m.db.NewTransaction(true)
	defer txn.Discard()

	stale := make(map[string]bool)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte(recordPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		stale[string(it.Item().KeyCopy(nil))] = true
	}
	it.Close()

	for key, entry := range state.Records {
		data, err := json.Marshal(entry)
		if err != nil {
			m.metrics.IncBadgerRequest("update", false)
			return err
		}
		k := recordPrefix + key.String()
		if err := txn.Set([]byte(k), data); err != nil {
			m.metrics.IncBadgerRequest("update", false)
			return err
		}
		delete(stale, k)
	}

	for k := range stale {
		if err := txn.Delete([]byte(k)); err != nil {
			m.metrics.IncBadgerRequest("delete", false)
			return err
		}
	}
	err := txn.Commit()
	m.metrics.IncBadgerRequest("update", err == nil)
	return err
}

func (m *badgerManager) Close() error {
	return m.db.Close()
}
