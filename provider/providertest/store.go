// Package providertest holds an in-memory upstream and a behavioural suite
// shared by the adapter tests.
package providertest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

type Entry struct {
	ID    string
	Host  string
	Type  string
	Value string
	TTL   uint32
}

// Store is the state behind a fake provider API. Add, Set and Remove count
// as mutations, Seed does not.
type Store struct {
	mu        sync.Mutex
	uuids     bool
	next      int
	entries   map[string]Entry
	mutations int
	lookups   int
}

// NewStore returns an empty store. With uuids set, record ids are random
// UUIDs rather than increasing integers.
func NewStore(uuids bool) *Store {
	return &Store{uuids: uuids, next: 1000, entries: map[string]Entry{}}
}

func (s *Store) newID() string {
	if s.uuids {
		return uuid.NewString()
	}
	s.next++
	return strconv.Itoa(s.next)
}

func (s *Store) Seed(host, rtype, value string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{ID: s.newID(), Host: host, Type: rtype, Value: value, TTL: 300}
	s.entries[e.ID] = e
	return e
}

func (s *Store) Add(host, rtype, value string, ttl uint32) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations++
	e := Entry{ID: s.newID(), Host: host, Type: rtype, Value: value, TTL: ttl}
	s.entries[e.ID] = e
	return e
}

func (s *Store) Set(id, value string, ttl uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations++
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.Value = value
	e.TTL = ttl
	s.entries[id] = e
	return true
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations++
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// Find returns entries matching host and type; an empty type matches all.
func (s *Store) Find(host, rtype string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.Host == host && (rtype == "" || e.Type == rtype) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

// CountLookup records a zone or account identifier lookup.
func (s *Store) CountLookup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
}

func (s *Store) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func ReadJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
