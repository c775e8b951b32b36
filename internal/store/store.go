// Package store implements the concurrent two-level Database -> Table ->
// key map, with lazy TTL expiry on read.
package store

import (
	"sync"
	"time"

	"github.com/nhr-fau/voidkv/internal/value"
)

// ErrAlreadyExists, ErrNoSuchTable, ErrNoSuchKey and ErrKeyExpired are the
// store-level outcomes that the session layer translates into response
// statuses; they carry no extra data so sentinel values are enough.
var (
	ErrAlreadyExists = storeError("already exists")
	ErrNoSuchTable   = storeError("no such table")
	ErrNoSuchKey     = storeError("no such key")
	ErrKeyExpired    = storeError("key expired")
)

type storeError string

func (e storeError) Error() string { return string(e) }

// table is one entry in the top-level map: its own lock means operations
// on distinct tables never contend with each other, while all key
// operations within a table serialize through the same lock. Get,
// GetTable and ListKeys take the write lock because they may remove an
// expired entry, so they do not run concurrently with each other within
// one table; only Snapshot reads under RLock.
type table struct {
	mu   sync.RWMutex
	keys map[string]value.TableValue
}

func newTable() *table {
	return &table{keys: make(map[string]value.TableValue)}
}

// Store is the top-level Database -> Table map. The zero value is not
// usable; construct with New.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	now    func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table), now: time.Now}
}

// FromDatabase rebuilds a store from a snapshot's decoded Database, as
// loaded from disk at startup.
func FromDatabase(db value.Database) *Store {
	s := New()
	for name, tbl := range db {
		t := newTable()
		for k, v := range tbl {
			t.keys[k] = v
		}
		s.tables[name] = t
	}
	return s
}

// Snapshot returns a cloned copy of the whole database, suitable for
// serializing to the snapshot file. It does not freeze the store:
// concurrent mutations during the walk may or may not be reflected, but
// the result is always free of duplicates or torn entries because each
// table's lock is held only while that one table is copied.
func (s *Store) Snapshot() value.Database {
	s.mu.RLock()
	names := make([]string, 0, len(s.tables))
	tables := make([]*table, 0, len(s.tables))
	for name, t := range s.tables {
		names = append(names, name)
		tables = append(tables, t)
	}
	s.mu.RUnlock()

	out := make(value.Database, len(names))
	for i, name := range names {
		t := tables[i]
		t.mu.RLock()
		tv := make(value.Table, len(t.keys))
		for k, v := range t.keys {
			tv[k] = v.Clone()
		}
		t.mu.RUnlock()
		out[name] = tv
	}
	return out
}

// ListTables returns the current table names. The returned slice is a
// point-in-time snapshot of the key set at the time of the call.
func (s *Store) ListTables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names
}

// InsertTable atomically creates a table populated with initial, or
// leaves the store unchanged and returns ErrAlreadyExists.
func (s *Store) InsertTable(name string, initial map[string]value.InsertTableValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return ErrAlreadyExists
	}

	t := newTable()
	now := s.now()
	for k, itv := range initial {
		// Duplicate keys cannot occur once decoded into a Go map (the
		// decoder already collapsed them, last write wins), so this loop
		// just resolves each lifetime relative to insertion time.
		t.keys[k] = itv.ToStored(now)
	}
	s.tables[name] = t
	return nil
}

// GetTable returns a cloned snapshot of a table's live (non-expired)
// entries, expiring any stale ones it encounters along the way.
func (s *Store) GetTable(name string) (value.Table, error) {
	t := s.lookupTable(name)
	if t == nil {
		return nil, ErrNoSuchTable
	}

	now := s.now()
	t.mu.Lock()
	out := make(value.Table, len(t.keys))
	for k, v := range t.keys {
		if v.Expiry.Expired(now) {
			delete(t.keys, k)
			continue
		}
		out[k] = v.Clone()
	}
	t.mu.Unlock()
	return out, nil
}

// DeleteTable removes a table. Idempotent: absent is Ok, not an error.
func (s *Store) DeleteTable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, name)
}

// ListKeys returns the live key names in a table, expiring any stale
// entries it encounters.
func (s *Store) ListKeys(tableName string) ([]string, error) {
	t := s.lookupTable(tableName)
	if t == nil {
		return nil, ErrNoSuchTable
	}

	now := s.now()
	t.mu.Lock()
	keys := make([]string, 0, len(t.keys))
	for k, v := range t.keys {
		if v.Expiry.Expired(now) {
			delete(t.keys, k)
			continue
		}
		keys = append(keys, k)
	}
	t.mu.Unlock()
	return keys, nil
}

// Insert adds a new key to an existing table. A key that already exists
// and has not expired returns ErrAlreadyExists; an expired entry is
// treated as absent and silently overwritten.
func (s *Store) Insert(tableName, key string, itv value.InsertTableValue) error {
	t := s.lookupTable(tableName)
	if t == nil {
		return ErrNoSuchTable
	}

	now := s.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.keys[key]; ok && !existing.Expiry.Expired(now) {
		return ErrAlreadyExists
	}
	t.keys[key] = itv.ToStored(now)
	return nil
}

// Get returns a key's value, applying lazy expiry: an expired entry is
// removed and reported as ErrKeyExpired instead of returned.
func (s *Store) Get(tableName, key string) (value.TableValue, error) {
	t := s.lookupTable(tableName)
	if t == nil {
		return value.TableValue{}, ErrNoSuchTable
	}

	now := s.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	tv, ok := t.keys[key]
	if !ok {
		return value.TableValue{}, ErrNoSuchKey
	}
	if tv.Expiry.Expired(now) {
		delete(t.keys, key)
		return value.TableValue{}, ErrKeyExpired
	}
	return tv.Clone(), nil
}

// Delete removes a key from a table. Idempotent within the table: a
// missing key is Ok, not an error. The table itself must exist.
func (s *Store) Delete(tableName, key string) error {
	t := s.lookupTable(tableName)
	if t == nil {
		return ErrNoSuchTable
	}
	t.mu.Lock()
	delete(t.keys, key)
	t.mu.Unlock()
	return nil
}

func (s *Store) lookupTable(name string) *table {
	s.mu.RLock()
	t := s.tables[name]
	s.mu.RUnlock()
	return t
}
