package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/writeup"
)

// Key is the record key the writeup list is stored under.
const Key = "htb-writeups-cache-v1"

// DefaultTTL is how long a record is served before it counts as absent.
const DefaultTTL = 10 * time.Minute

// ErrNotFound is returned by a Backend when the key has no record.
var ErrNotFound = errors.New("cache record not found")

// Backend stores opaque records by key.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Delete(key string) error
	Close() error
}

// ParseError means a stored record could not be decoded. Store treats it as
// a miss.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse cache record %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Record is the persisted form of the writeup list.
type Record struct {
	// Timestamp is the write time in unix milliseconds.
	Timestamp int64          `json:"timestamp"`
	Items     []writeup.Item `json:"items"`
}

// WrittenAt returns Timestamp as a time.
func (r *Record) WrittenAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// IsStale reports whether the record is older than ttl at now.
func (r *Record) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.WrittenAt()) > ttl
}

// Store reads and writes the writeup record through a Backend.
type Store struct {
	backend Backend
	key     string
	ttl     time.Duration
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithKey overrides Key.
func WithKey(key string) StoreOption {
	return func(s *Store) { s.key = key }
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		key:     Key,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Read returns the cached items if a fresh, non-empty record exists.
// Missing, malformed, empty and expired records are all reported as absent.
func (s *Store) Read(ctx context.Context) ([]writeup.Item, bool) {
	l := log.FromContext(ctx)

	rec, err := s.Inspect()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Debug("cache read failed", "key", s.key, "err", err)
		}
		return nil, false
	}
	if len(rec.Items) == 0 {
		return nil, false
	}
	if rec.IsStale(s.now(), s.ttl) {
		l.Debug("cache expired", "key", s.key, "age", s.now().Sub(rec.WrittenAt()).Round(time.Second))
		return nil, false
	}

	items := make([]writeup.Item, len(rec.Items))
	copy(items, rec.Items)
	writeup.Sort(items)
	return items, true
}

// Inspect returns the stored record regardless of its age.
func (s *Store) Inspect() (*Record, error) {
	data, err := s.backend.Get(s.key)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &ParseError{Key: s.key, Err: err}
	}
	return &rec, nil
}

// Write persists items with the current time. Empty lists are not written,
// so a failed crawl never replaces a usable record. Errors are logged and
// dropped.
func (s *Store) Write(ctx context.Context, items []writeup.Item) {
	if len(items) == 0 {
		return
	}
	l := log.FromContext(ctx)

	data, err := json.Marshal(Record{Timestamp: s.now().UnixMilli(), Items: items})
	if err != nil {
		l.Debug("cache encode failed", "key", s.key, "err", err)
		return
	}
	if err := s.backend.Put(s.key, data); err != nil {
		l.Debug("cache write failed", "key", s.key, "err", err)
		return
	}
	l.Debug("cache written", "key", s.key, "items", len(items))
}

// Clear removes the record.
func (s *Store) Clear() error {
	return s.backend.Delete(s.key)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
