// Package store provides the transactional key/value layer the platform
// persists its state in. Every platform operation runs inside a single
// Update call, so a failed operation leaves no trace in the store.
package store

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// Store runs read-only and read-write transactions.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(Tx) error) error

	// Update runs fn in a read-write transaction. Writes made by fn are
	// committed only if fn returns nil.
	Update(fn func(Tx) error) error

	// Close releases the underlying resources.
	Close() error
}

// Tx is a transaction over named buckets of byte keys.
// Values returned by Get and passed to ForEach are only valid for the life
// of the transaction and must not be modified.
type Tx interface {
	// Get returns the value stored under key, or nil if absent.
	Get(bucket, key []byte) []byte

	// Put stores value under key, creating the bucket if needed.
	Put(bucket, key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(bucket, key []byte) error

	// ForEach visits keys carrying prefix in ascending order, starting at the
	// first key >= start (start may be nil). Returning ErrStop from fn ends
	// the iteration without error.
	ForEach(bucket, prefix, start []byte, fn func(k, v []byte) error) error
}

// seekKey returns the first key position to visit for prefix and start.
func seekKey(prefix, start []byte) []byte {
	if bytes.Compare(start, prefix) > 0 {
		return start
	}
	return prefix
}

// ---------------------------------------------------------------------------
// MemStore
// ---------------------------------------------------------------------------

// MemStore is an in-memory Store. Update transactions buffer their writes in
// an overlay and apply it on commit.
type MemStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{buckets: make(map[string]map[string][]byte)}
}

// View runs fn against the committed state.
func (s *MemStore) View(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{store: s})
}

// Update runs fn with a write overlay and commits it if fn succeeds.
func (s *MemStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memTx{store: s, writable: true, overlay: make(map[string]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}

	for name, writes := range tx.overlay {
		b, ok := s.buckets[name]
		if !ok {
			b = make(map[string][]byte)
			s.buckets[name] = b
		}
		for k, v := range writes {
			if v == nil {
				delete(b, k)
				continue
			}
			b[k] = v
		}
	}
	return nil
}

// Close marks the store closed. Further transactions fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx reads through the overlay to the committed buckets.
// A nil value in the overlay marks a pending delete.
type memTx struct {
	store    *MemStore
	writable bool
	overlay  map[string]map[string][]byte
}

func (t *memTx) Get(bucket, key []byte) []byte {
	if w, ok := t.overlay[string(bucket)]; ok {
		if v, ok := w[string(key)]; ok {
			return v
		}
	}
	return t.store.buckets[string(bucket)][string(key)]
}

func (t *memTx) Put(bucket, key, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	w, ok := t.overlay[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		t.overlay[string(bucket)] = w
	}
	v := make([]byte, len(value))
	copy(v, value)
	w[string(key)] = v
	return nil
}

func (t *memTx) Delete(bucket, key []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	w, ok := t.overlay[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		t.overlay[string(bucket)] = w
	}
	w[string(key)] = nil
	return nil
}

func (t *memTx) ForEach(bucket, prefix, start []byte, fn func(k, v []byte) error) error {
	from := string(seekKey(prefix, start))
	p := string(prefix)

	seen := make(map[string]struct{})
	var keys []string
	collect := func(m map[string][]byte) {
		for k := range m {
			if k < from || len(k) < len(p) || k[:len(p)] != p {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	collect(t.overlay[string(bucket)])
	collect(t.store.buckets[string(bucket)])
	sort.Strings(keys)

	for _, k := range keys {
		v := t.Get(bucket, []byte(k))
		if v == nil {
			continue // pending delete
		}
		if err := fn([]byte(k), v); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
	return nil
}
