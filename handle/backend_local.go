package handle

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("handle backend closed")

// LocalBackend is an in-memory slot store. Freed IDs are reused.
type LocalBackend struct {
	entries  []entry
	freeList []ID
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	valid bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 16),
		freeList: make([]ID, 0, 8),
	}
}

// Create stores a value and returns its ID.
func (b *LocalBackend) Create(value any) (ID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	e := entry{value: value, valid: true}

	if len(b.freeList) > 0 {
		id := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[id-1] = e
		return id, nil
	}

	b.entries = append(b.entries, e)
	return ID(len(b.entries)), nil
}

// Get retrieves a value by ID.
func (b *LocalBackend) Get(id ID) (any, bool) {
	if id == 0 {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	idx := id - 1
	if int(idx) >= len(b.entries) {
		return nil, false
	}

	e := b.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// Drop removes an entry and returns (value, true) if it was live. Only one
// of several concurrent Drops of the same ID succeeds.
func (b *LocalBackend) Drop(id ID) (any, bool) {
	if id == 0 {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := id - 1
	if int(idx) >= len(b.entries) {
		return nil, false
	}

	e := &b.entries[idx]
	if !e.valid {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	b.freeList = append(b.freeList, id)

	return value, true
}

// Close stops accepting new entries and forgets the remaining ones without
// dropping them.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.entries = nil
	b.freeList = nil
	return nil
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live entries until fn returns false.
func (b *LocalBackend) Each(fn func(ID, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(ID(i+1), e.value) {
				break
			}
		}
	}
}
