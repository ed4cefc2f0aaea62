package handle

import (
	"sync"
)

// Table tracks live values and notifies observers as they come and go.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its ID, or 0 once the table is closed.
func (t *Table) Insert(value any) ID {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	id, err := t.backend.Create(value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:  EventCreated,
		ID:    id,
		Value: value,
	})

	return id
}

// Get retrieves a value by ID.
func (t *Table) Get(id ID) (any, bool) {
	return t.backend.Get(id)
}

// Remove takes a value out of the table, calls its Drop method if it has
// one and returns (value, true). Removing an ID that is not live is a no-op
// returning (nil, false).
func (t *Table) Remove(id ID) (any, bool) {
	value, ok := t.backend.Drop(id)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:  EventDropped,
		ID:    id,
		Value: value,
	})

	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live values.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Each iterates over all live values until fn returns false.
func (t *Table) Each(fn func(ID, any) bool) {
	t.backend.Each(fn)
}

// Clear removes every live value.
func (t *Table) Clear() int {
	// Collect IDs first to avoid holding the lock during Remove
	var ids []ID
	t.backend.Each(func(id ID, _ any) bool {
		ids = append(ids, id)
		return true
	})

	n := 0
	for _, id := range ids {
		if _, ok := t.Remove(id); ok {
			n++
		}
	}
	return n
}

// Close stops accepting values and removes the remaining ones. It returns
// the number of values it removed.
func (t *Table) Close() (int, error) {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return 0, nil
	}
	t.closed = true
	t.closeMu.Unlock()

	n := t.Clear()
	return n, t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
