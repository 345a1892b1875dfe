// Package memstore provides the in-memory tables backing every portal
// service. Each table owns a map keyed by integer id plus a monotonic id
// counter, is safe for concurrent handler access, and hands out copies so
// callers can never mutate table state through returned values.
package memstore

import (
	"sort"
	"sync"
)

type Table[T any] struct {
	mu     sync.RWMutex
	rows   map[int]T
	nextID int
	idOf   func(T) int
}

// NewTable creates an empty table. idOf extracts a row's identity so Seed
// and Insert can maintain the counter.
func NewTable[T any](idOf func(T) int) *Table[T] {
	return &Table[T]{
		rows:   make(map[int]T),
		nextID: 1,
		idOf:   idOf,
	}
}

// Seed loads the startup collection. The id counter resumes at max(id)+1.
func (t *Table[T]) Seed(rows []T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		id := t.idOf(r)
		t.rows[id] = r
		if id >= t.nextID {
			t.nextID = id + 1
		}
	}
}

// Insert allocates the next id and stores the row built by fn.
func (t *Table[T]) Insert(fn func(id int) T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	row := fn(t.nextID)
	t.rows[t.nextID] = row
	t.nextID++
	return row
}

func (t *Table[T]) Get(id int) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// Update replaces the row with fn's result. Returns false if id is absent.
func (t *Table[T]) Update(id int, fn func(T) T) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	row = fn(row)
	t.rows[id] = row
	return row, true
}

func (t *Table[T]) Delete(id int) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(t.rows, id)
	return row, true
}

// All returns every row ordered by id.
func (t *Table[T]) All() []T {
	return t.Where(func(T) bool { return true })
}

// Where returns the rows matching pred, ordered by id.
func (t *Table[T]) Where(pred func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int, 0, len(t.rows))
	for id, row := range t.rows {
		if pred(row) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

// Find returns the lowest-id row matching pred.
func (t *Table[T]) Find(pred func(T) bool) (T, bool) {
	matches := t.Where(pred)
	if len(matches) == 0 {
		var zero T
		return zero, false
	}
	return matches[0], true
}

// Any reports whether some row matches pred.
func (t *Table[T]) Any(pred func(T) bool) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if pred(row) {
			return true
		}
	}
	return false
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
