// Package registry assigns stable integer identifiers to canonical titles.
package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrConflict is returned by Seed when a pair disagrees with a known mapping.
var ErrConflict = errors.New("registry: conflicting identifier")

// Registry maps titles to identifiers. Identifiers are minted from a
// high-water mark that only grows; entries are never removed.
//
// A Registry lives for one ingestion run. All methods are safe for
// concurrent use.
type Registry struct {
	mu     sync.Mutex
	ids    map[string]int
	owners map[int]string
	mark   int
}

// New creates an empty registry. The first minted identifier is 1.
func New() *Registry {
	return NewWithMark(0)
}

// NewWithMark creates an empty registry whose first minted identifier is mark+1.
func NewWithMark(mark int) *Registry {
	return &Registry{
		ids:    make(map[string]int),
		owners: make(map[int]string),
		mark:   mark,
	}
}

// Assign returns the identifier for title, minting a new one on first sight.
func (r *Registry) Assign(title string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[title]; ok {
		return id
	}
	r.mark++
	r.ids[title] = r.mark
	r.owners[r.mark] = title
	return r.mark
}

// Seed bulk-loads existing title/identifier pairs. Afterwards the mark is at
// least startingMark and at least the largest seeded identifier, so Assign
// never hands out a seeded value.
//
// A pair that repeats a known mapping is accepted. A title already mapped to
// another identifier, or an identifier already owned by another title, fails
// with ErrConflict and leaves the registry unchanged.
func (r *Registry) Seed(entries map[string]int, startingMark int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[int]string, len(entries))
	for title, id := range entries {
		if have, ok := r.ids[title]; ok && have != id {
			return fmt.Errorf("%w: %q has identifier %d, not %d", ErrConflict, title, have, id)
		}
		if owner, ok := r.owners[id]; ok && owner != title {
			return fmt.Errorf("%w: identifier %d belongs to %q, not %q", ErrConflict, id, owner, title)
		}
		if other, ok := batch[id]; ok {
			return fmt.Errorf("%w: identifier %d given to both %q and %q", ErrConflict, id, other, title)
		}
		batch[id] = title
	}

	if startingMark > r.mark {
		r.mark = startingMark
	}
	for id, title := range batch {
		r.ids[title] = id
		r.owners[id] = title
		if id > r.mark {
			r.mark = id
		}
	}
	return nil
}

// Lookup returns the identifier for title without minting one.
func (r *Registry) Lookup(title string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[title]
	return id, ok
}

// Len returns the number of known titles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// Mark returns the current high-water mark.
func (r *Registry) Mark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mark
}

// Snapshot returns a copy of all title/identifier pairs.
func (r *Registry) Snapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.ids))
	for title, id := range r.ids {
		out[title] = id
	}
	return out
}
