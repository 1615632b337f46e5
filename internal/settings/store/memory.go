// Package store holds the current settings snapshot. Readers never block:
// they get whichever snapshot was current when they asked.
package store

import (
	"context"
	"sync/atomic"

	"idverify/internal/settings/models"
)

// Mutator derives the next snapshot from the current one.
type Mutator func(current models.Snapshot) (models.Snapshot, error)

// InMemoryStore swaps snapshots through an atomic pointer. Concurrent writers
// retry against the newer snapshot instead of overwriting it.
type InMemoryStore struct {
	current atomic.Pointer[models.Snapshot]
}

func NewInMemoryStore(initial models.Snapshot) *InMemoryStore {
	s := &InMemoryStore{}
	snap := initial.Clone()
	s.current.Store(&snap)
	return s
}

func (s *InMemoryStore) Load(_ context.Context) (models.Snapshot, error) {
	return s.current.Load().Clone(), nil
}

// Update applies fn until it lands on an unchanged snapshot. Revision is
// bumped by the store.
func (s *InMemoryStore) Update(ctx context.Context, fn Mutator) (models.Snapshot, error) {
	for {
		cur := s.current.Load()
		next, err := fn(cur.Clone())
		if err != nil {
			return cur.Clone(), err
		}
		next = next.Clone()
		next.Revision = cur.Revision + 1
		if s.current.CompareAndSwap(cur, &next) {
			return next.Clone(), nil
		}
		if err := ctx.Err(); err != nil {
			return cur.Clone(), err
		}
	}
}
