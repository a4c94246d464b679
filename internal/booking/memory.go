// internal/booking/memory.go
package booking

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps reservations in process memory. It honors the same
// admission contract as the Postgres store and is used by unit tests and
// local development. State does not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	byItem map[uuid.UUID][]*Reservation
	byID   map[uuid.UUID]*Reservation

	lockMu    sync.Mutex
	itemLocks map[uuid.UUID]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byItem:    make(map[uuid.UUID][]*Reservation),
		byID:      make(map[uuid.UUID]*Reservation),
		itemLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// itemLock returns the admission mutex for one item, creating it on first use.
// Admission is serialized per item; unrelated items proceed in parallel.
func (s *MemoryStore) itemLock(itemID uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.itemLocks[itemID]
	if !ok {
		l = &sync.Mutex{}
		s.itemLocks[itemID] = l
	}
	return l
}

func (s *MemoryStore) Insert(ctx context.Context, r *Reservation) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !r.Span().Valid() {
		return ErrInvalidInterval
	}

	lock := s.itemLock(r.ItemID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	existing := s.byItem[r.ItemID]
	span := r.Span()
	for _, e := range existing {
		if span.Overlaps(e.Span()) {
			s.mu.RUnlock()
			return ErrConflict
		}
	}
	s.mu.RUnlock()

	stored := *r
	s.mu.Lock()
	s.byItem[r.ItemID] = append(s.byItem[r.ItemID], &stored)
	s.byID[r.ID] = &stored
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListForItem(ctx context.Context, itemID uuid.UUID) ([]Reservation, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reservation, 0, len(s.byItem[itemID]))
	for _, r := range s.byItem[itemID] {
		out = append(out, *r)
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	found := *r
	return &found, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return ErrReservationNotFound
	}
	delete(s.byID, id)

	list := s.byItem[r.ItemID]
	for i, e := range list {
		if e.ID == id {
			s.byItem[r.ItemID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}
