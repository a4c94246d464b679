// internal/booking/implementation.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookly/internal/clients"
	"bookly/internal/interval"
)

// service implements the Service interface. The store carries the atomic
// check-then-insert; everything before it is validation and fails fast
// without touching storage.
type service struct {
	store   Store
	catalog BookResolver
	members MemberResolver
	clock   Clock
}

// NewService creates a new booking service instance.
func NewService(store Store, catalog BookResolver, members MemberResolver) Service {
	return &service{
		store:   store,
		catalog: catalog,
		members: members,
		clock:   systemClock{},
	}
}

// NewServiceWithClock is NewService with an injected clock, for tests.
func NewServiceWithClock(store Store, catalog BookResolver, members MemberResolver, clock Clock) Service {
	return &service{
		store:   store,
		catalog: catalog,
		members: members,
		clock:   clock,
	}
}

func (s *service) Reserve(ctx context.Context, memberID, itemID uuid.UUID, start, end time.Time) (*Reservation, error) {
	span, err := interval.New(start, end)
	if err != nil {
		return nil, ErrInvalidInterval
	}

	if _, err := s.catalog.GetBook(ctx, itemID); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("resolve item: %w", err)
	}

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if member.Status != "active" {
		return nil, ErrMemberNotFound
	}

	res := &Reservation{
		ID:        uuid.New(),
		ItemID:    itemID,
		MemberID:  memberID,
		StartsAt:  span.Start,
		EndsAt:    span.End,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Insert(ctx, res); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidInterval) {
			return nil, err
		}
		return nil, fmt.Errorf("admit reservation: %w", err)
	}

	return res, nil
}

func (s *service) CheckAvailability(ctx context.Context, itemID uuid.UUID, asOf time.Time) (*Availability, error) {
	book, err := s.catalog.GetBook(ctx, itemID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("resolve item: %w", err)
	}

	reservations, err := s.store.ListForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	avail := &Availability{
		ItemID:    itemID,
		Title:     book.Title,
		AsOf:      asOf,
		Available: true,
	}

	var next *time.Time
	for i := range reservations {
		r := &reservations[i]
		if r.Span().Contains(asOf) {
			avail.Available = false
		}
		if r.StartsAt.After(asOf) && (next == nil || r.StartsAt.Before(*next)) {
			t := r.StartsAt
			next = &t
		}
	}

	// The occupying reservation's own start is never reported; only a
	// strictly-future start qualifies as the next free instant.
	if !avail.Available {
		avail.NextAvailableAt = next
	}

	return avail, nil
}

func (s *service) Release(ctx context.Context, memberID, reservationID uuid.UUID) error {
	res, err := s.store.Get(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.MemberID != memberID {
		return ErrNotHolder
	}
	return s.store.Delete(ctx, reservationID)
}
