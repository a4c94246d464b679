// internal/booking/service.go
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookly/internal/catalog"
	"bookly/internal/membership"
)

// Service defines the interface for the booking service.
type Service interface {
	// Reserve admits a reservation for [start, end) on the item, on behalf of
	// the member. Of any set of concurrent calls with mutually overlapping
	// intervals on one item, exactly one succeeds; the rest fail with
	// ErrConflict.
	Reserve(ctx context.Context, memberID, itemID uuid.UUID, start, end time.Time) (*Reservation, error)

	// CheckAvailability reports whether the item is free at asOf and, when it
	// is not, the earliest strictly-future instant at which it becomes free.
	CheckAvailability(ctx context.Context, itemID uuid.UUID, asOf time.Time) (*Availability, error)

	// Release removes a reservation held by the member.
	Release(ctx context.Context, memberID, reservationID uuid.UUID) error
}

// BookResolver looks up catalog items so reservations only ever reference
// books that exist.
type BookResolver interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error)
}

// MemberResolver resolves the holder identity behind a reservation request.
type MemberResolver interface {
	GetMember(ctx context.Context, id uuid.UUID) (*membership.Member, error)
}

// Clock allows injecting time in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
