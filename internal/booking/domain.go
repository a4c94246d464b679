// internal/booking/domain.go
package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"bookly/internal/interval"
)

var (
	ErrInvalidInterval     = errors.New("reservation interval is invalid: start must be before end")
	ErrConflict            = errors.New("item is already reserved for an overlapping period")
	ErrItemNotFound        = errors.New("item not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNotHolder           = errors.New("reservation is held by a different member")
	ErrStorageTimeout      = errors.New("reservation store timed out")
)

// Reservation is an admitted claim on an item for a half-open time range.
// Records are immutable after admission; release removes them outright.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	MemberID  uuid.UUID `json:"member_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Span returns the reservation's interval value.
func (r *Reservation) Span() interval.Interval {
	return interval.Interval{Start: r.StartsAt, End: r.EndsAt}
}

// Availability is the read-side answer for a single item at a reference instant.
type Availability struct {
	ItemID          uuid.UUID  `json:"item_id"`
	Title           string     `json:"title"`
	AsOf            time.Time  `json:"as_of"`
	Available       bool       `json:"available"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
}
