// internal/booking/store.go
package booking

import (
	"context"

	"github.com/google/uuid"
)

// Store is the durable record of reservations. Insert is the sole write path
// for admission: implementations must perform the conflict check and the write
// as one atomic unit, serialized per item so that two concurrent inserts for
// overlapping intervals can never both commit. Inserts for different items
// must not block each other.
type Store interface {
	// Insert admits the candidate reservation. Returns ErrConflict when an
	// existing reservation on the same item overlaps, ErrInvalidInterval when
	// the candidate's span is malformed.
	Insert(ctx context.Context, r *Reservation) error

	// ListForItem returns every reservation recorded for the item, in no
	// particular order.
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]Reservation, error)

	// Get returns the reservation with the given id, or ErrReservationNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// Delete removes a reservation. Removal never needs re-validation: taking
	// a reservation out of a non-overlapping set cannot introduce an overlap.
	Delete(ctx context.Context, id uuid.UUID) error
}
