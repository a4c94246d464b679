package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newReservation(itemID uuid.UUID, start, end time.Time) *Reservation {
	return &Reservation{
		ID:        uuid.New(),
		ItemID:    itemID,
		MemberID:  uuid.New(),
		StartsAt:  start,
		EndsAt:    end,
		CreatedAt: day,
	}
}

func TestMemoryStoreInsertRejectsInvalidInterval(t *testing.T) {
	store := NewMemoryStore()
	itemID := uuid.New()

	err := store.Insert(context.Background(), newReservation(itemID, hour(12), hour(12)))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	list, err := store.ListForItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStoreConflictAndAdjacency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	itemID := uuid.New()

	require.NoError(t, store.Insert(ctx, newReservation(itemID, hour(10), hour(11))))

	err := store.Insert(ctx, newReservation(itemID, hour(10).Add(30*time.Minute), hour(12)))
	assert.ErrorIs(t, err, ErrConflict)

	assert.NoError(t, store.Insert(ctx, newReservation(itemID, hour(11), hour(12))))
	assert.NoError(t, store.Insert(ctx, newReservation(itemID, hour(9), hour(10))))
}

func TestMemoryStoreItemsAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	itemA, itemB := uuid.New(), uuid.New()
	require.NoError(t, store.Insert(ctx, newReservation(itemA, hour(10), hour(11))))
	require.NoError(t, store.Insert(ctx, newReservation(itemB, hour(10), hour(11))))

	listA, err := store.ListForItem(ctx, itemA)
	require.NoError(t, err)
	assert.Len(t, listA, 1)
}

func TestMemoryStoreGetAndDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	res := newReservation(uuid.New(), hour(10), hour(11))
	require.NoError(t, store.Insert(ctx, res))

	got, err := store.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	require.NoError(t, store.Delete(ctx, res.ID))

	_, err = store.Get(ctx, res.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.ErrorIs(t, store.Delete(ctx, res.ID), ErrReservationNotFound)

	list, err := store.ListForItem(ctx, res.ItemID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Insert(ctx, newReservation(uuid.New(), hour(10), hour(11)))
	assert.ErrorIs(t, err, context.Canceled)
}

// The stored set stays pairwise non-overlapping no matter what mix of
// admissions is attempted, and every attempt either commits or reports a
// conflict against something already stored.
func TestMemoryStoreNoOverlapInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := NewMemoryStore()
		ctx := context.Background()
		itemID := uuid.New()

		attempts := rapid.IntRange(1, 40).Draw(t, "attempts")
		for i := 0; i < attempts; i++ {
			start := rapid.Int64Range(0, 500).Draw(t, "start")
			length := rapid.Int64Range(1, 120).Draw(t, "len")
			res := newReservation(itemID,
				day.Add(time.Duration(start)*time.Minute),
				day.Add(time.Duration(start+length)*time.Minute),
			)
			if err := store.Insert(ctx, res); err != nil && !errors.Is(err, ErrConflict) {
				t.Fatalf("unexpected insert error: %v", err)
			}
		}

		stored, err := store.ListForItem(ctx, itemID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for i := range stored {
			for j := i + 1; j < len(stored); j++ {
				if stored[i].Span().Overlaps(stored[j].Span()) {
					t.Fatalf("stored reservations overlap: %s and %s", stored[i].Span(), stored[j].Span())
				}
			}
		}
	})
}

func TestMemoryStoreConcurrentInsertSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	itemID := uuid.New()

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Insert(context.Background(), newReservation(itemID, hour(10), hour(11)))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	stored, err := store.ListForItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
