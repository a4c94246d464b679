// chaos/experiments.go
package chaos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RegisterExperiments registers the reservation invariant experiments.
func (e *Engine) RegisterExperiments() {
	e.Register(e.DoubleBookingRaceExperiment(25))
}

// overlappingPairs counts pairs of stored reservations on the same item whose
// half-open intervals overlap. The admission invariant requires this to be
// zero at every observable instant.
func (e *Engine) overlappingPairs() Metric {
	return Metric{
		Name: "overlapping_pairs",
		Query: func(ctx context.Context) (float64, error) {
			var n float64
			err := e.db.QueryRowContext(ctx, `
				SELECT COUNT(1)
				FROM reservations a
				JOIN reservations b
				  ON a.item_id = b.item_id
				 AND a.id < b.id
				 AND a.starts_at < b.ends_at
				 AND b.starts_at < a.ends_at
			`).Scan(&n)
			return n, err
		},
	}
}

// DoubleBookingRaceExperiment fires concurrent overlapping reserve calls at
// one freshly seeded item and checks that exactly one commits.
func (e *Engine) DoubleBookingRaceExperiment(concurrency int) Experiment {
	var winners int

	itemID := uuid.New()
	memberID := uuid.New()

	return Experiment{
		Name:       "double-booking-race",
		Hypothesis: "Concurrent overlapping reservations admit exactly one winner and never corrupt the stored set",
		SteadyState: []Metric{
			e.overlappingPairs(),
			{
				Name: "race_winners",
				Query: func(ctx context.Context) (float64, error) {
					return float64(winners), nil
				},
			},
		},
		Method: func(ctx context.Context) error {
			if err := e.seedItemAndMember(ctx, itemID, memberID); err != nil {
				return err
			}

			start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
			end := start.Add(time.Hour)

			var wg sync.WaitGroup
			var mu sync.Mutex
			for i := 0; i < concurrency; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := e.tryReserve(ctx, memberID, itemID, start, end)
					if err != nil {
						return
					}
					if ok {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			return nil
		},
		Validation: []Assertion{
			{
				Metric:    "race_winners",
				Condition: func(v float64) bool { return v == 1 },
				Message:   "exactly one concurrent overlapping reserve should succeed",
			},
			{
				Metric:    "overlapping_pairs",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "no pair of stored reservations on one item may overlap",
			},
		},
	}
}

func (e *Engine) seedItemAndMember(ctx context.Context, itemID, memberID uuid.UUID) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO books (id, isbn, title, author, created_at)
		VALUES ($1, $2, 'Chaos Probe', 'Chaos Engine', NOW())
	`, itemID, fmt.Sprintf("chaos-%s", itemID))
	if err != nil {
		return fmt.Errorf("seed book: %w", err)
	}

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO members (id, email, name, status, created_at)
		VALUES ($1, $2, 'Chaos Engine', 'active', NOW())
	`, memberID, fmt.Sprintf("chaos-%s@bookly.dev", memberID))
	if err != nil {
		return fmt.Errorf("seed member: %w", err)
	}
	return nil
}

func (e *Engine) tryReserve(ctx context.Context, memberID, itemID uuid.UUID, start, end time.Time) (bool, error) {
	payload, err := json.Marshal(map[string]any{
		"member_id": memberID,
		"item_id":   itemID,
		"starts_at": start,
		"ends_at":   end,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.bookingURL+"/reservations", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusCreated, nil
}
