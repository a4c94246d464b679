// internal/interval/interval.go
package interval

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End). The start instant belongs
// to the interval, the end instant does not, so adjacent reservations can
// share a boundary without conflicting.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds an interval, rejecting ranges where Start is not before End.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, fmt.Errorf("interval start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return iv, nil
}

// Valid reports whether the interval is well formed (Start < End).
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two intervals share at least one instant.
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside the interval. The boundary
// instant End itself is outside.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}
