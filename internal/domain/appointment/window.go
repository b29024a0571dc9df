package appointment

import (
	"time"

	"github.com/opencare/care-scheduler/internal/httperr"
)

// MinDuration is the shortest bookable appointment.
const MinDuration = 5 * time.Minute

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps implements the half-open predicate: [s1,e1) and [s2,e2)
// overlap iff s1 < e2 and e1 > s2.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return httperr.ValidationFields("invalid_window", map[string]string{
			"start_time": "Start and end times are required.",
		})
	}
	if !w.Start.Before(w.End) {
		return httperr.ValidationFields("invalid_window", map[string]string{
			"end_time": "End time must be after start time.",
		})
	}
	if w.Duration() < MinDuration {
		return httperr.ValidationFields("invalid_window", map[string]string{
			"end_time": "Appointment must be at least 5 minutes long.",
		})
	}
	return nil
}
