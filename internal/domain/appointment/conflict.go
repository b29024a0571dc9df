package appointment

import (
	"context"
	"time"

	"github.com/opencare/care-scheduler/internal/models"
)

// Axis is one of the three independent calendars an appointment books.
type Axis string

const (
	AxisProvider Axis = "provider"
	AxisPatient  Axis = "patient"
	AxisFacility Axis = "facility"
)

// Axes in the fixed order used everywhere conflicts are evaluated and
// locks are acquired. Changing this order risks deadlock between
// concurrent requests.
var Axes = [3]Axis{AxisProvider, AxisPatient, AxisFacility}

// BlockingStatuses hold a seat on the calendar. no_show blocking is a
// documented policy choice: the slot stays held even after the patient
// fails to appear.
var BlockingStatuses = []Status{StatusScheduled, StatusNoShow}

func blocking(s Status) bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Summary describes one colliding booking. It carries the opposing window
// only, never clinical content.
type Summary struct {
	AppointmentID uint      `json:"appointment_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
}

// Candidate is the booking being tested.
type Candidate struct {
	ProviderID uint
	PatientID  uint
	FacilityID uint
	Window     Window

	// ExcludeID keeps an appointment from conflicting with its own
	// prior state on update. Zero means no exclusion.
	ExcludeID uint
}

func (c Candidate) ResourceID(axis Axis) uint {
	switch axis {
	case AxisProvider:
		return c.ProviderID
	case AxisPatient:
		return c.PatientID
	case AxisFacility:
		return c.FacilityID
	}
	return 0
}

// ConflictSource lists appointments able to block a window on one axis.
// Implementations may pre-filter by window; the detector re-applies the
// overlap predicate either way.
type ConflictSource interface {
	BlockingAppointments(ctx context.Context, axis Axis, resourceID uint, w Window, excludeID uint) ([]models.Appointment, error)
}

type Detector struct {
	source ConflictSource
}

func NewDetector(source ConflictSource) *Detector {
	return &Detector{source: source}
}

// FindConflicts checks the three axes independently and returns one list
// of summaries per colliding axis. An empty map means the window is free.
func (d *Detector) FindConflicts(ctx context.Context, cand Candidate) (map[Axis][]Summary, error) {
	conflicts := make(map[Axis][]Summary)

	for _, axis := range Axes {
		resourceID := cand.ResourceID(axis)
		if resourceID == 0 {
			continue
		}

		existing, err := d.source.BlockingAppointments(ctx, axis, resourceID, cand.Window, cand.ExcludeID)
		if err != nil {
			return nil, err
		}

		var hits []Summary
		for _, ap := range existing {
			if cand.ExcludeID != 0 && ap.ID == cand.ExcludeID {
				continue
			}
			if !blocking(Status(ap.Status)) {
				continue
			}
			other := Window{Start: ap.StartTime, End: ap.EndTime}
			if !cand.Window.Overlaps(other) {
				continue
			}
			hits = append(hits, Summary{
				AppointmentID: ap.ID,
				StartTime:     ap.StartTime,
				EndTime:       ap.EndTime,
				Status:        ap.Status,
			})
		}

		if len(hits) > 0 {
			conflicts[axis] = hits
		}
	}

	if len(conflicts) == 0 {
		return nil, nil
	}
	return conflicts, nil
}
