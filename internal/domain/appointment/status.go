package appointment

import "github.com/opencare/care-scheduler/internal/httperr"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func InitialStatus() Status {
	return StatusScheduled
}

// CanCancel defines whether an appointment may be cancelled.
func CanCancel(current Status) error {
	if current != StatusScheduled {
		return httperr.InvalidState("Appointment is already " + string(current) + ".")
	}
	return nil
}

// CanComplete defines whether an appointment may be completed.
func CanComplete(current Status) error {
	if current != StatusScheduled {
		return httperr.InvalidState("Appointment is already " + string(current) + ".")
	}
	return nil
}

// CanMarkNoShow defines whether an appointment may be marked as a no-show.
func CanMarkNoShow(current Status) error {
	if current != StatusScheduled {
		return httperr.InvalidState("Appointment is already " + string(current) + ".")
	}
	return nil
}

// CanReschedule defines whether the schedule fields (window, resources)
// may still change.
func CanReschedule(current Status) error {
	if current != StatusScheduled {
		return httperr.InvalidState("Schedule of a " + string(current) + " appointment cannot change.")
	}
	return nil
}
