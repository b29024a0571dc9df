package appointment

import (
	"context"
	"time"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/authz"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/models"
	"github.com/opencare/care-scheduler/internal/notify"
	"github.com/opencare/care-scheduler/internal/obs"
)

// UpdateInput carries partial updates; nil fields are untouched.
type UpdateInput struct {
	PatientID  *uint
	ProviderID *uint
	FacilityID *uint

	AppointmentType *string
	Reason          *string

	StartTime *time.Time
	EndTime   *time.Time
}

func (in UpdateInput) touchesSchedule() bool {
	return in.PatientID != nil || in.ProviderID != nil || in.FacilityID != nil ||
		in.StartTime != nil || in.EndTime != nil
}

func (in UpdateInput) changedFields() []string {
	var fields []string
	if in.PatientID != nil {
		fields = append(fields, "patient_id")
	}
	if in.ProviderID != nil {
		fields = append(fields, "provider_id")
	}
	if in.FacilityID != nil {
		fields = append(fields, "facility_id")
	}
	if in.AppointmentType != nil {
		fields = append(fields, "appointment_type")
	}
	if in.Reason != nil {
		fields = append(fields, "reason")
	}
	if in.StartTime != nil {
		fields = append(fields, "start_time")
	}
	if in.EndTime != nil {
		fields = append(fields, "end_time")
	}
	return fields
}

func (s *Scheduler) Update(ctx context.Context, p authz.Principal, id uint, in UpdateInput, meta audit.RequestMeta) (*models.Appointment, error) {
	if err := authz.Authorize(p, authz.OpAppointmentUpdate); err != nil {
		return nil, err
	}

	// The row's key is held for the whole read-modify-write so a
	// concurrent transition cannot slip between the status check and the
	// save. Acquired before any resource keys, per the lock hierarchy.
	releaseRow, err := s.acquire(ctx, []string{appointmentKey(id)})
	if err != nil {
		return nil, err
	}
	defer releaseRow()

	ap, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.touchesSchedule() {
		if err := domain.CanReschedule(domain.Status(ap.Status)); err != nil {
			obs.TransitionRejections.Inc()
			return nil, err
		}
	}

	if in.PatientID != nil {
		ap.PatientID = *in.PatientID
	}
	if in.ProviderID != nil {
		ap.ProviderID = *in.ProviderID
	}
	if in.FacilityID != nil {
		ap.FacilityID = *in.FacilityID
	}
	if in.AppointmentType != nil {
		ap.AppointmentType = *in.AppointmentType
	}
	if in.Reason != nil {
		ap.Reason = *in.Reason
	}
	if in.StartTime != nil {
		ap.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		ap.EndTime = *in.EndTime
	}

	w := domain.Window{Start: ap.StartTime, End: ap.EndTime}

	if in.touchesSchedule() {
		if err := w.Validate(); err != nil {
			return nil, err
		}
		if err := s.checkEligibility(ctx, ap.ProviderID, ap.PatientID); err != nil {
			return nil, err
		}
		if err := s.checkFacilityHours(ctx, ap.FacilityID, w); err != nil {
			return nil, err
		}

		release, err := s.acquire(ctx, lockKeys(ap.ProviderID, ap.PatientID, ap.FacilityID))
		if err != nil {
			return nil, err
		}
		defer release()

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// The appointment must not conflict with its own prior window.
		cand := domain.Candidate{
			ProviderID: ap.ProviderID,
			PatientID:  ap.PatientID,
			FacilityID: ap.FacilityID,
			Window:     w,
			ExcludeID:  ap.ID,
		}

		err = s.withContentionRetry(func() error {
			conflicts, err := s.detector.FindConflicts(ctx, cand)
			if err != nil {
				return classifyPersistErr(err)
			}
			if len(conflicts) > 0 {
				obs.SchedulingConflicts.Inc()
				s.recordAudit(p, audit.ActionUpdate, audit.TargetID(ap.ID), map[string]any{
					"summary": "update rejected by conflict detection",
				}, meta)
				return httperr.Conflict("scheduling_conflict", "Requested window collides with an existing appointment.", conflicts)
			}
			return classifyPersistErr(s.repo.UpdateAppointment(ctx, ap))
		})
		if err != nil {
			return nil, err
		}
	} else {
		if err := classifyPersistErr(s.repo.UpdateAppointment(ctx, ap)); err != nil {
			return nil, err
		}
	}

	s.recordAudit(p, audit.ActionUpdate, audit.TargetID(ap.ID), map[string]any{
		"fields": in.changedFields(),
	}, meta)

	s.notifyAndRecord(notify.EventUpdated, ap.ID)

	return ap, nil
}
