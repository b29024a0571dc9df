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

type CreateInput struct {
	PatientID  uint
	ProviderID uint
	FacilityID uint

	AppointmentType string
	Reason          string

	StartTime time.Time
	EndTime   time.Time
}

func (s *Scheduler) Create(ctx context.Context, p authz.Principal, in CreateInput, meta audit.RequestMeta) (*models.Appointment, error) {
	if err := authz.Authorize(p, authz.OpAppointmentCreate); err != nil {
		return nil, err
	}

	w := domain.Window{Start: in.StartTime, End: in.EndTime}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, in.ProviderID, in.PatientID); err != nil {
		return nil, err
	}
	if err := s.checkFacilityHours(ctx, in.FacilityID, w); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, lockKeys(in.ProviderID, in.PatientID, in.FacilityID))
	if err != nil {
		return nil, err
	}
	defer release()

	// Caller gone before any write: abort with no side effects.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cand := domain.Candidate{
		ProviderID: in.ProviderID,
		PatientID:  in.PatientID,
		FacilityID: in.FacilityID,
		Window:     w,
	}

	var created *models.Appointment
	err = s.withContentionRetry(func() error {
		conflicts, err := s.detector.FindConflicts(ctx, cand)
		if err != nil {
			return classifyPersistErr(err)
		}
		if len(conflicts) > 0 {
			obs.SchedulingConflicts.Inc()
			s.recordAudit(p, audit.ActionCreate, "", map[string]any{
				"summary": "creation rejected by conflict detection",
			}, meta)
			return httperr.Conflict("scheduling_conflict", "Requested window collides with an existing appointment.", conflicts)
		}

		ap := &models.Appointment{
			PatientID:       in.PatientID,
			ProviderID:      in.ProviderID,
			FacilityID:      in.FacilityID,
			AppointmentType: in.AppointmentType,
			Reason:          in.Reason,
			Status:          string(domain.InitialStatus()),
			StartTime:       in.StartTime,
			EndTime:         in.EndTime,
			CreatedByID:     actorOf(p),
		}
		if err := s.repo.CreateAppointment(ctx, ap); err != nil {
			return classifyPersistErr(err)
		}
		created = ap
		return nil
	})
	if err != nil {
		return nil, err
	}

	obs.AppointmentsCreated.Inc()

	s.recordAudit(p, audit.ActionCreate, audit.TargetID(created.ID), map[string]any{
		"fields": []string{"patient_id", "provider_id", "facility_id", "appointment_type", "reason", "start_time", "end_time"},
	}, meta)

	s.notifyAndRecord(notify.EventCreated, created.ID)

	return created, nil
}

// withContentionRetry retries fn a bounded number of times when the
// storage layer reports retryable contention. Business outcomes pass
// through on the first occurrence.
func (s *Scheduler) withContentionRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < contentionRetries; attempt++ {
		err = fn()
		if !httperr.IsKind(err, httperr.KindBusy) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return err
}
