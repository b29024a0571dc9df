package appointment

import (
	"context"
	"time"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/authz"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/models"
	"github.com/opencare/care-scheduler/internal/notify"
	"github.com/opencare/care-scheduler/internal/obs"
)

// transition runs the shared skeleton for the single-action endpoints.
// The state machine validates the move; a rejected transition is an
// error, never a silent no-op.
func (s *Scheduler) transition(
	ctx context.Context,
	p authz.Principal,
	op authz.Operation,
	id uint,
	auditAction string,
	summary string,
	apply func(*models.Appointment, time.Time) error,
	event notify.Event,
	meta audit.RequestMeta,
) (*models.Appointment, error) {
	if err := authz.Authorize(p, op); err != nil {
		return nil, err
	}

	// Hold the row's key across read-validate-write: two racing
	// transitions must not both observe 'scheduled'.
	release, err := s.acquire(ctx, []string{appointmentKey(id)})
	if err != nil {
		return nil, err
	}
	defer release()

	ap, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(ap, s.now().UTC()); err != nil {
		obs.TransitionRejections.Inc()
		return nil, err
	}

	if err := classifyPersistErr(s.repo.UpdateAppointment(ctx, ap)); err != nil {
		return nil, err
	}

	s.recordAudit(p, auditAction, audit.TargetID(ap.ID), map[string]any{
		"summary": summary,
		"fields":  []string{"status"},
	}, meta)

	s.notifyAndRecord(event, ap.ID)

	return ap, nil
}

func (s *Scheduler) Cancel(ctx context.Context, p authz.Principal, id uint, meta audit.RequestMeta) (*models.Appointment, error) {
	return s.transition(ctx, p, authz.OpAppointmentCancel, id,
		audit.ActionUpdate, "appointment cancelled",
		domain.Cancel, notify.EventCancelled, meta)
}

func (s *Scheduler) Complete(ctx context.Context, p authz.Principal, id uint, meta audit.RequestMeta) (*models.Appointment, error) {
	return s.transition(ctx, p, authz.OpAppointmentComplete, id,
		audit.ActionUpdate, "appointment completed",
		domain.Complete, notify.EventUpdated, meta)
}

func (s *Scheduler) MarkNoShow(ctx context.Context, p authz.Principal, id uint, meta audit.RequestMeta) (*models.Appointment, error) {
	return s.transition(ctx, p, authz.OpAppointmentMarkNoShow, id,
		audit.ActionUpdate, "appointment marked no-show",
		domain.MarkNoShow, notify.EventUpdated, meta)
}

// Delete performs the cancel transition and records a delete action.
// The core never erases rows; physical deletion, if any, belongs to an
// external retention job after the transition is on record.
func (s *Scheduler) Delete(ctx context.Context, p authz.Principal, id uint, meta audit.RequestMeta) (*models.Appointment, error) {
	return s.transition(ctx, p, authz.OpAppointmentCancel, id,
		audit.ActionDelete, "appointment deleted (cancelled)",
		domain.Cancel, notify.EventCancelled, meta)
}
