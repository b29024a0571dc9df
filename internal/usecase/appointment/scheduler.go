// Package appointment holds the scheduling coordinator: every mutating
// operation runs the same skeleton — authorize, validate, detect
// conflicts, validate the transition, persist, audit, notify — with
// per-resource serialization around the check-then-write section.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/authz"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/eligibility"
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/locks"
	"github.com/opencare/care-scheduler/internal/models"
	"github.com/opencare/care-scheduler/internal/notify"
	"github.com/opencare/care-scheduler/internal/obs"
	"github.com/opencare/care-scheduler/internal/timezone"
)

const (
	// Bounded wait for the resource locks before surfacing busy.
	defaultLockWait = 5 * time.Second

	// Bounded internal retries on transaction contention.
	contentionRetries = 3

	targetType = "appointment"
)

type Scheduler struct {
	repo     domain.Repository
	detector *domain.Detector
	oracle   eligibility.Oracle
	locker   locks.Locker
	audit    *audit.Recorder
	notifier notify.Dispatcher

	lockWait time.Duration
	now      func() time.Time
}

func NewScheduler(
	repo domain.Repository,
	oracle eligibility.Oracle,
	locker locks.Locker,
	recorder *audit.Recorder,
	notifier notify.Dispatcher,
) *Scheduler {
	return &Scheduler{
		repo:     repo,
		detector: domain.NewDetector(repo),
		oracle:   oracle,
		locker:   locker,
		audit:    recorder,
		notifier: notifier,
		lockWait: defaultLockWait,
		now:      time.Now,
	}
}

// lockKeys covers the three resource axes. The locker orders them
// deterministically, so overlapping resource sets cannot deadlock.
func lockKeys(providerID, patientID, facilityID uint) []string {
	return []string{
		fmt.Sprintf("sched:provider:%d", providerID),
		fmt.Sprintf("sched:patient:%d", patientID),
		fmt.Sprintf("sched:facility:%d", facilityID),
	}
}

// appointmentKey serializes read-validate-write sequences on one row
// (transitions, updates). Keys form a strict hierarchy: an appointment
// key is always acquired before resource keys, never after, so holders
// of resource keys never wait on an appointment key and the two levels
// cannot cycle.
func appointmentKey(id uint) string {
	return fmt.Sprintf("sched:appointment:%d", id)
}

func (s *Scheduler) acquire(ctx context.Context, keys []string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, keys)
	if err != nil {
		obs.LockBusy.Inc()
		return nil, err
	}
	return release, nil
}

func (s *Scheduler) checkEligibility(ctx context.Context, providerID, patientID uint) error {
	ok, err := s.oracle.ProviderSchedulable(ctx, providerID)
	if err != nil {
		return err
	}
	if !ok {
		return httperr.ValidationFields("ineligible_resource", map[string]string{
			"provider_id": "Selected provider is not eligible for appointments.",
		})
	}

	ok, err = s.oracle.PatientActive(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return httperr.ValidationFields("ineligible_resource", map[string]string{
			"patient_id": "Patient profile is inactive.",
		})
	}
	return nil
}

// checkFacilityHours validates the window against the facility's
// operating hours, evaluated in the facility's timezone.
func (s *Scheduler) checkFacilityHours(ctx context.Context, facilityID uint, w domain.Window) error {
	facility, err := s.repo.GetFacility(ctx, facilityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ValidationFields("ineligible_resource", map[string]string{
			"facility_id": "Facility not found.",
		})
	}
	if err != nil {
		return err
	}
	if !facility.Active {
		return httperr.ValidationFields("ineligible_resource", map[string]string{
			"facility_id": "Facility is inactive.",
		})
	}
	if facility.Is24Hours {
		return nil
	}
	if facility.OpeningTime == "" || facility.ClosingTime == "" {
		return nil
	}

	loc := timezone.Location(facility.Timezone)
	localStart := w.Start.In(loc)

	parseHM := func(hm string) (time.Time, bool) {
		t, err := time.Parse("15:04", hm)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(
			localStart.Year(), localStart.Month(), localStart.Day(),
			t.Hour(), t.Minute(), 0, 0,
			loc,
		), true
	}

	open, okOpen := parseHM(facility.OpeningTime)
	closeAt, okClose := parseHM(facility.ClosingTime)
	if !okOpen || !okClose {
		return nil
	}

	if w.Start.Before(open) || w.End.After(closeAt) {
		return httperr.ValidationFields("outside_operating_hours", map[string]string{
			"start_time": "Appointment falls outside the facility's operating hours.",
		})
	}
	return nil
}

func (s *Scheduler) getAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	ap, err := s.repo.GetAppointment(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("appointment_not_found", "Appointment not found.")
	}
	if err != nil {
		return nil, err
	}
	return ap, nil
}

func actorOf(p authz.Principal) *uint {
	if !p.Authenticated {
		return nil
	}
	id := p.UserID
	return &id
}

func (s *Scheduler) recordAudit(p authz.Principal, action, targetID string, changes map[string]any, meta audit.RequestMeta) {
	s.audit.Record(audit.Event{
		ActorID:     actorOf(p),
		Fingerprint: p.Fingerprint,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Changes:     changes,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		RequestID:   meta.RequestID,
	})
}

// notifyAndRecord dispatches notifications and persists the receipts.
// Runs on a short background context: the caller's cancellation must not
// cut it off after the appointment already committed, and its failure
// never fails the parent operation.
func (s *Scheduler) notifyAndRecord(event notify.Event, appointmentID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ap, err := s.repo.GetAppointmentDetail(ctx, appointmentID)
	if err != nil {
		log.Warn().Err(err).Uint("appointment_id", appointmentID).Msg("notification skipped, detail load failed")
		return
	}

	receipts := s.notifier.Notify(ctx, event, ap)
	if len(receipts) == 0 {
		return
	}
	if err := s.repo.AppendReceipts(ctx, receipts); err != nil {
		log.Warn().Err(err).Uint("appointment_id", appointmentID).Msg("notification receipts not persisted")
	}
}

// classifyPersistErr maps storage-level failures into the taxonomy:
// database overlap rejections become scheduling conflicts, contention
// becomes retryable busy.
func classifyPersistErr(err error) error {
	if err == nil {
		return nil
	}
	if httperr.IsExclusionConflict(err) {
		obs.SchedulingConflicts.Inc()
		return httperr.Conflict("scheduling_conflict", "Time window is no longer available.", nil)
	}
	if httperr.IsRetryableContention(err) {
		return httperr.Busy()
	}
	return err
}
