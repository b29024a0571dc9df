package appointment

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/authz"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/models"
)

// List returns appointments matching the filter. Reads of protected
// records are themselves audited.
func (s *Scheduler) List(ctx context.Context, p authz.Principal, filter domain.ListFilter, meta audit.RequestMeta) ([]models.Appointment, error) {
	if err := authz.Authorize(p, authz.OpAppointmentList); err != nil {
		return nil, err
	}

	appointments, err := s.repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.recordAudit(p, audit.ActionRead, "list", map[string]any{
		"summary": "list retrieved",
		"count":   len(appointments),
		"filters": filterNames(filter),
	}, meta)

	return appointments, nil
}

// Upcoming lists scheduled appointments starting after now.
func (s *Scheduler) Upcoming(ctx context.Context, p authz.Principal, filter domain.ListFilter, meta audit.RequestMeta) ([]models.Appointment, error) {
	filter.Status = string(domain.StatusScheduled)
	filter.After = s.now().UTC()
	return s.List(ctx, p, filter, meta)
}

func (s *Scheduler) Get(ctx context.Context, p authz.Principal, id uint, meta audit.RequestMeta) (*models.Appointment, error) {
	if err := authz.Authorize(p, authz.OpAppointmentRead); err != nil {
		return nil, err
	}

	ap, err := s.repo.GetAppointmentDetail(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("appointment_not_found", "Appointment not found.")
	}
	if err != nil {
		return nil, err
	}

	s.recordAudit(p, audit.ActionRead, audit.TargetID(ap.ID), map[string]any{
		"summary": "record retrieved",
	}, meta)

	return ap, nil
}

func filterNames(filter domain.ListFilter) []string {
	var names []string
	if filter.ProviderID != 0 {
		names = append(names, "provider_id")
	}
	if filter.PatientID != 0 {
		names = append(names, "patient_id")
	}
	if filter.FacilityID != 0 {
		names = append(names, "facility_id")
	}
	if filter.Status != "" {
		names = append(names, "status")
	}
	if filter.Type != "" {
		names = append(names, "appointment_type")
	}
	return names
}
