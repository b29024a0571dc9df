package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func axisColumn(axis domain.Axis) string {
	switch axis {
	case domain.AxisProvider:
		return "provider_id"
	case domain.AxisPatient:
		return "patient_id"
	case domain.AxisFacility:
		return "facility_id"
	}
	return ""
}

func blockingStatuses() []string {
	out := make([]string, 0, len(domain.BlockingStatuses))
	for _, s := range domain.BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}

// --------------------------------------------------
// Conflict source
// --------------------------------------------------

func (r *AppointmentGormRepository) BlockingAppointments(
	ctx context.Context,
	axis domain.Axis,
	resourceID uint,
	w domain.Window,
	excludeID uint,
) ([]models.Appointment, error) {

	column := axisColumn(axis)
	if column == "" {
		return nil, fmt.Errorf("unknown axis %q", axis)
	}

	// Plain read: the scheduler's keyed locks serialize the scan against
	// concurrent writers, and the exclusion constraints reject anything
	// that slips past at commit time.
	q := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			column+" = ? AND status IN ? AND start_time < ? AND end_time > ?",
			resourceID,
			blockingStatuses(),
			w.End,
			w.Start,
		)

	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).First(&ap, id).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) GetAppointmentDetail(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Provider").
		Preload("Facility").
		Preload("Receipts").
		First(&ap, id).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Bounded wait if the exclusion constraints are contended.
		if err := tx.Exec("SET LOCAL lock_timeout = '2s'").Error; err != nil {
			return err
		}
		return tx.Create(ap).Error
	})
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Save(ap).Error
}

func (r *AppointmentGormRepository) ListAppointments(
	ctx context.Context,
	filter domain.ListFilter,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Preload("Patient").
		Preload("Provider").
		Preload("Facility")

	if filter.ProviderID != 0 {
		q = q.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.PatientID != 0 {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.FacilityID != 0 {
		q = q.Where("facility_id = ?", filter.FacilityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("appointment_type = ?", filter.Type)
	}
	if !filter.After.IsZero() {
		q = q.Where("start_time > ?", filter.After)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var apps []models.Appointment
	err := q.
		Order("start_time ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// --------------------------------------------------
// Facility
// --------------------------------------------------

func (r *AppointmentGormRepository) GetFacility(
	ctx context.Context,
	id uint,
) (*models.Facility, error) {

	var facility models.Facility
	if err := r.db.WithContext(ctx).First(&facility, id).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

// --------------------------------------------------
// Notification receipts
// --------------------------------------------------

func (r *AppointmentGormRepository) AppendReceipts(
	ctx context.Context,
	receipts []models.NotificationReceipt,
) error {
	if len(receipts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&receipts).Error
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
