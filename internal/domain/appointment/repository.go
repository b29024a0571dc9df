package appointment

import (
	"context"
	"time"

	"github.com/opencare/care-scheduler/internal/models"
)

// ListFilter narrows appointment listings.
type ListFilter struct {
	ProviderID uint
	PatientID  uint
	FacilityID uint
	Status     string
	Type       string
	After      time.Time

	Limit  int
	Offset int
}

type Repository interface {
	ConflictSource

	// -------- Appointment --------
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uint) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, ap *models.Appointment) error
	UpdateAppointment(ctx context.Context, ap *models.Appointment) error
	ListAppointments(ctx context.Context, filter ListFilter) ([]models.Appointment, error)

	// -------- Facility --------
	GetFacility(ctx context.Context, id uint) (*models.Facility, error)

	// -------- Notification receipts --------
	AppendReceipts(ctx context.Context, receipts []models.NotificationReceipt) error
}
