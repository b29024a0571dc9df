package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PatientID uint    `gorm:"index:idx_appointments_patient_start,priority:1" json:"patient_id"`
	Patient   Patient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"patient"`

	ProviderID uint `gorm:"index:idx_appointments_provider_start,priority:1" json:"provider_id"`
	Provider   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"provider"`

	FacilityID uint     `gorm:"index:idx_appointments_facility_start,priority:1" json:"facility_id"`
	Facility   Facility `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"facility"`

	AppointmentType string `gorm:"size:50" json:"appointment_type"`
	Reason          string `gorm:"size:500" json:"reason"`

	Status string `gorm:"size:20;default:'scheduled'" json:"status"`

	StartTime time.Time `gorm:"index:idx_appointments_provider_start,priority:2;index:idx_appointments_patient_start,priority:2;index:idx_appointments_facility_start,priority:2" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	NoShowAt    *time.Time `json:"no_show_at"`

	CreatedByID *uint `json:"created_by_id"`

	// Delivery receipts live in their own append-only table; loaded only
	// for detail views.
	Receipts []NotificationReceipt `gorm:"foreignKey:AppointmentID" json:"receipts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
