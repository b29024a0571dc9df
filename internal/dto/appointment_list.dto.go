package dto

import (
	"time"

	"github.com/opencare/care-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID              uint      `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	AppointmentType string    `json:"appointment_type"`
	PatientName     string    `json:"patient_name"`
	ProviderName    string    `json:"provider_name"`
	FacilityName    string    `json:"facility_name"`
}

func FromAppointment(ap models.Appointment) AppointmentListDTO {
	return AppointmentListDTO{
		ID:              ap.ID,
		StartTime:       ap.StartTime,
		EndTime:         ap.EndTime,
		Status:          ap.Status,
		AppointmentType: ap.AppointmentType,
		PatientName:     ap.Patient.FullName(),
		ProviderName:    ap.Provider.Name,
		FacilityName:    ap.Facility.Name,
	}
}

func FromAppointments(apps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		out = append(out, FromAppointment(ap))
	}
	return out
}
