package models

import "time"

// NotificationReceipt records one delivery attempt outcome for an
// appointment event. Append-only; the appointment row itself carries no
// delivery state.
type NotificationReceipt struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID uint `gorm:"index;not null" json:"appointment_id"`

	Event     string    `gorm:"size:20;not null" json:"event"`     // created | updated | cancelled
	Channel   string    `gorm:"size:10;not null" json:"channel"`   // email | sms
	Recipient string    `gorm:"size:20;not null" json:"recipient"` // patient | provider
	SentAt    time.Time `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
}
