package models

import "time"

// Roles usable for access control decisions. A principal carries exactly
// one of these at evaluation time.
const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RolePatient  = "patient"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`

	Role     string `gorm:"size:20;default:'provider'" json:"role"`
	UserType string `gorm:"size:30;default:'community_worker'" json:"user_type"`

	LicenseNumber  string `gorm:"size:50" json:"license_number"`
	Specialization string `gorm:"size:100" json:"specialization"`

	Active bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
