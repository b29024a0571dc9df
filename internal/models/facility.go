package models

import "time"

type Facility struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string `gorm:"size:200;not null" json:"name"`
	FacilityType string `gorm:"size:30" json:"facility_type"`
	Address      string `gorm:"size:255" json:"address"`
	Phone        string `gorm:"size:20" json:"phone"`

	// IANA timezone the facility operates in; operating hours are
	// evaluated in this zone.
	Timezone string `gorm:"size:64;default:'UTC'" json:"timezone"`

	Is24Hours   bool   `gorm:"default:false" json:"is_24_hours"`
	OpeningTime string `gorm:"size:5" json:"opening_time"` // "08:00"
	ClosingTime string `gorm:"size:5" json:"closing_time"` // "17:00"

	Active bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
