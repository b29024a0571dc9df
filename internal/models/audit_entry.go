package models

import "time"

// AuditEntry is write-once: rows are inserted by the audit recorder and
// never updated or deleted by the application.
type AuditEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ActorID *uint `json:"actor_id"`
	// Fingerprint used when no authenticated principal exists.
	ActorFingerprint string `gorm:"size:100" json:"actor_fingerprint,omitempty"`

	Action string `gorm:"size:20;not null" json:"action"`

	TargetType string `gorm:"size:50;not null;index:idx_audit_target" json:"target_type"`
	TargetID   string `gorm:"size:100;index:idx_audit_target,priority:2" json:"target_id"`

	Metadata string `gorm:"type:text" json:"metadata"`

	IPAddress string `gorm:"size:45" json:"ip_address"`
	UserAgent string `gorm:"size:512" json:"user_agent"`
	RequestID string `gorm:"size:36" json:"request_id"`

	// UTC, millisecond precision.
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`
}
