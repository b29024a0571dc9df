package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/models"
)

// GormStore persists audit entries. Intentionally has no Update or Delete:
// the table is write-once as far as the application is concerned.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// Query returns entries in commit order (ascending id), which preserves
// per-target ordering.
func (s *GormStore) Query(ctx context.Context, filter Filter) ([]models.AuditEntry, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditEntry{})

	if filter.TargetType != "" {
		q = q.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.From.IsZero() {
		q = q.Where("recorded_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("recorded_at <= ?", filter.To)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.AuditEntry
	err := q.
		Order("id ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

var _ Store = (*GormStore)(nil)
