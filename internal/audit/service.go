package audit

import (
	"context"
	"strconv"

	"github.com/opencare/care-scheduler/internal/authz"
	"github.com/opencare/care-scheduler/internal/models"
)

// RequestMeta carries the network origin of the request being audited.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// Service is the admin-facing read side of the trail. Authorization runs
// here, not in the handler, so every caller goes through the same gate.
type Service struct {
	store    Store
	recorder *Recorder
}

func NewService(store Store, recorder *Recorder) *Service {
	return &Service{store: store, recorder: recorder}
}

func (s *Service) Query(ctx context.Context, p authz.Principal, filter Filter, meta RequestMeta) ([]models.AuditEntry, error) {
	if err := authz.Authorize(p, authz.OpAuditRead); err != nil {
		return nil, err
	}

	entries, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(Event{
		ActorID:    &p.UserID,
		Action:     ActionRead,
		TargetType: "audit_entry",
		TargetID:   "list",
		Changes: map[string]any{
			"summary": "audit trail queried",
			"count":   len(entries),
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
	})

	return entries, nil
}

func TargetID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
