package audit

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/opencare/care-scheduler/internal/models"
)

// Actions recorded against protected objects.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Sink is a durable append-only store. No update or delete capability is
// exposed anywhere in this package.
type Sink interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// Store adds admin-gated read access on top of the sink.
type Store interface {
	Sink
	Query(ctx context.Context, filter Filter) ([]models.AuditEntry, error)
}

type Filter struct {
	TargetType string
	TargetID   string
	Action     string
	From       time.Time
	To         time.Time

	Limit  int
	Offset int
}

// Event is what callers hand to the recorder. Changes go through the
// whitelist before serialization, so record content never leaks into the
// trail.
type Event struct {
	ActorID     *uint
	Fingerprint string

	Action     string
	TargetType string
	TargetID   string

	Changes map[string]any

	IPAddress string
	UserAgent string
	RequestID string
}

// Metadata keys permitted in an audit entry. Anything else is discarded.
var allowedChangeKeys = map[string]bool{
	"fields":   true,
	"summary":  true,
	"count":    true,
	"filters":  true,
	"metadata": true,
}

// SanitizeChanges keeps only whitelisted keys with simple values:
// fields/filters become sorted name lists, summary/metadata strings,
// count an integer.
func SanitizeChanges(changes map[string]any) map[string]any {
	if len(changes) == 0 {
		return nil
	}
	sanitized := make(map[string]any)
	for key, value := range changes {
		if !allowedChangeKeys[key] {
			continue
		}
		switch key {
		case "fields", "filters":
			sanitized[key] = toSortedNames(value)
		case "summary", "metadata":
			if s, ok := value.(string); ok {
				sanitized[key] = s
			}
		case "count":
			switch n := value.(type) {
			case int:
				sanitized[key] = n
			case int64:
				sanitized[key] = int(n)
			case float64:
				sanitized[key] = int(n)
			default:
				sanitized[key] = 0
			}
		}
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}

func toSortedNames(value any) []string {
	var names []string
	switch v := value.(type) {
	case []string:
		names = append(names, v...)
	case map[string]string:
		for k := range v {
			names = append(names, k)
		}
	case map[string]any:
		for k := range v {
			names = append(names, k)
		}
	}
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (ev Event) entry(now time.Time) models.AuditEntry {
	var metadata string
	if sanitized := SanitizeChanges(ev.Changes); sanitized != nil {
		if b, err := json.Marshal(sanitized); err == nil {
			metadata = string(b)
		}
	}

	userAgent := ev.UserAgent
	if len(userAgent) > 512 {
		userAgent = userAgent[:512]
	}

	return models.AuditEntry{
		ActorID:          ev.ActorID,
		ActorFingerprint: ev.Fingerprint,
		Action:           ev.Action,
		TargetType:       ev.TargetType,
		TargetID:         ev.TargetID,
		Metadata:         metadata,
		IPAddress:        ev.IPAddress,
		UserAgent:        userAgent,
		RequestID:        ev.RequestID,
		RecordedAt:       now.UTC().Truncate(time.Millisecond),
	}
}
