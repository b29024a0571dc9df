package appointment

import (
	"context"

	"github.com/opencare/care-scheduler/internal/authz"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
)

// CheckConflicts runs the detector against an existing appointment's own
// window, excluding itself. Read-only: no lock, no mutation.
func (s *Scheduler) CheckConflicts(ctx context.Context, p authz.Principal, id uint) (bool, map[domain.Axis][]domain.Summary, error) {
	if err := authz.Authorize(p, authz.OpAppointmentCheckConflicts); err != nil {
		return false, nil, err
	}

	ap, err := s.getAppointment(ctx, id)
	if err != nil {
		return false, nil, err
	}

	cand := domain.Candidate{
		ProviderID: ap.ProviderID,
		PatientID:  ap.PatientID,
		FacilityID: ap.FacilityID,
		Window:     domain.Window{Start: ap.StartTime, End: ap.EndTime},
		ExcludeID:  ap.ID,
	}

	conflicts, err := s.detector.FindConflicts(ctx, cand)
	if err != nil {
		return false, nil, err
	}

	return len(conflicts) > 0, conflicts, nil
}
