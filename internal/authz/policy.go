package authz

import "github.com/opencare/care-scheduler/internal/models"

// Operation identifies one guarded action. Every endpoint maps to exactly
// one operation; the table below is the single source of truth for which
// roles it admits.
type Operation string

const (
	OpAppointmentCreate         Operation = "appointment.create"
	OpAppointmentUpdate         Operation = "appointment.update"
	OpAppointmentCancel         Operation = "appointment.cancel"
	OpAppointmentComplete       Operation = "appointment.complete"
	OpAppointmentMarkNoShow     Operation = "appointment.mark_no_show"
	OpAppointmentCheckConflicts Operation = "appointment.check_conflicts"
	OpAppointmentRead           Operation = "appointment.read"
	OpAppointmentList           Operation = "appointment.list"

	OpAuditRead   Operation = "audit.read"
	OpAuditExport Operation = "audit.export"

	OpHealth Operation = "health"
)

type rule struct {
	// public short-circuits role evaluation entirely.
	public bool
	roles  map[string]bool
}

func staff() map[string]bool {
	return map[string]bool{models.RoleAdmin: true, models.RoleProvider: true}
}

func adminOnly() map[string]bool {
	return map[string]bool{models.RoleAdmin: true}
}

// policy is consulted through Authorize and nowhere else. An operation
// missing from this table is treated as admin-only, never as open.
var policy = map[Operation]rule{
	OpAppointmentCreate:         {roles: staff()},
	OpAppointmentUpdate:         {roles: staff()},
	OpAppointmentCancel:         {roles: staff()},
	OpAppointmentComplete:       {roles: staff()},
	OpAppointmentMarkNoShow:     {roles: staff()},
	OpAppointmentCheckConflicts: {roles: staff()},
	OpAppointmentRead:           {roles: staff()},
	OpAppointmentList:           {roles: staff()},

	OpAuditRead:   {roles: adminOnly()},
	OpAuditExport: {roles: adminOnly()},

	OpHealth: {public: true},
}
