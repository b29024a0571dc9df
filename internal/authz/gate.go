package authz

import (
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/models"
)

// Principal is the identity supplied by the authentication layer for one
// request. Role is immutable for the request's lifetime.
type Principal struct {
	UserID        uint
	Role          string
	Authenticated bool

	// Fingerprint identifies anonymous callers in audit entries.
	Fingerprint string
}

func Anonymous(fingerprint string) Principal {
	return Principal{Fingerprint: fingerprint}
}

// Authorize is the one authorization code path. Decision rule: public
// operations pass, unauthenticated callers are rejected before any role
// evaluation, admin passes everything, otherwise the principal's role must
// appear in the operation's declared set. Unknown operations fail closed.
func Authorize(p Principal, op Operation) error {
	r, declared := policy[op]
	if declared && r.public {
		return nil
	}

	if !p.Authenticated {
		return httperr.NotAuthenticated()
	}

	if p.Role == models.RoleAdmin {
		return nil
	}

	if !declared {
		return httperr.Denied()
	}

	if r.roles[p.Role] {
		return nil
	}

	return httperr.Denied()
}
