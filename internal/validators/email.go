// Package validators holds registration-time input checks that need
// network lookups and so cannot be expressed as binding tags.
package validators

import (
	"context"
	"net"
	"strings"
	"time"
)

const lookupTimeout = 3 * time.Second

// EmailDeliverable reports whether the address points at a domain that
// can receive mail: an MX record, or a host record as the implicit-MX
// fallback. Structural problems fail before any lookup.
func EmailDeliverable(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	if mx, err := net.DefaultResolver.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, domain)
	return err == nil && len(ips) > 0
}
