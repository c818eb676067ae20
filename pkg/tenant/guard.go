// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package tenant

import (
	"fmt"
	"strings"

	"conductor/pkg/log"
)

// DefaultTenant is the tenant used when a caller does not name one.
const DefaultTenant = "default"

// AuthorizationError reports that a tenant is unknown or lacks access to a
// zone. It is always raised before any remote call is made.
type AuthorizationError struct {
	Tenant string
	Zone   string
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("tenant %q not authorized for zone %q: %s", e.Tenant, e.Zone, e.Reason)
	}
	return fmt.Sprintf("tenant %q not authorized: %s", e.Tenant, e.Reason)
}

// Context is the resolved identity for one orchestration call. It is never
// cached across calls; each call may act for a different tenant.
type Context struct {
	Tenant      string
	Credentials Credentials
}

// Guard validates tenant access before any mutation is attempted. The
// credential store is an explicit dependency so the guard can be exercised
// with injected fakes and is safe under concurrent multi-tenant calls.
type Guard struct {
	store         *Store
	defaultTenant string
	logger        *log.ScopedLogger
}

// NewGuard creates a guard over the given credential store. An empty
// defaultTenant falls back to DefaultTenant.
func NewGuard(store *Store, defaultTenant string) *Guard {
	if defaultTenant == "" {
		defaultTenant = DefaultTenant
	}
	return &Guard{
		store:         store,
		defaultTenant: defaultTenant,
		logger:        log.NewScopedLogger("[tenant/guard]", ""),
	}
}

// Authorize resolves the tenant (default when empty) and confirms it may
// act on the zone. No remote state is touched.
func (g *Guard) Authorize(tenantName, zone string) (*Context, error) {
	if tenantName == "" {
		tenantName = g.defaultTenant
	}

	creds, ok := g.store.Get(tenantName)
	if !ok {
		g.logger.Warn("Rejected unknown tenant %q", tenantName)
		return nil, &AuthorizationError{Tenant: tenantName, Reason: "unknown tenant"}
	}

	if !zoneAllowed(creds.Zones, zone) {
		g.logger.Warn("Rejected tenant %q for zone %q", tenantName, zone)
		return nil, &AuthorizationError{Tenant: tenantName, Zone: zone, Reason: "zone not in tenant scope"}
	}

	g.logger.Debug("Authorized tenant %q for zone %q", tenantName, zone)
	return &Context{Tenant: tenantName, Credentials: creds}, nil
}

// Resolve looks up a tenant without checking zone scope. Read-side queries
// that span zones use it; mutations go through Authorize.
func (g *Guard) Resolve(tenantName string) (*Context, error) {
	if tenantName == "" {
		tenantName = g.defaultTenant
	}
	creds, ok := g.store.Get(tenantName)
	if !ok {
		return nil, &AuthorizationError{Tenant: tenantName, Reason: "unknown tenant"}
	}
	return &Context{Tenant: tenantName, Credentials: creds}, nil
}

// zoneAllowed checks a zone against the tenant's scope list. An empty list
// allows everything; "*" allows everything; "*.example.com" allows any
// subzone of example.com as well as example.com itself.
func zoneAllowed(scope []string, zone string) bool {
	if len(scope) == 0 {
		return true
	}
	for _, entry := range scope {
		if entry == "*" || entry == zone {
			return true
		}
		if strings.HasPrefix(entry, "*.") {
			base := strings.TrimPrefix(entry, "*.")
			if zone == base || strings.HasSuffix(zone, "."+base) {
				return true
			}
		}
	}
	return false
}
