// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package changelist

import (
	"context"
	"time"

	"conductor/pkg/edge"
	"conductor/pkg/log"
	"conductor/pkg/tenant"
)

// DefaultStaleAfter is the processing window beyond which an open
// change-set counts as stale.
const DefaultStaleAfter = time.Hour

// Monitor is the read side over change-sets: status lookups for known
// submissions and discovery of open change-sets left behind by timed-out
// or abandoned clients. It never cancels or resubmits anything.
type Monitor struct {
	guard      *tenant.Guard
	newClient  ClientFactory
	staleAfter time.Duration
	clock      Clock
	logger     *log.ScopedLogger
}

// NewMonitor creates a monitor. A non-positive staleAfter falls back to
// DefaultStaleAfter.
func NewMonitor(guard *tenant.Guard, factory ClientFactory, staleAfter time.Duration) *Monitor {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Monitor{
		guard:      guard,
		newClient:  factory,
		staleAfter: staleAfter,
		clock:      realClock{},
		logger:     log.NewScopedLogger("[changelist/monitor]", ""),
	}
}

// Status returns the current state of a submitted change-set. Pure read.
func (m *Monitor) Status(ctx context.Context, tenantName, zone, requestID string) (*edge.ChangelistSession, error) {
	if zone == "" {
		return nil, newValidationError("zone is required")
	}
	if requestID == "" {
		return nil, newValidationError("request ID is required")
	}
	tc, err := m.guard.Authorize(tenantName, zone)
	if err != nil {
		return nil, err
	}

	session, err := m.newClient(tc.Credentials).GetSubmission(ctx, zone, requestID)
	if err != nil {
		return nil, &OrchestrationError{Zone: zone, RequestID: requestID, Err: err}
	}
	return session, nil
}

// ListOpen returns every open change-set visible to the tenant. Change-sets
// older than the stale window are flagged even when the remote side has not
// marked them yet.
func (m *Monitor) ListOpen(ctx context.Context, tenantName string) ([]edge.ChangelistInfo, error) {
	tc, err := m.guard.Resolve(tenantName)
	if err != nil {
		return nil, err
	}

	lists, err := m.newClient(tc.Credentials).ListChangelists(ctx)
	if err != nil {
		return nil, &OrchestrationError{Zone: "*", Err: err}
	}

	now := m.clock.Now()
	stale := 0
	for i := range lists {
		if !lists[i].Stale && lists[i].LastModifiedDate != "" {
			if modified, err := time.Parse(time.RFC3339, lists[i].LastModifiedDate); err == nil {
				if now.Sub(modified) > m.staleAfter {
					lists[i].Stale = true
				}
			}
		}
		if lists[i].Stale {
			stale++
		}
	}
	m.logger.Verbose("Found %d open change-set(s), %d stale", len(lists), stale)
	return lists, nil
}
