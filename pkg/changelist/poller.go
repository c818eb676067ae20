// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package changelist

import (
	"context"
	"fmt"

	"conductor/pkg/edge"
)

// submitAndPoll submits the zone's staged change-set and polls the status
// endpoint until it is terminal or the timeout budget runs out. The loop
// sleeps between polls; it never busy-waits. A timed-out change-set is not
// cancelled remotely and may still activate later.
func (o *Orchestrator) submitAndPoll(ctx context.Context, api EdgeAPI, cfg *Config) (*edge.ChangelistSession, error) {
	comment := fmt.Sprintf("conductor change-set for %s (%s)", cfg.Zone, cfg.Network)
	session, err := api.SubmitChangelist(ctx, cfg.Zone, comment)
	if err != nil {
		return nil, &OrchestrationError{Zone: cfg.Zone, Err: err}
	}
	o.logger.Verbose("Submitted change-set for zone %s: requestId %s changeTag %s",
		cfg.Zone, session.RequestID, session.ChangeTag)

	start := o.clock.Now()
	polls := 0
	for {
		polled, err := api.GetSubmission(ctx, cfg.Zone, session.RequestID)
		if err != nil {
			return session, &OrchestrationError{Zone: cfg.Zone, RequestID: session.RequestID, Err: err}
		}
		polls++
		session = polled

		if session.Status.Terminal() {
			o.logger.Debug("Change-set %s reached %s after %d poll(s)", session.RequestID, session.Status, polls)
			return session, nil
		}

		elapsed := o.clock.Now().Sub(start)
		if elapsed >= cfg.Timeout {
			o.logger.Warn("Change-set %s for zone %s still %s after %s; giving up (it may complete remotely)",
				session.RequestID, cfg.Zone, session.Status, elapsed)
			return session, &TimeoutError{Zone: cfg.Zone, RequestID: session.RequestID, Elapsed: elapsed}
		}

		if err := o.clock.Sleep(ctx, cfg.PollInterval); err != nil {
			return session, &OrchestrationError{Zone: cfg.Zone, RequestID: session.RequestID, Err: err}
		}
	}
}
