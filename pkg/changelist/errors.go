// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package changelist

import (
	"fmt"
	"time"

	"conductor/pkg/edge"
)

// ValidationError reports malformed input, detected before any network
// call. It is always safe to retry after correcting the input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StagingError reports that a remote mutation call failed while staging.
// The batch was aborted and nothing was submitted; changes staged before
// the failure remain in the remote working set.
type StagingError struct {
	Zone   string
	Change edge.RecordChange
	Err    error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging failed for %s/%s (%s) in zone %s, batch aborted before submission: %v",
		e.Change.Name, e.Change.Type, e.Change.Op, e.Zone, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// OrchestrationError reports a submission or polling failure at the
// transport/API level. The remote change-set state is unknown; consult the
// inventory monitor before retrying, since a blind retry can double-submit.
type OrchestrationError struct {
	Zone      string
	RequestID string
	Err       error
}

func (e *OrchestrationError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("DNS changelist operation failed for zone %s (requestId %s): %v", e.Zone, e.RequestID, e.Err)
	}
	return fmt.Sprintf("DNS changelist operation failed for zone %s: %v", e.Zone, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// TimeoutError reports that polling exhausted the configured budget without
// observing a terminal status. The remote change-set is not cancelled and
// may still complete; its outcome is discoverable through the monitor.
type TimeoutError struct {
	Zone      string
	RequestID string
	Elapsed   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("changelist submission for zone %s (requestId %s) timed out after %s; the change-set may still activate remotely",
		e.Zone, e.RequestID, e.Elapsed)
}
