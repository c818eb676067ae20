// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package changelist orchestrates staged, atomic, asynchronous change-sets
// against the remote control-plane API.
package changelist

import (
	"context"
	"fmt"

	"conductor/pkg/edge"
	"conductor/pkg/locks"
	"conductor/pkg/log"
	"conductor/pkg/tenant"
)

// EdgeAPI is the slice of the edge client the engine drives. Tests inject
// fakes through it.
type EdgeAPI interface {
	StageRecordChange(ctx context.Context, zone string, change edge.RecordChange) error
	SubmitChangelist(ctx context.Context, zone, comment string) (*edge.ChangelistSession, error)
	GetSubmission(ctx context.Context, zone, requestID string) (*edge.ChangelistSession, error)
	ListChangelists(ctx context.Context) ([]edge.ChangelistInfo, error)
}

// ClientFactory builds an edge API client for one tenant's credentials. A
// fresh client per call keeps tenant credentials out of shared state.
type ClientFactory func(creds tenant.Credentials) EdgeAPI

// FailedRecord pairs a rejected change with its cause.
type FailedRecord struct {
	Change edge.RecordChange
	Err    error
}

// BatchOutcome is the result of one orchestration call. It accumulates
// while the batch runs and is finalized when the submitted change-set
// reaches a terminal state.
type BatchOutcome struct {
	Zone              string
	RequestID         string
	Status            edge.SubmissionStatus
	SuccessfulRecords []edge.RecordChange
	FailedRecords     []FailedRecord
	Session           *edge.ChangelistSession
}

// Orchestrator drives the full stage/submit/poll workflow. All
// collaborators are explicit dependencies so the engine is testable with
// fakes and safe under concurrent multi-tenant calls.
type Orchestrator struct {
	guard     *tenant.Guard
	newClient ClientFactory
	locker    locks.Locker
	clock     Clock
	dryRun    bool
	logger    *log.ScopedLogger
}

// OrchestratorOption adjusts orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithClock injects a clock; tests use it to simulate poll timing.
func WithClock(clock Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithDryRun logs intended mutations instead of calling the remote API.
func WithDryRun(dryRun bool) OrchestratorOption {
	return func(o *Orchestrator) { o.dryRun = dryRun }
}

// WithLogLevel sets an orchestrator-scoped log level override.
func WithLogLevel(level string) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = log.NewScopedLogger("[changelist]", level) }
}

// NewOrchestrator wires the engine. A nil locker disables per-zone
// serialization (tests only); production callers pass at least the
// in-process locker.
func NewOrchestrator(guard *tenant.Guard, factory ClientFactory, locker locks.Locker, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		guard:     guard,
		newClient: factory,
		locker:    locker,
		clock:     realClock{},
		logger:    log.NewScopedLogger("[changelist]", ""),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Apply stages the changes in caller order, submits them as one change-set
// and waits for activation. Staging is all-or-nothing: the first failure
// aborts the batch before submission. Validation and authorization run
// before any network call.
func (o *Orchestrator) Apply(ctx context.Context, tenantName, zone string, changes []edge.RecordChange, overrides *Overrides) (*BatchOutcome, error) {
	cfg, err := ResolveConfig(zone, overrides)
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		return nil, newValidationError("no record changes supplied for zone %s", zone)
	}
	if len(changes) > cfg.MaxBatchSize {
		return nil, newValidationError("batch of %d changes exceeds maximum of %d", len(changes), cfg.MaxBatchSize)
	}
	for i, change := range changes {
		if err := change.Validate(); err != nil {
			return nil, newValidationError("change %d invalid: %v", i+1, err)
		}
	}

	tc, err := o.guard.Authorize(tenantName, zone)
	if err != nil {
		return nil, err
	}

	outcome := &BatchOutcome{Zone: zone}

	if o.dryRun {
		for _, change := range changes {
			o.logger.Info("[dry-run] Would stage %s %s/%s in zone %s (ttl %d, rdata %v)",
				change.Op, change.Name, change.Type, zone, change.TTL, change.Rdata)
		}
		outcome.SuccessfulRecords = changes
		return outcome, nil
	}

	// One open change-set per zone: serialize locally before the remote
	// system has to reject anything.
	if o.locker != nil {
		release, err := o.locker.Acquire(ctx, zone)
		if err != nil {
			return nil, &OrchestrationError{Zone: zone, Err: err}
		}
		defer release()
	}

	api := o.newClient(tc.Credentials)

	o.logger.Verbose("Staging %d change(s) for zone %s as tenant %s on %s",
		len(changes), zone, tc.Tenant, cfg.Network)

	// Strictly sequential, caller order. Stop at the first failure so a
	// half-staged set is never submitted.
	for _, change := range changes {
		if err := api.StageRecordChange(ctx, zone, change); err != nil {
			stagingErr := &StagingError{Zone: zone, Change: change, Err: err}
			outcome.FailedRecords = append(outcome.FailedRecords, FailedRecord{Change: change, Err: err})
			o.logger.Error("Staging aborted for zone %s: %v", zone, stagingErr)
			return outcome, stagingErr
		}
		o.logger.Debug("Staged %s %s/%s in zone %s", change.Op, change.Name, change.Type, zone)
	}

	if !cfg.AutoActivate {
		o.logger.Info("Staged %d change(s) for zone %s; auto-activation disabled, change-set left open", len(changes), zone)
		outcome.SuccessfulRecords = changes
		return outcome, nil
	}

	session, err := o.submitAndPoll(ctx, api, cfg)
	if session != nil {
		outcome.RequestID = session.RequestID
		outcome.Status = session.Status
		outcome.Session = session
	}
	if err != nil {
		return outcome, err
	}

	if session.Status == edge.StatusFailed {
		return outcome, &OrchestrationError{
			Zone:      zone,
			RequestID: session.RequestID,
			Err:       fmt.Errorf("change-set failed validation: %v", session.FailingValidations),
		}
	}

	outcome.SuccessfulRecords = changes
	o.logger.Info("Change-set %s for zone %s is %s (%d record(s))",
		session.RequestID, zone, session.Status, len(changes))
	return outcome, nil
}

// AddRecord stages and activates one record addition. Convenience wrapper
// over Apply with a one-element batch; defaults are identical.
func (o *Orchestrator) AddRecord(ctx context.Context, tenantName, zone, name, recordType string, rdata []string, ttl int, overrides *Overrides) (*BatchOutcome, error) {
	return o.Apply(ctx, tenantName, zone, []edge.RecordChange{{
		Name: name, Type: recordType, Op: edge.OperationAdd, TTL: ttl, Rdata: rdata,
	}}, overrides)
}

// UpdateRecord stages and activates one record replacement.
func (o *Orchestrator) UpdateRecord(ctx context.Context, tenantName, zone, name, recordType string, rdata []string, ttl int, overrides *Overrides) (*BatchOutcome, error) {
	return o.Apply(ctx, tenantName, zone, []edge.RecordChange{{
		Name: name, Type: recordType, Op: edge.OperationUpdate, TTL: ttl, Rdata: rdata,
	}}, overrides)
}

// DeleteRecord stages and activates one record removal.
func (o *Orchestrator) DeleteRecord(ctx context.Context, tenantName, zone, name, recordType string, overrides *Overrides) (*BatchOutcome, error) {
	return o.Apply(ctx, tenantName, zone, []edge.RecordChange{{
		Name: name, Type: recordType, Op: edge.OperationDelete,
	}}, overrides)
}
