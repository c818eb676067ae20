// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package changelist

import (
	"time"

	"conductor/pkg/edge"
)

// Default policy for one orchestration call. MaxBatchSize is a fixed
// ceiling: callers may lower it (useful in tests) but never raise it.
const (
	DefaultTimeout      = 5 * time.Minute
	DefaultPollInterval = 5 * time.Second
	MinPollInterval     = time.Second
	MaxBatchSize        = 100
)

// DefaultNetwork is where changes land when the caller does not choose.
const DefaultNetwork = edge.NetworkStaging

// Config is the fully resolved per-call configuration.
type Config struct {
	Zone         string
	Network      edge.Network
	AutoActivate bool
	Timeout      time.Duration
	PollInterval time.Duration
	MaxBatchSize int
}

// Overrides is the caller-supplied partial configuration. Zero values mean
// "use the default"; AutoActivate is a pointer so false is expressible.
type Overrides struct {
	Network      edge.Network
	AutoActivate *bool
	Timeout      time.Duration
	PollInterval time.Duration
	MaxBatchSize int
}

// Merge layers the receiver under other: values set in other win. Both
// inputs are left untouched.
func (o *Overrides) Merge(other *Overrides) *Overrides {
	if o == nil {
		return other
	}
	merged := *o
	if other == nil {
		return &merged
	}
	if other.Network != "" {
		merged.Network = other.Network
	}
	if other.AutoActivate != nil {
		merged.AutoActivate = other.AutoActivate
	}
	if other.Timeout > 0 {
		merged.Timeout = other.Timeout
	}
	if other.PollInterval > 0 {
		merged.PollInterval = other.PollInterval
	}
	if other.MaxBatchSize > 0 {
		merged.MaxBatchSize = other.MaxBatchSize
	}
	return &merged
}

// ResolveConfig merges caller overrides with defaults and validates the
// result. It fails fast with a ValidationError so default-policy decisions
// stay out of the rest of the engine.
func ResolveConfig(zone string, o *Overrides) (*Config, error) {
	if zone == "" {
		return nil, newValidationError("zone is required")
	}

	cfg := &Config{
		Zone:         zone,
		Network:      DefaultNetwork,
		AutoActivate: true,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		MaxBatchSize: MaxBatchSize,
	}
	if o == nil {
		return cfg, nil
	}

	if o.Network != "" {
		if !edge.ValidNetwork(o.Network) {
			return nil, newValidationError("network %q is not valid (want %s or %s)",
				o.Network, edge.NetworkStaging, edge.NetworkProduction)
		}
		cfg.Network = o.Network
	}
	if o.AutoActivate != nil {
		cfg.AutoActivate = *o.AutoActivate
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.PollInterval > 0 {
		cfg.PollInterval = o.PollInterval
	}
	if cfg.PollInterval < MinPollInterval {
		cfg.PollInterval = MinPollInterval
	}
	if o.MaxBatchSize > 0 {
		if o.MaxBatchSize > MaxBatchSize {
			return nil, newValidationError("max batch size %d exceeds maximum of %d", o.MaxBatchSize, MaxBatchSize)
		}
		cfg.MaxBatchSize = o.MaxBatchSize
	}
	return cfg, nil
}
