// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package changelist

import (
	"errors"
	"testing"
	"time"

	"conductor/pkg/edge"
)

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := ResolveConfig("example.com", nil)
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Network != edge.NetworkStaging {
		t.Errorf("Network = %s, want STAGING", cfg.Network)
	}
	if !cfg.AutoActivate {
		t.Error("AutoActivate = false, want true by default")
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s, want %s", cfg.Timeout, DefaultTimeout)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %s, want %s", cfg.PollInterval, DefaultPollInterval)
	}
	if cfg.MaxBatchSize != MaxBatchSize {
		t.Errorf("MaxBatchSize = %d, want %d", cfg.MaxBatchSize, MaxBatchSize)
	}
}

func TestResolveConfig(t *testing.T) {
	off := false

	tests := []struct {
		name      string
		zone      string
		overrides *Overrides
		wantErr   bool
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name:    "empty zone rejected",
			zone:    "",
			wantErr: true,
		},
		{
			name:      "invalid network rejected",
			zone:      "example.com",
			overrides: &Overrides{Network: "CANARY"},
			wantErr:   true,
		},
		{
			name:      "production network accepted",
			zone:      "example.com",
			overrides: &Overrides{Network: edge.NetworkProduction},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Network != edge.NetworkProduction {
					t.Errorf("Network = %s, want PRODUCTION", cfg.Network)
				}
			},
		},
		{
			name:      "auto-activate can be disabled",
			zone:      "example.com",
			overrides: &Overrides{AutoActivate: &off},
			check: func(t *testing.T, cfg *Config) {
				if cfg.AutoActivate {
					t.Error("AutoActivate = true, want false")
				}
			},
		},
		{
			name:      "poll interval clamped to floor",
			zone:      "example.com",
			overrides: &Overrides{PollInterval: 50 * time.Millisecond},
			check: func(t *testing.T, cfg *Config) {
				if cfg.PollInterval != MinPollInterval {
					t.Errorf("PollInterval = %s, want clamped to %s", cfg.PollInterval, MinPollInterval)
				}
			},
		},
		{
			name:      "batch ceiling can be lowered",
			zone:      "example.com",
			overrides: &Overrides{MaxBatchSize: 10},
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxBatchSize != 10 {
					t.Errorf("MaxBatchSize = %d, want 10", cfg.MaxBatchSize)
				}
			},
		},
		{
			name:      "batch ceiling cannot be raised",
			zone:      "example.com",
			overrides: &Overrides{MaxBatchSize: 500},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConfig(tt.zone, tt.overrides)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("error = %v, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveConfig() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestOverridesMerge(t *testing.T) {
	off := false
	base := &Overrides{Network: edge.NetworkStaging, Timeout: time.Minute, MaxBatchSize: 50}
	layered := base.Merge(&Overrides{Network: edge.NetworkProduction, AutoActivate: &off})

	if layered.Network != edge.NetworkProduction {
		t.Errorf("Network = %s, want the layered value", layered.Network)
	}
	if layered.AutoActivate == nil || *layered.AutoActivate {
		t.Error("AutoActivate not taken from the layered overrides")
	}
	if layered.Timeout != time.Minute {
		t.Errorf("Timeout = %s, want the base value preserved", layered.Timeout)
	}
	if layered.MaxBatchSize != 50 {
		t.Errorf("MaxBatchSize = %d, want the base value preserved", layered.MaxBatchSize)
	}
	if base.Network != edge.NetworkStaging {
		t.Error("Merge mutated its receiver")
	}

	var nilBase *Overrides
	if got := nilBase.Merge(&Overrides{Timeout: time.Second}); got == nil || got.Timeout != time.Second {
		t.Error("nil receiver should return the other overrides")
	}
}
