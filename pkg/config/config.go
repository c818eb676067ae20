// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the conductor configuration file
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the top level configuration file structure
type File struct {
	General  GeneralConfig  `yaml:"general"`
	Edge     EdgeConfig     `yaml:"edge"`
	Tenants  TenantsConfig  `yaml:"tenants"`
	Locks    LocksConfig    `yaml:"locks"`
	Defaults DefaultsConfig `yaml:"defaults"`
	API      *APIConfig     `yaml:"api"`
}

type GeneralConfig struct {
	LogLevel      string `yaml:"log_level"`
	LogTimestamps *bool  `yaml:"log_timestamps"`
	DryRun        bool   `yaml:"dry_run"`
}

// EdgeConfig configures the remote control-plane API transport.
type EdgeConfig struct {
	RequestTimeout string `yaml:"request_timeout"`
	LogLevel       string `yaml:"log_level"`
}

// TenantsConfig points at the tenant credential store.
type TenantsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	DefaultTenant   string `yaml:"default_tenant"`
	Watch           bool   `yaml:"watch"`
}

// LocksConfig selects the per-zone serialization backend. With an empty
// redis address only the in-process lock is used.
type LocksConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	LeaseTTL      string `yaml:"lease_ttl"`
}

// DefaultsConfig carries the per-call changelist defaults.
type DefaultsConfig struct {
	Network      string `yaml:"network"`
	AutoActivate *bool  `yaml:"auto_activate"`
	Timeout      string `yaml:"timeout"`
	PollInterval string `yaml:"poll_interval"`
}

// APIConfig configures the read-only operational HTTP server.
type APIConfig struct {
	Enabled    bool                        `yaml:"enabled"`
	Listen     string                      `yaml:"listen"`
	LogLevel   string                      `yaml:"log_level"`
	StaleAfter string                      `yaml:"stale_after"`
	Profiles   map[string]APIClientProfile `yaml:"profiles"`
}

// APIClientProfile authorizes one operational API client.
type APIClientProfile struct {
	Token string `yaml:"token"`
}

// FindConfigFile locates the configuration file. An explicit path must
// exist; otherwise the working directory and /etc/conductor are searched.
func FindConfigFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("[config] configuration file not found: %s", path)
		}
		return path, nil
	}
	candidates := []string{
		"conductor.yml",
		"conductor.yaml",
		filepath.Join("/etc/conductor", "conductor.yml"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("[config] no configuration file found (searched %v)", candidates)
}

// LoadConfigFile reads and parses the configuration file, then applies
// environment overrides.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config] failed to read %s: %w", path, err)
	}
	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("[config] failed to parse %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over file values so
// containerized deployments can adjust without editing the file.
func (f *File) applyEnvOverrides() {
	if v := os.Getenv("CONDUCTOR_LOG_LEVEL"); v != "" {
		f.General.LogLevel = v
	}
	if v := os.Getenv("CONDUCTOR_CREDENTIALS_FILE"); v != "" {
		f.Tenants.CredentialsFile = v
	}
	if v := os.Getenv("CONDUCTOR_DEFAULT_TENANT"); v != "" {
		f.Tenants.DefaultTenant = v
	}
	if v := os.Getenv("CONDUCTOR_REDIS_ADDR"); v != "" {
		f.Locks.RedisAddr = v
	}
}

// ParseDuration parses a duration field, returning fallback for empty or
// malformed values.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
