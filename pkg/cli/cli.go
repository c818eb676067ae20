// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package cli parses command line options for conductor
package cli

import "flag"

// Options holds all command line options
type Options struct {
	ConfigFile  string
	Tenant      string
	Zone        string
	Network     string
	ChangesFile string
	RequestID   string
	DryRun      bool
	NoActivate  bool
	LogLevel    string
	ShowVersion bool

	// Command is the first positional argument: submit, status, list or serve.
	Command string
}

// ParseFlags parses command line flags and returns the options
func ParseFlags() *Options {
	opts := &Options{}
	flag.StringVar(&opts.ConfigFile, "config-file", "", "Path to configuration file")
	flag.StringVar(&opts.Tenant, "tenant", "", "Tenant to act as (defaults to the default tenant)")
	flag.StringVar(&opts.Zone, "zone", "", "Target zone")
	flag.StringVar(&opts.Network, "network", "", "Target network (STAGING or PRODUCTION)")
	flag.StringVar(&opts.ChangesFile, "changes", "", "Path to a YAML file of record changes (submit)")
	flag.StringVar(&opts.RequestID, "request-id", "", "Submission request ID (status)")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Log intended changes without calling the remote API")
	flag.BoolVar(&opts.NoActivate, "no-activate", false, "Stage changes without submitting them for activation")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (error, warn, info, verbose, debug, trace)")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	flag.Parse()
	opts.Command = flag.Arg(0)
	return opts
}
