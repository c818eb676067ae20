// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"conductor/pkg/api"
	"conductor/pkg/changelist"
	"conductor/pkg/cli"
	"conductor/pkg/config"
	"conductor/pkg/edge"
	"conductor/pkg/locks"
	"conductor/pkg/log"
	"conductor/pkg/tenant"
	"conductor/pkg/version"

	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// changesFile is the YAML batch format accepted by the submit command.
type changesFile struct {
	Zone    string              `yaml:"zone"`
	Changes []edge.RecordChange `yaml:"changes"`
}

func isRunningUnderSystemd() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("JOURNAL_STREAM") != ""
}

func main() {
	opts := cli.ParseFlags()

	// Initialize logger early to avoid singleton lock-in at wrong level
	log.Initialize("info", true)

	if opts.ShowVersion {
		fmt.Println(version.String(true))
		os.Exit(0)
	}

	if opts.Command == "" {
		fmt.Fprintln(os.Stderr, "Usage: conductor [flags] <submit|status|list|serve>")
		fmt.Fprintln(os.Stderr, "Run 'conductor -help' for flag documentation.")
		os.Exit(2)
	}

	configPath, err := config.FindConfigFile(opts.ConfigFile)
	if err != nil {
		fmt.Printf("[config] Failed to find configuration file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Printf("[config] Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flag wins over env wins over file.
	if opts.LogLevel != "" {
		cfg.General.LogLevel = opts.LogLevel
	} else if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}

	logTimestamps := !isRunningUnderSystemd()
	if cfg.General.LogTimestamps != nil {
		logTimestamps = *cfg.General.LogTimestamps
	}
	log.Initialize(cfg.General.LogLevel, logTimestamps)

	dryRun := opts.DryRun || cfg.General.DryRun || strings.EqualFold(os.Getenv("DRY_RUN"), "true")

	if opts.Command == "serve" {
		fmt.Printf("Starting Conductor version: %s\n", version.String(false))
		fmt.Printf("© 2025 Nfrastack https://nfrastack.com - BSD-3-Clause License\n")
		fmt.Println()
	}

	log.Info("[config] Using config file: %s", configPath)
	log.Debug("[config] Logger configured with level: %s, timestamps: %t", cfg.General.LogLevel, logTimestamps)

	credentialsFile := cfg.Tenants.CredentialsFile
	if credentialsFile == "" {
		credentialsFile = "tenants.yml"
	}
	store, err := tenant.LoadStore(credentialsFile)
	if err != nil {
		log.Fatal("[tenant] Failed to load credentials: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tenants.Watch {
		if err := store.Watch(ctx.Done()); err != nil {
			log.Fatal("[tenant] Failed to watch credential file: %v", err)
		}
	}

	guard := tenant.NewGuard(store, cfg.Tenants.DefaultTenant)
	locker := buildLocker(&cfg.Locks)
	factory := buildClientFactory(&cfg.Edge)

	orchestrator := changelist.NewOrchestrator(guard, factory, locker, changelist.WithDryRun(dryRun))
	staleAfter := time.Duration(0)
	if cfg.API != nil {
		staleAfter = config.ParseDuration(cfg.API.StaleAfter, 0)
	}
	monitor := changelist.NewMonitor(guard, factory, staleAfter)

	switch opts.Command {
	case "submit":
		err = runSubmit(ctx, orchestrator, cfg, opts)
	case "status":
		err = runStatus(ctx, monitor, opts)
	case "list":
		err = runList(ctx, monitor, opts)
	case "serve":
		err = runServe(ctx, cfg, orchestrator, monitor)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s (want submit, status, list or serve)\n", opts.Command)
		os.Exit(2)
	}
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// buildLocker assembles per-zone serialization: always the in-process lock,
// plus a redis lease when an address is configured so concurrent conductor
// instances do not fight over a zone.
func buildLocker(lockCfg *config.LocksConfig) locks.Locker {
	memory := locks.NewMemory()
	if lockCfg.RedisAddr == "" {
		return memory
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     lockCfg.RedisAddr,
		Password: lockCfg.RedisPassword,
		DB:       lockCfg.RedisDB,
	})
	ttl := config.ParseDuration(lockCfg.LeaseTTL, 0)
	log.Verbose("[locks] Using redis zone leases via %s", lockCfg.RedisAddr)
	return locks.NewChain(memory, locks.NewRedisLease(rdb, ttl))
}

func buildClientFactory(edgeCfg *config.EdgeConfig) changelist.ClientFactory {
	requestTimeout := config.ParseDuration(edgeCfg.RequestTimeout, 30*time.Second)
	logLevel := edgeCfg.LogLevel
	return func(creds tenant.Credentials) changelist.EdgeAPI {
		return edge.NewClient(creds, edge.WithTimeout(requestTimeout), edge.WithLogLevel(logLevel))
	}
}

// defaultOverrides converts the configured defaults into per-call overrides.
func defaultOverrides(cfg *config.File) *changelist.Overrides {
	return &changelist.Overrides{
		Network:      edge.Network(cfg.Defaults.Network),
		AutoActivate: cfg.Defaults.AutoActivate,
		Timeout:      config.ParseDuration(cfg.Defaults.Timeout, 0),
		PollInterval: config.ParseDuration(cfg.Defaults.PollInterval, 0),
	}
}

func runSubmit(ctx context.Context, orchestrator *changelist.Orchestrator, cfg *config.File, opts *cli.Options) error {
	if opts.ChangesFile == "" {
		return fmt.Errorf("submit requires -changes pointing at a YAML change file")
	}
	data, err := os.ReadFile(opts.ChangesFile)
	if err != nil {
		return fmt.Errorf("failed to read change file %s: %w", opts.ChangesFile, err)
	}
	var batch changesFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to parse change file %s: %w", opts.ChangesFile, err)
	}

	zone := opts.Zone
	if zone == "" {
		zone = batch.Zone
	}

	overrides := defaultOverrides(cfg)
	flagOverrides := &changelist.Overrides{Network: edge.Network(opts.Network)}
	if opts.NoActivate {
		off := false
		flagOverrides.AutoActivate = &off
	}
	overrides = overrides.Merge(flagOverrides)

	log.Info("[submit] Submitting %d change(s) for zone %s", len(batch.Changes), zone)
	outcome, err := orchestrator.Apply(ctx, opts.Tenant, zone, batch.Changes, overrides)
	if outcome != nil {
		printOutcome(outcome)
	}
	return err
}

func printOutcome(outcome *changelist.BatchOutcome) {
	if outcome.RequestID != "" {
		fmt.Printf("Zone:      %s\n", outcome.Zone)
		fmt.Printf("RequestID: %s\n", outcome.RequestID)
		fmt.Printf("Status:    %s\n", outcome.Status)
	} else {
		fmt.Printf("Zone:      %s\n", outcome.Zone)
		fmt.Printf("Status:    staged (not submitted)\n")
	}
	fmt.Printf("Records:   %d applied, %d failed\n", len(outcome.SuccessfulRecords), len(outcome.FailedRecords))
	for _, failed := range outcome.FailedRecords {
		fmt.Printf("  failed: %s %s/%s: %v\n", failed.Change.Op, failed.Change.Name, failed.Change.Type, failed.Err)
	}
}

func runStatus(ctx context.Context, monitor *changelist.Monitor, opts *cli.Options) error {
	session, err := monitor.Status(ctx, opts.Tenant, opts.Zone, opts.RequestID)
	if err != nil {
		return err
	}
	fmt.Printf("Zone:      %s\n", session.Zone)
	fmt.Printf("RequestID: %s\n", session.RequestID)
	fmt.Printf("Status:    %s\n", session.Status)
	if session.SubmittedDate != "" {
		fmt.Printf("Submitted: %s\n", session.SubmittedDate)
	}
	if session.CompletedDate != "" {
		fmt.Printf("Completed: %s\n", session.CompletedDate)
	}
	for _, v := range session.FailingValidations {
		fmt.Printf("  failing validation: %s\n", v)
	}
	return nil
}

func runList(ctx context.Context, monitor *changelist.Monitor, opts *cli.Options) error {
	lists, err := monitor.ListOpen(ctx, opts.Tenant)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		fmt.Println("No open change-sets.")
		return nil
	}
	for _, info := range lists {
		marker := ""
		if info.Stale {
			marker = " (stale)"
		}
		fmt.Printf("%s  changeTag=%s  lastModified=%s%s\n", info.Zone, info.ChangeTag, info.LastModifiedDate, marker)
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.File, orchestrator *changelist.Orchestrator, monitor *changelist.Monitor) error {
	if cfg.API == nil || !cfg.API.Enabled {
		return fmt.Errorf("serve requires an enabled api section in the configuration")
	}
	server, err := api.NewServer(cfg.API, orchestrator, monitor)
	if err != nil {
		return err
	}
	if err := server.Serve(ctx, cfg.API.Listen); err != nil {
		return err
	}
	fmt.Printf("\nShutting down Conductor\n")
	return nil
}
