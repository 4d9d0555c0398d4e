package cmd

import (
	"fmt"

	"ldap2moodle/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fullSyncFlag bool
	dryRunFlag   bool
)

// syncCmd runs a single reconciliation.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize Moodle accounts with the LDAP directory",
	Long: `Runs one reconciliation:

  1. suspend managed accounts whose directory entry is gone
  2. read entries changed since the last successful run (all with --full-sync)
  3. create missing accounts and update changed ones
  4. store the new watermark unless --dry-run is set

Examples:
  # Incremental run
  ldap2moodle sync

  # Show what a full run would change
  ldap2moodle sync --full-sync --dry-run --debug`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&fullSyncFlag, "full-sync", false, "Ignore the stored watermark and read the whole directory")
	syncCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Log planned actions without changing any account")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}
	defer l.Sync()

	store, closeState, err := openState(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeState()

	svc, err := newServices(cfg, l, store)
	if err != nil {
		return err
	}

	opts := cfg.Sync.Options(dryRunFlag, fullSyncFlag, svc.target.ManagedAuth())
	report, err := svc.engine.Run(ctx, opts)
	printRunReport(l, report)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if dryRunFlag {
		l.Info("Dry-run mode: No changes were made.")
	}
	return nil
}

// printRunReport logs the summary and the first failures of a run.
func printRunReport(l *zap.Logger, report *reconcile.RunReport) {
	if report == nil {
		return
	}
	l.Info("Sync report",
		zap.String("run_id", report.RunID),
		zap.Bool("dry_run", report.DryRun),
		zap.Bool("full_sync", report.FullSync),
		zap.Time("watermark", report.Watermark),
		zap.Bool("committed", report.Committed),
		zap.Bool("degraded", report.Degraded),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("suspended", report.Suspended),
		zap.Int("excluded", report.Excluded),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed),
	)

	const maxShow = 10
	for i, f := range report.Failures {
		if i == maxShow {
			l.Warn("Additional failures not shown", zap.Int("count", len(report.Failures)-maxShow))
			break
		}
		l.Warn("Failed action",
			zap.String("action", string(f.Action)),
			zap.String("key", f.Key),
			zap.String("error", f.Error),
		)
	}
}
