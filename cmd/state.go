package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"ldap2moodle/feature/syncstate"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	stateDomain string
	stateJSON   bool
	stateYes    bool
	statePurge  bool
)

// stateCmd is the parent command for watermark maintenance.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the stored sync state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the watermark and the last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeState, err := openState(ctx, cfg, l)
		if err != nil {
			return err
		}
		defer closeState()

		status, err := store.Status(ctx, domainOr(cfg.Sync.Domain))
		if err != nil {
			return err
		}
		if stateJSON {
			return printJSON(status)
		}

		if status.Watermark.IsZero() {
			l.Info("No watermark stored, the next run is a full sync", zap.String("domain", status.Domain))
		} else {
			l.Info("Watermark",
				zap.String("domain", status.Domain),
				zap.Time("watermark", status.Watermark),
				zap.String("age", humanize.Time(status.Watermark)),
			)
		}
		if r := status.LastRun; r != nil {
			l.Info("Last run",
				zap.String("run_id", r.RunID),
				zap.String("finished", humanize.Time(r.FinishedAt)),
				zap.Duration("duration", r.FinishedAt.Sub(r.StartedAt)),
				zap.Bool("committed", r.Committed),
				zap.String("changes", humanize.Comma(int64(r.Succeeded()))),
				zap.Int("failed", r.Failed),
				zap.String("error", r.Error),
			)
		}
		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the watermark so the next run is a full sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeState, err := openState(ctx, cfg, l)
		if err != nil {
			return err
		}
		defer closeState()

		domain := domainOr(cfg.Sync.Domain)
		if !confirm(fmt.Sprintf("Reset the sync state of domain %q?", domain)) {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		if err := store.Reset(ctx, domain); err != nil {
			return err
		}
		l.Info("Sync state reset", zap.String("domain", domain))

		if statePurge {
			archive, ok := store.(*syncstate.ObjectStore)
			if !ok {
				return errors.New("--purge-reports requires the storage state backend")
			}
			n, err := archive.PurgeReports(ctx, domain)
			if err != nil {
				return err
			}
			l.Info("Archived reports purged", zap.Int("count", n))
		}
		return nil
	},
}

var stateHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived run reports (storage backend)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeState, err := openState(ctx, cfg, l)
		if err != nil {
			return err
		}
		defer closeState()

		archive, ok := store.(*syncstate.ObjectStore)
		if !ok {
			return fmt.Errorf("state backend %q keeps no report history", cfg.State.Backend)
		}
		reports, err := archive.Reports(ctx, domainOr(cfg.Sync.Domain))
		if err != nil {
			return err
		}
		if stateJSON {
			return printJSON(reports)
		}
		for _, r := range reports {
			l.Info("Report",
				zap.String("name", r.Name),
				zap.String("size", humanize.Bytes(uint64(r.Size))),
				zap.String("stored", humanize.Time(r.LastModified)),
			)
		}
		l.Info("Reports listed", zap.Int("count", len(reports)))
		return nil
	},
}

func init() {
	stateCmd.PersistentFlags().StringVar(&stateDomain, "domain", "", "Sync domain (defaults to sync.domain)")
	stateShowCmd.Flags().BoolVar(&stateJSON, "json", false, "Print JSON instead of log lines")
	stateHistoryCmd.Flags().BoolVar(&stateJSON, "json", false, "Print JSON instead of log lines")
	stateResetCmd.Flags().BoolVar(&stateYes, "yes", false, "Do not ask for confirmation")
	stateResetCmd.Flags().BoolVar(&statePurge, "purge-reports", false, "Also delete archived run reports")

	stateCmd.AddCommand(stateShowCmd, stateResetCmd, stateHistoryCmd)
	RootCmd.AddCommand(stateCmd)
}

func domainOr(configured string) string {
	if stateDomain != "" {
		return stateDomain
	}
	return configured
}

// confirm asks on stdin unless --yes was given.
func confirm(question string) bool {
	if stateYes {
		return true
	}

	fmt.Printf("%s Type 'yes' to confirm: ", question)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
