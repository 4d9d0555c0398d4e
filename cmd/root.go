package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ldap2moodle/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configDir string
	debugFlag bool
	traceFlag bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ldap2moodle",
	Short: "LDAP to Moodle user synchronization",
	Long: `ldap2moodle keeps the accounts of a Moodle site in line with an LDAP directory.
It creates accounts for new directory entries, updates changed ones and
suspends accounts whose entry disappeared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// Console encoding at debug level gives readable ISO8601 timestamps.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding .env and config.yaml")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "Enable debug logging and log every web service request")
}
