package usersync

import (
	"fmt"
	"time"

	"ldap2moodle/core/reconcile"
)

// Config holds the reconciliation settings.
type Config struct {
	// Domain keys the watermark, so several directories can share one store.
	Domain string `mapstructure:"domain" default:"users"`
	// MappingFile holds the attribute mapping rules. Empty uses the defaults.
	MappingFile string `mapstructure:"mapping_file" default:""`
	// ExcludeAuth lists auth methods whose accounts are never touched.
	ExcludeAuth []string `mapstructure:"exclude_auth" default:"manual"`
	// ExcludeIDs lists account ids that are never touched, e.g. the site admin.
	ExcludeIDs []int `mapstructure:"exclude_ids" default:""`
	// OnTargetFailure is abort or skip-removals.
	OnTargetFailure string `mapstructure:"on_target_failure" default:"abort"`
	// Reactivate unsuspends accounts that reappear in the directory.
	// Off by default.
	Reactivate bool `mapstructure:"reactivate" default:"false"`
	// SuspendReason is logged with every suspension.
	SuspendReason string `mapstructure:"suspend_reason" default:"not present in directory"`
	// Interval schedules incremental runs in serve mode. Zero disables it.
	Interval time.Duration `mapstructure:"interval" default:"0s"`
}

// Options returns run options for the given switches.
func (c Config) Options(dryRun, fullSync bool, managedAuth string) reconcile.Options {
	return reconcile.Options{
		DryRun:          dryRun,
		FullSync:        fullSync,
		Domain:          c.Domain,
		OnTargetFailure: reconcile.TargetFailurePolicy(c.OnTargetFailure),
		Reactivate:      c.Reactivate,
		ManagedAuth:     managedAuth,
		SuspendReason:   c.SuspendReason,
	}
}

// Excluder returns the exclusion policy described by the config.
func (c Config) Excluder() reconcile.Excluder {
	return reconcile.AnyOf(reconcile.ExcludeAuth(c.ExcludeAuth...), reconcile.ExcludeIDs(c.ExcludeIDs...))
}

// Validate rejects unknown policies.
func (c Config) Validate() error {
	switch reconcile.TargetFailurePolicy(c.OnTargetFailure) {
	case reconcile.TargetFailureAbort, reconcile.TargetFailureSkipRemovals, "":
	default:
		return &ConfigError{Key: "sync.on_target_failure", Value: c.OnTargetFailure}
	}
	if c.Interval < 0 {
		return &ConfigError{Key: "sync.interval", Value: c.Interval.String()}
	}
	return nil
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Key   string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Key)
}
