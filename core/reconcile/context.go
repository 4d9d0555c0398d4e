package reconcile

import (
	"time"

	"ldap2moodle/core/model"
)

// SyncContext owns the state of one run. It is created by BuildPlan and
// discarded at the end of the run.
type SyncContext struct {
	// Options are the effective options of the run.
	Options Options

	// StartedAt is captured before the target is read and becomes the new
	// watermark of a committed run.
	StartedAt time.Time

	// Target holds managed target users keyed by normalized login.
	Target map[string]*model.User

	// TargetLoaded is false when the target fetch failed and the run
	// continued under TargetFailureSkipRemovals.
	TargetLoaded bool

	// SourceIDs is the result of the identifier pass. It is nil when
	// removal detection was skipped.
	SourceIDs map[string]struct{}

	// Stored is the persisted watermark, Watermark the one used to fetch.
	Stored    time.Time
	Watermark time.Time

	// Delta holds the directory entries fetched with Watermark.
	Delta *model.SourceIndex

	// Plan is the result of reconciliation.
	Plan *Plan
}

func newSyncContext(opts Options, startedAt time.Time) *SyncContext {
	return &SyncContext{
		Options:   opts,
		StartedAt: startedAt,
		Target:    make(map[string]*model.User),
		Plan:      &Plan{},
	}
}

// NextWatermark returns the value to persist when the run commits.
// It never moves backwards from the stored watermark.
func (sc *SyncContext) NextWatermark() time.Time {
	if sc.Stored.After(sc.StartedAt) {
		return sc.Stored
	}
	return sc.StartedAt
}
