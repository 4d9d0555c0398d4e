package reconcile

import (
	"errors"
	"time"

	"ldap2moodle/core/model"
)

// DefaultDomain is the sync domain used when none is configured.
const DefaultDomain = "users"

// ErrFatal wraps every error that aborts a run. Per-record failures are
// reported in RunReport and never surface as ErrFatal.
var ErrFatal = errors.New("sync aborted")

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionSuspend disables a target account that left the directory.
	ActionSuspend ActionType = "suspend"
	// ActionCreate creates a target account for a new directory entry.
	ActionCreate ActionType = "create"
	// ActionUpdate patches a target account whose attributes changed.
	ActionUpdate ActionType = "update"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the normalized login identifier.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// User is the desired account for creates and the sparse patch for updates.
	User *model.User `json:"user,omitempty"`

	// Current is the target account for updates and suspends.
	Current *model.User `json:"-"`
}

// Plan contains the ordered actions of one run.
// Suspends come first, then creates and updates in directory order.
type Plan struct {
	// Actions contains planned mutation operations.
	Actions []Action `json:"actions"`

	// Failures contains records that could not be planned, e.g. mapping errors.
	Failures []Failure `json:"failures,omitempty"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	TargetUsers       int `json:"target_users"`
	SourceIdentifiers int `json:"source_identifiers"`
	SourceRecords     int `json:"source_records"`

	Suspends int `json:"suspends"`
	Creates  int `json:"creates"`
	Updates  int `json:"updates"`

	// Unchanged counts matched users without a diff and removed users that
	// are already suspended.
	Unchanged int `json:"unchanged"`

	// Excluded counts target users skipped by the exclusion policy.
	Excluded int `json:"excluded"`

	// Deferred counts directory entries left for a later run because the
	// target users could not be loaded.
	Deferred int `json:"deferred"`
}

// TargetFailurePolicy selects what happens when the target fetch fails.
type TargetFailurePolicy string

const (
	// TargetFailureAbort aborts the run.
	TargetFailureAbort TargetFailurePolicy = "abort"
	// TargetFailureSkipRemovals continues with an empty target map, skips
	// removal detection and never commits the watermark.
	TargetFailureSkipRemovals TargetFailurePolicy = "skip-removals"
)

// Options controls a single run.
type Options struct {
	// DryRun logs every action instead of calling the mutator.
	DryRun bool

	// FullSync fetches the whole directory regardless of the stored watermark.
	FullSync bool

	// Domain is the watermark key. Defaults to DefaultDomain.
	Domain string

	// OnTargetFailure defaults to TargetFailureAbort.
	OnTargetFailure TargetFailurePolicy

	// Reactivate clears the suspended flag of returning users before mapping.
	Reactivate bool

	// ManagedAuth is preset as auth method on accounts to create.
	ManagedAuth string

	// SuspendReason is passed to the mutator for removed users.
	SuspendReason string
}

func (o Options) withDefaults() Options {
	if o.Domain == "" {
		o.Domain = DefaultDomain
	}
	if o.OnTargetFailure == "" {
		o.OnTargetFailure = TargetFailureAbort
	}
	if o.SuspendReason == "" {
		o.SuspendReason = "not present in directory"
	}
	return o
}

// Failure describes one action that could not be applied.
type Failure struct {
	Action ActionType `json:"action"`
	Key    string     `json:"key"`
	Error  string     `json:"error"`
}

// RunReport summarizes a run.
type RunReport struct {
	RunID    string `json:"run_id"`
	Domain   string `json:"domain"`
	DryRun   bool   `json:"dry_run"`
	FullSync bool   `json:"full_sync"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Watermark is the lower bound used to fetch the directory delta.
	Watermark time.Time `json:"watermark"`
	// NewWatermark is the value persisted when Committed is true.
	NewWatermark time.Time `json:"new_watermark"`
	Committed    bool      `json:"committed"`

	// Degraded is set when the run continued without target users.
	Degraded bool `json:"degraded"`

	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Suspended int `json:"suspended"`
	Excluded  int `json:"excluded"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`

	Failures []Failure `json:"failures,omitempty"`

	// Error holds the fatal error of an aborted run.
	Error string `json:"error,omitempty"`
}

// Succeeded returns the number of applied actions.
func (r *RunReport) Succeeded() int {
	return r.Created + r.Updated + r.Suspended
}

func (r *RunReport) fail(action ActionType, key string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{Action: action, Key: key, Error: err.Error()})
}
