package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of an Engine.
type Dependencies struct {
	Source   SourceReader
	Target   TargetReader
	Mutator  Mutator
	Mapper   RecordMapper
	State    WatermarkStore
	Excluder Excluder

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Engine reconciles the directory against the target accounts.
// An Engine holds no per-run state and may be reused, but runs must be
// serialized by the caller.
type Engine struct {
	source   SourceReader
	target   TargetReader
	mutator  Mutator
	mapper   RecordMapper
	state    WatermarkStore
	excluder Excluder
	now      func() time.Time
	logger   *zap.Logger
}

// NewEngine validates deps and returns an Engine.
func NewEngine(deps Dependencies, logger *zap.Logger) (*Engine, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("source reader is required")
	case deps.Target == nil:
		return nil, errors.New("target reader is required")
	case deps.Mutator == nil:
		return nil, errors.New("mutator is required")
	case deps.Mapper == nil:
		return nil, errors.New("record mapper is required")
	case deps.State == nil:
		return nil, errors.New("watermark store is required")
	}
	if deps.Excluder == nil {
		deps.Excluder = NoExclusion
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:   deps.Source,
		target:   deps.Target,
		mutator:  deps.Mutator,
		mapper:   deps.Mapper,
		state:    deps.State,
		excluder: deps.Excluder,
		now:      deps.Now,
		logger:   logger,
	}, nil
}

// Run executes one sync run: it builds the plan, applies it and commits the
// new watermark when the run was live and completed.
//
// The report is always returned. The error is non-nil only for fatal
// failures and then wraps ErrFatal.
func (e *Engine) Run(ctx context.Context, opts Options) (*RunReport, error) {
	opts = opts.withDefaults()
	report := &RunReport{
		RunID:    uuid.NewString(),
		Domain:   opts.Domain,
		DryRun:   opts.DryRun,
		FullSync: opts.FullSync,
	}
	log := e.logger.With(zap.String("run_id", report.RunID), zap.String("domain", opts.Domain))
	log.Info("Starting sync",
		zap.Bool("full_sync", opts.FullSync),
		zap.Bool("dry_run", opts.DryRun),
	)

	sc, err := e.BuildPlan(ctx, opts)
	report.StartedAt = sc.StartedAt
	report.Watermark = sc.Watermark
	if err != nil {
		report.Error = err.Error()
		report.FinishedAt = e.now()
		log.Error("Sync aborted", zap.Error(err))
		e.saveReport(ctx, report, log)
		return report, err
	}

	e.ApplyPlan(ctx, sc, report)
	report.Degraded = !sc.TargetLoaded

	// An interrupted run leaves actions unapplied, so the window must be read
	// again by the next run.
	if ctxErr := ctx.Err(); ctxErr != nil {
		err := fatal("run cancelled", ctxErr)
		report.Error = err.Error()
		report.FinishedAt = e.now()
		log.Error("Sync interrupted, watermark not committed", zap.Error(err))
		e.saveReport(ctx, report, log)
		return report, err
	}

	switch {
	case opts.DryRun:
		log.Info("Dry run, watermark not committed")
	case report.Degraded:
		log.Warn("Run degraded, watermark not committed")
	default:
		next := sc.NextWatermark()
		if err := e.state.Save(ctx, opts.Domain, next); err != nil {
			report.Error = err.Error()
			report.FinishedAt = e.now()
			log.Error("Failed to commit watermark", zap.Error(err))
			e.saveReport(ctx, report, log)
			return report, fatal("failed to save watermark", err)
		}
		report.NewWatermark = next
		report.Committed = true
	}

	report.FinishedAt = e.now()
	log.Info("Sync finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("suspended", report.Suspended),
		zap.Int("excluded", report.Excluded),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed),
		zap.Bool("committed", report.Committed),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	e.saveReport(ctx, report, log)
	return report, nil
}

// ApplyPlan executes the actions of sc.Plan in order and accumulates counts
// into report. Every action is isolated: an error or a panic is recorded as
// a failure and execution continues with the next action. In dry-run mode no
// mutator method is called and every action counts as applied.
//
// ApplyPlan stops before the next action once ctx is done; the remaining
// actions are neither applied nor counted.
func (e *Engine) ApplyPlan(ctx context.Context, sc *SyncContext, report *RunReport) {
	plan := sc.Plan
	report.Excluded += plan.Summary.Excluded
	report.Unchanged += plan.Summary.Unchanged
	for _, f := range plan.Failures {
		report.Failed++
		report.Failures = append(report.Failures, f)
	}

	dryRun := sc.Options.DryRun
	for i, action := range plan.Actions {
		if ctx.Err() != nil {
			e.logger.Warn("Run cancelled, remaining actions skipped",
				zap.Int("remaining", len(plan.Actions)-i),
				zap.Error(ctx.Err()),
			)
			return
		}

		log := e.logger.With(
			zap.String("action", string(action.Type)),
			zap.String("key", action.Key),
		)

		if dryRun {
			log.Info("Dry run, skipping action", zap.String("reason", action.Reason))
			report.count(action.Type)
			continue
		}

		if err := e.execute(ctx, action, sc.Options); err != nil {
			report.fail(action.Type, action.Key, err)
			log.Error("Action failed", zap.Error(err))
			continue
		}
		report.count(action.Type)
		log.Info("Action applied", zap.String("reason", action.Reason))
	}
}

func (e *Engine) execute(ctx context.Context, action Action, opts Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch action.Type {
	case ActionCreate:
		created, err := e.mutator.CreateUser(ctx, action.User)
		if err != nil {
			return err
		}
		if id, ok := created.Identity(); ok {
			e.logger.Debug("Created user", zap.String("key", action.Key), zap.Int("id", id))
		}
		return nil

	case ActionUpdate:
		id, ok := action.Current.Identity()
		if !ok {
			return errors.New("target user has no identity")
		}
		_, err := e.mutator.UpdateUser(ctx, id, action.User)
		return err

	case ActionSuspend:
		return e.mutator.SuspendUser(ctx, action.Current, opts.SuspendReason)

	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func (e *Engine) saveReport(ctx context.Context, report *RunReport, log *zap.Logger) {
	sink, ok := e.state.(ReportSink)
	if !ok || report.DryRun {
		return
	}
	// The report of an interrupted run is still stored.
	if err := sink.SaveReport(context.WithoutCancel(ctx), report); err != nil {
		log.Warn("Failed to save run report", zap.Error(err))
	}
}

func (r *RunReport) count(t ActionType) {
	switch t {
	case ActionCreate:
		r.Created++
	case ActionUpdate:
		r.Updated++
	case ActionSuspend:
		r.Suspended++
	}
}
