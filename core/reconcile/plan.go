package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ldap2moodle/core/model"

	"go.uber.org/zap"
)

// BuildPlan runs the read-only states of a sync: it loads the target, detects
// removals, determines the watermark, loads the directory delta and
// reconciles it. It does NOT execute actions; use ApplyPlan for that.
//
// A returned error wraps ErrFatal. The SyncContext is returned in both cases
// so that callers can report how far the run got.
func (e *Engine) BuildPlan(ctx context.Context, opts Options) (*SyncContext, error) {
	opts = opts.withDefaults()
	sc := newSyncContext(opts, e.now())
	log := e.logger.With(zap.String("domain", opts.Domain))

	if err := e.loadTarget(ctx, sc, log); err != nil {
		return sc, err
	}

	suspends, err := e.detectRemovals(ctx, sc, log)
	if err != nil {
		return sc, err
	}

	if err := e.determineWatermark(ctx, sc, log); err != nil {
		return sc, err
	}

	delta, err := e.source.ListRecords(ctx, sc.Watermark)
	if err != nil {
		return sc, fatal("failed to load directory records", err)
	}
	if delta == nil {
		delta = model.NewSourceIndex()
	}
	sc.Delta = delta
	sc.Plan.Summary.SourceRecords = delta.Len()
	log.Info("Loaded directory delta",
		zap.Time("since", sc.Watermark),
		zap.Int("records", delta.Len()),
	)

	e.reconcileDelta(sc, suspends, log)
	return sc, nil
}

func (e *Engine) loadTarget(ctx context.Context, sc *SyncContext, log *zap.Logger) error {
	target, err := e.target.ListManagedUsers(ctx)
	if err != nil {
		if sc.Options.OnTargetFailure != TargetFailureSkipRemovals {
			return fatal("failed to load target users", err)
		}
		log.Warn("Target users unavailable, removal detection skipped", zap.Error(err))
		return nil
	}

	for key, u := range target {
		if u == nil {
			continue
		}
		sc.Target[model.NormalizeID(key)] = u
	}
	sc.TargetLoaded = true
	sc.Plan.Summary.TargetUsers = len(sc.Target)
	log.Info("Loaded target users", zap.Int("count", len(sc.Target)))
	return nil
}

// detectRemovals returns the suspend actions keyed by login. Suspends are
// kept out of the plan until the delta is known so that an entry that shows
// up between both directory passes is updated rather than suspended.
func (e *Engine) detectRemovals(ctx context.Context, sc *SyncContext, log *zap.Logger) (map[string]Action, error) {
	suspends := make(map[string]Action)
	if !sc.TargetLoaded {
		return suspends, nil
	}

	ids, err := e.source.ListIdentifiers(ctx)
	if err != nil {
		return nil, fatal("failed to load directory identifiers", err)
	}
	sc.SourceIDs = make(map[string]struct{}, len(ids))
	for id := range ids {
		sc.SourceIDs[model.NormalizeID(id)] = struct{}{}
	}
	sc.Plan.Summary.SourceIdentifiers = len(sc.SourceIDs)

	for key, current := range sc.Target {
		if _, ok := sc.SourceIDs[key]; ok {
			continue
		}
		if e.excluder.Excluded(current) {
			sc.Plan.Summary.Excluded++
			log.Debug("Excluded user kept", zap.String("key", key))
			continue
		}
		if !current.IsActive() {
			if current.Suspended == nil {
				log.Debug("Suspended flag unknown, user kept", zap.String("key", key))
			}
			sc.Plan.Summary.Unchanged++
			continue
		}
		suspends[key] = Action{
			Type:    ActionSuspend,
			Key:     key,
			Reason:  sc.Options.SuspendReason,
			Current: current,
		}
	}
	log.Info("Detected removals",
		zap.Int("identifiers", len(sc.SourceIDs)),
		zap.Int("suspends", len(suspends)),
	)
	return suspends, nil
}

func (e *Engine) determineWatermark(ctx context.Context, sc *SyncContext, log *zap.Logger) error {
	stored, err := e.state.Load(ctx, sc.Options.Domain)
	if err != nil {
		if !sc.Options.FullSync {
			return fatal("failed to load watermark", err)
		}
		log.Warn("Stored watermark unreadable, full sync continues", zap.Error(err))
		stored = time.Time{}
	}
	sc.Stored = stored

	if sc.Options.FullSync {
		sc.Watermark = time.Time{}
	} else {
		sc.Watermark = stored
	}
	log.Debug("Determined watermark",
		zap.Bool("full_sync", sc.Options.FullSync),
		zap.Time("stored", sc.Stored),
		zap.Time("watermark", sc.Watermark),
	)
	return nil
}

// reconcileDelta turns the delta into create and update actions and merges
// them with the suspends into the final plan.
func (e *Engine) reconcileDelta(sc *SyncContext, suspends map[string]Action, log *zap.Logger) {
	// Without the target map every entry would look new. The watermark is not
	// committed for such a run, so the delta is read again next time.
	if !sc.TargetLoaded {
		sc.Plan.Summary.Deferred = sc.Delta.Len()
		log.Warn("Target users unavailable, directory delta deferred",
			zap.Int("deferred", sc.Plan.Summary.Deferred),
		)
		return
	}

	var changes []Action

	for key, rec := range sc.Delta.All() {
		current, exists := sc.Target[key]
		if !exists {
			desired, err := e.candidate(model.ModeCreate, key, rec, sc.Options, nil)
			if err != nil {
				e.planFailure(sc, ActionCreate, key, err, log)
				continue
			}
			changes = append(changes, Action{
				Type:   ActionCreate,
				Key:    key,
				Reason: "new in directory",
				User:   desired,
			})
			continue
		}

		// The entry is present now; whatever the identifier pass saw, it must
		// not be suspended.
		delete(suspends, key)

		if e.excluder.Excluded(current) {
			sc.Plan.Summary.Excluded++
			log.Debug("Excluded user kept", zap.String("key", key))
			continue
		}

		candidate, err := e.candidate(model.ModeUpdate, key, rec, sc.Options, current)
		if err != nil {
			e.planFailure(sc, ActionUpdate, key, err, log)
			continue
		}

		patch := model.Diff(current, candidate)
		if patch == nil {
			sc.Plan.Summary.Unchanged++
			continue
		}
		changes = append(changes, Action{
			Type:    ActionUpdate,
			Key:     key,
			Reason:  fmt.Sprintf("changed: %v", model.ChangedFields(patch)),
			User:    patch,
			Current: current,
		})
	}

	keys := make([]string, 0, len(suspends))
	for key := range suspends {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	actions := make([]Action, 0, len(keys)+len(changes))
	for _, key := range keys {
		actions = append(actions, suspends[key])
	}
	actions = append(actions, changes...)

	sc.Plan.Actions = actions
	for _, a := range actions {
		switch a.Type {
		case ActionSuspend:
			sc.Plan.Summary.Suspends++
		case ActionCreate:
			sc.Plan.Summary.Creates++
		case ActionUpdate:
			sc.Plan.Summary.Updates++
		}
	}

	log.Info("Built plan",
		zap.Int("suspends", sc.Plan.Summary.Suspends),
		zap.Int("creates", sc.Plan.Summary.Creates),
		zap.Int("updates", sc.Plan.Summary.Updates),
		zap.Int("unchanged", sc.Plan.Summary.Unchanged),
		zap.Int("excluded", sc.Plan.Summary.Excluded),
		zap.Int("failed", len(sc.Plan.Failures)),
	)
}

// candidate builds the target-shaped user for a directory entry.
func (e *Engine) candidate(mode model.Mode, key string, rec model.SourceRecord, opts Options, current *model.User) (shape *model.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			shape, err = nil, fmt.Errorf("mapping panicked: %v", r)
		}
	}()

	shape = model.NewUser(key)
	if mode == model.ModeCreate && opts.ManagedAuth != "" {
		shape.Auth = model.String(opts.ManagedAuth)
	}
	if mode == model.ModeUpdate && opts.Reactivate && current.IsSuspended() {
		shape.Suspended = model.Bool(false)
	}
	if err := e.mapper.Apply(mode, shape, rec); err != nil {
		return nil, fmt.Errorf("mapping failed: %w", err)
	}
	return shape, nil
}

func (e *Engine) planFailure(sc *SyncContext, action ActionType, key string, err error, log *zap.Logger) {
	sc.Plan.Failures = append(sc.Plan.Failures, Failure{Action: action, Key: key, Error: err.Error()})
	log.Error("Failed to plan action",
		zap.String("action", string(action)),
		zap.String("key", key),
		zap.Error(err),
	)
}

func fatal(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFatal, msg, err)
}
