package usersync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ldap2moodle/core/reconcile"
	"ldap2moodle/feature/syncstate"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Runner executes one reconciliation run.
type Runner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.RunReport, error)
}

// StateReader reads the persisted sync state.
type StateReader interface {
	Status(ctx context.Context, domain string) (*syncstate.Status, error)
}

// Request selects the kind of run.
type Request struct {
	DryRun   bool `json:"dry_run" query:"dry_run"`
	FullSync bool `json:"full_sync" query:"full_sync"`
}

func (r Request) key() string {
	return fmt.Sprintf("dry_run=%t,full_sync=%t", r.DryRun, r.FullSync)
}

// Status describes the service and the persisted state of its domain.
type Status struct {
	Domain       string               `json:"domain"`
	Running      bool                 `json:"running"`
	RunningSince *time.Time           `json:"running_since,omitempty"`
	Watermark    time.Time            `json:"watermark"`
	LastRun      *reconcile.RunReport `json:"last_run,omitempty"`
}

// Service serializes runs of one engine. Identical concurrent requests share
// a single run.
type Service struct {
	runner      Runner
	state       StateReader
	cfg         Config
	managedAuth string
	logger      *zap.Logger

	// root outlives requests; runs are cancelled only on shutdown.
	root  context.Context
	group singleflight.Group
	runMu sync.Mutex

	mu           sync.RWMutex
	runningSince *time.Time
	last         *reconcile.RunReport
}

// NewService returns a service whose runs are bound to root.
func NewService(root context.Context, runner Runner, state StateReader, cfg Config, managedAuth string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runner:      runner,
		state:       state,
		cfg:         cfg,
		managedAuth: managedAuth,
		logger:      logger,
		root:        root,
	}
}

// Trigger runs a sync or joins an identical one in flight. shared reports
// whether the result came from a run started by another caller.
func (s *Service) Trigger(ctx context.Context, req Request) (report *reconcile.RunReport, shared bool, err error) {
	ch := s.group.DoChan(req.key(), func() (any, error) {
		return s.run(req)
	})
	select {
	case res := <-ch:
		report, _ = res.Val.(*reconcile.RunReport)
		return report, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Start runs a sync in the background and reports whether another run was
// in progress at that time. The new run waits for it or joins it.
func (s *Service) Start(req Request) (busy bool) {
	s.mu.RLock()
	busy = s.runningSince != nil
	s.mu.RUnlock()

	go func() {
		_, _, _ = s.Trigger(s.root, req)
	}()
	return busy
}

func (s *Service) run(req Request) (*reconcile.RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	now := time.Now()
	s.mu.Lock()
	s.runningSince = &now
	s.mu.Unlock()

	opts := s.cfg.Options(req.DryRun, req.FullSync, s.managedAuth)
	report, err := s.runner.Run(s.root, opts)

	s.mu.Lock()
	s.runningSince = nil
	if report != nil {
		s.last = report
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Sync run failed", zap.Bool("dry_run", req.DryRun), zap.Bool("full_sync", req.FullSync), zap.Error(err))
	}
	return report, err
}

// Status returns the running state, the stored watermark and the last report.
// Reports of this process take precedence over the persisted one, which is
// never written for dry runs.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	stored, err := s.state.Status(ctx, s.domain())
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	status := &Status{
		Domain:       stored.Domain,
		Running:      s.runningSince != nil,
		RunningSince: s.runningSince,
		Watermark:    stored.Watermark,
		LastRun:      stored.LastRun,
	}
	if s.last != nil {
		status.LastRun = s.last
	}
	return status, nil
}

// Schedule triggers an incremental live run every interval until ctx is done.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.logger.Info("Sync scheduler started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			report, shared, err := s.Trigger(ctx, Request{})
			if err != nil || report == nil {
				continue
			}
			s.logger.Info("Scheduled sync finished",
				zap.String("run_id", report.RunID),
				zap.Bool("shared", shared),
				zap.Int("created", report.Created),
				zap.Int("updated", report.Updated),
				zap.Int("suspended", report.Suspended),
				zap.Int("failed", report.Failed),
			)
		}
	}
}

func (s *Service) domain() string {
	if s.cfg.Domain == "" {
		return reconcile.DefaultDomain
	}
	return s.cfg.Domain
}
