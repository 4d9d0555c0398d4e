package cmd

import (
	"context"
	"fmt"

	"ldap2moodle/core/config"
	"ldap2moodle/core/database"
	"ldap2moodle/core/logger"
	"ldap2moodle/core/reconcile"
	"ldap2moodle/core/storage"
	"ldap2moodle/feature/ldap"
	"ldap2moodle/feature/mapping"
	"ldap2moodle/feature/moodle"
	"ldap2moodle/feature/syncstate"

	"go.uber.org/zap"
)

// loadConfig reads and validates the configuration and builds the logger.
// --debug and --trace override the configured level.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debugFlag || traceFlag {
		cfg.Log.Level = "debug"
	}
	if traceFlag {
		cfg.Moodle.Trace = true
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, l, nil
}

// openState opens the configured state store and the connection it needs.
// The returned function releases that connection.
func openState(ctx context.Context, cfg *config.Config, l *zap.Logger) (syncstate.Store, func(), error) {
	var backends syncstate.Backends
	closeFn := func() {}

	switch cfg.State.Backend {
	case syncstate.BackendDatabase:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, closeFn, err
		}
		if sqlDB, err := db.DB(); err == nil {
			closeFn = func() { _ = sqlDB.Close() }
		}
		backends.DB = db
		l.Debug("Connected to state database", zap.String("driver", cfg.Database.Driver))

	case syncstate.BackendStorage:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, closeFn, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, closeFn, err
		}
		backends.Storage = client
		backends.Bucket = cfg.Storage.Bucket
		l.Debug("Using state bucket", zap.String("bucket", cfg.Storage.Bucket))
	}

	store, err := syncstate.New(ctx, cfg.State, backends)
	if err != nil {
		closeFn()
		return nil, func() {}, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, closeFn, nil
}

// services bundles the collaborators of a sync run.
type services struct {
	source *ldap.Reader
	target *moodle.Client
	mapper *mapping.Mapper
	engine *reconcile.Engine
}

// newServices wires directory, platform, mapping and state into an engine.
// Without a state store only the readers and the mapper are built.
func newServices(cfg *config.Config, l *zap.Logger, state reconcile.WatermarkStore) (*services, error) {
	mapper, err := mapping.Load(cfg.Sync.MappingFile)
	if err != nil {
		return nil, err
	}
	target, err := moodle.NewClient(cfg.Moodle, l.Named("moodle"))
	if err != nil {
		return nil, fmt.Errorf("failed to create moodle client: %w", err)
	}
	source := ldap.NewReader(cfg.LDAP, l.Named("ldap"))
	svc := &services{source: source, target: target, mapper: mapper}
	if state == nil {
		return svc, nil
	}

	engine, err := reconcile.NewEngine(reconcile.Dependencies{
		Source:   source,
		Target:   target,
		Mutator:  target,
		Mapper:   mapper,
		State:    state,
		Excluder: cfg.Sync.Excluder(),
	}, l)
	if err != nil {
		return nil, err
	}
	svc.engine = engine
	return svc, nil
}
