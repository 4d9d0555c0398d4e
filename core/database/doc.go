// Package database opens the relational database used for sync state.
//
// It wraps GORM with the MySQL driver for deployments and the SQLite driver
// for single-host installations and tests. Connect applies pool settings,
// DSN timeouts and an initial ping bounded by the configured timeout.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return fmt.Errorf("failed to connect to database: %w", err)
//	}
package database
