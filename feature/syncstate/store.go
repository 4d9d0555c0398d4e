package syncstate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"ldap2moodle/core/reconcile"
	"ldap2moodle/core/storage"

	"gorm.io/gorm"
)

// Status is the persisted state of one sync domain.
type Status struct {
	Domain    string               `json:"domain"`
	Watermark time.Time            `json:"watermark"`
	LastRun   *reconcile.RunReport `json:"last_run,omitempty"`
}

// Store persists watermarks and the last run report per domain.
type Store interface {
	reconcile.WatermarkStore
	reconcile.ReportSink

	// Status returns the stored state of domain. Unknown domains yield a
	// zero watermark and no last run.
	Status(ctx context.Context, domain string) (*Status, error)

	// Reset forgets the state of domain so that the next run is a full sync.
	Reset(ctx context.Context, domain string) error
}

// Backends carries the connections a store may need. Only the one matching
// the configured backend must be set.
type Backends struct {
	DB      *gorm.DB
	Storage storage.Client
	Bucket  string
}

// New opens the store selected by cfg.
func New(ctx context.Context, cfg Config, b Backends) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Path)
	case BackendDatabase:
		if b.DB == nil {
			return nil, errors.New("database state backend requires a database connection")
		}
		return NewDatabaseStore(ctx, b.DB)
	case BackendStorage:
		if b.Storage == nil {
			return nil, errors.New("storage state backend requires a storage client")
		}
		return NewObjectStore(b.Storage, b.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

var domainPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidateDomain rejects domain names that cannot be used as keys or file names.
func ValidateDomain(domain string) error {
	if !domainPattern.MatchString(domain) || domain == "." || domain == ".." {
		return fmt.Errorf("invalid sync domain %q", domain)
	}
	return nil
}
