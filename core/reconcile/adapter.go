package reconcile

import (
	"context"
	"time"

	"ldap2moodle/core/model"
)

// SourceReader reads the directory.
type SourceReader interface {
	// ListIdentifiers returns the normalized identifiers of every entry.
	// Only the identifier attribute is requested.
	ListIdentifiers(ctx context.Context) (map[string]struct{}, error)

	// ListRecords returns every entry modified at or after since, in directory
	// order. A zero since returns the whole directory. Implementations may
	// over-return.
	ListRecords(ctx context.Context, since time.Time) (*model.SourceIndex, error)
}

// TargetReader reads the accounts managed by the sync.
type TargetReader interface {
	// ListManagedUsers returns managed accounts keyed by normalized login.
	ListManagedUsers(ctx context.Context) (map[string]*model.User, error)
}

// Mutator changes target accounts.
type Mutator interface {
	// CreateUser creates u and returns it with its assigned identity.
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)

	// UpdateUser applies a sparse patch to the account with the given id.
	UpdateUser(ctx context.Context, id int, patch *model.User) (*model.User, error)

	// SuspendUser disables or anonymizes an account that left the directory.
	SuspendUser(ctx context.Context, current *model.User, reason string) error
}

// RecordMapper fills a target-shaped user from a directory entry.
// It is called once per create and once per update candidate.
type RecordMapper interface {
	Apply(mode model.Mode, shape *model.User, rec model.SourceRecord) error
}

// WatermarkStore persists the incremental sync watermark per domain.
type WatermarkStore interface {
	// Load returns the stored watermark or the zero time when none exists.
	Load(ctx context.Context, domain string) (time.Time, error)

	// Save persists the watermark of a successful run.
	Save(ctx context.Context, domain string, ts time.Time) error
}

// Excluder selects target accounts that must never be suspended or updated.
type Excluder interface {
	Excluded(u *model.User) bool
}

// ReportSink optionally receives the report of every committed or aborted run.
// Stores that keep run history implement it next to WatermarkStore.
type ReportSink interface {
	SaveReport(ctx context.Context, report *RunReport) error
}
