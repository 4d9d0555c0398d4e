package reconcile

import (
	"testing"
	"time"

	"ldap2moodle/core/model"

	"github.com/stretchr/testify/assert"
)

func TestExcluders(t *testing.T) {
	manual := &model.User{ID: model.Int(1), Auth: model.String("Manual")}
	ldapUser := &model.User{ID: model.Int(2), Auth: model.String("ldap")}
	fresh := &model.User{Auth: model.String("ldap")}

	tests := []struct {
		name     string
		excluder Excluder
		user     *model.User
		want     bool
	}{
		{"auth matches case-insensitively", ExcludeAuth("manual"), manual, true},
		{"auth does not match", ExcludeAuth("manual"), ldapUser, false},
		{"empty auth list", ExcludeAuth(" ", ""), manual, false},
		{"id matches", ExcludeIDs(2), ldapUser, true},
		{"id without identity", ExcludeIDs(2), fresh, false},
		{"no ids", ExcludeIDs(), ldapUser, false},
		{"any of", AnyOf(ExcludeAuth("nologin"), nil, ExcludeIDs(1)), manual, true},
		{"none", NoExclusion, manual, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.excluder.Excluded(tt.user))
		})
	}
}

func TestSyncContext_NextWatermark(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	sc := newSyncContext(Options{}, start)
	assert.Equal(t, start, sc.NextWatermark())

	sc.Stored = start.Add(-time.Hour)
	assert.Equal(t, start, sc.NextWatermark())

	sc.Stored = start.Add(time.Hour)
	assert.Equal(t, sc.Stored, sc.NextWatermark())
}

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultDomain, opts.Domain)
	assert.Equal(t, TargetFailureAbort, opts.OnTargetFailure)
	assert.NotEmpty(t, opts.SuspendReason)

	opts = Options{Domain: "staff", OnTargetFailure: TargetFailureSkipRemovals}.withDefaults()
	assert.Equal(t, "staff", opts.Domain)
	assert.Equal(t, TargetFailureSkipRemovals, opts.OnTargetFailure)
}
