package reconcile

import (
	"strings"

	"ldap2moodle/core/model"
)

// ExcludeFunc adapts a function to Excluder.
type ExcludeFunc func(u *model.User) bool

// Excluded implements Excluder.
func (f ExcludeFunc) Excluded(u *model.User) bool { return f(u) }

// NoExclusion excludes nothing.
var NoExclusion Excluder = ExcludeFunc(func(*model.User) bool { return false })

// ExcludeAuth excludes accounts authenticated by one of the given methods,
// compared case-insensitively. Empty method names are ignored.
func ExcludeAuth(methods ...string) Excluder {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			set[m] = struct{}{}
		}
	}
	if len(set) == 0 {
		return NoExclusion
	}
	return ExcludeFunc(func(u *model.User) bool {
		_, ok := set[strings.ToLower(u.AuthMethod())]
		return ok
	})
}

// ExcludeIDs excludes accounts by remote identity, e.g. the site admin.
func ExcludeIDs(ids ...int) Excluder {
	if len(ids) == 0 {
		return NoExclusion
	}
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return ExcludeFunc(func(u *model.User) bool {
		id, ok := u.Identity()
		if !ok {
			return false
		}
		_, hit := set[id]
		return hit
	})
}

// AnyOf excludes an account when any of the given excluders does.
func AnyOf(excluders ...Excluder) Excluder {
	return ExcludeFunc(func(u *model.User) bool {
		for _, e := range excluders {
			if e != nil && e.Excluded(u) {
				return true
			}
		}
		return false
	})
}
