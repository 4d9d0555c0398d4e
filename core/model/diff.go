package model

import "sort"

// Diff computes the minimal patch that turns current into candidate.
//
// It returns nil when nothing differs. Otherwise the patch carries the
// identity of current plus every managed field whose candidate value is set
// and differs from the current one. A field that is unset on the candidate
// never clears a value on the target.
//
// Custom fields follow union semantics: values that changed and fields only
// present on the candidate are included; fields only present on the target
// are left untouched and do not appear in the patch.
func Diff(current, candidate *User) *User {
	if current == nil || candidate == nil {
		return nil
	}

	patch := &User{}
	changed := false

	for _, f := range Fields {
		if f.Access != Managed {
			continue
		}
		want := f.Value(candidate)
		if want == nil {
			continue
		}
		if have := f.Value(current); have != nil && have == want {
			continue
		}
		f.Set(patch, want)
		changed = true
	}

	for name, value := range candidate.CustomFields {
		if have, ok := current.CustomFields[name]; ok && have == value {
			continue
		}
		patch.SetCustomField(name, value)
		changed = true
	}

	if !changed {
		return nil
	}

	if id, ok := current.Identity(); ok {
		patch.ID = Int(id)
	}
	return patch
}

// ChangedFields lists the managed fields and custom fields set on a patch,
// custom fields prefixed with CustomFieldPrefix. Intended for logging.
func ChangedFields(patch *User) []string {
	if patch == nil {
		return nil
	}
	var names []string
	for _, f := range Fields {
		if f.Access == Managed && f.Value(patch) != nil {
			names = append(names, f.Name)
		}
	}
	custom := make([]string, 0, len(patch.CustomFields))
	for name := range patch.CustomFields {
		custom = append(custom, CustomFieldPrefix+name)
	}
	sort.Strings(custom)
	return append(names, custom...)
}
