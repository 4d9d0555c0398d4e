package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseUser() *User {
	return &User{
		ID:        Int(7),
		Username:  String("jdoe"),
		Auth:      String("ldap"),
		Firstname: String("John"),
		Lastname:  String("Doe"),
		Email:     String("jdoe@example.org"),
		Suspended: Bool(false),
		Lang:      String("en"),
	}
}

func TestDiff_NoDifference(t *testing.T) {
	current := baseUser()
	candidate := baseUser()
	candidate.ID = nil

	assert.Nil(t, Diff(current, candidate))
}

func TestDiff_SingleScalarField(t *testing.T) {
	tests := []struct {
		name  string
		apply func(u *User)
		field string
	}{
		{"Firstname", func(u *User) { u.Firstname = String("Jane") }, "firstname"},
		{"Email", func(u *User) { u.Email = String("jane@example.org") }, "email"},
		{"Suspended", func(u *User) { u.Suspended = Bool(true) }, "suspended"},
		{"MailFormat", func(u *User) { u.MailFormat = Int(0) }, "mailformat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := baseUser()
			candidate := baseUser()
			tt.apply(candidate)

			patch := Diff(current, candidate)
			require.NotNil(t, patch)

			id, ok := patch.Identity()
			assert.True(t, ok)
			assert.Equal(t, 7, id)
			assert.Equal(t, []string{tt.field}, ChangedFields(patch))
			assert.Nil(t, patch.Username, "key fields are not part of a patch")
		})
	}
}

func TestDiff_AbsentCandidateFieldDoesNotClear(t *testing.T) {
	current := baseUser()
	current.Department = String("Physics")
	candidate := baseUser()
	candidate.Department = nil
	candidate.Email = nil

	assert.Nil(t, Diff(current, candidate))
}

func TestDiff_EmptyStringIsSourced(t *testing.T) {
	current := baseUser()
	current.Department = String("Physics")
	candidate := baseUser()
	candidate.Department = String("")

	patch := Diff(current, candidate)
	require.NotNil(t, patch)
	require.NotNil(t, patch.Department)
	assert.Equal(t, "", *patch.Department)
}

func TestDiff_TargetFieldMissing(t *testing.T) {
	current := baseUser()
	candidate := baseUser()
	candidate.City = String("Berlin")

	patch := Diff(current, candidate)
	require.NotNil(t, patch)
	assert.Equal(t, []string{"city"}, ChangedFields(patch))
}

func TestDiff_CustomFieldUnion(t *testing.T) {
	current := baseUser()
	current.CustomFields = map[string]string{"a": "1", "b": "2"}
	candidate := baseUser()
	candidate.CustomFields = map[string]string{"b": "3", "c": "4"}

	patch := Diff(current, candidate)
	require.NotNil(t, patch)
	assert.Equal(t, map[string]string{"b": "3", "c": "4"}, patch.CustomFields)
	assert.Equal(t, []string{"customfield.b", "customfield.c"}, ChangedFields(patch))
}

func TestDiff_CustomFieldUnchanged(t *testing.T) {
	current := baseUser()
	current.CustomFields = map[string]string{"a": "1", "b": "2"}
	candidate := baseUser()
	candidate.CustomFields = map[string]string{"b": "2"}

	assert.Nil(t, Diff(current, candidate))
}

func TestDiff_BooleanRepresentationsCompareEqual(t *testing.T) {
	// Target decoded from JSON where the flag arrived as a number.
	current := UserFromMap(map[string]any{
		"id":        float64(7),
		"username":  "jdoe",
		"suspended": float64(0),
		"confirmed": "1",
	})

	candidate := NewUser("jdoe")
	f, _ := LookupField("suspended")
	f.Set(candidate, false)
	f, _ = LookupField("confirmed")
	f.Set(candidate, true)

	assert.Nil(t, Diff(current, candidate))
}

func TestDiff_NilInputs(t *testing.T) {
	assert.Nil(t, Diff(nil, baseUser()))
	assert.Nil(t, Diff(baseUser(), nil))
}

func TestAnonymize(t *testing.T) {
	patch := Anonymize(baseUser(), "")

	id, ok := patch.Identity()
	require.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, "jdoe", *patch.Firstname)
	assert.Equal(t, "jdoe", *patch.Lastname)
	assert.Equal(t, "jdoe@"+DefaultAnonymousDomain, *patch.Email)
	assert.True(t, patch.IsSuspended())
	assert.Equal(t, "", *patch.Department)
}
