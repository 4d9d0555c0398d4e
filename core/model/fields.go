package model

import (
	"strconv"

	"ldap2moodle/core/utils"
)

// Kind is the normalized value type of a user field.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
)

// Access controls how a field takes part in diffing and in requests.
type Access int

const (
	// Managed fields are diffed and sent to the remote API.
	Managed Access = iota
	// Key fields identify the account. They are sent but never diffed.
	Key
	// ReadOnly fields are computed remotely. They are decoded only.
	ReadOnly
)

// Field describes one scalar field of User.
//
// Values are always normalized to string, bool or int so that equality is
// structural and independent of the wire representation (0/1 vs false/true).
type Field struct {
	Name   string
	Kind   Kind
	Access Access

	get func(u *User) any
	set func(u *User, v any)
}

// Value returns the normalized value of the field or nil when unset.
func (f Field) Value(u *User) any {
	if u == nil {
		return nil
	}
	return f.get(u)
}

// Set assigns v converted to the field kind. A nil v clears the field.
func (f Field) Set(u *User, v any) {
	f.set(u, v)
}

// Encode renders the field for a form-encoded request.
// Booleans are encoded as "1" and "0".
func (f Field) Encode(u *User) (string, bool) {
	switch v := f.Value(u).(type) {
	case string:
		return v, true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

// Fields is the descriptor table for User, in request order.
var Fields = []Field{
	intField("id", Key, func(u *User) **int { return &u.ID }),
	stringField("username", Key, func(u *User) **string { return &u.Username }),
	stringField("auth", Managed, func(u *User) **string { return &u.Auth }),
	stringField("firstname", Managed, func(u *User) **string { return &u.Firstname }),
	stringField("lastname", Managed, func(u *User) **string { return &u.Lastname }),
	stringField("fullname", ReadOnly, func(u *User) **string { return &u.Fullname }),
	stringField("email", Managed, func(u *User) **string { return &u.Email }),
	stringField("idnumber", Managed, func(u *User) **string { return &u.IDNumber }),
	stringField("department", Managed, func(u *User) **string { return &u.Department }),
	stringField("institution", Managed, func(u *User) **string { return &u.Institution }),
	stringField("city", Managed, func(u *User) **string { return &u.City }),
	stringField("country", Managed, func(u *User) **string { return &u.Country }),
	stringField("phone1", Managed, func(u *User) **string { return &u.Phone1 }),
	stringField("phone2", Managed, func(u *User) **string { return &u.Phone2 }),
	stringField("address", Managed, func(u *User) **string { return &u.Address }),
	boolField("suspended", Managed, func(u *User) **bool { return &u.Suspended }),
	boolField("confirmed", Managed, func(u *User) **bool { return &u.Confirmed }),
	stringField("lang", Managed, func(u *User) **string { return &u.Lang }),
	stringField("theme", Managed, func(u *User) **string { return &u.Theme }),
	stringField("timezone", Managed, func(u *User) **string { return &u.Timezone }),
	intField("mailformat", Managed, func(u *User) **int { return &u.MailFormat }),
	stringField("description", Managed, func(u *User) **string { return &u.Description }),
	intField("descriptionformat", Managed, func(u *User) **int { return &u.DescriptionFormat }),
	intField("firstaccess", ReadOnly, func(u *User) **int { return &u.FirstAccess }),
	intField("lastaccess", ReadOnly, func(u *User) **int { return &u.LastAccess }),
	stringField("profileimageurlsmall", ReadOnly, func(u *User) **string { return &u.ProfileImageURLSmall }),
	stringField("profileimageurl", ReadOnly, func(u *User) **string { return &u.ProfileImageURL }),
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Name] = f
	}
	return m
}()

// LookupField returns the descriptor for a field name.
func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// CustomFieldPrefix marks custom profile fields in flat attribute names,
// e.g. "customfield.matrikel".
const CustomFieldPrefix = "customfield."

// UserFromMap decodes a loosely typed JSON object into a User.
// Unknown keys are ignored; booleans and integers accept any representation
// understood by the utils package.
func UserFromMap(m map[string]any) *User {
	u := &User{}
	for _, f := range Fields {
		if v, ok := m[f.Name]; ok && v != nil {
			f.Set(u, v)
		}
	}

	raw, _ := m["customfields"].([]any)
	for _, item := range raw {
		cf, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := utils.ToString(cf["shortname"])
		if name == "" {
			continue
		}
		u.SetCustomField(name, utils.ToString(cf["value"]))
	}
	return u
}

func stringField(name string, access Access, ptr func(u *User) **string) Field {
	return Field{
		Name:   name,
		Kind:   KindString,
		Access: access,
		get: func(u *User) any {
			if p := *ptr(u); p != nil {
				return *p
			}
			return nil
		},
		set: func(u *User, v any) {
			if v == nil {
				*ptr(u) = nil
				return
			}
			s := utils.ToString(v)
			*ptr(u) = &s
		},
	}
}

func boolField(name string, access Access, ptr func(u *User) **bool) Field {
	return Field{
		Name:   name,
		Kind:   KindBool,
		Access: access,
		get: func(u *User) any {
			if p := *ptr(u); p != nil {
				return *p
			}
			return nil
		},
		set: func(u *User, v any) {
			if v == nil {
				*ptr(u) = nil
				return
			}
			b := utils.ToBool(v)
			*ptr(u) = &b
		},
	}
}

func intField(name string, access Access, ptr func(u *User) **int) Field {
	return Field{
		Name:   name,
		Kind:   KindInt,
		Access: access,
		get: func(u *User) any {
			if p := *ptr(u); p != nil {
				return *p
			}
			return nil
		},
		set: func(u *User, v any) {
			if v == nil {
				*ptr(u) = nil
				return
			}
			i := utils.ToInt(v)
			*ptr(u) = &i
		},
	}
}
