package model

// User is a target account as known by the learning platform.
//
// Every scalar is a pointer: nil means "not set" and is never sent to the
// remote API, which is what makes a User usable as a sparse patch.
type User struct {
	ID       *int    `json:"id,omitempty"`
	Username *string `json:"username,omitempty"`

	Firstname   *string `json:"firstname,omitempty"`
	Lastname    *string `json:"lastname,omitempty"`
	Fullname    *string `json:"fullname,omitempty"`
	Email       *string `json:"email,omitempty"`
	IDNumber    *string `json:"idnumber,omitempty"`
	Department  *string `json:"department,omitempty"`
	Institution *string `json:"institution,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	Phone1      *string `json:"phone1,omitempty"`
	Phone2      *string `json:"phone2,omitempty"`
	Address     *string `json:"address,omitempty"`

	Auth      *string `json:"auth,omitempty"`
	Suspended *bool   `json:"suspended,omitempty"`
	Confirmed *bool   `json:"confirmed,omitempty"`

	Lang              *string `json:"lang,omitempty"`
	Theme             *string `json:"theme,omitempty"`
	Timezone          *string `json:"timezone,omitempty"`
	MailFormat        *int    `json:"mailformat,omitempty"`
	Description       *string `json:"description,omitempty"`
	DescriptionFormat *int    `json:"descriptionformat,omitempty"`

	FirstAccess          *int    `json:"firstaccess,omitempty"`
	LastAccess           *int    `json:"lastaccess,omitempty"`
	ProfileImageURLSmall *string `json:"profileimageurlsmall,omitempty"`
	ProfileImageURL      *string `json:"profileimageurl,omitempty"`

	// CustomFields maps profile field short names to values.
	CustomFields map[string]string `json:"customfields,omitempty"`
}

// NewUser returns a desired user for the given login with no identity.
func NewUser(login string) *User {
	return &User{Username: String(login)}
}

// Login returns the username or an empty string.
func (u *User) Login() string {
	if u == nil || u.Username == nil {
		return ""
	}
	return *u.Username
}

// Identity returns the remote id and whether it is known.
func (u *User) Identity() (int, bool) {
	if u == nil || u.ID == nil {
		return 0, false
	}
	return *u.ID, true
}

// IsSuspended reports whether the suspended flag is set to true.
// An absent flag counts as not suspended.
func (u *User) IsSuspended() bool {
	return u != nil && u.Suspended != nil && *u.Suspended
}

// IsActive reports whether the suspended flag is present and false.
func (u *User) IsActive() bool {
	return u != nil && u.Suspended != nil && !*u.Suspended
}

// AuthMethod returns the authentication plugin name or an empty string.
func (u *User) AuthMethod() string {
	if u == nil || u.Auth == nil {
		return ""
	}
	return *u.Auth
}

// SetCustomField sets a custom profile field, allocating the map on demand.
func (u *User) SetCustomField(shortname, value string) {
	if u.CustomFields == nil {
		u.CustomFields = make(map[string]string)
	}
	u.CustomFields[shortname] = value
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := &User{}
	for _, f := range Fields {
		if v := f.Value(u); v != nil {
			f.Set(c, v)
		}
	}
	for k, v := range u.CustomFields {
		c.SetCustomField(k, v)
	}
	return c
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }
