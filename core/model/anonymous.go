package model

// DefaultAnonymousDomain is the mail domain used for anonymized accounts.
const DefaultAnonymousDomain = "anonymous.invalid"

// Anonymize builds the patch that strips personal data from an account that
// left the directory. Names are replaced by the login, the mail address
// points to domain, free-text fields are cleared and the account is suspended.
func Anonymize(current *User, domain string) *User {
	if domain == "" {
		domain = DefaultAnonymousDomain
	}
	login := current.Login()
	empty := func() *string { return String("") }

	patch := &User{
		Firstname:   String(login),
		Lastname:    String(login),
		Email:       String(login + "@" + domain),
		IDNumber:    empty(),
		Department:  empty(),
		Institution: empty(),
		City:        empty(),
		Phone1:      empty(),
		Phone2:      empty(),
		Address:     empty(),
		Description: empty(),
		Suspended:   Bool(true),
	}
	if id, ok := current.Identity(); ok {
		patch.ID = Int(id)
	}
	return patch
}
