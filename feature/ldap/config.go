package ldap

// Config holds the directory connection and search settings.
type Config struct {
	// URL is the server address, e.g. ldaps://ldap.example.org:636.
	URL string `mapstructure:"url" default:"ldap://localhost:389"`
	// BindDN is the distinguished name used to bind.
	BindDN string `mapstructure:"bind_dn" default:""`
	// BindPassword is the password for BindDN.
	BindPassword string `mapstructure:"bind_password" default:""`
	// BaseDN is the search base for user entries.
	BaseDN string `mapstructure:"base_dn" default:""`
	// Filter selects user entries.
	Filter string `mapstructure:"filter" default:"(objectClass=inetOrgPerson)"`
	// Scope is one of base, one or sub.
	Scope string `mapstructure:"scope" default:"sub"`
	// UserIDAttribute holds the login of an entry.
	UserIDAttribute string `mapstructure:"user_id_attribute" default:"uid"`
	// Attributes lists the attributes fetched in the full pass.
	// Empty means all user attributes.
	Attributes []string `mapstructure:"attributes"`
	// TimestampAttribute is compared against the watermark.
	TimestampAttribute string `mapstructure:"timestamp_attribute" default:"modifyTimestamp"`
	// PageSize is the simple paged results page size.
	PageSize int `mapstructure:"page_size" default:"1000"`
	// TrustAllCertificates disables server certificate verification.
	TrustAllCertificates bool `mapstructure:"trust_all_certificates" default:"false"`
	// TimeoutSeconds bounds dialing and single requests.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
