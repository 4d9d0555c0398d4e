package moodle

// Removal modes for accounts that left the directory.
const (
	RemovalSuspend   = "suspend"
	RemovalAnonymize = "anonymize"
)

// Config holds the web service connection settings.
type Config struct {
	// BaseURL is the site root, e.g. https://moodle.example.org.
	BaseURL string `mapstructure:"base_url" default:"http://localhost"`
	// Token is the web service token.
	Token string `mapstructure:"token" default:""`
	// ManagedAuth is the auth plugin that marks accounts owned by the sync.
	ManagedAuth string `mapstructure:"managed_auth" default:"ldap"`
	// RemovalMode is suspend or anonymize.
	RemovalMode string `mapstructure:"removal_mode" default:"suspend"`
	// AnonymousDomain is the mail domain of anonymized accounts.
	AnonymousDomain string `mapstructure:"anonymous_domain" default:"anonymous.invalid"`
	// TrustAllCertificates disables server certificate verification.
	TrustAllCertificates bool `mapstructure:"trust_all_certificates" default:"false"`
	// TimeoutSeconds bounds a single request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// Trace logs request parameters and response bodies at debug level.
	Trace bool `mapstructure:"trace" default:"false"`
}
