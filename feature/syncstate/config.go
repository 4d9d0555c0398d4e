package syncstate

// Backends selectable in Config.Backend.
const (
	BackendFile     = "file"
	BackendDatabase = "database"
	BackendStorage  = "storage"
)

// Config selects and configures the watermark store.
type Config struct {
	// Backend is one of file, database or storage.
	Backend string `mapstructure:"backend" default:"file"`
	// Path is the state directory of the file backend.
	Path string `mapstructure:"path" default:"./state"`
	// Prefix is the object name prefix of the storage backend.
	Prefix string `mapstructure:"prefix" default:"ldap2moodle/state"`
}
