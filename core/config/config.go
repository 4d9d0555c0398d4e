package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ldap2moodle/core/database"
	"ldap2moodle/core/logger"
	"ldap2moodle/core/server"
	"ldap2moodle/core/storage"
	"ldap2moodle/feature/ldap"
	"ldap2moodle/feature/moodle"
	"ldap2moodle/feature/syncstate"
	"ldap2moodle/feature/usersync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server of the serve command.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds the connection used by the database state backend.
	Database database.Config `mapstructure:"database"`
	// Storage holds the bucket used by the storage state backend.
	Storage storage.Config `mapstructure:"storage"`
	// LDAP holds the directory connection.
	LDAP ldap.Config `mapstructure:"ldap"`
	// Moodle holds the web service connection.
	Moodle moodle.Config `mapstructure:"moodle"`
	// Sync holds the reconciliation settings.
	Sync usersync.Config `mapstructure:"sync"`
	// State selects the watermark store.
	State syncstate.Config `mapstructure:"state"`
}

// LoadConfig loads configuration from path/.env, an optional
// path/config.yaml and environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// A missing .env is fine, e.g. in containers.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map environment variables to nested keys (e.g. LDAP_BASE_DN -> ldap.base_dn)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks settings that cannot be verified by decoding alone.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Moodle.RemovalMode {
	case moodle.RemovalSuspend, moodle.RemovalAnonymize:
	default:
		errs = append(errs, fmt.Errorf("invalid value %q for moodle.removal_mode", c.Moodle.RemovalMode))
	}
	switch c.State.Backend {
	case syncstate.BackendFile, syncstate.BackendDatabase, syncstate.BackendStorage:
	default:
		errs = append(errs, fmt.Errorf("invalid value %q for state.backend", c.State.Backend))
	}
	if c.LDAP.BaseDN == "" {
		errs = append(errs, errors.New("ldap.base_dn is required"))
	}
	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
