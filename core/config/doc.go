// Package config provides configuration management for ldap2moodle.
//
// It utilizes Viper for loading configuration from a .env file, an optional
// config.yaml and environment variables. Defaults come from the `default`
// struct tags of every section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and shutdown bound of the serve command
//   - Log: logging level and format
//   - LDAP: directory URL, bind credentials, search base and paging
//   - Moodle: web service URL, token, managed auth method and removal mode
//   - Sync: domain, mapping file, exclusions and failure policy
//   - State: watermark backend (file, database or storage)
//   - Database, Storage: connections for the matching state backends
//
// Environment variables use the upper-cased key path with underscores,
// e.g. LDAP_BIND_PASSWORD or SYNC_ON_TARGET_FAILURE.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
