// Package utils provides common utility functions for ldap2moodle.
// It includes loose type conversion used when decoding REST payloads and when
// mapping directory attributes, where booleans may arrive as flags, integers
// or strings.
package utils
