// Package mapping turns directory entries into target-shaped users.
//
// A Mapper holds one rule list for creates and an optional one for updates.
// Each rule copies an attribute, or a constant, into a user field or a
// custom field (target "customfield.<shortname>") after optional transforms
// such as trim, lowercase or localpart. Rule files are read with viper, so
// YAML, JSON and TOML all work:
//
//	create:
//	  - target: firstname
//	    source: givenName
//	    transforms: [trim]
//	  - target: auth
//	    value: ldap
//
// Func wraps compiled mapping code when a rule table is not enough.
package mapping
