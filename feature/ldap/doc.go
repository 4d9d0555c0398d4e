// Package ldap reads user entries from the directory with simple paged
// results.
//
// Reader implements the source side of a sync. Logins are taken from the
// configured identifier attribute and normalized with model.NormalizeID;
// entries without it are logged and skipped. Incremental reads add a
// generalized-time condition on the timestamp attribute to the filter.
package ldap
