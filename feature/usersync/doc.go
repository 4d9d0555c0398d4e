// Package usersync exposes reconciliation runs over HTTP and on a schedule.
//
// Service serializes runs of one engine: a mutex guarantees that at most one
// run touches the platform at a time, and singleflight lets identical
// concurrent triggers (same dry_run and full_sync switches) share a run.
// Runs are bound to the service's root context, so a client hanging up does
// not abort a run other callers wait for.
//
// # Routes
//
//   - POST /sync?dry_run=&full_sync=&wait=
//   - GET /sync/status
//   - GET /sync/watermark
package usersync
