// Package syncstate persists incremental sync watermarks and run reports.
//
// Three backends implement Store:
//   - FileStore writes <domain>.watermark and <domain>.report.json files.
//   - DatabaseStore keeps one sync_state row per domain through GORM.
//   - ObjectStore keeps <prefix>/<domain>.json in an S3 or MinIO bucket and
//     archives every run report below <prefix>/reports/.
//
// A missing entry always loads as the zero time, which makes the next run a
// full sync. New selects the backend from Config. ObjectStore also lists
// and purges the archived reports of a domain.
package syncstate
