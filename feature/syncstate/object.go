package syncstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"ldap2moodle/core/reconcile"
	"ldap2moodle/core/storage"

	"github.com/minio/minio-go/v7"
)

// objectState is the JSON document stored per domain.
type objectState struct {
	Domain    string               `json:"domain"`
	Watermark time.Time            `json:"watermark"`
	LastRun   *reconcile.RunReport `json:"last_run,omitempty"`
}

// ObjectStore keeps sync state as JSON objects in a bucket.
//
// The state of a domain lives in <prefix>/<domain>.json. Reports are also
// archived as <prefix>/reports/<domain>/<started_at>-<run_id>.json.
type ObjectStore struct {
	client storage.Client
	bucket string
	prefix string
}

// NewObjectStore returns a store writing below prefix in bucket.
func NewObjectStore(client storage.Client, bucket, prefix string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix}
}

// Load implements reconcile.WatermarkStore.
func (s *ObjectStore) Load(ctx context.Context, domain string) (time.Time, error) {
	st, err := s.read(ctx, domain)
	if err != nil {
		return time.Time{}, err
	}
	return st.Watermark, nil
}

// Save implements reconcile.WatermarkStore.
func (s *ObjectStore) Save(ctx context.Context, domain string, ts time.Time) error {
	st, err := s.read(ctx, domain)
	if err != nil {
		return err
	}
	st.Watermark = ts.UTC()
	return s.put(ctx, s.stateName(domain), st)
}

// SaveReport implements reconcile.ReportSink.
func (s *ObjectStore) SaveReport(ctx context.Context, report *reconcile.RunReport) error {
	st, err := s.read(ctx, report.Domain)
	if err != nil {
		return err
	}
	st.LastRun = report
	if err := s.put(ctx, s.stateName(report.Domain), st); err != nil {
		return err
	}
	name := s.reportPrefix(report.Domain) +
		fmt.Sprintf("%s-%s.json", report.StartedAt.UTC().Format("20060102T150405Z"), report.RunID)
	return s.put(ctx, name, report)
}

// Status implements Store.
func (s *ObjectStore) Status(ctx context.Context, domain string) (*Status, error) {
	st, err := s.read(ctx, domain)
	if err != nil {
		return nil, err
	}
	return &Status{Domain: domain, Watermark: st.Watermark, LastRun: st.LastRun}, nil
}

// Reset implements Store. Archived reports are kept.
func (s *ObjectStore) Reset(ctx context.Context, domain string) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, s.bucket, s.stateName(domain), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove state of domain %s: %w", domain, err)
	}
	return nil
}

// ReportObject describes one archived run report.
type ReportObject struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Reports lists the archived reports of domain, oldest first.
func (s *ObjectStore) Reports(ctx context.Context, domain string) ([]ReportObject, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	var reports []ReportObject
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.reportPrefix(domain),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		reports = append(reports, ReportObject{Name: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	// Keys start with the run start time, so lexical order is chronological.
	slices.SortFunc(reports, func(a, b ReportObject) int { return strings.Compare(a.Name, b.Name) })
	return reports, nil
}

// PurgeReports deletes every archived report of domain and returns how many
// were removed.
func (s *ObjectStore) PurgeReports(ctx context.Context, domain string) (int, error) {
	reports, err := s.Reports(ctx, domain)
	if err != nil || len(reports) == 0 {
		return 0, err
	}

	objects := make(chan minio.ObjectInfo, len(reports))
	for _, r := range reports {
		objects <- minio.ObjectInfo{Key: r.Name}
	}
	close(objects)

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("%s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return len(reports) - len(errs), fmt.Errorf("failed to purge reports: %w", errors.Join(errs...))
	}
	return len(reports), nil
}

func (s *ObjectStore) reportPrefix(domain string) string {
	return path.Join(s.prefix, "reports", domain) + "/"
}

func (s *ObjectStore) stateName(domain string) string {
	return path.Join(s.prefix, domain+".json")
}

func (s *ObjectStore) read(ctx context.Context, domain string) (*objectState, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	st := &objectState{Domain: domain}

	obj, err := s.client.GetObject(ctx, s.bucket, s.stateName(domain), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to get state of domain %s: %w", domain, err)
	}
	defer obj.Close()

	// minio returns the object lazily, so a missing key surfaces on read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to read state of domain %s: %w", domain, err)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("corrupt state of domain %s: %w", domain, err)
	}
	return st, nil
}

func (s *ObjectStore) put(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
