package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ldap2moodle/core/reconcile"
)

// FileStore keeps one watermark file and one report file per domain.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load implements reconcile.WatermarkStore.
func (s *FileStore) Load(_ context.Context, domain string) (time.Time, error) {
	if err := ValidateDomain(domain); err != nil {
		return time.Time{}, err
	}
	data, err := os.ReadFile(s.watermarkPath(domain))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt watermark file %s: %w", s.watermarkPath(domain), err)
	}
	return ts, nil
}

// Save implements reconcile.WatermarkStore.
func (s *FileStore) Save(_ context.Context, domain string, ts time.Time) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	line := ts.UTC().Format(time.RFC3339Nano) + "\n"
	if err := writeFile(s.watermarkPath(domain), []byte(line)); err != nil {
		return fmt.Errorf("failed to write watermark: %w", err)
	}
	return nil
}

// SaveReport implements reconcile.ReportSink.
func (s *FileStore) SaveReport(_ context.Context, report *reconcile.RunReport) error {
	if err := ValidateDomain(report.Domain); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := writeFile(s.reportPath(report.Domain), data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Status implements Store.
func (s *FileStore) Status(ctx context.Context, domain string) (*Status, error) {
	ts, err := s.Load(ctx, domain)
	if err != nil {
		return nil, err
	}
	status := &Status{Domain: domain, Watermark: ts}

	data, err := os.ReadFile(s.reportPath(domain))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return status, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report reconcile.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("corrupt report file %s: %w", s.reportPath(domain), err)
	}
	status.LastRun = &report
	return status, nil
}

// Reset implements Store.
func (s *FileStore) Reset(_ context.Context, domain string) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	for _, p := range []string{s.watermarkPath(domain), s.reportPath(domain)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

func (s *FileStore) watermarkPath(domain string) string {
	return filepath.Join(s.dir, domain+".watermark")
}

func (s *FileStore) reportPath(domain string) string {
	return filepath.Join(s.dir, domain+".report.json")
}

// writeFile replaces path via a temporary file and rename so readers never
// see a partial watermark.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
