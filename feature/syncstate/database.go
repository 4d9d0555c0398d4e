package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ldap2moodle/core/reconcile"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncState is the row kept per sync domain.
type SyncState struct {
	Domain    string     `gorm:"primaryKey;size:64"`
	Watermark *time.Time `gorm:"column:watermark"`

	LastRunID  string     `gorm:"column:last_run_id;size:36"`
	LastRunAt  *time.Time `gorm:"column:last_run_at"`
	LastError  string     `gorm:"column:last_error;type:text"`
	LastReport string     `gorm:"column:last_report;type:text"`

	UpdatedAt time.Time
}

// TableName overrides the GORM default.
func (SyncState) TableName() string {
	return "sync_state"
}

// DatabaseStore keeps sync state in the sync_state table.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore migrates the sync_state table and returns a store.
func NewDatabaseStore(ctx context.Context, db *gorm.DB) (*DatabaseStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&SyncState{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sync_state: %w", err)
	}
	return &DatabaseStore{db: db}, nil
}

// Load implements reconcile.WatermarkStore.
func (s *DatabaseStore) Load(ctx context.Context, domain string) (time.Time, error) {
	row, err := s.find(ctx, domain)
	if err != nil || row == nil || row.Watermark == nil {
		return time.Time{}, err
	}
	return row.Watermark.UTC(), nil
}

// Save implements reconcile.WatermarkStore.
func (s *DatabaseStore) Save(ctx context.Context, domain string, ts time.Time) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	ts = ts.UTC()
	row := SyncState{Domain: domain, Watermark: &ts}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"watermark", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}

// SaveReport implements reconcile.ReportSink.
func (s *DatabaseStore) SaveReport(ctx context.Context, report *reconcile.RunReport) error {
	if err := ValidateDomain(report.Domain); err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	finished := report.FinishedAt.UTC()
	row := SyncState{
		Domain:     report.Domain,
		LastRunID:  report.RunID,
		LastRunAt:  &finished,
		LastError:  report.Error,
		LastReport: string(data),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_run_id", "last_run_at", "last_error", "last_report", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Status implements Store.
func (s *DatabaseStore) Status(ctx context.Context, domain string) (*Status, error) {
	row, err := s.find(ctx, domain)
	if err != nil {
		return nil, err
	}
	status := &Status{Domain: domain}
	if row == nil {
		return status, nil
	}
	if row.Watermark != nil {
		status.Watermark = row.Watermark.UTC()
	}
	if row.LastReport != "" {
		var report reconcile.RunReport
		if err := json.Unmarshal([]byte(row.LastReport), &report); err != nil {
			return nil, fmt.Errorf("corrupt report of domain %s: %w", domain, err)
		}
		status.LastRun = &report
	}
	return status, nil
}

// Reset implements Store.
func (s *DatabaseStore) Reset(ctx context.Context, domain string) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("domain = ?", domain).Delete(&SyncState{}).Error; err != nil {
		return fmt.Errorf("failed to reset domain %s: %w", domain, err)
	}
	return nil
}

func (s *DatabaseStore) find(ctx context.Context, domain string) (*SyncState, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	var row SyncState
	err := s.db.WithContext(ctx).Where("domain = ?", domain).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	return &row, nil
}
