// interfaces.go: this code defines the interface for run-history operations
package datastore

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines
// the run-history operations the orchestrator and evaluator need.
type Interface interface {
	SaveRun(record *RunRecord) error
	UpdateRunStatus(runID, status string) error
	SetRunArtifact(runID, artifactPath string) error
	SetRunMetrics(runID string, map50, map5095, precision, recall float64) error
	GetRun(runID string) (*RunRecord, error)
	ListRuns(limit int) ([]RunRecord, error)
	Close() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// Open opens (and migrates) the sqlite run-history database at path.
func Open(path string) (*DataStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			FileContext(path).
			Build()
	}

	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, errors.Wrap(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	return &DataStore{DB: db}, nil
}

// SaveRun inserts a new run row.
func (ds *DataStore) SaveRun(record *RunRecord) error {
	return dbErr(ds.DB.Create(record).Error)
}

// UpdateRunStatus moves a run to a new lifecycle status. Terminal statuses
// also set the completion timestamp.
func (ds *DataStore) UpdateRunStatus(runID, status string) error {
	updates := map[string]any{"status": status}
	switch status {
	case "completed", "failed", "cancelled":
		now := time.Now()
		updates["completed_at"] = &now
	}
	return dbErr(ds.DB.Model(&RunRecord{}).Where("run_id = ?", runID).Updates(updates).Error)
}

// SetRunArtifact records the final weights artifact location.
func (ds *DataStore) SetRunArtifact(runID, artifactPath string) error {
	return dbErr(ds.DB.Model(&RunRecord{}).Where("run_id = ?", runID).
		Update("artifact_path", artifactPath).Error)
}

// SetRunMetrics attaches evaluation metrics to a run.
func (ds *DataStore) SetRunMetrics(runID string, map50, map5095, precision, recall float64) error {
	return dbErr(ds.DB.Model(&RunRecord{}).Where("run_id = ?", runID).Updates(map[string]any{
		"map50":     map50,
		"map5095":   map5095,
		"precision": precision,
		"recall":    recall,
	}).Error)
}

// GetRun fetches one run by its identifier.
func (ds *DataStore) GetRun(runID string) (*RunRecord, error) {
	var record RunRecord
	err := ds.DB.Where("run_id = ?", runID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("run %s not found", runID).
				Component("datastore").
				Category(errors.CategoryResourceMissing).
				Build()
		}
		return nil, dbErr(err)
	}
	return &record, nil
}

// ListRuns returns the most recent runs, newest first.
func (ds *DataStore) ListRuns(limit int) ([]RunRecord, error) {
	var records []RunRecord
	q := ds.DB.Order("started_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, dbErr(err)
	}
	return records, nil
}

// Close closes the underlying database connection.
func (ds *DataStore) Close() error {
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbErr(err)
	}
	return sqlDB.Close()
}

func dbErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
}
