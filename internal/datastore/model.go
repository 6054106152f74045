// Package datastore persists the training-run history.
package datastore

import (
	"time"

	"gorm.io/gorm"
)

// RunRecord is a single training run as stored in the database. One row is
// created when a run starts and updated as the run moves through its
// lifecycle; final metrics are attached after evaluation.
type RunRecord struct {
	gorm.Model
	RunID        string `gorm:"uniqueIndex;size:64"` // orchestrator run identifier
	ModelName    string `gorm:"index"`
	BaseModel    string
	Device       string
	Status       string `gorm:"index"` // running, completed, failed, cancelled
	RunDir       string
	ArtifactPath string
	MAP50        float64 `gorm:"column:map50"`
	MAP5095      float64 `gorm:"column:map5095"`
	Precision    float64
	Recall       float64
	StartedAt    time.Time
	CompletedAt  *time.Time
}
