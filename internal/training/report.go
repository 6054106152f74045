package training

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/errors"
)

const (
	configSnapshotFileName = "training_config.json"
	reportFileName         = "training_report.json"
)

// ConfigSnapshot freezes the effective configuration of a run at start
// time, so completed runs stay interpretable after the live configuration
// changes.
type ConfigSnapshot struct {
	CreatedAt      time.Time                 `json:"created_at"`
	RunID          string                    `json:"run_id"`
	ModelName      string                    `json:"model_name"`
	BaseModel      string                    `json:"base_model"`
	ResolvedModel  string                    `json:"resolved_model"`
	Device         string                    `json:"device"`
	DescriptorPath string                    `json:"dataset"`
	Epochs         int                       `json:"epochs"`
	BatchSize      int                       `json:"batch_size"`
	ImageSize      int                       `json:"image_size"`
	LearningRate   float64                   `json:"learning_rate"`
	Optimizer      string                    `json:"optimizer"`
	WeightDecay    float64                   `json:"weight_decay"`
	Momentum       float64                   `json:"momentum"`
	Workers        int                       `json:"workers"`
	Patience       int                       `json:"patience"`
	SavePeriod     int                       `json:"save_period"`
	Augmentation   conf.AugmentationSettings `json:"augmentation"`
}

// Report summarizes a finished run.
type Report struct {
	RunID           string    `json:"run_id"`
	ModelName       string    `json:"model_name"`
	BaseModel       string    `json:"base_model"`
	Device          string    `json:"device"`
	RunDir          string    `json:"run_dir"`
	ArtifactPath    string    `json:"artifact_path"`
	EpochsRequested int       `json:"epochs_requested"`
	EpochsCompleted int       `json:"epochs_completed"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}

func writeJSONDoc(dir, name string, doc any) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			Build()
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err).
			Component("training").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return path, nil
}

// WriteConfigSnapshot writes the snapshot document into the run directory.
func WriteConfigSnapshot(dir string, snapshot *ConfigSnapshot) (string, error) {
	return writeJSONDoc(dir, configSnapshotFileName, snapshot)
}

// WriteReport writes the run summary document into the run directory.
func WriteReport(dir string, report *Report) (string, error) {
	return writeJSONDoc(dir, reportFileName, report)
}
