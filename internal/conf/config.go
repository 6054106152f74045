// Package conf handles loading and validating the application settings.
// Settings are loaded once at startup and passed into the pipeline by
// value; nothing in the pipeline reads process-wide configuration state.
package conf

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// SplitRatios defines how the annotated corpus is partitioned.
type SplitRatios struct {
	Train float64 `yaml:"train"`
	Val   float64 `yaml:"val"`
	Test  float64 `yaml:"test"`
}

// RatioTolerance is the allowed deviation of the ratio sum from 1.0.
const RatioTolerance = 0.01

// Sum returns the total of the three ratios.
func (r SplitRatios) Sum() float64 {
	return r.Train + r.Val + r.Test
}

// Validate checks that the ratios sum to 1.0 within tolerance. A violation
// is a hard validation error, never auto-corrected here; a consuming UI
// may normalize before calling in.
func (r SplitRatios) Validate() error {
	sum := r.Sum()
	if sum < 1.0-RatioTolerance || sum > 1.0+RatioTolerance {
		return errors.Newf("split ratios must sum to 1.0, got %.4f (train=%.2f val=%.2f test=%.2f)",
			sum, r.Train, r.Val, r.Test).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("sum", sum).
			Build()
	}
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return errors.Newf("split ratios must be non-negative, got train=%.2f val=%.2f test=%.2f",
			r.Train, r.Val, r.Test).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// DatasetSettings configures corpus discovery and dataset materialization.
type DatasetSettings struct {
	Name       string      `yaml:"name"`       // dataset directory name under OutputDir
	SourceDirs []string    `yaml:"sourcedirs"` // search roots for images and labels
	OutputDir  string      `yaml:"outputdir"`  // where prepared datasets are written
	Ratios     SplitRatios `yaml:"ratios"`
	Seed       int64       `yaml:"seed"` // shuffle seed, 0 means non-deterministic
}

// AugmentationSettings configures training-time data augmentation.
type AugmentationSettings struct {
	Enabled   bool    `yaml:"enabled"`
	Mixup     float64 `yaml:"mixup"`
	CopyPaste float64 `yaml:"copypaste"`
}

// TrainingSettings holds the full hyperparameter set for a training run.
// The struct is copied into each run and never mutated afterwards.
type TrainingSettings struct {
	ModelName    string               `yaml:"modelname"`
	BaseModel    string               `yaml:"basemodel"`
	Epochs       int                  `yaml:"epochs"`
	BatchSize    int                  `yaml:"batchsize"`
	ImageSize    int                  `yaml:"imagesize"`
	LearningRate float64              `yaml:"learningrate"`
	Optimizer    string               `yaml:"optimizer"`
	WeightDecay  float64              `yaml:"weightdecay"`
	Momentum     float64              `yaml:"momentum"`
	Augmentation AugmentationSettings `yaml:"augmentation"`
	Device       string               `yaml:"device"` // auto, cpu, cuda, cuda:N
	Workers      int                  `yaml:"workers"`
	Patience     int                  `yaml:"patience"`   // early-stop patience in epochs
	SavePeriod   int                  `yaml:"saveperiod"` // checkpoint period in epochs
	OutputDir    string               `yaml:"outputdir"`  // run directories live here
	ArtifactDir  string               `yaml:"artifactdir"`
	WeightsDir   string               `yaml:"weightsdir"` // base-model download cache
}

// RegistrySettings locates the vehicle-class registry store.
type RegistrySettings struct {
	File string `yaml:"file"`
}

// DatabaseSettings locates the run-history database.
type DatabaseSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Settings contains all runtime settings.
type Settings struct {
	Debug    bool `yaml:"debug"`
	Dataset  DatasetSettings
	Training TrainingSettings
	Registry RegistrySettings
	Database DatabaseSettings
}

// Load reads the configuration file and environment into a Settings value.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the
// configuration file when one exists. A missing config file is not an
// error, defaults apply.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// configPaths returns the directories searched for config.yaml, in order.
func configPaths() []string {
	paths := []string{"."}
	if home, err := homeConfigDir(); err == nil {
		paths = append(paths, filepath.Join(home, "vehiclenet-go"))
	}
	return paths
}
