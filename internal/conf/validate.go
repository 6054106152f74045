package conf

import (
	"slices"
	"strings"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// knownOptimizers lists the optimizer names the training engine accepts.
var knownOptimizers = []string{"SGD", "Adam", "AdamW", "NAdam", "RAdam", "RMSProp", "auto"}

// Validate checks the settings for internal consistency. It fails fast so
// no pipeline step starts from a configuration the engine would reject
// halfway into a run.
func (s *Settings) Validate() error {
	if err := s.Dataset.validate(); err != nil {
		return err
	}
	return s.Training.validate()
}

func (d *DatasetSettings) validate() error {
	if d.Name == "" {
		return configErr("dataset name must not be empty")
	}
	if len(d.SourceDirs) == 0 {
		return configErr("at least one dataset source directory is required")
	}
	return d.Ratios.Validate()
}

func (t *TrainingSettings) validate() error {
	if t.ModelName == "" {
		return configErr("training model name must not be empty")
	}
	if t.BaseModel == "" {
		return configErr("training base model must not be empty")
	}
	if t.Epochs <= 0 {
		return configErr("epochs must be positive, got %d", t.Epochs)
	}
	if t.BatchSize <= 0 {
		return configErr("batch size must be positive, got %d", t.BatchSize)
	}
	if t.ImageSize <= 0 {
		return configErr("image size must be positive, got %d", t.ImageSize)
	}
	if t.LearningRate <= 0 {
		return configErr("learning rate must be positive, got %g", t.LearningRate)
	}
	if !slices.Contains(knownOptimizers, t.Optimizer) {
		return configErr("unknown optimizer %q, expected one of %s",
			t.Optimizer, strings.Join(knownOptimizers, ", "))
	}
	if t.Workers < 0 {
		return configErr("workers must not be negative, got %d", t.Workers)
	}
	if t.Patience < 0 {
		return configErr("patience must not be negative, got %d", t.Patience)
	}
	if t.SavePeriod <= 0 {
		return configErr("save period must be positive, got %d", t.SavePeriod)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Build()
}
