package training

import (
	"context"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/evaluation"
)

// TrainArgs is the name-keyed parameter set consumed by the training
// engine.
type TrainArgs map[string]any

// EpochFunc receives the end-of-epoch notification: zero-based epoch
// index, total epoch count and whatever metrics the engine exposes for
// the finished epoch.
type EpochFunc func(epoch, total int, metrics map[string]any)

// Engine is the external training/evaluation collaborator. It consumes a
// resolved base model plus a parameter set, produces a run directory with
// checkpoint files, and exposes a val operation.
type Engine interface {
	// Resolve acquires the base model identified by identifier and returns
	// a local path to it. destDir is the download cache.
	Resolve(ctx context.Context, identifier, destDir string) (string, error)

	// Train runs one full training as a single long-lived unit of work,
	// invoking onEpoch after every completed epoch. Cancelling ctx
	// forcibly stops the engine.
	Train(ctx context.Context, args TrainArgs, onEpoch EpochFunc) error

	// Validate evaluates a weights artifact against one dataset split.
	Validate(ctx context.Context, weights, data, split string) (*evaluation.BoxMetrics, error)
}

// BuildTrainArgs merges the configuration into the parameter set the
// engine expects. Augmentation parameters are included only when
// augmentation is enabled; otherwise they are omitted entirely so the
// engine's own defaults apply.
func BuildTrainArgs(descriptorPath string, cfg *conf.TrainingSettings, device, project, runName string) TrainArgs {
	args := TrainArgs{
		"data":         descriptorPath,
		"epochs":       cfg.Epochs,
		"batch":        cfg.BatchSize,
		"imgsz":        cfg.ImageSize,
		"lr0":          cfg.LearningRate,
		"optimizer":    cfg.Optimizer,
		"weight_decay": cfg.WeightDecay,
		"momentum":     cfg.Momentum,
		"device":       device,
		"workers":      cfg.Workers,
		"patience":     cfg.Patience,
		"save_period":  cfg.SavePeriod,
		"project":      project,
		"name":         runName,
		"exist_ok":     true,
		"save":         true,
		"plots":        true,
		"val":          true,
	}

	if cfg.Augmentation.Enabled {
		args["mixup"] = cfg.Augmentation.Mixup
		args["copy_paste"] = cfg.Augmentation.CopyPaste
		args["degrees"] = 0.0
		args["translate"] = 0.1
		args["scale"] = 0.5
		args["shear"] = 0.0
		args["perspective"] = 0.0
		args["flipud"] = 0.0
		args["fliplr"] = 0.5
		args["mosaic"] = 1.0
		args["hsv_h"] = 0.015
		args["hsv_s"] = 0.7
		args["hsv_v"] = 0.4
	}

	return args
}

// augmentationKeys lists the parameters controlled by the augmentation
// toggle, for tests and argument inspection.
var augmentationKeys = []string{
	"mixup", "copy_paste", "degrees", "translate", "scale", "shear",
	"perspective", "flipud", "fliplr", "mosaic", "hsv_h", "hsv_s", "hsv_v",
}
