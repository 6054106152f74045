package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsight/vehiclenet-go/internal/conf"
)

func testTrainingSettings() conf.TrainingSettings {
	return conf.TrainingSettings{
		ModelName:    "custom_vehicle_model",
		BaseModel:    "yolov8n.pt",
		Epochs:       100,
		BatchSize:    16,
		ImageSize:    640,
		LearningRate: 0.01,
		Optimizer:    "AdamW",
		WeightDecay:  0.0005,
		Momentum:     0.937,
		Device:       "cpu",
		Workers:      8,
		Patience:     50,
		SavePeriod:   10,
	}
}

func TestBuildTrainArgsCoreParameters(t *testing.T) {
	cfg := testTrainingSettings()
	args := BuildTrainArgs("data/dataset.yaml", &cfg, "cpu", "runs", "model_x")

	assert.Equal(t, "data/dataset.yaml", args["data"])
	assert.Equal(t, 100, args["epochs"])
	assert.Equal(t, 16, args["batch"])
	assert.Equal(t, 640, args["imgsz"])
	assert.Equal(t, 0.01, args["lr0"])
	assert.Equal(t, "AdamW", args["optimizer"])
	assert.Equal(t, 0.0005, args["weight_decay"])
	assert.Equal(t, 0.937, args["momentum"])
	assert.Equal(t, "cpu", args["device"])
	assert.Equal(t, 8, args["workers"])
	assert.Equal(t, 50, args["patience"])
	assert.Equal(t, 10, args["save_period"])
	assert.Equal(t, "runs", args["project"])
	assert.Equal(t, "model_x", args["name"])
	assert.Equal(t, true, args["exist_ok"])
	assert.Equal(t, true, args["save"])
	assert.Equal(t, true, args["plots"])
	assert.Equal(t, true, args["val"])
}

func TestBuildTrainArgsAugmentationDisabled(t *testing.T) {
	cfg := testTrainingSettings()
	cfg.Augmentation = conf.AugmentationSettings{Enabled: false, Mixup: 0.1, CopyPaste: 0.3}

	args := BuildTrainArgs("dataset.yaml", &cfg, "cpu", "runs", "model_x")

	for _, key := range augmentationKeys {
		_, present := args[key]
		assert.Falsef(t, present, "augmentation key %q must be omitted when disabled", key)
	}
}

func TestBuildTrainArgsAugmentationEnabled(t *testing.T) {
	cfg := testTrainingSettings()
	cfg.Augmentation = conf.AugmentationSettings{Enabled: true, Mixup: 0.1, CopyPaste: 0.3}

	args := BuildTrainArgs("dataset.yaml", &cfg, "cpu", "runs", "model_x")

	for _, key := range augmentationKeys {
		_, present := args[key]
		require.Truef(t, present, "augmentation key %q must be set when enabled", key)
	}
	assert.Equal(t, 0.1, args["mixup"])
	assert.Equal(t, 0.3, args["copy_paste"])
	assert.Equal(t, 1.0, args["mosaic"])
	assert.Equal(t, 0.5, args["fliplr"])
	assert.Equal(t, 0.0, args["flipud"])
}

func TestFormatArgsSortedAndTyped(t *testing.T) {
	tokens := formatArgs(TrainArgs{
		"epochs":   3,
		"lr0":      0.01,
		"exist_ok": true,
		"data":     "d.yaml",
	})

	assert.Equal(t, []string{"data=d.yaml", "epochs=3", "exist_ok=true", "lr0=0.01"}, tokens)
}

func TestEpochLinePattern(t *testing.T) {
	m := epochLinePattern.FindStringSubmatch("      3/100      1.2G      1.234      0.567      0.890        64        640")
	require.NotNil(t, m)
	assert.Equal(t, "3", m[1])
	assert.Equal(t, "100", m[2])
	assert.Equal(t, "1.234", m[3])

	assert.Nil(t, epochLinePattern.FindStringSubmatch("Ultralytics YOLOv8.1.0"))
	assert.Nil(t, epochLinePattern.FindStringSubmatch("      Epoch    GPU_mem   box_loss"))
}

func TestValLinePattern(t *testing.T) {
	m := valLinePattern.FindStringSubmatch("                   all        128        929       0.64      0.537      0.605      0.446")
	require.NotNil(t, m)
	assert.Equal(t, "0.64", m[1])
	assert.Equal(t, "0.537", m[2])
	assert.Equal(t, "0.605", m[3])
	assert.Equal(t, "0.446", m[4])

	assert.Nil(t, valLinePattern.FindStringSubmatch("                   car         60        140       0.71      0.622      0.688      0.512"))
}
