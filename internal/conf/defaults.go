// conf/defaults.go default values for settings
package conf

import (
	"os"

	"github.com/spf13/viper"
)

// Sets default values for the configuration. The hyperparameter defaults
// match the values the detection engine was tuned against.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("dataset.name", "vehicle_dataset")
	viper.SetDefault("dataset.sourcedirs", []string{".", "images", "exports/yolo", "labels"})
	viper.SetDefault("dataset.outputdir", "datasets")
	viper.SetDefault("dataset.ratios.train", 0.7)
	viper.SetDefault("dataset.ratios.val", 0.2)
	viper.SetDefault("dataset.ratios.test", 0.1)
	viper.SetDefault("dataset.seed", 0)

	viper.SetDefault("training.modelname", "custom_vehicle_model")
	viper.SetDefault("training.basemodel", "yolov8n.pt")
	viper.SetDefault("training.epochs", 100)
	viper.SetDefault("training.batchsize", 16)
	viper.SetDefault("training.imagesize", 640)
	viper.SetDefault("training.learningrate", 0.01)
	viper.SetDefault("training.optimizer", "AdamW")
	viper.SetDefault("training.weightdecay", 0.0005)
	viper.SetDefault("training.momentum", 0.937)
	viper.SetDefault("training.augmentation.enabled", true)
	viper.SetDefault("training.augmentation.mixup", 0.1)
	viper.SetDefault("training.augmentation.copypaste", 0.3)
	viper.SetDefault("training.device", "auto")
	viper.SetDefault("training.workers", 8)
	viper.SetDefault("training.patience", 50)
	viper.SetDefault("training.saveperiod", 10)
	viper.SetDefault("training.outputdir", "training_runs")
	viper.SetDefault("training.artifactdir", ".")
	viper.SetDefault("training.weightsdir", "weights_cache")

	viper.SetDefault("registry.file", "vehicle_classes.json")

	viper.SetDefault("database.enabled", true)
	viper.SetDefault("database.path", "vehiclenet.db")
}

// homeConfigDir returns the user configuration directory.
func homeConfigDir() (string, error) {
	return os.UserConfigDir()
}
