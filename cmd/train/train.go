package train

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/dataset"
	"github.com/carsight/vehiclenet-go/internal/datastore"
	"github.com/carsight/vehiclenet-go/internal/logging"
	"github.com/carsight/vehiclenet-go/internal/registry"
	"github.com/carsight/vehiclenet-go/internal/training"
)

var (
	dataPath       string
	prepareMissing bool
)

// Command creates the training command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a vehicle-detection model on a prepared dataset",
		Long: "Resolve the base model, launch a training run against the prepared " +
			"dataset and stream its progress. Ctrl-C cancels the run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&dataPath, "data", "", "Dataset descriptor to train on (defaults to the prepared dataset)")
	cmd.Flags().BoolVar(&prepareMissing, "prepare", false, "Prepare the dataset first when no descriptor exists yet")
	cmd.Flags().StringVar(&settings.Training.ModelName, "model-name", viper.GetString("training.modelname"), "Name of the model artifact to produce")
	cmd.Flags().StringVar(&settings.Training.BaseModel, "base-model", viper.GetString("training.basemodel"), "Base model to fine-tune from (path or pretrained name)")
	cmd.Flags().IntVar(&settings.Training.Epochs, "epochs", viper.GetInt("training.epochs"), "Number of training epochs")
	cmd.Flags().IntVar(&settings.Training.BatchSize, "batch", viper.GetInt("training.batchsize"), "Training batch size")
	cmd.Flags().IntVar(&settings.Training.ImageSize, "imgsz", viper.GetInt("training.imagesize"), "Training image size in pixels")
	cmd.Flags().StringVar(&settings.Training.Device, "device", viper.GetString("training.device"), "Training device (auto, cpu, cuda, cuda:N)")
	cmd.Flags().BoolVar(&settings.Training.Augmentation.Enabled, "augment", viper.GetBool("training.augmentation.enabled"), "Enable training-time data augmentation")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runTrain(settings *conf.Settings) error {
	data := dataPath
	if data == "" {
		data = filepath.Join(settings.Dataset.OutputDir, settings.Dataset.Name, dataset.DescriptorFileName)
	}

	if prepareMissing {
		if _, err := os.Stat(data); os.IsNotExist(err) {
			fmt.Println("No prepared dataset found, preparing one first")
			classStore, err := registry.Open(settings.Registry.File)
			if err != nil {
				return err
			}
			preparer := &dataset.Preparer{Settings: settings.Dataset, Registry: classStore}
			result, err := preparer.Prepare()
			if err != nil {
				return err
			}
			data = result.DescriptorPath
		}
	}

	var store datastore.Interface
	if settings.Database.Enabled {
		ds, err := datastore.Open(settings.Database.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := ds.Close(); err != nil {
				logging.Warn("failed to close run database", "error", err)
			}
		}()
		store = ds
	}

	orchestrator := training.NewOrchestrator(&training.UltralyticsEngine{}, store)

	run, err := orchestrator.Start(context.Background(), settings.Training, data)
	if err != nil {
		return err
	}
	fmt.Printf("Training run %s started, logs in %s\n", run.ID, run.Dir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nCancelling training run...")
		run.Cancel()
	}()

	for event := range run.Events() {
		switch event := event.(type) {
		case training.LogEvent:
			fmt.Println(event.Message)
		case training.ProgressEvent:
			fmt.Printf("Progress: %d%%\n", event.Percent)
		case training.CompletedEvent:
			fmt.Printf("Training completed, model saved to %s\n", event.ArtifactPath)
		case training.FailedEvent:
			fmt.Printf("Training failed: %v\n", event.Err)
		}
	}
	run.Wait()

	switch run.Status() {
	case training.StatusCompleted:
		return nil
	case training.StatusCancelled:
		fmt.Println("Training run cancelled")
		return nil
	default:
		return fmt.Errorf("training run %s finished with status %s", run.ID, run.Status())
	}
}
