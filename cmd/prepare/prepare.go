package prepare

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/dataset"
	"github.com/carsight/vehiclenet-go/internal/registry"
)

// Command creates the dataset preparation command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Prepare a training dataset from annotated images",
		Long: "Collect annotated images from the source directories, split them into " +
			"train/val/test sets and write the dataset layout, descriptor and statistics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringSliceVar(&settings.Dataset.SourceDirs, "source", viper.GetStringSlice("dataset.sourcedirs"), "Directories searched for images and label files")
	cmd.Flags().StringVar(&settings.Dataset.OutputDir, "output", viper.GetString("dataset.outputdir"), "Directory the prepared dataset is written to")
	cmd.Flags().StringVar(&settings.Dataset.Name, "name", viper.GetString("dataset.name"), "Dataset directory name")
	cmd.Flags().Float64Var(&settings.Dataset.Ratios.Train, "train-ratio", viper.GetFloat64("dataset.ratios.train"), "Training split ratio")
	cmd.Flags().Float64Var(&settings.Dataset.Ratios.Val, "val-ratio", viper.GetFloat64("dataset.ratios.val"), "Validation split ratio")
	cmd.Flags().Float64Var(&settings.Dataset.Ratios.Test, "test-ratio", viper.GetFloat64("dataset.ratios.test"), "Test split ratio")
	cmd.Flags().Int64Var(&settings.Dataset.Seed, "seed", viper.GetInt64("dataset.seed"), "Shuffle seed, 0 for non-deterministic")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runPrepare(settings *conf.Settings) error {
	store, err := registry.Open(settings.Registry.File)
	if err != nil {
		return err
	}

	preparer := &dataset.Preparer{
		Settings: settings.Dataset,
		Registry: store,
		Progress: func(percent int) {
			fmt.Printf("\rCopying files... %d%%", percent)
		},
	}

	result, err := preparer.Prepare()
	if err != nil {
		fmt.Println()
		return err
	}
	fmt.Println()

	fmt.Printf("Dataset written to %s\n", result.DatasetRoot)
	fmt.Printf("Descriptor: %s\n", result.DescriptorPath)
	fmt.Printf("Statistics: %s\n", result.StatisticsPath)
	for _, split := range dataset.SplitNames {
		stats := result.Statistics.Splits[split]
		fmt.Printf("  %-5s  %4d images  %4d labels  %5d annotations\n",
			split, stats.Images, stats.Labels, stats.Annotations)
	}

	return nil
}
