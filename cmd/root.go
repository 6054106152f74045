package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carsight/vehiclenet-go/cmd/classes"
	"github.com/carsight/vehiclenet-go/cmd/evaluate"
	"github.com/carsight/vehiclenet-go/cmd/prepare"
	"github.com/carsight/vehiclenet-go/cmd/runs"
	"github.com/carsight/vehiclenet-go/cmd/train"
	"github.com/carsight/vehiclenet-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vehiclenet",
		Short: "VehicleNet-Go CLI",
		Long:  "Dataset preparation and training orchestration for vehicle-detection models.",
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		prepare.Command(settings),
		train.Command(settings),
		evaluate.Command(settings),
		classes.Command(settings),
		runs.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
