package classes

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/registry"
)

// Command creates the vehicle-class management command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Manage the vehicle class registry",
	}

	cmd.AddCommand(
		listCommand(settings),
		addCommand(settings),
		removeCommand(settings),
		exportCommand(settings),
		importCommand(settings),
	)

	return cmd
}

func openStore(settings *conf.Settings) (*registry.Store, error) {
	return registry.Open(settings.Registry.File)
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered vehicle classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			for _, c := range store.All(!all) {
				state := " "
				if !c.Enabled {
					state = "x"
				}
				fmt.Printf("%3d  [%s]  %-16s %s\n", c.ID, state, c.Name, c.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include disabled classes")

	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a vehicle class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			c, err := store.Add(args[0], description)
			if err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Printf("added class %d: %s\n", c.ID, c.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Class description")

	return cmd
}

func removeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a vehicle class by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid class id %q", args[0])
			}
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			if err := store.Delete(id); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Printf("removed class %d\n", id)
			return nil
		},
	}
}

func exportCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "export [classes.txt]",
		Short: "Export enabled class names to a flat text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			if err := store.ExportTxt(args[0]); err != nil {
				return err
			}
			fmt.Printf("exported classes to %s\n", args[0])
			return nil
		},
	}
}

func importCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "import [classes.txt]",
		Short: "Replace the registry with classes from a flat text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			if err := store.ImportTxt(args[0]); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			names, _ := store.Names(true)
			fmt.Printf("imported %d classes\n", len(names))
			return nil
		},
	}
}
