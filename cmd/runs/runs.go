package runs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/datastore"
)

var limit int

// Command creates the run-history command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past training runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(settings)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}

func runList(settings *conf.Settings) error {
	if !settings.Database.Enabled {
		return fmt.Errorf("run history is disabled, enable database.enabled in the configuration")
	}

	ds, err := datastore.Open(settings.Database.Path)
	if err != nil {
		return err
	}
	defer ds.Close()

	records, err := ds.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no training runs recorded")
		return nil
	}

	fmt.Printf("%-10s %-24s %-10s %-10s %8s %8s  %s\n",
		"RUN", "MODEL", "STATUS", "DEVICE", "mAP50", "mAP50-95", "STARTED")
	for i := range records {
		r := &records[i]
		fmt.Printf("%-10s %-24s %-10s %-10s %8.4f %8.4f  %s\n",
			r.RunID, r.ModelName, r.Status, r.Device, r.MAP50, r.MAP5095,
			r.StartedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}
