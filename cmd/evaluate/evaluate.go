package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/dataset"
	"github.com/carsight/vehiclenet-go/internal/datastore"
	"github.com/carsight/vehiclenet-go/internal/evaluation"
	"github.com/carsight/vehiclenet-go/internal/training"
)

var (
	weightsPath string
	dataPath    string
	runID       string
	jsonOutput  bool
)

// Command creates the model evaluation command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a trained model on the validation split",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(settings)
		},
	}

	cmd.Flags().StringVar(&weightsPath, "weights", "", "Weights file to evaluate (defaults to the published artifact)")
	cmd.Flags().StringVar(&dataPath, "data", "", "Dataset descriptor to evaluate against (defaults to the prepared dataset)")
	cmd.Flags().StringVar(&runID, "run", "", "Attach the metrics to this training run in the history database")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print metrics as JSON")

	return cmd
}

// recordMetrics attaches the evaluation result to a run in the history
// database.
func recordMetrics(settings *conf.Settings, runID string, m *evaluation.Metrics) error {
	if !settings.Database.Enabled {
		return fmt.Errorf("run history is disabled, enable database.enabled to record metrics")
	}
	ds, err := datastore.Open(settings.Database.Path)
	if err != nil {
		return err
	}
	defer ds.Close()

	if _, err := ds.GetRun(runID); err != nil {
		return err
	}
	return ds.SetRunMetrics(runID, m.MAP50, m.MAP5095, m.Precision, m.Recall)
}

func runEvaluate(settings *conf.Settings) error {
	weights := weightsPath
	if weights == "" {
		weights = filepath.Join(settings.Training.ArtifactDir, settings.Training.ModelName+".pt")
	}
	if _, err := os.Stat(weights); err != nil {
		return fmt.Errorf("weights file not found: %s", weights)
	}

	data := dataPath
	if data == "" {
		data = filepath.Join(settings.Dataset.OutputDir, settings.Dataset.Name, dataset.DescriptorFileName)
	}

	evaluator := &evaluation.Evaluator{Engine: &training.UltralyticsEngine{}}
	metrics, err := evaluator.Evaluate(context.Background(), weights, data)
	if err != nil {
		return err
	}

	if runID != "" {
		if err := recordMetrics(settings, runID, metrics); err != nil {
			return err
		}
	}

	if jsonOutput {
		out, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("mAP@50:    %.4f\n", metrics.MAP50)
	fmt.Printf("mAP@50-95: %.4f\n", metrics.MAP5095)
	fmt.Printf("Precision: %.4f\n", metrics.Precision)
	fmt.Printf("Recall:    %.4f\n", metrics.Recall)
	fmt.Printf("F1 score:  %.4f\n", metrics.F1)

	if len(metrics.PerClass) > 0 {
		ids := make([]int, 0, len(metrics.PerClass))
		for id := range metrics.PerClass {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		fmt.Println("Per-class AP:")
		for _, id := range ids {
			ap := metrics.PerClass[id]
			fmt.Printf("  class %d: AP50=%.4f AP=%.4f\n", id, ap.AP50, ap.AP)
		}
	}

	return nil
}
