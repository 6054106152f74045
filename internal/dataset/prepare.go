package dataset

import (
	"path/filepath"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/errors"
)

// Preparer runs the full dataset-preparation pipeline: collect, split,
// materialize the layout, write the descriptor and recompute statistics.
// Preparation is synchronous file-system work; only training runs in the
// background.
type Preparer struct {
	Settings conf.DatasetSettings
	Registry ClassSource  // may be nil, descriptor falls back to class files
	Progress ProgressFunc // may be nil
}

// Result describes a completed preparation run.
type Result struct {
	DatasetRoot    string
	DescriptorPath string
	StatisticsPath string
	Splits         *SplitSet
	Statistics     *Statistics
}

// Prepare builds the dataset and returns the descriptor path the training
// engine consumes. Validation failures surface before any file-system
// mutation; layout writing itself is not transactional, so a failed run
// may leave partially copied files behind without registering a dataset.
func (p *Preparer) Prepare() (*Result, error) {
	log := getLogger()

	if err := p.Settings.Ratios.Validate(); err != nil {
		return nil, err
	}

	collector := &Collector{SourceDirs: p.Settings.SourceDirs}
	corpus, err := collector.Collect()
	if err != nil {
		return nil, err
	}
	if len(corpus.Images) == 0 {
		return nil, errors.Newf("no image files found under %v", p.Settings.SourceDirs).
			Component("dataset").
			Category(errors.CategoryValidation).
			Build()
	}
	log.Info("collected corpus", "images", len(corpus.Images), "labels", len(corpus.Labels))

	splitter := NewSplitter()
	if p.Settings.Seed != 0 {
		splitter = NewSeededSplitter(p.Settings.Seed)
	}
	splits, err := splitter.Split(corpus.Images, p.Settings.Ratios)
	if err != nil {
		return nil, err
	}
	log.Info("split corpus",
		"train", len(splits.Train), "val", len(splits.Val), "test", len(splits.Test))

	root := filepath.Join(p.Settings.OutputDir, p.Settings.Name)
	writer := &LayoutWriter{Root: root}
	if err := writer.CreateStructure(); err != nil {
		return nil, err
	}
	if err := writer.WriteSplits(splits, corpus, p.Progress); err != nil {
		return nil, err
	}

	dw := &DescriptorWriter{
		Registry:   p.Registry,
		ClassFiles: DefaultClassFiles(p.Settings.SourceDirs),
	}
	desc, descPath, err := dw.Write(root)
	if err != nil {
		return nil, err
	}
	log.Info("wrote dataset descriptor", "path", descPath, "classes", desc.Classes)

	stats, err := ComputeStatistics(root)
	if err != nil {
		return nil, err
	}
	statsPath, err := stats.Write(root)
	if err != nil {
		return nil, err
	}

	return &Result{
		DatasetRoot:    root,
		DescriptorPath: descPath,
		StatisticsPath: statsPath,
		Splits:         splits,
		Statistics:     stats,
	}, nil
}
