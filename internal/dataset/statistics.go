package dataset

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

// StatisticsFileName is the dataset statistics document written alongside
// the descriptor.
const StatisticsFileName = "dataset_statistics.json"

// SplitStatistics summarizes one split.
type SplitStatistics struct {
	Images            int         `json:"images"`
	Labels            int         `json:"labels"`
	Annotations       int         `json:"annotations"`
	ClassDistribution map[int]int `json:"class_distribution"`
	Skipped           int         `json:"skipped"` // blank or malformed label lines
}

// Statistics is the per-split dataset summary. It is derived data,
// recomputed in full on every preparation run.
type Statistics struct {
	CreatedAt   time.Time                      `json:"created_at"`
	DatasetPath string                         `json:"dataset_path"`
	Splits      map[SplitName]*SplitStatistics `json:"splits"`
}

// ComputeStatistics walks the dataset layout under root and counts images,
// label files and annotations per split. The first whitespace-delimited
// token of each label line is the class id; lines without a parseable
// class id are counted as skipped instead of silently dropped.
func ComputeStatistics(root string) (*Statistics, error) {
	stats := &Statistics{
		CreatedAt:   time.Now(),
		DatasetPath: root,
		Splits:      make(map[SplitName]*SplitStatistics, len(SplitNames)),
	}

	for _, split := range SplitNames {
		ss := &SplitStatistics{ClassDistribution: make(map[int]int)}
		stats.Splits[split] = ss

		imagesDir := filepath.Join(root, "images", string(split))
		if entries, err := os.ReadDir(imagesDir); err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					ss.Images++
				}
			}
		}

		labelsDir := filepath.Join(root, "labels", string(split))
		entries, err := os.ReadDir(labelsDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), labelExtension) {
				continue
			}
			ss.Labels++
			if err := countLabelFile(filepath.Join(labelsDir, e.Name()), ss); err != nil {
				return nil, err
			}
		}
	}

	return stats, nil
}

// countLabelFile accumulates annotation and class counts from one file.
func countLabelFile(path string, ss *SplitStatistics) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			ss.Skipped++
			continue
		}
		classID, err := strconv.Atoi(fields[0])
		if err != nil || classID < 0 {
			ss.Skipped++
			continue
		}
		ss.Annotations++
		ss.ClassDistribution[classID]++
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return nil
}

// Write persists the statistics document into the dataset root.
func (s *Statistics) Write(root string) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", errors.Wrap(err).Component("dataset").Build()
	}

	path := filepath.Join(root, StatisticsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return path, nil
}
