package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLayoutFile(t *testing.T, root string, parts ...string) {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func writeLabel(t *testing.T, root, split, name, content string) {
	t.Helper()
	path := filepath.Join(root, "labels", split, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestComputeStatistics(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeLayoutFile(t, root, "images", "train", "img0.jpg")
	writeLayoutFile(t, root, "images", "train", "img1.jpg")
	writeLayoutFile(t, root, "images", "val", "img2.jpg")

	writeLabel(t, root, "train", "img0.txt",
		"0 0.5 0.5 0.2 0.2\n1 0.3 0.3 0.1 0.1\n0 0.7 0.7 0.1 0.1\n")
	writeLabel(t, root, "train", "img1.txt", "2 0.5 0.5 0.5 0.5\n")
	writeLabel(t, root, "val", "img2.txt", "1 0.5 0.5 0.5 0.5\n")

	stats, err := ComputeStatistics(root)
	require.NoError(t, err)

	train := stats.Splits[SplitTrain]
	assert.Equal(t, 2, train.Images)
	assert.Equal(t, 2, train.Labels)
	assert.Equal(t, 4, train.Annotations)
	assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, train.ClassDistribution)

	val := stats.Splits[SplitVal]
	assert.Equal(t, 1, val.Images)
	assert.Equal(t, 1, val.Annotations)

	test := stats.Splits[SplitTest]
	assert.Equal(t, 0, test.Images)
	assert.Equal(t, 0, test.Labels)
}

// The summed per-class counts across a split must equal the split's total
// annotation count.
func TestClassDistributionSumsToAnnotations(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeLabel(t, root, "train", "a.txt", "0 0.1 0.1 0.1 0.1\n3 0.2 0.2 0.2 0.2\n")
	writeLabel(t, root, "train", "b.txt", "3 0.5 0.5 0.1 0.1\n1 0.4 0.4 0.2 0.2\n0 0.6 0.6 0.1 0.1\n")

	stats, err := ComputeStatistics(root)
	require.NoError(t, err)

	train := stats.Splits[SplitTrain]
	sum := 0
	for _, n := range train.ClassDistribution {
		sum += n
	}
	assert.Equal(t, train.Annotations, sum)
}

func TestMalformedLinesCountedAsSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeLabel(t, root, "train", "a.txt", "0 0.5 0.5 0.1 0.1\n\n   \nnot-a-class 0.5 0.5 0.1 0.1\n-2 0.5 0.5 0.1 0.1\n")

	stats, err := ComputeStatistics(root)
	require.NoError(t, err)

	train := stats.Splits[SplitTrain]
	assert.Equal(t, 1, train.Annotations)
	assert.Equal(t, 4, train.Skipped)
}

func TestStatisticsWrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeLabel(t, root, "val", "a.txt", "1 0.5 0.5 0.1 0.1\n")

	stats, err := ComputeStatistics(root)
	require.NoError(t, err)

	path, err := stats.Write(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, StatisticsFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "created_at")
	assert.Contains(t, doc, "dataset_path")
	assert.Contains(t, doc, "splits")
}
