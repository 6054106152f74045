package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsight/vehiclenet-go/internal/conf"
	"github.com/carsight/vehiclenet-go/internal/errors"
)

func fileList(n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("img%d.jpg", i)
	}
	return files
}

func TestSplitCountsAndDisjointness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		total  int
		ratios conf.SplitRatios
		train  int
		val    int
		test   int
	}{
		{"canonical 10", 10, conf.SplitRatios{Train: 0.7, Val: 0.2, Test: 0.1}, 7, 2, 1},
		{"rounding slack to test", 10, conf.SplitRatios{Train: 0.65, Val: 0.25, Test: 0.1}, 6, 2, 2},
		{"tiny corpus", 1, conf.SplitRatios{Train: 0.7, Val: 0.2, Test: 0.1}, 0, 0, 1},
		{"empty corpus", 0, conf.SplitRatios{Train: 0.7, Val: 0.2, Test: 0.1}, 0, 0, 0},
		{"all train", 8, conf.SplitRatios{Train: 1.0}, 8, 0, 0},
		{"larger corpus", 103, conf.SplitRatios{Train: 0.8, Val: 0.1, Test: 0.1}, 82, 10, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files := fileList(tt.total)
			splits, err := NewSeededSplitter(1).Split(files, tt.ratios)
			require.NoError(t, err)

			assert.Len(t, splits.Train, tt.train)
			assert.Len(t, splits.Val, tt.val)
			assert.Len(t, splits.Test, tt.test)
			assert.Equal(t, tt.total, splits.Total())

			seen := make(map[string]int)
			for _, split := range SplitNames {
				for _, f := range splits.Files(split) {
					seen[f]++
				}
			}
			assert.Len(t, seen, tt.total, "union must equal the input")
			for f, n := range seen {
				assert.Equal(t, 1, n, "file %s assigned to multiple splits", f)
			}
		})
	}
}

func TestSplitRejectsBadRatios(t *testing.T) {
	t.Parallel()

	_, err := NewSplitter().Split(fileList(10), conf.SplitRatios{Train: 0.5, Val: 0.2, Test: 0.1})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSplitDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	files := fileList(20)
	original := make([]string, len(files))
	copy(original, files)

	_, err := NewSeededSplitter(7).Split(files, conf.SplitRatios{Train: 0.7, Val: 0.2, Test: 0.1})
	require.NoError(t, err)
	assert.Equal(t, original, files)
}

func TestSeededSplitIsReproducible(t *testing.T) {
	t.Parallel()

	files := fileList(50)
	ratios := conf.SplitRatios{Train: 0.7, Val: 0.2, Test: 0.1}

	a, err := NewSeededSplitter(99).Split(files, ratios)
	require.NoError(t, err)
	b, err := NewSeededSplitter(99).Split(files, ratios)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
