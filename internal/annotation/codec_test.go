package annotation

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

func TestEncodeCenterAndSize(t *testing.T) {
	t.Parallel()

	line, err := Encode(Box{X1: 100, Y1: 200, X2: 300, Y2: 400}, 1000, 1000, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, line.ClassID)
	assert.InDelta(t, 0.2, line.XCenter, 1e-12)
	assert.InDelta(t, 0.3, line.YCenter, 1e-12)
	assert.InDelta(t, 0.2, line.Width, 1e-12)
	assert.InDelta(t, 0.2, line.Height, 1e-12)
}

func TestEncodeCornerOrderIrrelevant(t *testing.T) {
	t.Parallel()

	// Same box given as bottom-right / top-left corners.
	a, err := Encode(Box{X1: 300, Y1: 400, X2: 100, Y2: 200}, 1000, 1000, 0)
	require.NoError(t, err)
	b, err := Encode(Box{X1: 100, Y1: 200, X2: 300, Y2: 400}, 1000, 1000, 0)
	require.NoError(t, err)

	assert.Equal(t, b, a)
	assert.GreaterOrEqual(t, a.Width, 0.0)
	assert.GreaterOrEqual(t, a.Height, 0.0)
}

func TestEncodeRejectsBadDimensions(t *testing.T) {
	t.Parallel()

	for _, dims := range [][2]int{{0, 100}, {100, 0}, {-1, 100}, {100, -640}} {
		_, err := Encode(Box{X2: 10, Y2: 10}, dims[0], dims[1], 0)
		require.Error(t, err, "dims %v", dims)
		assert.True(t, errors.IsValidation(err))
	}

	_, err := Decode(Line{Width: 0.5, Height: 0.5}, 0, 100)
	require.Error(t, err)
}

func TestEncodeRejectsNegativeClassID(t *testing.T) {
	t.Parallel()

	_, err := Encode(Box{X2: 10, Y2: 10}, 100, 100, -1)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestEncodeNeverEmitsNonFinite(t *testing.T) {
	t.Parallel()

	line, err := Encode(Box{}, 1, 1, 0)
	require.NoError(t, err)
	for _, v := range []float64{line.XCenter, line.YCenter, line.Width, line.Height} {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
	}
}

// Round trip through Format and ParseLine must reproduce the pixel box to
// within one pixel for images up to 10,000 px on a side.
func TestRoundTripWithinOnePixel(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 0))

	dims := []int{1, 2, 7, 64, 639, 640, 1920, 4096, 9999, 10000}
	for _, w := range dims {
		for _, h := range dims {
			for range 20 {
				x1 := rng.Float64() * float64(w)
				x2 := rng.Float64() * float64(w)
				y1 := rng.Float64() * float64(h)
				y2 := rng.Float64() * float64(h)
				box := Box{X1: min(x1, x2), Y1: min(y1, y2), X2: max(x1, x2), Y2: max(y1, y2)}

				line, err := Encode(box, w, h, 3)
				require.NoError(t, err)

				parsed, err := ParseLine(line.Format())
				require.NoError(t, err)

				got, err := Decode(parsed, w, h)
				require.NoError(t, err)

				assert.InDelta(t, box.X1, got.X1, 1.0)
				assert.InDelta(t, box.Y1, got.Y1, 1.0)
				assert.InDelta(t, box.X2, got.X2, 1.0)
				assert.InDelta(t, box.Y2, got.Y2, 1.0)
			}
		}
	}
}

func TestFormatPrecision(t *testing.T) {
	t.Parallel()

	line := Line{ClassID: 1, XCenter: 0.5, YCenter: 0.25, Width: 0.125, Height: 0.0625}
	assert.Equal(t, "1 0.5000000000 0.2500000000 0.1250000000 0.0625000000", line.Format())
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Line
		wantErr bool
	}{
		{
			name:  "canonical",
			input: "0 0.5000000000 0.5000000000 0.2000000000 0.1000000000",
			want:  Line{ClassID: 0, XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.1},
		},
		{
			name:  "extra whitespace",
			input: "  3   0.1 0.2 0.3 0.4  ",
			want:  Line{ClassID: 3, XCenter: 0.1, YCenter: 0.2, Width: 0.3, Height: 0.4},
		},
		{name: "too few fields", input: "1 0.5 0.5", wantErr: true},
		{name: "too many fields", input: "1 0.5 0.5 0.5 0.5 0.5", wantErr: true},
		{name: "non-numeric class", input: "car 0.5 0.5 0.5 0.5", wantErr: true},
		{name: "negative class", input: "-1 0.5 0.5 0.5 0.5", wantErr: true},
		{name: "coordinate above one", input: "0 1.5 0.5 0.5 0.5", wantErr: true},
		{name: "negative coordinate", input: "0 0.5 -0.5 0.5 0.5", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLine(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryLabelParsing))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
