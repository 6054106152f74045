package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsight/vehiclenet-go/internal/errors"
	"github.com/carsight/vehiclenet-go/internal/evaluation"
)

// resolveOnlyEngine stubs Resolve; Train and Validate are never reached in
// resolver tests.
type resolveOnlyEngine struct {
	available map[string]string // identifier -> returned path
	calls     []string
}

func (e *resolveOnlyEngine) Resolve(_ context.Context, identifier, _ string) (string, error) {
	e.calls = append(e.calls, identifier)
	if path, ok := e.available[identifier]; ok {
		return path, nil
	}
	return "", errors.Newf("download failed for %s", identifier).Build()
}

func (e *resolveOnlyEngine) Train(context.Context, TrainArgs, EpochFunc) error {
	panic("not used")
}

func (e *resolveOnlyEngine) Validate(context.Context, string, string, string) (*evaluation.BoxMetrics, error) {
	panic("not used")
}

func TestResolveBaseModelLocalFileWins(t *testing.T) {
	local := filepath.Join(t.TempDir(), "my_weights.pt")
	require.NoError(t, os.WriteFile(local, []byte("weights"), 0o644))

	engine := &resolveOnlyEngine{}
	path, err := ResolveBaseModel(context.Background(), engine, local, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, local, path)
	assert.Empty(t, engine.calls, "engine must not be consulted for an existing local file")
}

func TestResolveBaseModelRequestedSucceeds(t *testing.T) {
	engine := &resolveOnlyEngine{available: map[string]string{"yolov8s.pt": "/cache/yolov8s.pt"}}

	path, err := ResolveBaseModel(context.Background(), engine, "yolov8s.pt", "/cache")
	require.NoError(t, err)
	assert.Equal(t, "/cache/yolov8s.pt", path)
	assert.Equal(t, []string{"yolov8s.pt"}, engine.calls)
}

func TestResolveBaseModelFallsBack(t *testing.T) {
	engine := &resolveOnlyEngine{available: map[string]string{"yolov8n.pt": "/cache/yolov8n.pt"}}

	path, err := ResolveBaseModel(context.Background(), engine, "yolov8x.pt", "/cache")
	require.NoError(t, err)
	assert.Equal(t, "/cache/yolov8n.pt", path)
	assert.Equal(t, []string{"yolov8x.pt", "yolov8n.pt"}, engine.calls)
}

func TestResolveBaseModelExhaustedIsResolutionError(t *testing.T) {
	engine := &resolveOnlyEngine{}

	_, err := ResolveBaseModel(context.Background(), engine, "yolov8n.pt", "/cache")
	require.Error(t, err)
	assert.True(t, errors.IsResolution(err))
	// requested model plus the remaining two fallbacks, no duplicate try
	assert.Equal(t, []string{"yolov8n.pt", "yolov8s.pt", "yolov8m.pt"}, engine.calls)
}

func TestDetectDevicePassthrough(t *testing.T) {
	assert.Equal(t, "cuda:1", DetectDevice("cuda:1"))
	assert.Equal(t, "cpu", DetectDevice("cpu"))
	assert.Equal(t, "mps", DetectDevice("mps"))
}
