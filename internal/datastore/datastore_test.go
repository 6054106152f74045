package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsight/vehiclenet-go/internal/errors"
)

func openTestStore(t *testing.T) *DataStore {
	t.Helper()
	ds, err := Open(filepath.Join(t.TempDir(), "vehiclenet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestSaveAndGetRun(t *testing.T) {
	ds := openTestStore(t)

	record := &RunRecord{
		RunID:     "run-1",
		ModelName: "custom_vehicle_model",
		BaseModel: "yolov8n.pt",
		Device:    "cpu",
		Status:    "running",
		RunDir:    "/tmp/run-1",
		StartedAt: time.Now(),
	}
	require.NoError(t, ds.SaveRun(record))

	got, err := ds.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "custom_vehicle_model", got.ModelName)
	assert.Equal(t, "running", got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestGetRunNotFound(t *testing.T) {
	ds := openTestStore(t)

	_, err := ds.GetRun("nope")
	require.Error(t, err)
	assert.True(t, errors.IsResourceMissing(err))
}

func TestStatusTransitionRoundTrip(t *testing.T) {
	ds := openTestStore(t)

	require.NoError(t, ds.SaveRun(&RunRecord{RunID: "run-2", Status: "running", StartedAt: time.Now()}))
	require.NoError(t, ds.UpdateRunStatus("run-2", "completed"))

	got, err := ds.GetRun("run-2")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestSetArtifactAndMetrics(t *testing.T) {
	ds := openTestStore(t)

	require.NoError(t, ds.SaveRun(&RunRecord{RunID: "run-3", Status: "running", StartedAt: time.Now()}))
	require.NoError(t, ds.SetRunArtifact("run-3", "custom_vehicle_model.pt"))
	require.NoError(t, ds.SetRunMetrics("run-3", 0.82, 0.61, 0.8, 0.7))

	got, err := ds.GetRun("run-3")
	require.NoError(t, err)
	assert.Equal(t, "custom_vehicle_model.pt", got.ArtifactPath)
	assert.InDelta(t, 0.82, got.MAP50, 1e-9)
	assert.InDelta(t, 0.61, got.MAP5095, 1e-9)
	assert.InDelta(t, 0.8, got.Precision, 1e-9)
	assert.InDelta(t, 0.7, got.Recall, 1e-9)
}

func TestListRunsNewestFirst(t *testing.T) {
	ds := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, ds.SaveRun(&RunRecord{
			RunID:     id,
			Status:    "completed",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := ds.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "mid", runs[1].RunID)
}
