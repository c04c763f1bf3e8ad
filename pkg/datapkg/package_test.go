package datapkg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadStageDeepCopy(t *testing.T) {
	pkg := New("tenant-a")
	data := map[string]any{"nested": map[string]any{"count": float64(1)}}
	require.NoError(t, pkg.WriteStage(StageS1, data))

	data["nested"].(map[string]any)["count"] = float64(999)

	read, ok := pkg.ReadStage(StageS1)
	require.True(t, ok)
	assert.Equal(t, float64(1), read["nested"].(map[string]any)["count"])
}

func TestReadStageMutationDoesNotLeak(t *testing.T) {
	pkg := New("tenant-a")
	require.NoError(t, pkg.WriteStage(StageS2, map[string]any{"draft": "hello"}))

	first, _ := pkg.ReadStage(StageS2)
	first["draft"] = "mutated"

	second, _ := pkg.ReadStage(StageS2)
	assert.Equal(t, "hello", second["draft"])
}

func TestWriteStageAfterFinalizeFails(t *testing.T) {
	pkg := New("tenant-a")
	require.NoError(t, pkg.WriteStage(StageS5, map[string]any{"x": 1}))
	pkg.Finalize()

	err := pkg.WriteStage(StageS6, map[string]any{"y": 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFinalized))

	// Reads still work after finalize.
	_, ok := pkg.ReadStage(StageS5)
	assert.True(t, ok)
}

func TestCurrentStageTracksLastWrite(t *testing.T) {
	pkg := New("tenant-a")
	require.NoError(t, pkg.WriteStage(StageSMinus1, map[string]any{}))
	require.NoError(t, pkg.WriteStage(StageS0, map[string]any{}))
	assert.Equal(t, StageS0, pkg.CurrentStage())
}

func TestSnapshotRoundTrip(t *testing.T) {
	pkg := New("tenant-a")
	require.NoError(t, pkg.WriteStage(StageS1, map[string]any{"a": float64(1)}))
	pkg.Finalize()

	snap := pkg.ToSnapshot()
	restored := FromSnapshot(snap)
	restoredSnap := restored.ToSnapshot()

	assert.Equal(t, snap.ID, restoredSnap.ID)
	assert.Equal(t, snap.Finalized, restoredSnap.Finalized)
	assert.Equal(t, snap.Stages[StageS1].Data, restoredSnap.Stages[StageS1].Data)
}
