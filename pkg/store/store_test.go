package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervoxelrag/internal/models"
	"supervoxelrag/pkg/rag"
	"supervoxelrag/pkg/volume"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "rag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testGraph(t *testing.T) *rag.RegionGraph {
	t.Helper()
	vol, err := volume.From2D(2, 3, []uint32{
		1, 1, 2,
		3, 3, 2,
	})
	require.NoError(t, err)
	n, err := rag.Extract(vol, 4)
	require.NoError(t, err)
	return rag.BuildGraph(n)
}

func TestSaveGraphRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	g := testGraph(t)

	run := models.RunInfo{Source: "labels.png", Depth: 1, Rows: 2, Cols: 3, Connectivity: 4}
	means := map[int64]float64{1: 0.25, 2: 0.5}
	runID, err := s.SaveGraph(ctx, run, g, means)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	stored, err := s.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, runID, stored.ID)
	assert.Equal(t, "labels.png", stored.Source)
	assert.Equal(t, 2, stored.Rows)
	assert.Equal(t, 3, stored.Cols)
	assert.Equal(t, 4, stored.Connectivity)
	assert.False(t, stored.CreatedAt.IsZero())

	regions, err := s.Regions(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []models.RegionRecord{
		{Label: 1, Voxels: 2, MeanIntensity: 0.25, HasIntensity: true},
		{Label: 2, Voxels: 2, MeanIntensity: 0.5, HasIntensity: true},
		{Label: 3, Voxels: 2},
	}, regions)

	adjacencies, err := s.Adjacencies(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []models.AdjacencyRecord{
		{LabelA: 1, LabelB: 2, Contacts: 1},
		{LabelA: 1, LabelB: 3, Contacts: 2},
		{LabelA: 2, LabelB: 3, Contacts: 1},
	}, adjacencies)
}

func TestSaveGraphSeparateRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	g := testGraph(t)

	first, err := s.SaveGraph(ctx, models.RunInfo{Source: "a"}, g, nil)
	require.NoError(t, err)
	second, err := s.SaveGraph(ctx, models.RunInfo{Source: "b"}, g, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	adjacencies, err := s.Adjacencies(ctx, second)
	require.NoError(t, err)
	assert.Len(t, adjacencies, 3)

	missing, err := s.Adjacencies(ctx, second+100)
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = s.Run(ctx, second+100)
	assert.Error(t, err)
}
