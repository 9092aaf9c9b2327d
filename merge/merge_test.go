package merge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/canceltoken"
	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/fillpool"
	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/merge"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/partition"
	"github.com/ssh4net/meshrepair/submesh"
)

func TestMergeReassemblesFilledSubmeshIntoClosedMesh(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	nb := partition.ComputeNeighborhood(mesh, holes[0], partition.RingCount(1))
	sm := submesh.Extract(mesh, nb.Faces, []holedetect.Info{holes[0]})
	require.Len(t, sm.Holes, 1)

	filled, stats := fillpool.FillSubmeshHoles(context.Background(), sm, fillop.SimpleFiller{}, fillpool.Options{
		Continuity: 1,
		Refine:     true,
	}, canceltoken.New())
	require.Equal(t, 1, stats.NumHolesFilled)

	merged, timing, err := merge.Merge(mesh, []submesh.Submesh{filled}, merge.Options{})
	require.NoError(t, err)

	assert.Equal(t, 8, merged.NumVertices())
	assert.Equal(t, 12, merged.NumFaces())
	assert.Empty(t, holedetect.DetectAll(merged))
	assert.GreaterOrEqual(t, timing.TotalMs, 0.0)
}

func TestMergeWithNoSubmeshesReturnsOriginalMesh(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.ClosedCube())
	require.NoError(t, err)

	merged, _, err := merge.Merge(mesh, nil, merge.Options{})
	require.NoError(t, err)

	assert.Equal(t, mesh.NumVertices(), merged.NumVertices())
	assert.Equal(t, mesh.NumFaces(), merged.NumFaces())
}

func TestMergeHolesOnlySkipsNonManifoldRepair(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	nb := partition.ComputeNeighborhood(mesh, holes[0], partition.RingCount(1))
	sm := submesh.Extract(mesh, nb.Faces, []holedetect.Info{holes[0]})
	filled, _ := fillpool.FillSubmeshHoles(context.Background(), sm, fillop.SimpleFiller{}, fillpool.Options{Continuity: 1}, canceltoken.New())

	merged, timing, err := merge.Merge(mesh, []submesh.Submesh{filled}, merge.Options{HolesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 0, timing.ValidationPasses)
	assert.Empty(t, holedetect.DetectAll(merged))
}
