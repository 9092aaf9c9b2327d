package submesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/partition"
	"github.com/ssh4net/meshrepair/submesh"
)

func TestExtractWholeMeshPreservesHole(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	allFaces := make(map[int]struct{}, mesh.NumFaces())
	for f := 0; f < mesh.NumFaces(); f++ {
		allFaces[f] = struct{}{}
	}

	sm := submesh.Extract(mesh, allFaces, holes)

	assert.Equal(t, mesh.NumVertices(), sm.Mesh.NumVertices())
	assert.Equal(t, mesh.NumFaces(), sm.Mesh.NumFaces())
	require.Len(t, sm.Holes, 1)
	assert.Equal(t, 4, sm.Holes[0].BoundarySize)
	assert.Equal(t, 1, sm.OriginalHoleCount)
}

func TestExtractPartitionOnlyIncludesNeighborhoodFaces(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.TwoDisjointOpenCubes())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 2)

	nb := partition.ComputeNeighborhood(mesh, holes[0], partition.RingCount(1))
	sm := submesh.Extract(mesh, nb.Faces, []holedetect.Info{holes[0]})

	require.Len(t, sm.Holes, 1)
	assert.Equal(t, 4, sm.Holes[0].BoundarySize)
	assert.Less(t, sm.Mesh.NumFaces(), mesh.NumFaces())

	for newIdx, oldIdx := range sm.NewToOld {
		assert.Equal(t, newIdx, sm.OldToNew[oldIdx])
	}
}
