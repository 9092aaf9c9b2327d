package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/partition"
)

func TestRingCount(t *testing.T) {
	assert.Equal(t, 1, partition.RingCount(0))
	assert.Equal(t, 2, partition.RingCount(1))
	assert.Equal(t, 3, partition.RingCount(2))
}

func TestComputeNeighborhoodCollectsIncidentFaces(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	nb := partition.ComputeNeighborhood(mesh, holes[0], partition.RingCount(1))

	assert.GreaterOrEqual(t, len(nb.Vertices), 4)
	assert.Greater(t, len(nb.Faces), 0)
	assert.Greater(t, nb.BBox.Diagonal(), 0.0)
}

func TestBalancePartitionsEveryHoleExactlyOnce(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.TwoDisjointOpenCubes())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 2)

	parts := partition.Balance(holes, partition.Config{RequestedPartitions: 2})

	require.Len(t, parts, 2)
	seen := make(map[int]bool)
	for _, part := range parts {
		for _, idx := range part {
			assert.False(t, seen[idx], "hole %d assigned twice", idx)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, 2)
}

func TestBalanceCapsPartitionCountByHoleCount(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	parts := partition.Balance(holes, partition.Config{RequestedPartitions: 8})
	assert.Len(t, parts, 1)
}

func TestBalanceCapsPartitionCountByEdgeBudget(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.TwoDisjointOpenCubes())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 2)

	parts := partition.Balance(holes, partition.Config{
		RequestedPartitions:       8,
		MinPartitionBoundaryEdges: 100, // total boundary edges (8) / 100 -> max(1, 0) = 1
	})
	assert.Len(t, parts, 1)
}
