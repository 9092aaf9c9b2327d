package holedetect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshmodel"
)

func TestDetectAllOnClosedCubeFindsNoHoles(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.ClosedCube())
	require.NoError(t, err)

	holes := holedetect.DetectAll(mesh)
	assert.Empty(t, holes)
	assert.Equal(t, 0, holedetect.CountBorderEdges(mesh))
}

func TestDetectAllOnOpenCubeFindsOneQuadHole(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)

	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)
	assert.Equal(t, 4, holes[0].BoundarySize)
	assert.Equal(t, 4, holedetect.CountBorderEdges(mesh))
	assert.Greater(t, holes[0].EstimatedDiameter, 0.0)
	assert.Greater(t, holes[0].EstimatedArea, 0.0)
}

func TestDetectAllOnTwoDisjointCubesFindsTwoHoles(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.TwoDisjointOpenCubes())
	require.NoError(t, err)

	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 2)
	for _, h := range holes {
		assert.Equal(t, 4, h.BoundarySize)
	}
}
