package fillop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshmodel"
)

func TestSimpleFillerClosesQuadHoleWithoutNewVertex(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	filler := fillop.SimpleFiller{}
	result, err := filler.Fill(mesh, holes[0].BoundaryHalfEdge, fillop.Options{Continuity: 1, Refine: true})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.AddedVertices)
	assert.Equal(t, 2, result.AddedFaces)
	assert.False(t, result.FairingSucceeded)

	assert.Equal(t, 8, mesh.NumVertices())
	assert.Equal(t, 12, mesh.NumFaces())
	assert.Empty(t, holedetect.DetectAll(mesh))
}

func TestSimpleFillerWithoutRefineReportsNoFairing(t *testing.T) {
	mesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	holes := holedetect.DetectAll(mesh)
	require.Len(t, holes, 1)

	filler := fillop.SimpleFiller{}
	result, err := filler.Fill(mesh, holes[0].BoundaryHalfEdge, fillop.Options{Continuity: 0})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.FairingSucceeded)
}
