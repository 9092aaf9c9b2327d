package preprocess_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/preprocess"
)

func TestRunOnClosedCubeIsStable(t *testing.T) {
	mesh, stats, err := preprocess.Run(meshfixture.ClosedCube(), preprocess.DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 8, mesh.NumVertices())
	assert.Equal(t, 12, mesh.NumFaces())
	assert.False(t, stats.HasChanges())
}

func TestRunMergesDuplicatePoints(t *testing.T) {
	mesh, stats, err := preprocess.Run(meshfixture.DuplicatedClosedCube(), preprocess.DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 8, stats.DuplicatesMerged)
	assert.Equal(t, 8, mesh.NumVertices())
	assert.Equal(t, 12, mesh.NumFaces())
}

func TestRunWithPreprocessingDisabledPreservesOpenCube(t *testing.T) {
	opts := preprocess.Options{} // every step off
	mesh, stats, err := preprocess.Run(meshfixture.OpenCube(), opts)

	require.NoError(t, err)
	assert.Equal(t, 8, mesh.NumVertices())
	assert.Equal(t, 10, mesh.NumFaces())
	assert.Equal(t, 0, stats.IsolatedVerticesRemoved)
}

func TestRunKeepsLargestComponentAcrossDisjointShells(t *testing.T) {
	opts := preprocess.DefaultOptions()
	mesh, stats, err := preprocess.Run(meshfixture.TwoDisjointOpenCubes(), opts)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.ConnectedComponentsFound)
	assert.Equal(t, 10, stats.SmallComponentsRemoved)
	assert.Equal(t, 8, mesh.NumVertices())
	assert.Equal(t, 10, mesh.NumFaces())
}
