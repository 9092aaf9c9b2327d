package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshio"
	"github.com/ssh4net/meshrepair/meshmodel"
)

func TestRunSingleFillsOpenCubeFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.obj")
	outPath := filepath.Join(dir, "out.obj")

	inputMesh, err := meshmodel.Build(meshfixture.OpenCube())
	require.NoError(t, err)
	require.NoError(t, meshio.SaveOBJ(inputMesh, inPath))

	f := &flags{
		inputPath:           inPath,
		outputPath:          outPath,
		usePartitioned:      true,
		requestedPartitions: 1,
		fairingContinuity:   1,
		refine:              true,
	}

	require.NoError(t, runSingle(f, meshio.Codec{}))

	soup, err := meshio.LoadOBJ(outPath)
	require.NoError(t, err)
	assert.Equal(t, 8, soup.NumPoints())
	assert.Equal(t, 12, soup.NumPolygons())
}

func TestRunRequiresInputAndOutput(t *testing.T) {
	err := run(&flags{})
	assert.Error(t, err)
}
