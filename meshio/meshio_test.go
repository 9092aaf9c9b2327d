package meshio_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshio"
	"github.com/ssh4net/meshrepair/meshmodel"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]meshio.Format{
		"mesh.obj": meshio.FormatOBJ,
		"mesh.OBJ": meshio.FormatOBJ,
		"mesh.ply": meshio.FormatPLY,
		"mesh.off": meshio.FormatOFF,
		"mesh.OfF": meshio.FormatOFF,
	}
	for path, want := range cases {
		got, err := meshio.DetectFormat(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := meshio.DetectFormat("mesh.stl")
	assert.Error(t, err)
}

func cubeMesh(t *testing.T) *meshmodel.Mesh {
	t.Helper()
	mesh, err := meshmodel.Build(meshfixture.ClosedCube())
	require.NoError(t, err)
	return mesh
}

func TestOBJRoundTrip(t *testing.T) {
	mesh := cubeMesh(t)
	path := filepath.Join(t.TempDir(), "cube.obj")

	require.NoError(t, meshio.SaveOBJ(mesh, path))
	soup, err := meshio.LoadOBJ(path)
	require.NoError(t, err)

	assert.Equal(t, mesh.NumVertices(), soup.NumPoints())
	assert.Equal(t, mesh.NumFaces(), soup.NumPolygons())
}

func TestOFFRoundTrip(t *testing.T) {
	mesh := cubeMesh(t)
	path := filepath.Join(t.TempDir(), "cube.off")

	require.NoError(t, meshio.SaveOFF(mesh, path))
	soup, err := meshio.LoadOFF(path)
	require.NoError(t, err)

	assert.Equal(t, mesh.NumVertices(), soup.NumPoints())
	assert.Equal(t, mesh.NumFaces(), soup.NumPolygons())
}

func TestPLYRoundTripASCII(t *testing.T) {
	mesh := cubeMesh(t)
	path := filepath.Join(t.TempDir(), "cube.ply")

	require.NoError(t, meshio.SavePLY(mesh, path, false))
	soup, err := meshio.LoadPLY(path)
	require.NoError(t, err)

	assert.Equal(t, mesh.NumVertices(), soup.NumPoints())
	assert.Equal(t, mesh.NumFaces(), soup.NumPolygons())
}

func TestPLYRoundTripBinary(t *testing.T) {
	mesh := cubeMesh(t)
	path := filepath.Join(t.TempDir(), "cube_bin.ply")

	require.NoError(t, meshio.SavePLY(mesh, path, true))
	soup, err := meshio.LoadPLY(path)
	require.NoError(t, err)

	require.Equal(t, mesh.NumVertices(), soup.NumPoints())
	require.Equal(t, mesh.NumFaces(), soup.NumPolygons())
	for i, v := range mesh.Vertices {
		assert.InDelta(t, v.Point[0], soup.Points[i][0], 1e-5)
		assert.InDelta(t, v.Point[1], soup.Points[i][1], 1e-5)
		assert.InDelta(t, v.Point[2], soup.Points[i][2], 1e-5)
	}
}

func TestCodecDispatchesByExtension(t *testing.T) {
	mesh := cubeMesh(t)
	var codec meshio.Codec

	objPath := filepath.Join(t.TempDir(), "cube.obj")
	require.NoError(t, codec.Save(mesh, objPath, false))
	soup, err := codec.Load(objPath)
	require.NoError(t, err)
	assert.Equal(t, mesh.NumVertices(), soup.NumPoints())

	plyPath := filepath.Join(t.TempDir(), "cube.ply")
	require.NoError(t, codec.Save(mesh, plyPath, true))
	soup, err = codec.Load(plyPath)
	require.NoError(t, err)
	assert.Equal(t, mesh.NumFaces(), soup.NumPolygons())
}
