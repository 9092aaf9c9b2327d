package souprepair_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/souprepair"
)

func TestDedupPointsMergesDuplicateVertices(t *testing.T) {
	soup := meshfixture.DuplicatedClosedCube()
	deduped, merged := souprepair.DedupPoints(soup)

	assert.Equal(t, 8, merged)
	assert.Len(t, deduped.Points, 8)
	require.NoError(t, deduped.Validate())
}

func TestDedupPointsIdempotent(t *testing.T) {
	soup := meshfixture.DuplicatedClosedCube()
	once, _ := souprepair.DedupPoints(soup)
	twice, mergedAgain := souprepair.DedupPoints(once)

	assert.Equal(t, 0, mergedAgain)
	assert.Equal(t, once.Points, twice.Points)
	assert.Equal(t, once.Polygons, twice.Polygons)
}

func TestDedupPolygonsCollapsesRunsAndDuplicates(t *testing.T) {
	soup := meshmodel.Soup{
		Points: []meshmodel.Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Polygons: [][]int{
			{0, 0, 1, 2},    // collapses to {0,1,2}
			{0, 1, 2},       // duplicate of the above after collapse
			{2, 0, 1},       // same index set, different rotation: still a duplicate
			{0, 1},          // degenerate, <3 distinct vertices
		},
	}
	deduped, removed := souprepair.DedupPolygons(soup)

	assert.Equal(t, 3, removed)
	require.Len(t, deduped.Polygons, 1)
	assert.Equal(t, []int{0, 1, 2}, deduped.Polygons[0])
}

func TestPurgeDegenerateDropsShortAndRepeatedPolygons(t *testing.T) {
	soup := meshmodel.Soup{
		Points: []meshmodel.Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Polygons: [][]int{
			{0, 1, 2},
			{0, 1},
			{0, 0, 0},
		},
	}
	cleaned, removed := souprepair.PurgeDegenerate(soup)

	assert.Equal(t, 2, removed)
	require.Len(t, cleaned.Polygons, 1)
}

func TestRemoveNonManifoldRemovesExtraFaceOnSharedEdge(t *testing.T) {
	// Two coplanar triangles sharing an edge, plus a third triangle glued
	// onto the same edge, making it non-manifold (3 incident faces).
	soup := meshmodel.Soup{
		Points: []meshmodel.Point{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {0.5, -1, 0},
		},
		Polygons: [][]int{
			{0, 1, 2},
			{1, 3, 2},
			{1, 2, 4}, // third face on edge (1,2), shared by the first two
		},
	}
	cleaned, result := souprepair.RemoveNonManifold(soup, 10)

	assert.False(t, result.HitMaxIterations)
	assert.Greater(t, result.TotalPolygonsRemoved, 0)
	for _, poly := range cleaned.Polygons {
		assert.NotContains(t, [][]int{{1, 2, 4}}, poly)
	}
}

func TestRemoveNonManifoldIsStableOnManifoldInput(t *testing.T) {
	soup := meshfixture.ClosedCube()
	cleaned, result := souprepair.RemoveNonManifold(soup, 10)

	assert.Equal(t, 0, result.TotalPolygonsRemoved)
	assert.Equal(t, len(soup.Polygons), len(cleaned.Polygons))
}

func TestLongEdgePurgeDropsOversizedPolygon(t *testing.T) {
	soup := meshmodel.Soup{
		Points: []meshmodel.Point{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {100, 100, 100},
		},
		Polygons: [][]int{
			{0, 1, 2},
			{0, 1, 3}, // has a very long edge to point 3
		},
	}
	cleaned, removed := souprepair.LongEdgePurge(soup, 0.5)

	assert.Equal(t, 1, removed)
	require.Len(t, cleaned.Polygons, 1)
	assert.Equal(t, []int{0, 1, 2}, cleaned.Polygons[0])
}

func TestLongEdgePurgeNoOpWhenRatioZero(t *testing.T) {
	soup := meshfixture.ClosedCube()
	cleaned, removed := souprepair.LongEdgePurge(soup, 0)

	assert.Equal(t, 0, removed)
	assert.Equal(t, soup.Polygons, cleaned.Polygons)
}

func TestOrientProducesConsistentWindingOnCube(t *testing.T) {
	soup := meshfixture.ClosedCube()
	oriented, result := souprepair.Orient(soup)

	assert.False(t, result.Failed)
	require.NoError(t, oriented.Validate())
	// Building a mesh requires each directed edge to appear at most once;
	// a correctly oriented closed manifold will build cleanly.
	_, err := meshmodel.Build(oriented)
	assert.NoError(t, err)
}

func TestCollapseThreeFaceFansRemovesIsolatedSpike(t *testing.T) {
	// A minimal closed 3-face fan around vertex 0 (like a flattened
	// tetrahedron corner), each pair of its three faces sharing an edge
	// through vertex 0.
	soup := meshmodel.Soup{
		Points: []meshmodel.Point{
			{0, 0, 1}, {1, 0, 0}, {0, 1, 0}, {-1, -1, 0},
		},
		Polygons: [][]int{
			{0, 1, 2},
			{0, 2, 3},
			{0, 3, 1},
		},
	}
	cleaned, removed := souprepair.CollapseThreeFaceFans(soup)

	assert.Equal(t, 3, removed)
	assert.Empty(t, cleaned.Polygons)
}
