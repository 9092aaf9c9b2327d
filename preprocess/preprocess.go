// Package preprocess runs the fixed, ordered cleanup pipeline over one
// polygon soup, converting it to a meshmodel.Mesh exactly once at the end.
// Grounded on include/mesh_preprocessor.h's MeshPreprocessor/
// PreprocessingStats field set and step ordering.
package preprocess

import (
	"time"

	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/souprepair"
)

// Options is the recognized PreprocessingOptions set from spec.md §4.C /
// §6. Unknown options are rejected by the CLI/config layer, not here.
type Options struct {
	RemoveDuplicates     bool
	RemoveNonManifold    bool
	Remove3FaceFans      bool
	RemoveIsolated       bool
	KeepLargestComponent bool
	RemoveLongEdges      bool
	LongEdgeMaxRatio     float64
	NonManifoldPasses    int
	Verbose              bool
	Debug                bool
}

// DefaultOptions mirrors include/mesh_preprocessor.h's PreprocessingOptions
// defaults.
func DefaultOptions() Options {
	return Options{
		RemoveDuplicates:     true,
		RemoveNonManifold:    true,
		Remove3FaceFans:      true,
		RemoveIsolated:       true,
		KeepLargestComponent: true,
		RemoveLongEdges:      false,
		LongEdgeMaxRatio:     0.125,
		NonManifoldPasses:    10,
	}
}

// Stats mirrors include/mesh_preprocessor.h's PreprocessingStats exactly.
type Stats struct {
	DuplicatesMerged           int
	NonManifoldVerticesRemoved int // polygons removed by non-manifold repair, named per the original field
	FaceFansCollapsed          int
	LongEdgePolygonsRemoved    int
	IsolatedVerticesRemoved    int
	ConnectedComponentsFound   int
	SmallComponentsRemoved     int
	TotalTimeMs                float64

	SoupCleanupTimeMs float64
	DuplicatesTimeMs  float64
	DegenerateTimeMs  float64
	NonManifoldTimeMs float64
	FaceFansTimeMs    float64
	LongEdgeTimeMs    float64
	OrientTimeMs      float64
	SoupToMeshTimeMs  float64
	MeshCleanupTimeMs float64
}

// HasChanges reports whether any cleanup step actually altered the soup or
// mesh.
func (s Stats) HasChanges() bool {
	return s.DuplicatesMerged > 0 || s.NonManifoldVerticesRemoved > 0 || s.FaceFansCollapsed > 0 ||
		s.LongEdgePolygonsRemoved > 0 || s.IsolatedVerticesRemoved > 0 || s.SmallComponentsRemoved > 0
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// Run executes the 9-step pipeline described in spec.md §4.C and returns
// the converted mesh plus statistics. Returns meshmodel's Build error
// (PreprocessFailed territory for the caller) only when soup-to-mesh
// conversion fails; an emptied mesh is itself a success.
func Run(soup meshmodel.Soup, opts Options) (*meshmodel.Mesh, Stats, error) {
	var stats Stats
	totalStart := time.Now()
	soupStart := time.Now()

	if opts.RemoveDuplicates {
		start := time.Now()
		soup, stats.DuplicatesMerged = souprepair.DedupPoints(soup)
		stats.DuplicatesTimeMs = elapsedMs(start)

		start = time.Now()
		soup, _ = souprepair.DedupPolygons(soup)
		stats.DuplicatesTimeMs += elapsedMs(start)
	}

	degenerateStart := time.Now()
	soup, _ = souprepair.PurgeDegenerate(soup)
	stats.DegenerateTimeMs = elapsedMs(degenerateStart)

	if opts.RemoveNonManifold {
		start := time.Now()
		var result souprepair.NonManifoldResult
		soup, result = souprepair.RemoveNonManifold(soup, opts.NonManifoldPasses)
		stats.NonManifoldVerticesRemoved = result.TotalPolygonsRemoved
		stats.NonManifoldTimeMs = elapsedMs(start)
	}

	if opts.Remove3FaceFans {
		start := time.Now()
		soup, stats.FaceFansCollapsed = souprepair.CollapseThreeFaceFans(soup)
		stats.FaceFansTimeMs = elapsedMs(start)
	}

	if opts.RemoveLongEdges {
		start := time.Now()
		soup, stats.LongEdgePolygonsRemoved = souprepair.LongEdgePurge(soup, opts.LongEdgeMaxRatio)
		stats.LongEdgeTimeMs = elapsedMs(start)
	}

	orientStart := time.Now()
	soup, _ = souprepair.Orient(soup)
	stats.OrientTimeMs = elapsedMs(orientStart)

	stats.SoupCleanupTimeMs = elapsedMs(soupStart)

	convertStart := time.Now()
	mesh, err := meshmodel.Build(soup)
	stats.SoupToMeshTimeMs = elapsedMs(convertStart)
	if err != nil {
		return nil, stats, err
	}

	meshCleanupStart := time.Now()
	if opts.RemoveIsolated {
		var removed int
		mesh, removed = removeIsolatedVertices(mesh)
		stats.IsolatedVerticesRemoved = removed
	}
	if opts.KeepLargestComponent {
		var found, smallRemoved int
		mesh, found, smallRemoved = keepLargestComponent(mesh)
		stats.ConnectedComponentsFound = found
		stats.SmallComponentsRemoved = smallRemoved
	}
	stats.MeshCleanupTimeMs = elapsedMs(meshCleanupStart)

	stats.TotalTimeMs = elapsedMs(totalStart)
	return mesh, stats, nil
}

// compact drops unreferenced points from a soup and remaps polygon
// indices so they are dense. It runs after the mesh-level cleanups
// (isolated-vertex removal, largest-component selection); the soup-level
// passes before mesh conversion do not compact.
func compact(s meshmodel.Soup) meshmodel.Soup {
	referenced := make([]bool, len(s.Points))
	for _, poly := range s.Polygons {
		for _, idx := range poly {
			referenced[idx] = true
		}
	}
	remap := make([]int, len(s.Points))
	var points []meshmodel.Point
	for i, p := range s.Points {
		if !referenced[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(points)
		points = append(points, p)
	}
	polys := make([][]int, len(s.Polygons))
	for i, poly := range s.Polygons {
		rewritten := make([]int, len(poly))
		for j, idx := range poly {
			rewritten[j] = remap[idx]
		}
		polys[i] = rewritten
	}
	return meshmodel.Soup{Points: points, Polygons: polys}
}

// removeIsolatedVertices drops every vertex with no incident face, then
// rebuilds the mesh from the compacted soup.
func removeIsolatedVertices(mesh *meshmodel.Mesh) (*meshmodel.Mesh, int) {
	soup := mesh.ToSoup()
	before := len(soup.Points)
	soup = compact(soup)
	removed := before - len(soup.Points)
	if removed == 0 {
		return mesh, 0
	}
	rebuilt, err := meshmodel.Build(soup)
	if err != nil {
		// Compaction only drops already-unreferenced points; it cannot
		// introduce a manifold violation, so this path is unreachable in
		// practice. Fall back to the original mesh defensively.
		return mesh, 0
	}
	return rebuilt, removed
}

// keepLargestComponent partitions faces into connected components (two
// faces adjacent iff they share a non-border half-edge/twin pair) and
// keeps only the component with the most faces, breaking ties by whichever
// component was discovered first in face-index traversal order.
func keepLargestComponent(mesh *meshmodel.Mesh) (*meshmodel.Mesh, int, int) {
	numFaces := len(mesh.Faces)
	if numFaces == 0 {
		return mesh, 0, 0
	}

	componentOf := make([]int, numFaces)
	for i := range componentOf {
		componentOf[i] = -1
	}

	var componentSizes []int
	for start := 0; start < numFaces; start++ {
		if componentOf[start] != -1 {
			continue
		}
		compID := len(componentSizes)
		size := 0
		queue := []int{start}
		componentOf[start] = compID
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			size++
			for _, neighbor := range neighborFaces(mesh, f) {
				if componentOf[neighbor] == -1 {
					componentOf[neighbor] = compID
					queue = append(queue, neighbor)
				}
			}
		}
		componentSizes = append(componentSizes, size)
	}

	if len(componentSizes) <= 1 {
		return mesh, len(componentSizes), 0
	}

	best, bestSize := 0, -1
	for comp, size := range componentSizes {
		if size > bestSize {
			best, bestSize = comp, size
		}
	}

	soup := mesh.ToSoup()
	var kept [][]int
	for f, poly := range soup.Polygons {
		if componentOf[f] == best {
			kept = append(kept, poly)
		}
	}
	small := numFaces - len(kept)

	reduced := compact(meshmodel.Soup{Points: soup.Points, Polygons: kept})
	rebuilt, err := meshmodel.Build(reduced)
	if err != nil {
		return mesh, len(componentSizes), 0
	}
	return rebuilt, len(componentSizes), small
}

func neighborFaces(mesh *meshmodel.Mesh, f int) []int {
	var out []int
	h0 := mesh.Faces[f].HalfEdge
	h := h0
	for {
		twinEdge := mesh.HalfEdges[mesh.HalfEdges[h].Twin]
		if !twinEdge.IsBorder() {
			out = append(out, twinEdge.Face)
		}
		h = mesh.HalfEdges[h].Next
		if h == h0 {
			break
		}
	}
	return out
}
