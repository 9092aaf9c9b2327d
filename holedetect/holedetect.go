// Package holedetect enumerates boundary cycles ("holes") in a
// meshmodel.Mesh. Grounded on include/hole_detector.h.
package holedetect

import (
	"math"

	"github.com/ssh4net/meshrepair/meshmodel"
)

// Info describes one detected hole: its boundary half-edge, the ordered
// boundary vertices, and estimated size measures. Immutable after
// construction. Mirrors include/hole_detector.h's HoleInfo.
type Info struct {
	BoundaryHalfEdge  int
	BoundaryVertices  []int
	BoundarySize      int
	EstimatedDiameter float64
	EstimatedArea     float64
}

// IsBorderHalfEdge reports whether h has no incident face.
func IsBorderHalfEdge(mesh *meshmodel.Mesh, h int) bool {
	return mesh.HalfEdges[h].IsBorder()
}

// CountBorderEdges returns the number of border half-edges in the mesh.
func CountBorderEdges(mesh *meshmodel.Mesh) int {
	count := 0
	for _, h := range mesh.HalfEdges {
		if h.IsBorder() {
			count++
		}
	}
	return count
}

// AnalyzeHole walks the border half-edge cycle starting at borderH,
// following Next pointers until the cycle closes, and computes the hole's
// boundary vertex list, diameter (bounding-box diagonal of the boundary
// points), and area (the coarse π·(d/2)² estimate spec.md §4.D calls for).
func AnalyzeHole(mesh *meshmodel.Mesh, borderH int) Info {
	var vertices []int
	h := borderH
	for {
		vertices = append(vertices, mesh.HalfEdges[h].Origin)
		h = mesh.HalfEdges[h].Next
		if h == borderH {
			break
		}
	}

	bbox := meshmodel.EmptyBBox()
	for _, v := range vertices {
		bbox.Expand(mesh.Vertices[v].Point)
	}
	diameter := bbox.Diagonal()

	return Info{
		BoundaryHalfEdge:  borderH,
		BoundaryVertices:  vertices,
		BoundarySize:      len(vertices),
		EstimatedDiameter: diameter,
		EstimatedArea:     math.Pi * (diameter / 2) * (diameter / 2),
	}
}

// DetectAll walks every border half-edge not yet visited, tracing each
// cycle with AnalyzeHole and marking its half-edges visited, and returns
// the ordered list of detected holes.
func DetectAll(mesh *meshmodel.Mesh) []Info {
	visited := make([]bool, len(mesh.HalfEdges))
	var holes []Info

	for h, he := range mesh.HalfEdges {
		if !he.IsBorder() || visited[h] {
			continue
		}
		hole := AnalyzeHole(mesh, h)
		for _, bh := range hole.BoundaryHalfEdges(mesh) {
			visited[bh] = true
		}
		holes = append(holes, hole)
	}
	return holes
}

// BoundaryHalfEdges re-walks the cycle starting at the hole's
// BoundaryHalfEdge to recover every half-edge index in the cycle (not just
// its origin vertices), used internally by DetectAll to mark visited
// half-edges.
func (hole Info) BoundaryHalfEdges(mesh *meshmodel.Mesh) []int {
	var out []int
	h := hole.BoundaryHalfEdge
	for {
		out = append(out, h)
		h = mesh.HalfEdges[h].Next
		if h == hole.BoundaryHalfEdge {
			break
		}
	}
	return out
}

// FindBoundaryHalfEdge recovers a border half-edge matching the given
// ordered vertex cycle, the way submesh.Extract remaps a hole's boundary
// into new vertex numbering (spec.md §4.F) and fillpool re-resolves a
// hole's boundary after an earlier fill in the same submesh rebuilt the
// mesh's half-edge indices (vertex identity survives a rebuild; raw
// half-edge indices don't). It first tries every rotation of the cycle for
// a border half-edge whose Next lands on the following vertex, then falls
// back to scanning every pair for any border half-edge connecting them.
func FindBoundaryHalfEdge(mesh *meshmodel.Mesh, vertices []int) (int, bool) {
	n := len(vertices)
	if n < 3 {
		return 0, false
	}
	for i := 0; i < n; i++ {
		if h, ok := findBorderHalfEdge(mesh, vertices[i], vertices[(i+1)%n]); ok {
			return h, true
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if h, ok := findBorderHalfEdge(mesh, vertices[i], vertices[j]); ok {
				return h, true
			}
		}
	}
	return 0, false
}

// findBorderHalfEdge returns the border half-edge originating at a whose
// Next half-edge originates at b.
func findBorderHalfEdge(mesh *meshmodel.Mesh, a, b int) (int, bool) {
	for _, h := range mesh.HalfEdgesFromVertex(a) {
		he := mesh.HalfEdges[h]
		if !he.IsBorder() {
			continue
		}
		if mesh.HalfEdges[he.Next].Origin == b {
			return h, true
		}
	}
	return 0, false
}
