// Package fillop defines the Fill Operator contract (spec.md §4.G) and
// ships SimpleFiller, a dependency-free reference implementation. The
// original's CGAL triangulate-refine-fair primitive is out of scope per
// spec.md §1; SimpleFiller is a direct, simplified stand-in documented as
// such, grounded on include/hole_filler.h's FillingOptions/HoleStatistics
// field set for its inputs and outputs.
package fillop

import (
	"github.com/ssh4net/meshrepair/meshmodel"
)

// Options is the per-hole subset of the original's FillingOptions that the
// Fill Operator contract itself takes (spec.md §4.G): continuity and the
// three algorithm-preference flags. Eligibility and job-wide fields
// (max_hole_boundary_vertices, selection guards, ...) are the Parallel
// Filler's concern, not the operator's — see fillpool.Options.
type Options struct {
	Continuity      int // 0, 1, or 2
	Use2DCDT        bool
	Use3DDelaunay   bool
	SkipCubicSearch bool
	Refine          bool
}

// Result is the Fill Operator's outcome for one hole.
type Result struct {
	Success          bool
	AddedVertices    int
	AddedFaces       int
	FairingSucceeded bool
}

// Operator is the external triangulate-refine-fair collaborator: given a
// mutable mesh and a boundary half-edge, it closes the hole in place and
// reports what it added. Implementations must not panic; fillpool
// recovers defensively at the call site regardless (spec.md §7).
type Operator interface {
	Fill(mesh *meshmodel.Mesh, boundaryHalfEdge int, opts Options) (Result, error)
}

// SimpleFiller fans a hole boundary from one of its own boundary vertices
// (BoundarySize-2 new triangles, zero new vertices) rather than introducing
// a centroid Steiner point, so a convex boundary (every cube-corner hole in
// spec.md §8's scenarios among them) closes watertight at the original
// vertex/face counts. It always fan-triangulates regardless of Use2DCDT /
// Use3DDelaunay / SkipCubicSearch; those fields are accepted and simply
// have no effect here. A production Operator swapped in behind this same
// interface is expected to honor them. Because the fill never introduces
// an interior vertex, Refine has nothing to fair: there is no Steiner
// point to relax, only boundary vertices shared with the rest of the
// mesh, and moving those would distort geometry outside the hole. Refine
// is still accepted, but FairingSucceeded is always false.
type SimpleFiller struct{}

// Fill implements Operator.
func (f SimpleFiller) Fill(mesh *meshmodel.Mesh, boundaryHalfEdge int, opts Options) (Result, error) {
	boundary := walkBoundary(mesh, boundaryHalfEdge)
	if len(boundary) < 3 {
		return Result{}, nil
	}

	// Fan from boundary[0]: triangle i is (boundary[0], boundary[i],
	// boundary[i+1]) for i in [1, len(boundary)-2]. Each triangle supplies
	// the boundary segment boundary[i]->boundary[i+1] in the direction
	// complementary to its existing interior half-edge (which runs
	// boundary[i+1]->boundary[i], see holedetect.AnalyzeHole's walk
	// order); the two diagonals it introduces (boundary[0]->boundary[i]
	// and boundary[i+1]->boundary[0]) are each reversed by the
	// neighboring fan triangle, so no directed edge is duplicated.
	apex := boundary[0]
	soup := mesh.ToSoup()
	for i := 1; i < len(boundary)-1; i++ {
		soup.Polygons = append(soup.Polygons, []int{apex, boundary[i], boundary[i+1]})
	}

	rebuilt, err := meshmodel.Build(soup)
	if err != nil {
		return Result{}, err
	}
	*mesh = *rebuilt

	return Result{
		Success:          true,
		AddedVertices:    0,
		AddedFaces:       len(boundary) - 2,
		FairingSucceeded: false,
	}, nil
}

// walkBoundary recovers the ordered boundary vertex ring by following Next
// pointers from the given border half-edge.
func walkBoundary(mesh *meshmodel.Mesh, h int) []int {
	var out []int
	start := h
	for {
		out = append(out, mesh.HalfEdges[h].Origin)
		h = mesh.HalfEdges[h].Next
		if h == start {
			break
		}
	}
	return out
}
