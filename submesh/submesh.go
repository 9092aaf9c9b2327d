// Package submesh extracts an owned, self-contained Mesh from a subset of
// a parent mesh's faces, remapping each hole's boundary into the new
// vertex numbering. Grounded on include/submesh_extractor.h.
package submesh

import (
	"sort"

	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/meshmodel"
)

// Submesh owns a private Mesh, the holes to fill within it (boundary
// half-edges already remapped to the private Mesh), and the bijective
// vertex maps back to the parent. Move-only by convention: callers must
// not retain a Submesh value after handing it off (fillpool returns each
// filled submesh in its own result slot), matching spec.md §3's "no two
// owners simultaneously" rule.
type Submesh struct {
	Mesh              *meshmodel.Mesh
	Holes             []holedetect.Info
	OldToNew          map[int]int
	NewToOld          map[int]int
	OriginalHoleCount int
	// OriginalFaces is the parent-mesh face index set this submesh was
	// extracted from, kept so merge can identify which original faces a
	// filled submesh supersedes.
	OriginalFaces map[int]struct{}
}

// Extract copies the faces in the given set into a new owned Mesh and
// remaps the given holes' boundaries into it. Holes whose boundary cannot
// be recovered in the submesh (fewer than 3 mapped boundary vertices, or
// no boundary half-edge recoverable) are silently dropped, per spec.md
// §4.F.
func Extract(parent *meshmodel.Mesh, faces map[int]struct{}, holes []holedetect.Info) Submesh {
	orderedFaces := make([]int, 0, len(faces))
	for f := range faces {
		orderedFaces = append(orderedFaces, f)
	}
	sort.Ints(orderedFaces)

	oldToNew := make(map[int]int)
	newToOld := make(map[int]int)
	var points []meshmodel.Point
	var polys [][]int

	for _, f := range orderedFaces {
		verts := parent.FaceVertices(f)
		poly := make([]int, 3)
		for i, old := range verts {
			newIdx, ok := oldToNew[old]
			if !ok {
				newIdx = len(points)
				oldToNew[old] = newIdx
				newToOld[newIdx] = old
				points = append(points, parent.Vertices[old].Point)
			}
			poly[i] = newIdx
		}
		polys = append(polys, poly)
	}

	mesh, err := meshmodel.Build(meshmodel.Soup{Points: points, Polygons: polys})
	if err != nil {
		// The caller (partition/fillpool) guarantees faces is a connected,
		// manifold subset of an already-validated parent mesh, so Build
		// cannot fail here; an empty Submesh lets the caller treat it the
		// same as "no holes remapped" rather than panicking on invariants
		// the rest of the pipeline already established.
		return Submesh{Mesh: &meshmodel.Mesh{}, OriginalHoleCount: len(holes)}
	}

	var remapped []holedetect.Info
	for _, hole := range holes {
		if newHole, ok := remapHole(mesh, hole, oldToNew); ok {
			remapped = append(remapped, newHole)
		}
	}

	return Submesh{
		Mesh:              mesh,
		Holes:             remapped,
		OldToNew:          oldToNew,
		NewToOld:          newToOld,
		OriginalHoleCount: len(holes),
		OriginalFaces:     faces,
	}
}

func remapHole(mesh *meshmodel.Mesh, hole holedetect.Info, oldToNew map[int]int) (holedetect.Info, bool) {
	var newVerts []int
	for _, v := range hole.BoundaryVertices {
		if nv, ok := oldToNew[v]; ok {
			newVerts = append(newVerts, nv)
		}
	}
	if distinctCount(newVerts) < 3 {
		return holedetect.Info{}, false
	}

	if h, ok := holedetect.FindBoundaryHalfEdge(mesh, newVerts); ok {
		return holedetect.AnalyzeHole(mesh, h), true
	}
	return holedetect.Info{}, false
}

func distinctCount(vs []int) int {
	seen := make(map[int]struct{}, len(vs))
	for _, v := range vs {
		seen[v] = struct{}{}
	}
	return len(seen)
}
