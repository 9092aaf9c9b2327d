// Package meshfixture builds small literal meshes used by the test scenarios
// in spec.md §8 (S1–S6): closed cubes and cubes with a hole, shared across
// package test suites so each scenario is defined exactly once.
package meshfixture

import "github.com/ssh4net/meshrepair/meshmodel"

// cubeVertices are the 8 corners of a cube of side 2 centered at the origin.
var cubeVertices = []meshmodel.Point{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// cubeFaces triangulates all 6 faces of the cube with outward-facing winding
// (12 triangles). Faces are grouped in pairs per cube side in the order
// -Z, +Z, -Y, +Y, -X, +X; the last pair (+X side, indices 10-11) is the one
// S2/S3/S4 remove to open a single quad hole.
var cubeFaces = [][]int{
	{0, 2, 1}, {0, 3, 2}, // -Z
	{4, 5, 6}, {4, 6, 7}, // +Z
	{0, 1, 5}, {0, 5, 4}, // -Y
	{3, 7, 6}, {3, 6, 2}, // +Y
	{0, 4, 7}, {0, 7, 3}, // -X
	{1, 2, 6}, {1, 6, 5}, // +X
}

// ClosedCube returns the soup for spec.md S1: 8 vertices, 12 faces, no holes.
func ClosedCube() meshmodel.Soup {
	polys := make([][]int, len(cubeFaces))
	for i, f := range cubeFaces {
		polys[i] = append([]int(nil), f...)
	}
	pts := append([]meshmodel.Point(nil), cubeVertices...)
	return meshmodel.Soup{Points: pts, Polygons: polys}
}

// OpenCube returns the soup for spec.md S2/S3/S4: the closed cube with its
// +X side's two triangles removed, leaving one quad (4-vertex) boundary hole.
func OpenCube() meshmodel.Soup {
	polys := make([][]int, 0, len(cubeFaces)-2)
	for _, f := range cubeFaces[:len(cubeFaces)-2] {
		polys = append(polys, append([]int(nil), f...))
	}
	pts := append([]meshmodel.Point(nil), cubeVertices...)
	return meshmodel.Soup{Points: pts, Polygons: polys}
}

// DuplicatedClosedCube returns spec.md S5: the closed cube with every vertex
// listed twice (indices 0..7 and 8..15 both equal in position) and polygons
// referencing the duplicate set, so dedup must merge 8 points back down.
func DuplicatedClosedCube() meshmodel.Soup {
	base := ClosedCube()
	pts := append([]meshmodel.Point(nil), base.Points...)
	pts = append(pts, base.Points...)
	polys := make([][]int, len(base.Polygons))
	for i, f := range base.Polygons {
		dup := make([]int, len(f))
		for j, idx := range f {
			dup[j] = idx + len(base.Points) // route every polygon through the duplicate half
		}
		polys[i] = dup
	}
	return meshmodel.Soup{Points: pts, Polygons: polys}
}

// TwoDisjointOpenCubes returns spec.md S4's input: two disjoint OpenCube
// shells translated apart, 16 vertices and 20 faces total, one hole each.
func TwoDisjointOpenCubes() meshmodel.Soup {
	a := OpenCube()
	b := OpenCube()
	offset := meshmodel.Point{10, 0, 0}
	bPts := make([]meshmodel.Point, len(b.Points))
	for i, p := range b.Points {
		bPts[i] = p.Add(offset)
	}
	pts := append(append([]meshmodel.Point(nil), a.Points...), bPts...)
	polys := make([][]int, 0, len(a.Polygons)+len(b.Polygons))
	polys = append(polys, a.Polygons...)
	for _, f := range b.Polygons {
		shifted := make([]int, len(f))
		for j, idx := range f {
			shifted[j] = idx + len(a.Points)
		}
		polys = append(polys, shifted)
	}
	return meshmodel.Soup{Points: pts, Polygons: polys}
}
