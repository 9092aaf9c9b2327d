package meshmodel

import (
	"errors"
	"math"
)

// Sentinel errors for the meshmodel package.
var (
	// ErrIndexOutOfRange indicates a polygon referenced a point index outside the soup.
	ErrIndexOutOfRange = errors.New("meshmodel: polygon index out of range")

	// ErrDegeneratePolygon indicates a polygon had fewer than 3 distinct vertices.
	ErrDegeneratePolygon = errors.New("meshmodel: degenerate polygon")

	// ErrNonTriangle indicates Build was given a soup containing a non-triangular
	// polygon; Build requires the soup to have already passed through souprepair's
	// degenerate purge and orientation passes.
	ErrNonTriangle = errors.New("meshmodel: non-triangular polygon in soup")

	// ErrNonManifoldEdge indicates an edge is incident to more than two faces, or
	// the same directed edge appears twice (inconsistent orientation).
	ErrNonManifoldEdge = errors.New("meshmodel: non-manifold edge")

	// ErrNonManifoldVertex indicates a vertex's incident faces do not form a
	// single umbrella.
	ErrNonManifoldVertex = errors.New("meshmodel: non-manifold vertex")
)

// Point is an (x, y, z) triple in double precision. Two points are identical
// iff their bit-exact coordinates match; soup-level dedup relies on this
// equality, never an epsilon tolerance.
type Point [3]float64

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1], p[2] - q[2]}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p[0] * s, p[1] * s, p[2] * s}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	d := p.Sub(q)
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max Point
}

// EmptyBBox returns a bounding box primed for expansion via Expand.
func EmptyBBox() BBox {
	inf := math.Inf(1)
	return BBox{
		Min: Point{inf, inf, inf},
		Max: Point{-inf, -inf, -inf},
	}
}

// Expand grows b to include p.
func (b *BBox) Expand(p Point) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Diagonal returns the bounding-box diagonal length, or 0 for an empty box.
func (b BBox) Diagonal() float64 {
	if math.IsInf(b.Min[0], 1) {
		return 0
	}
	return b.Min.Dist(b.Max)
}

// BBoxOf computes the bounding box of a set of points.
func BBoxOf(points []Point) BBox {
	b := EmptyBBox()
	for _, p := range points {
		b.Expand(p)
	}
	return b
}

// Soup is points plus polygons with no connectivity invariants. Ordering of
// polygons is not semantically meaningful once the soup becomes a mesh.
type Soup struct {
	Points   []Point
	Polygons [][]int
}

// NumPoints returns the number of points in the soup.
func (s *Soup) NumPoints() int { return len(s.Points) }

// NumPolygons returns the number of polygons in the soup.
func (s *Soup) NumPolygons() int { return len(s.Polygons) }

// Validate checks that every polygon index is in range. It does not check
// degeneracy or manifoldness; those are the responsibility of souprepair.
func (s *Soup) Validate() error {
	n := len(s.Points)
	for _, poly := range s.Polygons {
		for _, idx := range poly {
			if idx < 0 || idx >= n {
				return ErrIndexOutOfRange
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the soup.
func (s *Soup) Clone() Soup {
	out := Soup{
		Points:   make([]Point, len(s.Points)),
		Polygons: make([][]int, len(s.Polygons)),
	}
	copy(out.Points, s.Points)
	for i, poly := range s.Polygons {
		out.Polygons[i] = append([]int(nil), poly...)
	}
	return out
}

// BBox returns the bounding box of the soup's points.
func (s *Soup) BBox() BBox { return BBoxOf(s.Points) }

const borderFace = -1
const noIndex = -1

// Vertex is a mesh vertex: its position and one outgoing half-edge (-1 if the
// vertex has been orphaned by a later mutation and not yet garbage collected).
type Vertex struct {
	Point    Point
	HalfEdge int
}

// HalfEdge is one directed edge record of the half-edge structure.
type HalfEdge struct {
	Origin int // vertex index this half-edge originates from
	Twin   int // opposite half-edge, always set once Build succeeds
	Next   int // next half-edge around the face (or border loop)
	Prev   int // previous half-edge around the face (or border loop)
	Face   int // incident face, or -1 if this is a border half-edge
}

// IsBorder reports whether h has no incident face.
func (h HalfEdge) IsBorder() bool { return h.Face == borderFace }

// Face is a triangle: one bounding half-edge is enough to recover all three
// vertices by walking Next twice more.
type Face struct {
	HalfEdge int
}

// Mesh is a half-edge structure over vertices, edges, half-edges and faces.
// After a successful Build: every face is a triangle; every non-border
// half-edge has an opposite half-edge with a face; each vertex's incident
// faces form a single umbrella; each edge is incident to at most two faces.
type Mesh struct {
	Vertices  []Vertex
	HalfEdges []HalfEdge
	Faces     []Face
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumFaces returns the face count.
func (m *Mesh) NumFaces() int { return len(m.Faces) }

// FaceVertices returns the three vertex indices bounding face f in winding order.
func (m *Mesh) FaceVertices(f int) [3]int {
	h0 := m.Faces[f].HalfEdge
	h1 := m.HalfEdges[h0].Next
	h2 := m.HalfEdges[h1].Next
	return [3]int{
		m.HalfEdges[h0].Origin,
		m.HalfEdges[h1].Origin,
		m.HalfEdges[h2].Origin,
	}
}

// BBox returns the bounding box of the mesh's vertex positions.
func (m *Mesh) BBox() BBox {
	pts := make([]Point, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = v.Point
	}
	return BBoxOf(pts)
}

// ToSoup converts the mesh to a polygon soup, one polygon per face, preserving
// vertex identity (vertex i in the mesh is point i in the soup, including
// currently-orphaned vertices with no incident face).
func (m *Mesh) ToSoup() Soup {
	s := Soup{
		Points:   make([]Point, len(m.Vertices)),
		Polygons: make([][]int, len(m.Faces)),
	}
	for i, v := range m.Vertices {
		s.Points[i] = v.Point
	}
	for i := range m.Faces {
		vs := m.FaceVertices(i)
		s.Polygons[i] = []int{vs[0], vs[1], vs[2]}
	}
	return s
}

// HalfEdgesFromVertex returns every half-edge whose Origin is v, by walking
// Twin.Next around the vertex's umbrella starting from v's stored half-edge.
// Works whether v sits in the mesh interior or on a border.
func (m *Mesh) HalfEdgesFromVertex(v int) []int {
	start := m.Vertices[v].HalfEdge
	if start == noIndex {
		return nil
	}
	var out []int
	h := start
	for {
		out = append(out, h)
		h = m.HalfEdges[m.HalfEdges[h].Twin].Next
		if h == start {
			break
		}
	}
	return out
}

// IncidentFaces returns the distinct, non-border faces touching vertex v.
func (m *Mesh) IncidentFaces(v int) []int {
	var out []int
	for _, h := range m.HalfEdgesFromVertex(v) {
		if f := m.HalfEdges[h].Face; f != borderFace {
			out = append(out, f)
		}
	}
	return out
}
