package meshmodel

// edgeKey identifies a directed edge by its ordered endpoint vertex indices.
type edgeKey struct{ from, to int }

// Build assembles a half-edge Mesh from a triangle soup. The soup is expected
// to already be the output of souprepair's dedup/degenerate-purge/orientation
// passes: every polygon must have exactly 3 distinct vertices and polygons
// must be consistently wound so that each interior edge appears at most once
// per direction. Build re-checks the manifold invariants cheaply while
// assembling, rather than trusting the caller blindly, and reports
// ErrNonTriangle / ErrNonManifoldEdge / ErrNonManifoldVertex on violation; on
// error the returned mesh is nil, matching the PreprocessFailed contract of
// the caller.
func Build(soup Soup) (*Mesh, error) {
	if err := soup.Validate(); err != nil {
		return nil, err
	}

	m := &Mesh{
		Vertices:  make([]Vertex, len(soup.Points)),
		HalfEdges: make([]HalfEdge, 0, 3*len(soup.Polygons)),
		Faces:     make([]Face, 0, len(soup.Polygons)),
	}
	for i, p := range soup.Points {
		m.Vertices[i] = Vertex{Point: p, HalfEdge: noIndex}
	}

	directed := make(map[edgeKey]int, 3*len(soup.Polygons))

	for _, poly := range soup.Polygons {
		if len(poly) != 3 {
			return nil, ErrNonTriangle
		}
		if poly[0] == poly[1] || poly[1] == poly[2] || poly[0] == poly[2] {
			return nil, ErrDegeneratePolygon
		}

		faceIdx := len(m.Faces)
		base := len(m.HalfEdges)
		m.Faces = append(m.Faces, Face{HalfEdge: base})

		for i := 0; i < 3; i++ {
			m.HalfEdges = append(m.HalfEdges, HalfEdge{
				Origin: poly[i],
				Twin:   noIndex,
				Next:   base + (i+1)%3,
				Prev:   base + (i+2)%3,
				Face:   faceIdx,
			})
		}

		for i := 0; i < 3; i++ {
			from, to := poly[i], poly[(i+1)%3]
			key := edgeKey{from, to}
			if _, dup := directed[key]; dup {
				return nil, ErrNonManifoldEdge
			}
			directed[key] = base + i
			m.Vertices[from].HalfEdge = base + i
		}
	}

	// Pair interior half-edges with their twins; create border half-edges for
	// any directed edge whose reverse doesn't exist.
	originToBorder := make(map[int]int)
	for key, hi := range directed {
		if m.HalfEdges[hi].Twin != noIndex {
			continue // already paired by the reverse direction below
		}
		rev := edgeKey{key.to, key.from}
		if ti, ok := directed[rev]; ok {
			m.HalfEdges[hi].Twin = ti
			m.HalfEdges[ti].Twin = hi
			continue
		}
		bi := len(m.HalfEdges)
		m.HalfEdges = append(m.HalfEdges, HalfEdge{
			Origin: key.to,
			Twin:   hi,
			Next:   noIndex,
			Prev:   noIndex,
			Face:   borderFace,
		})
		m.HalfEdges[hi].Twin = bi
		if _, dup := originToBorder[key.to]; dup {
			return nil, ErrNonManifoldVertex
		}
		originToBorder[key.to] = bi
		m.Vertices[key.to].HalfEdge = bi
	}

	for origin, bi := range originToBorder {
		_ = origin
		h := m.HalfEdges[bi]
		interior := m.HalfEdges[h.Twin]
		next, ok := originToBorder[interior.Origin]
		if !ok {
			return nil, ErrNonManifoldVertex
		}
		m.HalfEdges[bi].Next = next
		m.HalfEdges[next].Prev = bi
	}

	if err := checkUmbrellas(m); err != nil {
		return nil, err
	}

	return m, nil
}

// checkUmbrellas verifies every vertex's incident half-edges form a single
// cycle when walked via Twin.Next, i.e. HalfEdgesFromVertex visits every
// half-edge originating at that vertex exactly once.
func checkUmbrellas(m *Mesh) error {
	outgoingCount := make([]int, len(m.Vertices))
	for _, h := range m.HalfEdges {
		outgoingCount[h.Origin]++
	}
	for v := range m.Vertices {
		if m.Vertices[v].HalfEdge == noIndex {
			continue
		}
		if len(m.HalfEdgesFromVertex(v)) != outgoingCount[v] {
			return ErrNonManifoldVertex
		}
	}
	return nil
}
