// Package partition groups detected holes into disjoint, edge-weight
// balanced partitions and computes each hole's n-ring neighborhood for
// submesh extraction. Grounded on include/mesh_partitioner.h /
// include/submesh_ops.h's MeshPartitionerCtx shape; the n-ring BFS walker
// and the LPT greedy balance reuse the teacher's bfs-queue and
// sort-then-greedy-scan idioms respectively (see DESIGN.md).
package partition

import (
	"sort"

	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/meshmodel"
)

// Neighborhood is a hole plus everything reachable within n rings of its
// boundary: the vertex and face sets a submesh extraction needs, and a
// bounding box for quick overlap rejection. Mirrors
// include/mesh_partitioner.h's HoleWithNeighborhood.
type Neighborhood struct {
	Hole     holedetect.Info
	Vertices map[int]struct{}
	Faces    map[int]struct{}
	BBox     meshmodel.BBox
}

// RingCount computes n_rings = max(1, continuity + 1), per spec.md §3.
func RingCount(continuity int) int {
	n := continuity + 1
	if n < 1 {
		return 1
	}
	return n
}

// ComputeNeighborhood builds a Neighborhood for hole by BFS from its
// boundary vertices out to nRings half-edge hops, then collects every face
// incident to any visited vertex.
func ComputeNeighborhood(mesh *meshmodel.Mesh, hole holedetect.Info, nRings int) Neighborhood {
	visited := make(map[int]struct{})
	type frontierItem struct {
		vertex int
		depth  int
	}
	queue := make([]frontierItem, 0, len(hole.BoundaryVertices))
	for _, v := range hole.BoundaryVertices {
		if _, ok := visited[v]; !ok {
			visited[v] = struct{}{}
			queue = append(queue, frontierItem{vertex: v, depth: 0})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= nRings {
			continue
		}
		for _, h := range mesh.HalfEdgesFromVertex(cur.vertex) {
			neighbor := mesh.HalfEdges[mesh.HalfEdges[h].Twin].Origin
			if _, ok := visited[neighbor]; !ok {
				visited[neighbor] = struct{}{}
				queue = append(queue, frontierItem{vertex: neighbor, depth: cur.depth + 1})
			}
		}
	}

	faces := make(map[int]struct{})
	bbox := meshmodel.EmptyBBox()
	for v := range visited {
		bbox.Expand(mesh.Vertices[v].Point)
		for _, f := range mesh.IncidentFaces(v) {
			faces[f] = struct{}{}
		}
	}

	return Neighborhood{Hole: hole, Vertices: visited, Faces: faces, BBox: bbox}
}

// Config drives Balance's partition-count computation. Grounded on
// spec.md §4.E's "count-balanced, edge-weighted" discipline.
type Config struct {
	RequestedPartitions       int // configured worker/filling thread count
	MinPartitionBoundaryEdges int // 0 disables the edge-budget cap
}

// Balance groups holes into disjoint partitions: it computes a target
// partition count P = min(requested, max(1, totalBoundaryEdges/minEdges),
// numHoles), then places holes (sorted by descending boundary size) into
// the partition with the smallest current cumulative boundary size
// (longest-processing-time-first greedy). Returns, for each partition, the
// indices of holes into the original slice.
func Balance(holes []holedetect.Info, cfg Config) [][]int {
	n := len(holes)
	if n == 0 {
		return nil
	}

	requested := cfg.RequestedPartitions
	if requested < 1 {
		requested = 1
	}

	totalBoundaryEdges := 0
	for _, h := range holes {
		totalBoundaryEdges += h.BoundarySize
	}

	maxByEdgeBudget := requested
	if cfg.MinPartitionBoundaryEdges > 0 {
		maxByEdgeBudget = totalBoundaryEdges / cfg.MinPartitionBoundaryEdges
		if maxByEdgeBudget < 1 {
			maxByEdgeBudget = 1
		}
	}

	p := requested
	if maxByEdgeBudget < p {
		p = maxByEdgeBudget
	}
	if n < p {
		p = n
	}
	if p < 1 {
		p = 1
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return holes[order[a]].BoundarySize > holes[order[b]].BoundarySize
	})

	partitions := make([][]int, p)
	load := make([]int, p)
	for _, idx := range order {
		target := 0
		for i := 1; i < p; i++ {
			if load[i] < load[target] {
				target = i
			}
		}
		partitions[target] = append(partitions[target], idx)
		load[target] += holes[idx].BoundarySize
	}

	return partitions
}
