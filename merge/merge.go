// Package merge reassembles filled submeshes back into one mesh, replacing
// the original faces each submesh superseded and welding the result at a
// polygon-soup level. Grounded on include/mesh_merger.h's
// MeshMerger::merge_submeshes (to_soup/soup_to_mesh round-trip) and
// include/submesh_ops.h's MergeTiming.
package merge

import (
	"time"

	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/souprepair"
	"github.com/ssh4net/meshrepair/submesh"
)

// Timing mirrors include/submesh_ops.h's MergeTiming field-for-field.
type Timing struct {
	DedupMs    float64
	CopyBaseMs float64
	AppendMs   float64
	RepairMs   float64
	OrientMs   float64
	ConvertMs  float64
	TotalMs    float64

	ValidationRemoved         int
	ValidationOutOfBounds     int
	ValidationInvalidCycle    int
	ValidationEdgeOrientation int
	ValidationNonManifold     int
	ValidationPasses          int
}

// Options configures the merge pass.
type Options struct {
	// HolesOnly, when true, skips non-manifold repair on the whole
	// assembled soup and relies solely on polygon dedup to drop redundant
	// faces at submesh seams, matching the original's holes_only fast
	// path for callers that only touched hole-adjacent geometry.
	HolesOnly bool
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// Merge reassembles original plus the given filled submeshes into one mesh.
// Every face in original not claimed by any submesh's OriginalFaces set is
// kept verbatim; every submesh contributes its own (possibly grown) face
// set, with its new-vertices-only-to-the-submesh remapped into fresh global
// point slots and its parent-derived vertices mapped back through
// NewToOld. The combined soup is then deduplicated, (optionally) repaired,
// oriented, and rebuilt.
func Merge(original *meshmodel.Mesh, submeshes []submesh.Submesh, opts Options) (*meshmodel.Mesh, Timing, error) {
	start := time.Now()
	var timing Timing

	copyStart := time.Now()
	base := original.ToSoup()
	excluded := make(map[int]struct{})
	for _, sm := range submeshes {
		for f := range sm.OriginalFaces {
			excluded[f] = struct{}{}
		}
	}
	soup := meshmodel.Soup{Points: append([]meshmodel.Point(nil), base.Points...)}
	for f, poly := range base.Polygons {
		if _, gone := excluded[f]; gone {
			continue
		}
		soup.Polygons = append(soup.Polygons, poly)
	}
	timing.CopyBaseMs = elapsedMs(copyStart)

	appendStart := time.Now()
	for _, sm := range submeshes {
		if sm.Mesh == nil {
			continue
		}
		smSoup := sm.Mesh.ToSoup()
		localToGlobal := make(map[int]int, len(smSoup.Points))
		for localIdx := range smSoup.Points {
			if oldIdx, ok := sm.NewToOld[localIdx]; ok {
				localToGlobal[localIdx] = oldIdx
				continue
			}
			globalIdx := len(soup.Points)
			soup.Points = append(soup.Points, smSoup.Points[localIdx])
			localToGlobal[localIdx] = globalIdx
		}
		for _, poly := range smSoup.Polygons {
			translated := make([]int, len(poly))
			for i, v := range poly {
				translated[i] = localToGlobal[v]
			}
			soup.Polygons = append(soup.Polygons, translated)
		}
	}
	timing.AppendMs = elapsedMs(appendStart)

	dedupStart := time.Now()
	soup, _ = souprepair.DedupPoints(soup)
	soup, _ = souprepair.DedupPolygons(soup)
	soup, degenerate := souprepair.PurgeDegenerate(soup)
	timing.ValidationRemoved = degenerate
	timing.DedupMs = elapsedMs(dedupStart)

	if !opts.HolesOnly {
		repairStart := time.Now()
		nmResult := souprepair.NonManifoldResult{}
		soup, nmResult = souprepair.RemoveNonManifold(soup, 10)
		timing.ValidationNonManifold = nmResult.TotalPolygonsRemoved
		timing.ValidationPasses = nmResult.IterationsExecuted
		timing.RepairMs = elapsedMs(repairStart)
	}

	orientStart := time.Now()
	soup, orientResult := souprepair.Orient(soup)
	if orientResult.Failed {
		timing.ValidationEdgeOrientation++
	}
	timing.OrientMs = elapsedMs(orientStart)

	soup = compact(soup)

	convertStart := time.Now()
	merged, err := meshmodel.Build(soup)
	timing.ConvertMs = elapsedMs(convertStart)
	if err != nil {
		return nil, timing, err
	}

	timing.TotalMs = elapsedMs(start)
	return merged, timing, nil
}

// compact drops points unreferenced by any polygon and remaps polygon
// indices accordingly, the soup-level garbage collection preprocess.Run
// performs after its own mutating passes.
func compact(s meshmodel.Soup) meshmodel.Soup {
	referenced := make([]bool, len(s.Points))
	for _, poly := range s.Polygons {
		for _, v := range poly {
			referenced[v] = true
		}
	}

	remap := make([]int, len(s.Points))
	var points []meshmodel.Point
	for i, keep := range referenced {
		if keep {
			remap[i] = len(points)
			points = append(points, s.Points[i])
		} else {
			remap[i] = -1
		}
	}

	polys := make([][]int, len(s.Polygons))
	for i, poly := range s.Polygons {
		newPoly := make([]int, len(poly))
		for j, v := range poly {
			newPoly[j] = remap[v]
		}
		polys[i] = newPoly
	}

	return meshmodel.Soup{Points: points, Polygons: polys}
}
