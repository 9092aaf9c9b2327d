// Package fillpool is the Parallel Filler: it takes the submeshes produced
// by partition+submesh, applies eligibility checks per hole, and fills the
// submeshes on goroutines capped by a weighted semaphore.
// Grounded on include/hole_ops.h's FillingOptions and
// include/parallel_hole_filler.h's ParallelHoleFillerPipeline::process_partitioned
// / fill_submesh_holes.
package fillpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ssh4net/meshrepair/canceltoken"
	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/meshstats"
	"github.com/ssh4net/meshrepair/submesh"
)

// Options configures a filling pass across many submeshes. It is the
// job-wide and eligibility subset of the original's FillingOptions; per-hole
// algorithm preferences live in fillop.Options instead.
type Options struct {
	Continuity              int
	Use2DCDT                bool
	Use3DDelaunay           bool
	SkipCubicSearch         bool
	Refine                  bool
	MaxHoleBoundaryVertices int
	MaxHoleDiameterRatio    float64
	ReferenceBBoxDiagonal   float64
	GuardSelectionBoundary  bool
	SelectionBoundary       map[int]struct{}
	FillingThreads          int
}

// FillOptions narrows Options down to the fillop.Operator contract.
func (o Options) FillOptions() fillop.Options {
	return fillop.Options{
		Continuity:      o.Continuity,
		Use2DCDT:        o.Use2DCDT,
		Use3DDelaunay:   o.Use3DDelaunay,
		SkipCubicSearch: o.SkipCubicSearch,
		Refine:          o.Refine,
	}
}

// eligible reports whether hole passes the size, diameter and
// selection-boundary guards before being handed to the Fill Operator, per
// include/hole_ops.h's FillingOptions fields of the same name.
func (o Options) eligible(hole holedetect.Info) bool {
	if o.MaxHoleBoundaryVertices > 0 && hole.BoundarySize > o.MaxHoleBoundaryVertices {
		return false
	}
	if o.MaxHoleDiameterRatio > 0 && o.ReferenceBBoxDiagonal > 0 {
		if hole.EstimatedDiameter > o.MaxHoleDiameterRatio*o.ReferenceBBoxDiagonal {
			return false
		}
	}
	if o.GuardSelectionBoundary && len(o.SelectionBoundary) > 0 {
		// Ineligible only when every boundary vertex lies on the
		// selection's outer ring; a hole that merely touches it on one
		// side is still fillable.
		allOnSelection := true
		for _, v := range hole.BoundaryVertices {
			if _, onSelection := o.SelectionBoundary[v]; !onSelection {
				allOnSelection = false
				break
			}
		}
		if allOnSelection {
			return false
		}
	}
	return true
}

// FillSubmeshHoles fills every eligible hole in sm in sequence, using
// operator as the Fill Operator. Each hole's boundary half-edge is
// re-resolved from its stable vertex IDs immediately before the Fill call,
// because fillop.SimpleFiller (and any operator that rebuilds the mesh)
// invalidates previously-computed half-edge indices for holes still
// pending in the same submesh, even though vertex identity survives.
// Grounded on ParallelHoleFillerPipeline::fill_submesh_holes.
func FillSubmeshHoles(ctx context.Context, sm submesh.Submesh, operator fillop.Operator, opts Options, cancel canceltoken.Token) (submesh.Submesh, meshstats.MeshStatistics) {
	stats := meshstats.MeshStatistics{
		OriginalVertices: sm.Mesh.NumVertices(),
		OriginalFaces:    sm.Mesh.NumFaces(),
		NumHolesDetected: sm.OriginalHoleCount,
	}

	for _, hole := range sm.Holes {
		start := time.Now()
		detail := meshstats.HoleStatistics{
			NumBoundaryVertices: hole.BoundarySize,
			HoleArea:            hole.EstimatedArea,
			HoleDiameter:        hole.EstimatedDiameter,
		}

		switch {
		case cancel.Cancelled():
			detail.Outcome = meshstats.HoleCancelled
			detail.ErrorMessage = "cancelled before fill"
		case ctx.Err() != nil:
			detail.Outcome = meshstats.HoleCancelled
			detail.ErrorMessage = ctx.Err().Error()
		case !opts.eligible(hole):
			detail.Outcome = meshstats.HoleSkipped
		default:
			h, ok := holedetect.FindBoundaryHalfEdge(sm.Mesh, hole.BoundaryVertices)
			if !ok {
				detail.Outcome = meshstats.HoleFailed
				detail.ErrorMessage = "boundary half-edge could not be re-resolved"
				break
			}
			result, err := callOperator(operator, sm.Mesh, h, opts.FillOptions())
			if err != nil {
				detail.Outcome = meshstats.HoleFailed
				detail.ErrorMessage = err.Error()
				break
			}
			detail.FilledSuccessfully = result.Success
			detail.FairingSucceeded = result.FairingSucceeded
			detail.NumFacesAdded = result.AddedFaces
			detail.NumVerticesAdded = result.AddedVertices
			if result.Success {
				detail.Outcome = meshstats.HoleFilled
			} else {
				detail.Outcome = meshstats.HoleFailed
				detail.ErrorMessage = "fill operator reported no change"
			}
		}

		detail.FillTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
		stats.HoleDetails = append(stats.HoleDetails, detail)
	}

	stats.DeriveHoleCounts()
	stats.FinalVertices = sm.Mesh.NumVertices()
	stats.FinalFaces = sm.Mesh.NumFaces()
	return sm, stats
}

// callOperator recovers a panicking Fill Operator (spec.md §7) and turns it
// into an error, matching the original's worker_function exception
// boundary.
func callOperator(operator fillop.Operator, mesh *meshmodel.Mesh, h int, opts fillop.Options) (result fillop.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fill operator panicked: %v", r)
		}
	}()
	return operator.Fill(mesh, h, opts)
}

// Result pairs a processed submesh with its per-submesh statistics, keyed
// by its position in the partition slice so callers can reassemble results
// in a stable order regardless of completion order.
type Result struct {
	Index   int
	Submesh submesh.Submesh
	Stats   meshstats.MeshStatistics
}

// ProcessPartitioned fills every submesh's eligible holes concurrently,
// capped at opts.FillingThreads (minimum 1) concurrent submeshes via a
// weighted semaphore, then returns the results ordered by the original
// submesh index. A plain worker pool queue doesn't fit here: per-submesh
// fill time varies widely (hole count, boundary size), so a semaphore
// gating goroutine starts lets a submesh that finishes early free its slot
// immediately rather than waiting behind a fixed dispatch channel. Grounded
// on ParallelHoleFillerPipeline::process_partitioned's fan-out/fan-in shape
// and other_examples' storj repairer's semaphore.Weighted concurrency cap.
func ProcessPartitioned(ctx context.Context, submeshes []submesh.Submesh, operator fillop.Operator, opts Options, cancel canceltoken.Token) []Result {
	threads := opts.FillingThreads
	if threads < 1 {
		threads = 1
	}
	sem := semaphore.NewWeighted(int64(threads))

	results := make([]Result, len(submeshes))
	var wg sync.WaitGroup
	for i, sm := range submeshes {
		i, sm := i, sm
		if err := sem.Acquire(ctx, 1); err != nil {
			// ctx was cancelled before a slot opened up for this submesh;
			// leave it unfilled rather than blocking forever.
			results[i] = Result{Index: i, Submesh: sm}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			filledMesh, stats := FillSubmeshHoles(ctx, sm, operator, opts, cancel)
			results[i] = Result{Index: i, Submesh: filledMesh, Stats: stats}
		}()
	}
	wg.Wait()
	return results
}
