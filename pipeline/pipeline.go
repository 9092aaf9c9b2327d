// Package pipeline drives one whole-mesh repair job through its ordered
// stages: load, preprocess, detect, partition, extract, fill, merge, save.
// Grounded on include/mesh_repair_pipeline.h's MeshRepairPipeline state
// machine (Ready→...→Saved plus Cancelled/Failed<Stage> sinks) and
// include/parallel_hole_filler.h for the partitioned branch; the legacy
// branch is grounded on include/worker_pool.h's BoundedQueue consumer idiom
// and spec.md §9's "serialize mutation under one mutex" note.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ssh4net/meshrepair/canceltoken"
	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/fillpool"
	"github.com/ssh4net/meshrepair/holedetect"
	"github.com/ssh4net/meshrepair/merge"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/meshstats"
	"github.com/ssh4net/meshrepair/partition"
	"github.com/ssh4net/meshrepair/preprocess"
	"github.com/ssh4net/meshrepair/submesh"
	"github.com/ssh4net/meshrepair/workerpool"
)

// Status is the job's terminal outcome, spec.md §6's recognized set.
type Status int

const (
	Ok Status = iota
	LoadFailed
	PreprocessFailed
	ValidationFailed
	ProcessFailed
	SaveFailed
	Cancelled
	InternalError
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case LoadFailed:
		return "LoadFailed"
	case PreprocessFailed:
		return "PreprocessFailed"
	case ValidationFailed:
		return "ValidationFailed"
	case ProcessFailed:
		return "ProcessFailed"
	case SaveFailed:
		return "SaveFailed"
	case Cancelled:
		return "Cancelled"
	case InternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Loader and Saver are the external file-format collaborators spec.md §6
// delegates to (meshio implements both); the pipeline core never parses a
// file format itself.
type Loader interface {
	Load(path string) (meshmodel.Soup, error)
}

type Saver interface {
	Save(mesh *meshmodel.Mesh, path string, binary bool) error
}

// Validator checks a preprocessed mesh before filling begins, the
// collaborator behind job config's validate_input flag. Optional: a nil
// Validator in Config skips validation entirely.
type Validator interface {
	Validate(mesh *meshmodel.Mesh) error
}

// Config is the per-job descriptor, the recognized-field subset of spec.md
// §6's job descriptor that the pipeline core itself consumes (loader/saver
// paths, IPC/GUI-only fields like temp_dir and show_progress are the CLI's
// concern).
type Config struct {
	InputPath  string
	OutputPath string
	AsciiPLY   bool

	EnablePreprocessing bool
	Preprocess          preprocess.Options

	ValidateInput bool

	UsePartitioned            bool
	HolesOnly                 bool
	RequestedPartitions       int
	MinPartitionBoundaryEdges int
	Fill                      fillpool.Options
	FillOperator              fillop.Operator

	LegacyThreads int

	Timeout time.Duration
	Cancel  canceltoken.Token
}

// Result is the job's outcome: status, accumulated statistics, an error
// message when status != Ok, and total wall-clock time.
type Result struct {
	Status       Status
	Stats        meshstats.MeshStatistics
	ErrorMessage string
	TotalTimeMs  float64
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func fail(status Status, stage, input string, detail error, start time.Time, stats meshstats.MeshStatistics) Result {
	return Result{
		Status:       status,
		Stats:        stats,
		ErrorMessage: fmt.Sprintf("%s failed (%s): %v", stage, input, detail),
		TotalTimeMs:  elapsedMs(start),
	}
}

func tripped(ctx context.Context, cancel canceltoken.Token) bool {
	return cancel.Cancelled() || ctx.Err() != nil
}

// Run drives cfg through every stage to completion or first failure. A
// cfg.Timeout > 0 is installed as a context deadline up front, so every
// downstream ctx.Err() check (including inside fillpool.ProcessPartitioned)
// observes it the same way it observes an explicit cancel.
func Run(ctx context.Context, loader Loader, saver Saver, validator Validator, cfg Config) Result {
	start := time.Now()
	var stats meshstats.MeshStatistics

	if cfg.Timeout > 0 {
		var cancelFn context.CancelFunc
		ctx, cancelFn = context.WithTimeout(ctx, cfg.Timeout)
		defer cancelFn()
	}

	if tripped(ctx, cfg.Cancel) {
		return Result{Status: Cancelled, TotalTimeMs: elapsedMs(start)}
	}

	soup, err := loader.Load(cfg.InputPath)
	if err != nil {
		return fail(LoadFailed, "Load", cfg.InputPath, err, start, stats)
	}

	var mesh *meshmodel.Mesh
	if cfg.EnablePreprocessing {
		mesh, _, err = preprocess.Run(soup, cfg.Preprocess)
	} else {
		mesh, err = meshmodel.Build(soup)
	}
	if err != nil {
		return fail(PreprocessFailed, "Preprocess", cfg.InputPath, err, start, stats)
	}

	stats.OriginalVertices = mesh.NumVertices()
	stats.OriginalFaces = mesh.NumFaces()

	if validator != nil && cfg.ValidateInput {
		if err := validator.Validate(mesh); err != nil {
			return fail(ValidationFailed, "Validate", cfg.InputPath, err, start, stats)
		}
	}

	if tripped(ctx, cfg.Cancel) {
		stats.FinalVertices, stats.FinalFaces = mesh.NumVertices(), mesh.NumFaces()
		return Result{Status: Cancelled, Stats: stats, TotalTimeMs: elapsedMs(start)}
	}

	holes := holedetect.DetectAll(mesh)
	stats.NumHolesDetected = len(holes)

	if tripped(ctx, cfg.Cancel) {
		stats.FinalVertices, stats.FinalFaces = mesh.NumVertices(), mesh.NumFaces()
		return Result{Status: Cancelled, Stats: stats, TotalTimeMs: elapsedMs(start)}
	}

	var merged *meshmodel.Mesh
	if len(holes) == 0 {
		merged = mesh
	} else if cfg.UsePartitioned {
		merged, err = runPartitioned(ctx, mesh, holes, cfg, &stats)
	} else {
		merged, err = runLegacy(ctx, mesh, holes, cfg, &stats)
	}
	if err != nil {
		return fail(ProcessFailed, "Process", cfg.InputPath, err, start, stats)
	}

	stats.FinalVertices = merged.NumVertices()
	stats.FinalFaces = merged.NumFaces()

	if tripped(ctx, cfg.Cancel) {
		return Result{Status: Cancelled, Stats: stats, TotalTimeMs: elapsedMs(start)}
	}

	if err := saver.Save(merged, cfg.OutputPath, !cfg.AsciiPLY); err != nil {
		return fail(SaveFailed, "Save", cfg.OutputPath, err, start, stats)
	}

	stats.TotalTimeMs = elapsedMs(start)
	return Result{Status: Ok, Stats: stats, TotalTimeMs: stats.TotalTimeMs}
}

// runPartitioned implements the Partitioner + Parallel Filler + Merger
// branch of fill_holes (spec.md §4.J's use_partitioned = true path).
func runPartitioned(ctx context.Context, mesh *meshmodel.Mesh, holes []holedetect.Info, cfg Config, stats *meshstats.MeshStatistics) (*meshmodel.Mesh, error) {
	fillOpts := cfg.Fill
	if fillOpts.ReferenceBBoxDiagonal == 0 {
		fillOpts.ReferenceBBoxDiagonal = mesh.BBox().Diagonal()
	}

	nRings := partition.RingCount(fillOpts.Continuity)
	requested := cfg.RequestedPartitions
	if requested < 1 {
		requested = fillOpts.FillingThreads
	}
	groups := partition.Balance(holes, partition.Config{
		RequestedPartitions:       requested,
		MinPartitionBoundaryEdges: cfg.MinPartitionBoundaryEdges,
	})

	var submeshes []submesh.Submesh
	for _, indices := range groups {
		if len(indices) == 0 {
			continue
		}
		faces := make(map[int]struct{})
		var partHoles []holedetect.Info
		for _, idx := range indices {
			hole := holes[idx]
			nb := partition.ComputeNeighborhood(mesh, hole, nRings)
			for f := range nb.Faces {
				faces[f] = struct{}{}
			}
			partHoles = append(partHoles, hole)
		}
		submeshes = append(submeshes, submesh.Extract(mesh, faces, partHoles))
	}

	operator := cfg.FillOperator
	if operator == nil {
		operator = fillop.SimpleFiller{}
	}

	results := fillpool.ProcessPartitioned(ctx, submeshes, operator, fillOpts, cfg.Cancel)

	filled := make([]submesh.Submesh, 0, len(results))
	for _, r := range results {
		filled = append(filled, r.Submesh)
		stats.Merge(r.Stats)
	}
	stats.DeriveHoleCounts()

	merged, _, err := merge.Merge(mesh, filled, merge.Options{HolesOnly: cfg.HolesOnly})
	return merged, err
}

// runLegacy serializes the Fill Operator over the shared Mesh under one
// mutex, using a BoundedQueue as the producer/consumer handoff per spec.md
// §9's legacy-path note. Retained as a correctness baseline alongside the
// partitioned path (spec.md §4.J).
func runLegacy(ctx context.Context, mesh *meshmodel.Mesh, holes []holedetect.Info, cfg Config, stats *meshstats.MeshStatistics) (*meshmodel.Mesh, error) {
	operator := cfg.FillOperator
	if operator == nil {
		operator = fillop.SimpleFiller{}
	}
	threads := cfg.LegacyThreads
	if threads < 1 {
		threads = 1
	}

	queue := workerpool.NewBoundedQueue[holedetect.Info](len(holes))
	for _, h := range holes {
		queue.Push(h)
	}
	queue.Finish()

	var mu sync.Mutex
	var statsMu sync.Mutex
	var wg sync.WaitGroup
	fillOpts := cfg.Fill.FillOptions()

	worker := func() {
		defer wg.Done()
		for {
			hole, ok := queue.Pop()
			if !ok {
				return
			}

			detail := meshstats.HoleStatistics{
				NumBoundaryVertices: hole.BoundarySize,
				HoleArea:            hole.EstimatedArea,
				HoleDiameter:        hole.EstimatedDiameter,
			}
			fillStart := time.Now()

			if tripped(ctx, cfg.Cancel) {
				detail.Outcome = meshstats.HoleCancelled
			} else {
				mu.Lock()
				h, resolveOk := holedetect.FindBoundaryHalfEdge(mesh, hole.BoundaryVertices)
				if !resolveOk {
					detail.Outcome = meshstats.HoleFailed
					detail.ErrorMessage = "boundary half-edge could not be re-resolved"
				} else {
					result, err := callOperatorRecovering(operator, mesh, h, fillOpts)
					if err != nil {
						detail.Outcome = meshstats.HoleFailed
						detail.ErrorMessage = err.Error()
					} else if result.Success {
						detail.Outcome = meshstats.HoleFilled
						detail.FilledSuccessfully = true
						detail.FairingSucceeded = result.FairingSucceeded
						detail.NumFacesAdded = result.AddedFaces
						detail.NumVerticesAdded = result.AddedVertices
					} else {
						detail.Outcome = meshstats.HoleFailed
						detail.ErrorMessage = "fill operator reported no change"
					}
				}
				mu.Unlock()
			}

			detail.FillTimeMs = float64(time.Since(fillStart).Microseconds()) / 1000.0

			statsMu.Lock()
			stats.HoleDetails = append(stats.HoleDetails, detail)
			statsMu.Unlock()
		}
	}

	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go worker()
	}
	wg.Wait()

	stats.DeriveHoleCounts()
	return mesh, nil
}

// callOperatorRecovering mirrors fillpool's panic boundary for the legacy
// path's direct Fill Operator calls (spec.md §7: a worker fault never
// escalates past its own per-hole result).
func callOperatorRecovering(operator fillop.Operator, mesh *meshmodel.Mesh, h int, opts fillop.Options) (result fillop.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fill operator panicked: %v", r)
		}
	}()
	return operator.Fill(mesh, h, opts)
}
