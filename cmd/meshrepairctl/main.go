// Command meshrepairctl is the CLI front end for the mesh repair pipeline:
// a single job run straight through pipeline.Run, or a batch of jobs
// queued through batchqueue.Queue. Flag parsing and job assembly follow
// spec.md §6's recognized job descriptor field set; meshrepairctl itself
// is the only component that imports cobra/pflag, holedetect/pipeline stay
// flag-unaware.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ssh4net/meshrepair/batchqueue"
	"github.com/ssh4net/meshrepair/canceltoken"
	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/fillpool"
	"github.com/ssh4net/meshrepair/meshio"
	"github.com/ssh4net/meshrepair/pipeline"
	"github.com/ssh4net/meshrepair/preprocess"
	"github.com/ssh4net/meshrepair/repairlog"
	"github.com/ssh4net/meshrepair/statsfmt"
)

// flags holds every recognized job descriptor field, bound once by
// rootCmd's flag set and shared by both the single-job and batch paths.
type flags struct {
	inputPath  string
	outputPath string

	enablePreprocessing  bool
	removeDuplicates     bool
	removeNonManifold    bool
	remove3FaceFans      bool
	removeIsolated       bool
	keepLargestComponent bool
	nonManifoldPasses    int
	removeLongEdges      bool
	longEdgeMaxRatio     float64

	fairingContinuity         int
	maxHoleBoundaryVertices   int
	maxHoleDiameterRatio      float64
	use2DCDT                  bool
	use3DDelaunay             bool
	skipCubicSearch           bool
	refine                    bool
	minPartitionBoundaryEdges int
	holesOnly                 bool
	guardSelectionBoundary    bool

	usePartitioned      bool
	requestedPartitions int
	validateInput       bool
	asciiPLY            bool
	verbose             bool
	debug               bool
	timeoutMs           float64
	threadCount         int
	queueSize           int
	batchCopies         int
	tempDir             string
}

func bind(fs *pflag.FlagSet, f *flags) {
	fs.StringVar(&f.inputPath, "input", "", "input mesh file (.obj, .ply, .off)")
	fs.StringVar(&f.outputPath, "output", "", "output mesh file")

	fs.BoolVar(&f.enablePreprocessing, "enable-preprocessing", false, "run the soup-repair pipeline before filling")
	fs.BoolVar(&f.removeDuplicates, "remove-duplicates", true, "dedup points and polygons during preprocessing")
	fs.BoolVar(&f.removeNonManifold, "remove-non-manifold", true, "remove non-manifold edges/vertices during preprocessing")
	fs.BoolVar(&f.remove3FaceFans, "remove-3-face-fans", true, "collapse 3-face fans during preprocessing")
	fs.BoolVar(&f.removeIsolated, "remove-isolated", true, "drop isolated vertices during preprocessing")
	fs.BoolVar(&f.keepLargestComponent, "keep-largest-component", true, "keep only the largest connected component")
	fs.IntVar(&f.nonManifoldPasses, "non-manifold-passes", 10, "max local-search passes for non-manifold removal")
	fs.BoolVar(&f.removeLongEdges, "remove-long-edges", false, "purge polygons with an edge longer than long-edge-max-ratio * bbox diagonal")
	fs.Float64Var(&f.longEdgeMaxRatio, "long-edge-max-ratio", 0.125, "long-edge purge threshold, as a fraction of the bbox diagonal")

	fs.IntVar(&f.fairingContinuity, "fairing-continuity", 1, "fill operator continuity order (0, 1, or 2)")
	fs.IntVar(&f.maxHoleBoundaryVertices, "max-hole-boundary-vertices", 0, "skip holes with more boundary vertices than this (0 = unlimited)")
	fs.Float64Var(&f.maxHoleDiameterRatio, "max-hole-diameter-ratio", 0, "skip holes wider than this fraction of the mesh bbox diagonal (0 = unlimited)")
	fs.BoolVar(&f.use2DCDT, "use-2d-cdt", false, "prefer 2D constrained Delaunay triangulation")
	fs.BoolVar(&f.use3DDelaunay, "use-3d-delaunay", false, "prefer 3D Delaunay triangulation")
	fs.BoolVar(&f.skipCubicSearch, "skip-cubic-search", false, "skip the cubic boundary search step")
	fs.BoolVar(&f.refine, "refine", true, "run post-fill smoothing/refinement")
	fs.IntVar(&f.minPartitionBoundaryEdges, "min-partition-boundary-edges", 0, "minimum boundary edges per partition")
	fs.BoolVar(&f.holesOnly, "holes-only", false, "merge filled holes only, skip non-manifold repair at merge")
	fs.BoolVar(&f.guardSelectionBoundary, "guard-selection-boundary", false, "skip holes lying entirely on the selection boundary")

	fs.BoolVar(&f.usePartitioned, "use-partitioned", true, "use the partitioned filler instead of the legacy single-mesh path")
	fs.IntVar(&f.requestedPartitions, "partitions", 0, "requested partition count (0 = one per filling thread)")
	fs.BoolVar(&f.validateInput, "validate-input", false, "run mesh validation before filling")
	fs.BoolVar(&f.asciiPLY, "ascii-ply", false, "write PLY output as ASCII instead of binary")
	fs.BoolVar(&f.verbose, "verbose", false, "enable info-level logging")
	fs.BoolVar(&f.debug, "debug", false, "enable debug-level logging")
	fs.Float64Var(&f.timeoutMs, "timeout-ms", 0, "job timeout in milliseconds (0 = no timeout)")
	fs.IntVar(&f.threadCount, "threads", 0, "worker thread budget (0 = auto, per hardware_threads/2)")
	fs.IntVar(&f.queueSize, "queue-size", 4, "batch queue capacity")
	fs.IntVar(&f.batchCopies, "batch-copies", 0, "run the input through the batch queue this many times instead of once")
	fs.StringVar(&f.tempDir, "temp-dir", "", "temporary directory, carried in the job config (no debug meshes are written to it)")
}

func (f *flags) preprocessOptions() preprocess.Options {
	return preprocess.Options{
		RemoveDuplicates:     f.removeDuplicates,
		RemoveNonManifold:    f.removeNonManifold,
		Remove3FaceFans:      f.remove3FaceFans,
		RemoveIsolated:       f.removeIsolated,
		KeepLargestComponent: f.keepLargestComponent,
		RemoveLongEdges:      f.removeLongEdges,
		LongEdgeMaxRatio:     f.longEdgeMaxRatio,
		NonManifoldPasses:    f.nonManifoldPasses,
		Verbose:              f.verbose,
		Debug:                f.debug,
	}
}

func (f *flags) fillingOptions() fillpool.Options {
	return fillpool.Options{
		Continuity:              f.fairingContinuity,
		Use2DCDT:                f.use2DCDT,
		Use3DDelaunay:           f.use3DDelaunay,
		SkipCubicSearch:         f.skipCubicSearch,
		Refine:                  f.refine,
		MaxHoleBoundaryVertices: f.maxHoleBoundaryVertices,
		MaxHoleDiameterRatio:    f.maxHoleDiameterRatio,
		GuardSelectionBoundary:  f.guardSelectionBoundary,
	}
}

func (f *flags) jobConfig() batchqueue.RepairJobConfig {
	return batchqueue.RepairJobConfig{
		InputPath:                 f.inputPath,
		OutputPath:                f.outputPath,
		FillingOptions:            f.fillingOptions(),
		FillOperator:              fillop.SimpleFiller{},
		PreprocessOptions:         f.preprocessOptions(),
		EnablePreprocessing:       f.enablePreprocessing,
		UsePartitioned:            f.usePartitioned,
		HolesOnly:                 f.holesOnly,
		ValidateInput:             f.validateInput,
		AsciiPLY:                  f.asciiPLY,
		Verbose:                   f.verbose,
		DebugDump:                 f.debug,
		TempDir:                   f.tempDir,
		TimeoutMs:                 f.timeoutMs,
		CancelToken:               canceltoken.New(),
		ThreadCount:               f.threadCount,
		RequestedPartitions:       f.requestedPartitions,
		MinPartitionBoundaryEdges: f.minPartitionBoundaryEdges,
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "meshrepairctl",
		Short: "Detect and fill holes in triangle meshes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}
	bind(cmd.Flags(), f)
	return cmd
}

func run(f *flags) error {
	if f.inputPath == "" || f.outputPath == "" {
		return fmt.Errorf("--input and --output are required")
	}

	if err := repairlog.Init(repairlog.Options{Verbose: f.verbose, Debug: f.debug}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	var codec meshio.Codec
	if f.batchCopies > 0 {
		return runBatch(f, codec)
	}
	return runSingle(f, codec)
}

func runSingle(f *flags, codec meshio.Codec) error {
	var timeout time.Duration
	if f.timeoutMs > 0 {
		timeout = time.Duration(f.timeoutMs * float64(time.Millisecond))
	}

	budget := f.threadCount
	if budget < 1 {
		budget = max(1, runtime.NumCPU()/2)
	}
	legacyThreads := max(1, budget/3)
	fillOpts := f.fillingOptions()
	fillOpts.FillingThreads = max(1, budget-legacyThreads)

	cfg := pipeline.Config{
		InputPath:                 f.inputPath,
		OutputPath:                f.outputPath,
		AsciiPLY:                  f.asciiPLY,
		EnablePreprocessing:       f.enablePreprocessing,
		Preprocess:                f.preprocessOptions(),
		ValidateInput:             f.validateInput,
		UsePartitioned:            f.usePartitioned,
		HolesOnly:                 f.holesOnly,
		RequestedPartitions:       f.requestedPartitions,
		MinPartitionBoundaryEdges: f.minPartitionBoundaryEdges,
		Fill:                      fillOpts,
		FillOperator:              fillop.SimpleFiller{},
		LegacyThreads:             legacyThreads,
		Timeout:                   timeout,
		Cancel:                    canceltoken.New(),
	}

	result := pipeline.Run(context.Background(), codec, codec, nil, cfg)
	fmt.Print(statsfmt.FormatResult(result))
	if result.Status != pipeline.Ok {
		return fmt.Errorf("job finished with status %s", result.Status)
	}
	return nil
}

func runBatch(f *flags, codec meshio.Codec) error {
	queue := batchqueue.New(batchqueue.Config{Capacity: f.queueSize, WorkerThreads: f.threadCount}, codec, codec, nil)
	defer queue.Shutdown()

	received := 0
	drain := func() {
		if cj, ok := queue.PopResult(true); ok {
			received++
			fmt.Printf("--- job %d ---\n", cj.JobID)
			fmt.Print(statsfmt.FormatResult(cj.Result))
		}
	}

	enqueued := 0
	for enqueued < f.batchCopies {
		accepted, _ := queue.Enqueue(f.jobConfig())
		if accepted {
			enqueued++
			continue
		}
		drain() // queue is at capacity; free a slot before retrying
	}
	for received < f.batchCopies {
		drain()
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
