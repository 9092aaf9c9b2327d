// Package batchqueue is the bounded multi-consumer job queue tying
// submitted repair jobs to a pool of worker threads, each running the
// per-mesh pipeline to completion. Grounded on
// include/local_batch_queue.h's RepairQueue/RepairJobConfig/CompletedJob
// shape.
package batchqueue

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ssh4net/meshrepair/canceltoken"
	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/fillpool"
	"github.com/ssh4net/meshrepair/pipeline"
	"github.com/ssh4net/meshrepair/preprocess"
	"github.com/ssh4net/meshrepair/repairlog"
)

// Status reuses the per-mesh pipeline's terminal status set verbatim,
// rather than re-declaring it, per spec.md §9's "define once" note.
type Status = pipeline.Status

// RepairJobConfig is one whole-mesh repair job descriptor, the recognized
// field set of include/local_batch_queue.h's RepairJobConfig plus the
// embedded fillpool/preprocess option structs already built for those
// stages.
type RepairJobConfig struct {
	InputPath           string
	OutputPath          string
	FillingOptions      fillpool.Options
	FillOperator        fillop.Operator
	PreprocessOptions   preprocess.Options
	EnablePreprocessing bool
	UsePartitioned      bool
	HolesOnly           bool
	ValidateInput       bool
	AsciiPLY            bool
	Verbose             bool
	DebugDump           bool
	TempDir             string
	TimeoutMs                 float64
	CancelToken               canceltoken.Token
	ThreadCount               int // 0 = auto, split per §5's policy
	RequestedPartitions       int
	MinPartitionBoundaryEdges int
}

// CompletedJob pairs a monotonically increasing job id with its result.
// The result is pipeline.Result itself (status, stats, error text, total
// time) rather than a re-declared shape, per spec.md §9's "define once"
// note.
type CompletedJob struct {
	JobID  uint64
	Result pipeline.Result
}

// Config sizes the queue: its job capacity and worker thread count.
// Mirrors include/local_batch_queue.h's RepairQueueConfig.
type Config struct {
	Capacity      int
	WorkerThreads int
}

// Queue is the bounded, multi-consumer job queue. Shared state (the job
// ring, the completed-results deque, the stopping flag, the next id) is
// protected by one mutex and two condition variables; Enqueue never
// blocks, matching spec.md §4.K's non-blocking contract, so no
// space-available waiter is needed.
type Queue struct {
	cfg Config

	mu        sync.Mutex
	cvJobs    *sync.Cond
	cvResults *sync.Cond

	jobs      []queuedJob
	completed []CompletedJob
	stopping  bool
	nextID    uint64

	wg        sync.WaitGroup
	loader    pipeline.Loader
	saver     pipeline.Saver
	validator pipeline.Validator
}

type queuedJob struct {
	id  uint64
	cfg RepairJobConfig
}

// New starts cfg.WorkerThreads worker goroutines draining the job queue,
// each running jobs through the per-mesh pipeline using loader/saver/
// validator as its file-format and validation collaborators.
func New(cfg Config, loader pipeline.Loader, saver pipeline.Saver, validator pipeline.Validator) *Queue {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.WorkerThreads < 1 {
		cfg.WorkerThreads = 1
	}

	q := &Queue{cfg: cfg, nextID: 1, loader: loader, saver: saver, validator: validator}
	q.cvJobs = sync.NewCond(&q.mu)
	q.cvResults = sync.NewCond(&q.mu)

	q.wg.Add(cfg.WorkerThreads)
	for i := 0; i < cfg.WorkerThreads; i++ {
		go q.worker()
	}
	return q
}

// Enqueue submits job. Non-blocking: fails when the queue is stopping or
// at capacity. On success returns a new monotonically increasing job id.
func (q *Queue) Enqueue(job RepairJobConfig) (accepted bool, jobID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopping || len(q.jobs) >= q.cfg.Capacity {
		return false, 0
	}

	id := q.nextID
	q.nextID++
	q.jobs = append(q.jobs, queuedJob{id: id, cfg: job})
	q.cvJobs.Signal()
	return true, id
}

// PopResult returns the next completed job. When wait is true it blocks
// until a result arrives or the queue is stopping; otherwise it returns
// immediately with ok=false if none is ready.
func (q *Queue) PopResult(wait bool) (CompletedJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.completed) == 0 && wait && !q.stopping {
		q.cvResults.Wait()
	}
	if len(q.completed) == 0 {
		return CompletedJob{}, false
	}

	cj := q.completed[0]
	q.completed = q.completed[1:]
	return cj, true
}

// Pending returns the number of jobs queued but not yet picked up by a
// worker.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Shutdown stops accepting new jobs, wakes every waiter, and joins every
// worker before returning. In-flight jobs run to completion, and jobs
// still sitting in the ring when Shutdown is called are drained and run by
// the workers before they exit.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.stopping = true
	q.mu.Unlock()
	q.cvJobs.Broadcast()
	q.cvResults.Broadcast()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.stopping {
			q.cvJobs.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		result := q.runJob(job.id, job.cfg)

		q.mu.Lock()
		q.completed = append(q.completed, CompletedJob{JobID: job.id, Result: result})
		q.cvResults.Signal()
		q.mu.Unlock()
	}
}

// autoThreadSplit implements spec.md §5's auto thread policy:
// hardware_threads/2, split 1/3 detection and 2/3 filling, both at least
// 1. The legacy pipeline path reuses the detection share as its fill
// consumer count, since holes are already detected eagerly before it
// runs.
func autoThreadSplit(requested int) (fillingThreads, legacyThreads int) {
	half := requested
	if half < 1 {
		half = runtime.NumCPU() / 2
	}
	if half < 1 {
		half = 1
	}
	legacyThreads = half / 3
	if legacyThreads < 1 {
		legacyThreads = 1
	}
	fillingThreads = half - legacyThreads
	if fillingThreads < 1 {
		fillingThreads = 1
	}
	return fillingThreads, legacyThreads
}

func (q *Queue) runJob(id uint64, cfg RepairJobConfig) pipeline.Result {
	correlationID := uuid.NewString()
	log := repairlog.Job(id, correlationID)
	if cfg.Verbose {
		log.Infow("job starting", "input_path", cfg.InputPath)
	}

	fillingThreads, legacyThreads := autoThreadSplit(cfg.ThreadCount)
	fillOpts := cfg.FillingOptions
	fillOpts.FillingThreads = fillingThreads

	var timeout time.Duration
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs * float64(time.Millisecond))
	}

	pcfg := pipeline.Config{
		InputPath:                 cfg.InputPath,
		OutputPath:                cfg.OutputPath,
		AsciiPLY:                  cfg.AsciiPLY,
		EnablePreprocessing:       cfg.EnablePreprocessing,
		Preprocess:                cfg.PreprocessOptions,
		ValidateInput:             cfg.ValidateInput,
		UsePartitioned:            cfg.UsePartitioned,
		HolesOnly:                 cfg.HolesOnly,
		RequestedPartitions:       cfg.RequestedPartitions,
		MinPartitionBoundaryEdges: cfg.MinPartitionBoundaryEdges,
		Fill:                      fillOpts,
		FillOperator:              cfg.FillOperator,
		LegacyThreads:             legacyThreads,
		Timeout:                   timeout,
		Cancel:                    cfg.CancelToken,
	}

	result := pipeline.Run(context.Background(), q.loader, q.saver, q.validator, pcfg)
	if cfg.Verbose {
		log.Infow("job finished", "status", result.Status.String(), "total_time_ms", result.TotalTimeMs)
	}
	return result
}
