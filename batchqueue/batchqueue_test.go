package batchqueue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/batchqueue"
	"github.com/ssh4net/meshrepair/canceltoken"
	"github.com/ssh4net/meshrepair/fillop"
	"github.com/ssh4net/meshrepair/fillpool"
	"github.com/ssh4net/meshrepair/internal/meshfixture"
	"github.com/ssh4net/meshrepair/meshmodel"
	"github.com/ssh4net/meshrepair/pipeline"
)

type memLoader struct{ soup meshmodel.Soup }

func (l memLoader) Load(path string) (meshmodel.Soup, error) { return l.soup, nil }

// blockingLoader blocks every Load until gate is closed, used to hold a
// worker mid-job so the queue's ring is forced to accumulate.
type blockingLoader struct {
	soup meshmodel.Soup
	gate chan struct{}
}

func (l blockingLoader) Load(path string) (meshmodel.Soup, error) {
	<-l.gate
	return l.soup, nil
}

type memSaver struct{}

func (memSaver) Save(mesh *meshmodel.Mesh, path string, binary bool) error { return nil }

func s2Job() batchqueue.RepairJobConfig {
	return batchqueue.RepairJobConfig{
		InputPath:           "in.obj",
		OutputPath:          "out.obj",
		UsePartitioned:      true,
		RequestedPartitions: 1,
		FillingOptions:      fillpool.Options{Continuity: 1, Refine: true},
		FillOperator:        fillop.SimpleFiller{},
		CancelToken:         canceltoken.New(),
		ThreadCount:         2,
	}
}

// S6 (job-id half): a batch of 10 identical S2 inputs all complete with Ok
// and distinct, strictly increasing job ids 1..10, regardless of worker
// interleaving (Enqueue assigns ids synchronously under the queue's lock).
func TestQueueAssignsMonotonicJobIDsAndCompletesAllJobsOk(t *testing.T) {
	q := batchqueue.New(
		batchqueue.Config{Capacity: 4, WorkerThreads: 2},
		memLoader{meshfixture.OpenCube()},
		memSaver{},
		nil,
	)
	defer q.Shutdown()

	const n = 10
	seen := make(map[uint64]bool)
	completed := 0
	record := func(cj batchqueue.CompletedJob) {
		assert.Equal(t, pipeline.Ok, cj.Result.Status)
		require.False(t, seen[cj.JobID])
		seen[cj.JobID] = true
		completed++
	}

	var ids []uint64
	enqueued := 0
	for enqueued < n {
		accepted, id := q.Enqueue(s2Job())
		if !accepted {
			// Results popped to free a slot still count toward the n
			// completions checked below.
			if cj, ok := q.PopResult(true); ok {
				record(cj)
			}
			continue
		}
		ids = append(ids, id)
		enqueued++
	}

	for i, id := range ids {
		assert.Equal(t, uint64(i+1), id)
	}

	deadline := time.Now().Add(5 * time.Second)
	for completed < n && time.Now().Before(deadline) {
		cj, ok := q.PopResult(true)
		if !ok {
			continue
		}
		record(cj)
	}
	assert.Equal(t, n, completed)
}

// S6 (capacity half): with a worker deliberately held mid-job, the ring
// fills to capacity and further enqueues are rejected until it drains.
func TestQueueRejectsEnqueueAtCapacityUntilDrained(t *testing.T) {
	gate := make(chan struct{})
	q := batchqueue.New(
		batchqueue.Config{Capacity: 2, WorkerThreads: 1},
		blockingLoader{soup: meshfixture.ClosedCube(), gate: gate},
		memSaver{},
		nil,
	)
	defer q.Shutdown()

	accepted, _ := q.Enqueue(s2Job())
	require.True(t, accepted)
	// Give the single worker time to dequeue the first job and block
	// inside Load, so the ring starts empty for the next two enqueues.
	time.Sleep(100 * time.Millisecond)

	accepted, _ = q.Enqueue(s2Job())
	require.True(t, accepted)
	accepted, _ = q.Enqueue(s2Job())
	require.True(t, accepted)
	assert.Equal(t, 2, q.Pending())

	accepted, _ = q.Enqueue(s2Job())
	assert.False(t, accepted, "ring is at capacity while the worker is blocked")

	close(gate)

	deadline := time.Now().Add(5 * time.Second)
	for q.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, q.Pending())

	for i := 0; i < 3; i++ {
		cj, ok := q.PopResult(true)
		require.True(t, ok)
		assert.Equal(t, pipeline.Ok, cj.Result.Status)
	}
}

func TestQueueRejectsEnqueueAfterShutdown(t *testing.T) {
	q := batchqueue.New(batchqueue.Config{Capacity: 2, WorkerThreads: 1}, memLoader{meshfixture.ClosedCube()}, memSaver{}, nil)
	q.Shutdown()

	accepted, _ := q.Enqueue(s2Job())
	assert.False(t, accepted)
}

func TestQueuePendingStartsAtZero(t *testing.T) {
	q := batchqueue.New(batchqueue.Config{Capacity: 4, WorkerThreads: 1}, memLoader{meshfixture.ClosedCube()}, memSaver{}, nil)
	defer q.Shutdown()
	assert.Equal(t, 0, q.Pending())
}
