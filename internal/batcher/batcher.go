package batcher

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/model"
)

// Stats is a point-in-time snapshot of a ModelBatcher's counters, exposed for metrics
// (SPEC_FULL.md supplemented feature: operational visibility into batch fullness).
type Stats struct {
	QueueLength    int
	NumActiveGames int
	NumWaiting     int
	BatchSize      int
	BatchesServed  uint64
	RequestsServed uint64
}

// ModelBatcher coalesces concurrent InferenceRequests into batches of up to BatchSize and
// dispatches them to Backend serially (spec §3 "ModelBatcher", §4.5 "the core of the core").
type ModelBatcher struct {
	ModelPath string
	Backend   model.Model
	BatchSize int

	mu             sync.Mutex
	queue          []*InferenceRequest
	numActiveGames int
	numWaiting     int
	batchesServed  uint64
	requestsServed uint64

	// dispatchMu serializes calls into Backend.RunMany: Backend is not required to be
	// thread-safe (spec §4.2), and the batch-check policy can pop a new ready batch while a
	// prior dispatch is still running, so every dispatch goroutine must take this lock before
	// touching the backend, following the single-consumer discipline of the teacher's
	// AutoBatch queue (internal/ai/tensorflow/auto_batch.go: "at most one evaluation at a same
	// time").
	dispatchMu sync.Mutex

	group *errgroup.Group
}

// New builds a ModelBatcher serializing access to backend under modelPath's identity.
func New(modelPath string, backend model.Model, batchSize int) (*ModelBatcher, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("batcher: batch size must be >= 1, got %d", batchSize)
	}
	return &ModelBatcher{
		ModelPath: modelPath,
		Backend:   backend,
		BatchSize: batchSize,
		group:     &errgroup.Group{},
	}, nil
}

// Stats returns a snapshot of the batcher's current counters.
func (b *ModelBatcher) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		QueueLength:    len(b.queue),
		NumActiveGames: b.numActiveGames,
		NumWaiting:     b.numWaiting,
		BatchSize:      b.BatchSize,
		BatchesServed:  b.batchesServed,
		RequestsServed: b.requestsServed,
	}
}

// enqueue pushes req onto the FIFO queue and runs the batch-check under the batcher's lock
// (spec §4.5 "Enqueue path" steps 1 and 4, "Batch-check policy").
func (b *ModelBatcher) enqueue(req *InferenceRequest) {
	b.mu.Lock()
	b.queue = append(b.queue, req)
	b.maybeDispatchLocked()
	b.mu.Unlock()
}

// incrementWaiting increments numWaiting and re-runs the batch-check, used when a paired
// batcher's client enqueues on the *other* color's batcher (spec §4.5 step 3).
func (b *ModelBatcher) incrementWaiting() {
	b.mu.Lock()
	b.numWaiting++
	b.maybeDispatchLocked()
	b.mu.Unlock()
}

func (b *ModelBatcher) decrementWaiting() {
	b.mu.Lock()
	b.numWaiting--
	b.mu.Unlock()
}

// maybeDispatchLocked implements the batch-check policy (spec §4.5): dispatch iff
// |queue| >= batch_size, or |queue| + num_waiting >= num_active_games. Must be called with
// b.mu held; it pops the batch synchronously but hands the actual backend call to a
// supervised goroutine so the caller that happened to trigger the dispatch isn't forced to
// run it inline.
func (b *ModelBatcher) maybeDispatchLocked() {
	if len(b.queue) == 0 {
		return
	}
	ready := len(b.queue) >= b.BatchSize || len(b.queue)+b.numWaiting >= b.numActiveGames
	if !ready {
		return
	}
	n := b.BatchSize
	if n > len(b.queue) {
		n = len(b.queue)
	}
	batch := b.queue[:n]
	b.queue = b.queue[n:]
	b.batchesServed++
	b.requestsServed += uint64(n)

	b.group.Go(func() error {
		b.dispatch(batch)
		return nil
	})
}

// dispatch runs batch against the backend with no batcher lock held (spec §4.5 "Release the
// lock. Concatenate features, call the backend's RunMany..."), but with dispatchMu held for
// the duration of the backend call so concurrent dispatch goroutines never call into Backend
// at the same time (spec §4.2, §4.5 "serially").
func (b *ModelBatcher) dispatch(batch []*InferenceRequest) {
	inputs := make([]board.ModelInput, len(batch))
	for i, req := range batch {
		inputs[i] = req.Input
	}
	outputs := make([]board.ModelOutput, len(batch))
	var modelName string

	b.dispatchMu.Lock()
	err := b.Backend.RunMany(inputs, outputs, &modelName)
	b.dispatchMu.Unlock()

	if err != nil {
		// Backend errors are fatal to the process (spec §4.5, §7 class 2): no error is ever
		// expected to flow back to a caller as a recoverable ModelOutput.
		klog.Fatalf("batcher: backend RunMany failed for %s: %v", b.ModelPath, err)
	}
	for i, req := range batch {
		req.Output = outputs[i]
		if req.ModelName != nil {
			*req.ModelName = modelName
		}
		req.complete()
	}
}

// Wait blocks until every dispatch goroutine launched so far has returned. Intended for
// clean shutdown and for tests that need dispatch to have settled.
func (b *ModelBatcher) Wait() error {
	return b.group.Wait()
}

// newClientID returns a fresh UUID string used as a Client's correlation identifier.
func newClientID() string {
	return uuid.NewString()
}
