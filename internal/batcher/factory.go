package batcher

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/model"
)

// Factory owns the process-wide registry of ModelBatchers, keyed by model path, and the
// StartGame/EndGame lifecycle that tracks num_active_games (spec §3 "ModelFactory" is
// reused for the Backend Model registry in internal/modelfile; this Factory is the spec's
// batcher-level registry, sharing the same refcounting idea: "owned by the BatchingFactory's
// registry and by each BatchingClient that references it").
type Factory struct {
	newBackend func(modelPath string) (model.Model, error)
	batchSize  int

	mu       sync.Mutex
	batchers map[string]*refcountedBatcher
}

type refcountedBatcher struct {
	batcher *ModelBatcher
	refs    int
}

// NewFactory builds a Factory that constructs a fresh backend (typically a
// reloading.Model wrapping a buffered.Model) for every distinct model path it sees.
func NewFactory(batchSize int, newBackend func(modelPath string) (model.Model, error)) *Factory {
	return &Factory{
		newBackend: newBackend,
		batchSize:  batchSize,
		batchers:   make(map[string]*refcountedBatcher),
	}
}

// Client returns a Client bound to the ModelBatcher for modelPath, creating the batcher (and
// its backend) on first reference.
func (f *Factory) Client(modelPath string) (*Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.batchers[modelPath]
	if !ok {
		backend, err := f.newBackend(modelPath)
		if err != nil {
			return nil, errors.Wrapf(err, "batcher: constructing backend for %s", modelPath)
		}
		b, err := New(modelPath, backend, f.batchSize)
		if err != nil {
			return nil, err
		}
		entry = &refcountedBatcher{batcher: b}
		f.batchers[modelPath] = entry
	}
	entry.refs++
	return NewClient(entry.batcher), nil
}

// release drops one reference to modelPath's batcher; when the registry observes a single
// remaining reference (itself), it drops the batcher (spec §3 "Ownership").
func (f *Factory) release(modelPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.batchers[modelPath]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(f.batchers, modelPath)
	}
}

// StartGame increments num_active_games on each distinct underlying batcher referenced by a
// and b (once total if they share a batcher, once each otherwise), and records each client's
// pair when the batchers differ (spec §4.5 "Lifecycle hooks").
func StartGame(a, b *Client) {
	if a.Primary == b.Primary {
		a.Primary.mu.Lock()
		a.Primary.numActiveGames++
		a.Primary.mu.Unlock()
		return
	}
	a.Primary.mu.Lock()
	a.Primary.numActiveGames++
	a.Primary.mu.Unlock()

	b.Primary.mu.Lock()
	b.Primary.numActiveGames++
	b.Primary.mu.Unlock()

	a.pair(b.Primary)
	b.pair(a.Primary)
}

// EndGame decrements the counters StartGame incremented, clears pair references, and runs a
// batch-check on each batcher (a retiring game may unblock condition (b) for others).
func EndGame(a, b *Client) {
	if a.Primary == b.Primary {
		a.Primary.mu.Lock()
		a.Primary.numActiveGames--
		a.Primary.maybeDispatchLocked()
		a.Primary.mu.Unlock()
		a.Other, b.Other = nil, nil
		return
	}

	a.Primary.mu.Lock()
	a.Primary.numActiveGames--
	a.Primary.maybeDispatchLocked()
	a.Primary.mu.Unlock()

	b.Primary.mu.Lock()
	b.Primary.numActiveGames--
	b.Primary.maybeDispatchLocked()
	b.Primary.mu.Unlock()

	a.Other, b.Other = nil, nil
}

// Release drops client's reference to its batcher(s) in the factory's registry. Call once
// the client will issue no further requests.
func (f *Factory) Release(c *Client) {
	f.release(c.Primary.ModelPath)
}

// Stats returns a snapshot of the named batcher's counters, and whether it currently exists
// in the registry.
func (f *Factory) Stats(modelPath string) (Stats, bool) {
	f.mu.Lock()
	entry, ok := f.batchers[modelPath]
	f.mu.Unlock()
	if !ok {
		return Stats{}, false
	}
	return entry.batcher.Stats(), true
}
