// Package buffered implements BufferedModel: a thread-safe pool of N identical Backend
// Models, exposing the single-Model interface so callers don't need to know the pool exists
// (spec §3 "BufferedModel", §4.3). It is grounded on the corpus's round-robin session pool
// (internal/ai/tensorflow.Scorer.sessionPool/NextSession), reworked from a mutex-guarded
// rotation into a channel-based idle-worker queue so RunMany blocks naturally when every
// worker is busy, instead of spinning.
package buffered

import (
	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/model"
)

// Model is a thread-safe pool of size-N identical Backend Models.
type Model struct {
	name       string
	descriptor *features.Descriptor
	workers    []model.Model
	idle       chan model.Model
}

var _ model.Model = (*Model)(nil)

// New builds a BufferedModel over workers. All workers must share the same feature
// descriptor; this is checked at construction time.
func New(name string, workers []model.Model) (*Model, error) {
	if len(workers) == 0 {
		return nil, errors.New("buffered: at least one worker required")
	}
	descriptor := workers[0].FeatureDescriptor()
	for i, w := range workers {
		if w.FeatureDescriptor() != descriptor {
			return nil, errors.Errorf("buffered: worker %d has a different feature descriptor than worker 0", i)
		}
	}
	idle := make(chan model.Model, len(workers))
	for _, w := range workers {
		idle <- w
	}
	return &Model{name: name, descriptor: descriptor, workers: workers, idle: idle}, nil
}

// RunMany implements model.Model: it pops an idle worker (blocking if all are busy), runs
// the batch, and returns the worker to the pool.
func (m *Model) RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error {
	worker := <-m.idle
	defer func() { m.idle <- worker }()
	return worker.RunMany(inputs, outputs, modelName)
}

func (m *Model) FeatureDescriptor() *features.Descriptor { return m.descriptor }
func (m *Model) Name() string                            { return m.name }

// Close closes every worker in the pool, collecting (and returning) the first error seen.
func (m *Model) Close() error {
	var firstErr error
	for _, w := range m.workers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size returns the number of workers in the pool.
func (m *Model) Size() int { return len(m.workers) }
