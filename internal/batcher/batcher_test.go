package batcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/model"
)

func testInput() board.ModelInput {
	pos := board.NewEmptyPosition(board.Black)
	return board.ModelInput{Symmetry: board.Identity, History: []*board.Position{pos}}
}

func TestNewRejectsNonPositiveBatchSize(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	backend := model.NewFakeModel("m", d, board.ModelOutput{})
	_, err := New("m", backend, 0)
	require.Error(t, err)
}

func TestSingleClientDispatchesOnceQueueMeetsActiveGames(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	backend := model.NewFakeModel("m", d, board.ModelOutput{Value: 1, Policy: make([]float32, board.PolicySize)})
	b, err := New("m", backend, 2)
	require.NoError(t, err)
	c := NewClient(b)

	// One active game; a solo request alone won't reach batch_size=2 but condition (b)
	// (|queue|+num_waiting >= num_active_games) with num_active_games=1 fires immediately.
	b.mu.Lock()
	b.numActiveGames = 1
	b.mu.Unlock()

	outputs := make([]board.ModelOutput, 1)
	require.NoError(t, c.RunMany([]board.ModelInput{testInput()}, outputs, nil))
	require.NoError(t, b.Wait())
	require.Equal(t, float32(1), outputs[0].Value)
}

func TestBatcherCoalescesConcurrentRequestsUpToBatchSize(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	backend := model.NewFakeModel("m", d, board.ModelOutput{Policy: make([]float32, board.PolicySize)})
	b, err := New("m", backend, 3)
	require.NoError(t, err)
	c := NewClient(b)

	b.mu.Lock()
	b.numActiveGames = 3
	b.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outputs := make([]board.ModelOutput, 1)
			require.NoError(t, c.RunMany([]board.ModelInput{testInput()}, outputs, nil))
		}()
	}
	wg.Wait()
	require.NoError(t, b.Wait())

	stats := b.Stats()
	require.Equal(t, uint64(1), stats.BatchesServed)
	require.Equal(t, uint64(3), stats.RequestsServed)
}

func TestStartGameSharedBatcherIncrementsOnce(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	backend := model.NewFakeModel("m", d, board.ModelOutput{})
	b, err := New("m", backend, 4)
	require.NoError(t, err)
	a, c := NewClient(b), NewClient(b)

	StartGame(a, c)
	require.Equal(t, 1, b.Stats().NumActiveGames)
	EndGame(a, c)
	require.Equal(t, 0, b.Stats().NumActiveGames)
}

func TestStartGameDistinctBatchersIncrementsEachAndPairs(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	backendA := model.NewFakeModel("a", d, board.ModelOutput{})
	backendB := model.NewFakeModel("b", d, board.ModelOutput{})
	ba, err := New("a", backendA, 4)
	require.NoError(t, err)
	bb, err := New("b", backendB, 4)
	require.NoError(t, err)
	ca, cb := NewClient(ba), NewClient(bb)

	StartGame(ca, cb)
	require.Equal(t, 1, ba.Stats().NumActiveGames)
	require.Equal(t, 1, bb.Stats().NumActiveGames)
	require.Equal(t, bb, ca.Other)
	require.Equal(t, ba, cb.Other)

	EndGame(ca, cb)
	require.Equal(t, 0, ba.Stats().NumActiveGames)
	require.Nil(t, ca.Other)
	require.Nil(t, cb.Other)
}

func TestFactoryReusesBatcherForSamePath(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	f := NewFactory(4, func(path string) (model.Model, error) {
		return model.NewFakeModel(path, d, board.ModelOutput{}), nil
	})
	c1, err := f.Client("model-a")
	require.NoError(t, err)
	c2, err := f.Client("model-a")
	require.NoError(t, err)
	require.Same(t, c1.Primary, c2.Primary)
}

func TestFactoryDropsBatcherWhenUnreferenced(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	f := NewFactory(4, func(path string) (model.Model, error) {
		return model.NewFakeModel(path, d, board.ModelOutput{}), nil
	})
	c1, err := f.Client("model-a")
	require.NoError(t, err)
	f.Release(c1)

	f.mu.Lock()
	_, stillPresent := f.batchers["model-a"]
	f.mu.Unlock()
	require.False(t, stillPresent)
}

func TestFactoryStatsReflectsUnderlyingBatcher(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	f := NewFactory(4, func(path string) (model.Model, error) {
		return model.NewFakeModel(path, d, board.ModelOutput{Policy: make([]float32, board.PolicySize)}), nil
	})

	_, ok := f.Stats("model-a")
	require.False(t, ok, "no client has been created yet")

	c, err := f.Client("model-a")
	require.NoError(t, err)
	StartGame(c, c)
	defer EndGame(c, c)

	stats, ok := f.Stats("model-a")
	require.True(t, ok)
	require.Equal(t, 1, stats.NumActiveGames)
}

func TestRunManyRejectsMismatchedOutputSlots(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	backend := model.NewFakeModel("m", d, board.ModelOutput{})
	b, err := New("m", backend, 2)
	require.NoError(t, err)
	c := NewClient(b)
	err = c.RunMany([]board.ModelInput{testInput(), testInput()}, make([]board.ModelOutput, 1), nil)
	require.Error(t, err)
}
