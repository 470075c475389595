package buffered

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/model"
)

func testInputs(n int) []board.ModelInput {
	pos := board.NewEmptyPosition(board.Black)
	inputs := make([]board.ModelInput, n)
	for i := range inputs {
		inputs[i] = board.ModelInput{Symmetry: board.Identity, History: []*board.Position{pos}}
	}
	return inputs
}

func TestNewRejectsEmptyWorkerList(t *testing.T) {
	_, err := New("pool", nil)
	require.Error(t, err)
}

func TestNewRejectsMismatchedDescriptors(t *testing.T) {
	agz := features.NewAGZDescriptor(features.NHWC)
	mlperf := features.NewMLPerf07Descriptor(features.NHWC)
	workers := []model.Model{
		model.NewFakeModel("a", agz, board.ModelOutput{}),
		model.NewFakeModel("b", mlperf, board.ModelOutput{}),
	}
	_, err := New("pool", workers)
	require.Error(t, err)
}

func TestRunManyRoutesToAWorker(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	want := board.ModelOutput{Value: 0.75, Policy: make([]float32, board.PolicySize)}
	workers := []model.Model{model.NewFakeModel("only", d, want)}
	pool, err := New("pool", workers)
	require.NoError(t, err)

	outputs := make([]board.ModelOutput, 2)
	require.NoError(t, pool.RunMany(testInputs(2), outputs, nil))
	require.Equal(t, want.Value, outputs[0].Value)
}

func TestPoolAllowsConcurrentWorkAcrossWorkers(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	workers := []model.Model{
		model.NewFakeModel("w0", d, board.ModelOutput{Value: 0}),
		model.NewFakeModel("w1", d, board.ModelOutput{Value: 1}),
	}
	pool, err := New("pool", workers)
	require.NoError(t, err)
	require.Equal(t, 2, pool.Size())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outputs := make([]board.ModelOutput, 1)
			require.NoError(t, pool.RunMany(testInputs(1), outputs, nil))
		}()
	}
	wg.Wait()
}

func TestCloseClosesAllWorkers(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	a := model.NewFakeModel("a", d, board.ModelOutput{})
	b := model.NewFakeModel("b", d, board.ModelOutput{})
	pool, err := New("pool", []model.Model{a, b})
	require.NoError(t, err)
	require.NoError(t, pool.Close())
}
