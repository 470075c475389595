package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

func testInputs(n int) []board.ModelInput {
	pos := board.NewEmptyPosition(board.Black)
	inputs := make([]board.ModelInput, n)
	for i := range inputs {
		inputs[i] = board.ModelInput{Symmetry: board.Identity, History: []*board.Position{pos}}
	}
	return inputs
}

func TestFakeModelReturnsFixedOutput(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	want := board.ModelOutput{Policy: make([]float32, board.PolicySize), Value: 0.5}
	m := NewFakeModel("fake", d, want)

	inputs := testInputs(3)
	outputs := make([]board.ModelOutput, 3)
	var name string
	require.NoError(t, m.RunMany(inputs, outputs, &name))
	require.Equal(t, "fake", name)
	for _, out := range outputs {
		require.Equal(t, want.Value, out.Value)
	}
	require.Equal(t, []int{3}, m.Calls)
}

func TestFakeModelRejectsMismatchedOutputs(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	m := NewFakeModel("fake", d, board.ModelOutput{})
	err := m.RunMany(testInputs(2), make([]board.ModelOutput, 1), nil)
	require.Error(t, err)
}

func TestRandomModelProducesNormalizedPolicy(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	m := NewRandomModel("rand", d, 42, 1.0, 1.0)
	inputs := testInputs(4)
	outputs := make([]board.ModelOutput, 4)
	require.NoError(t, m.RunMany(inputs, outputs, nil))
	for _, out := range outputs {
		require.Len(t, out.Policy, board.PolicySize)
		var sum float32
		for _, p := range out.Policy {
			sum += p
		}
		require.InDelta(t, 1.0, sum, 1e-4)
		require.GreaterOrEqual(t, out.Value, float32(-1))
		require.LessOrEqual(t, out.Value, float32(1))
	}
}

func TestRandomModelIsDeterministicForSameSeed(t *testing.T) {
	d := features.NewAGZDescriptor(features.NHWC)
	a := NewRandomModel("a", d, 7, 1.0, 1.0)
	b := NewRandomModel("b", d, 7, 1.0, 1.0)
	inputs := testInputs(2)
	outA := make([]board.ModelOutput, 2)
	outB := make([]board.ModelOutput, 2)
	require.NoError(t, a.RunMany(inputs, outA, nil))
	require.NoError(t, b.RunMany(inputs, outB, nil))
	require.Equal(t, outA, outB)
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := Softmax([]float32{1, 2, 3})
	var sum float32
	for _, p := range probs {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}
