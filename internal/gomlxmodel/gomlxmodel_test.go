package gomlxmodel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

func TestNewProducesUsableModel(t *testing.T) {
	descriptor := features.NewAGZDescriptor(features.NHWC)
	m, err := New("test-gomlx", descriptor, "")
	require.NoError(t, err)
	defer m.Close()

	pos := board.NewEmptyPosition(board.Black)
	inputs := []board.ModelInput{
		{Symmetry: board.Identity, History: []*board.Position{pos}},
		{Symmetry: board.Rot90, History: []*board.Position{pos}},
	}
	outputs := make([]board.ModelOutput, len(inputs))
	var name string
	require.NoError(t, m.RunMany(inputs, outputs, &name))
	require.Equal(t, "test-gomlx", name)
	for _, out := range outputs {
		require.Len(t, out.Policy, board.PolicySize)
		require.GreaterOrEqual(t, out.Value, float32(-1))
		require.LessOrEqual(t, out.Value, float32(1))
	}
}

func TestRunManyRejectsEmptyBatch(t *testing.T) {
	descriptor := features.NewAGZDescriptor(features.NHWC)
	m, err := New("test-gomlx-empty", descriptor, "")
	require.NoError(t, err)
	defer m.Close()
	require.Error(t, m.RunMany(nil, nil, nil))
}
