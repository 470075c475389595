package features

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero/infercore/internal/board"
)

func singleInput(sym board.Symmetry) board.ModelInput {
	pos := board.NewEmptyPosition(board.Black)
	stones := pos.Stones
	stones[board.Idx(0, 0)] = board.Black
	stones[board.Idx(1, 0)] = board.White
	pos = board.NewPosition(stones, board.Black, false)
	return board.ModelInput{Symmetry: sym, History: []*board.Position{pos}}
}

func TestAGZDescriptorShape(t *testing.T) {
	d := NewAGZDescriptor(NHWC)
	require.Equal(t, agzPlaneCount, d.PlaneCount)
	tns, err := d.EncodeFloat([]board.ModelInput{singleInput(board.Identity)}, 0)
	require.NoError(t, err)
	require.Equal(t, 1*board.N*board.N*agzPlaneCount, tns.Shape.Size())
}

func TestMLPerf07DescriptorShape(t *testing.T) {
	d := NewMLPerf07Descriptor(NCHW)
	require.Equal(t, mlperf07PlaneCount, d.PlaneCount)
	require.Equal(t, 13, d.PlaneCount)
	tns, err := d.EncodeFloat([]board.ModelInput{singleInput(board.Identity)}, 0)
	require.NoError(t, err)
	require.Equal(t, 1*mlperf07PlaneCount*board.N*board.N, tns.Shape.Size())
}

func TestEncodeRejectsEmptyBatch(t *testing.T) {
	d := NewAGZDescriptor(NHWC)
	_, err := d.EncodeFloat(nil, 0)
	require.Error(t, err)
}

func TestEncodeRejectsOverCapacity(t *testing.T) {
	d := NewAGZDescriptor(NHWC)
	inputs := []board.ModelInput{singleInput(board.Identity), singleInput(board.Identity)}
	_, err := d.EncodeFloat(inputs, 1)
	require.Error(t, err)
}

func TestEncodeAppliesSymmetryToStonePlacement(t *testing.T) {
	d := NewAGZDescriptor(NHWC)
	identity, err := d.EncodeFloat([]board.ModelInput{singleInput(board.Identity)}, 0)
	require.NoError(t, err)
	rotated, err := d.EncodeFloat([]board.ModelInput{singleInput(board.Rot90)}, 0)
	require.NoError(t, err)
	require.NotEqual(t, identity.Data, rotated.Data)
}

func TestDecodePolicyRoundTripsUnderIdentity(t *testing.T) {
	policy := make([]float32, board.PolicySize)
	for i := range policy {
		policy[i] = float32(i)
	}
	out, err := DecodePolicy(policy, board.Identity)
	require.NoError(t, err)
	require.Equal(t, policy, out)
}

func TestDecodePolicyRejectsWrongLength(t *testing.T) {
	_, err := DecodePolicy(make([]float32, 3), board.Identity)
	require.Error(t, err)
}

func TestDecodePolicyPreservesPassValue(t *testing.T) {
	policy := make([]float32, board.PolicySize)
	policy[board.PassMove] = 0.42
	out, err := DecodePolicy(policy, board.Rot180)
	require.NoError(t, err)
	require.Equal(t, float32(0.42), out[board.PassMove])
}

func TestEncodeByteProducesZeroOneValues(t *testing.T) {
	d := NewAGZDescriptor(NHWC)
	tns, err := d.EncodeByte([]board.ModelInput{singleInput(board.Identity)}, 0)
	require.NoError(t, err)
	for _, v := range tns.Data {
		require.True(t, v == 0 || v == 1)
	}
}

func TestMLPerf07LibertyPlanesMarkOccupiedPoints(t *testing.T) {
	pos := board.NewEmptyPosition(board.Black)
	stones := pos.Stones
	stones[board.Idx(4, 4)] = board.Black
	pos = board.NewPosition(stones, board.Black, false)
	input := board.ModelInput{Symmetry: board.Identity, History: []*board.Position{pos}}

	planes, err := computeMLPerf07Planes(input)
	require.NoError(t, err)
	require.Len(t, planes, mlperf07PlaneCount)

	fourLibertiesPlaneIdx := 2*mlperf07History + 3
	require.Equal(t, float32(1), planes[fourLibertiesPlaneIdx][board.Idx(4, 4)])
}
