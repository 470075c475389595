package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashStableAcrossConstruction(t *testing.T) {
	p1 := NewEmptyPosition(Black)
	p2 := NewEmptyPosition(Black)
	require.Equal(t, p1.Hash(), p2.Hash())

	p3 := NewEmptyPosition(White)
	require.NotEqual(t, p1.Hash(), p3.Hash())
}

func TestHashChangesWithStones(t *testing.T) {
	var stones [NumPoints]Color
	stones[Idx(4, 4)] = Black
	p1 := NewPosition(stones, White, false)
	p2 := NewEmptyPosition(White)
	require.NotEqual(t, p1.Hash(), p2.Hash())
}

// TestLibertyCount places a chain of two black stones in a corner, with no other stones on
// the board, and counts its three liberties.
func TestLibertyCount(t *testing.T) {
	var stones [NumPoints]Color
	// Two black stones in the corner: (0,0) and (1,0). Liberties: (2,0),(0,1),(1,1).
	stones[Idx(0, 0)] = Black
	stones[Idx(1, 0)] = Black
	p := NewPosition(stones, White, false)
	require.Equal(t, 3, p.LibertyCount(Idx(0, 0)))
}

func TestLibertyCountSingleStone(t *testing.T) {
	var stones [NumPoints]Color
	stones[Idx(4, 4)] = Black
	// Surround on three sides, leaving one liberty.
	stones[Idx(3, 4)] = White
	stones[Idx(5, 4)] = White
	stones[Idx(4, 3)] = White
	p := NewPosition(stones, White, false)
	require.Equal(t, 1, p.LibertyCount(Idx(4, 4)))
}

func TestWouldCapture(t *testing.T) {
	var stones [NumPoints]Color
	// White stone at (4,4) has a single liberty at (4,5), surrounded by black elsewhere.
	stones[Idx(4, 4)] = White
	stones[Idx(3, 4)] = Black
	stones[Idx(5, 4)] = Black
	stones[Idx(4, 3)] = Black
	p := NewPosition(stones, Black, false)
	require.True(t, p.WouldCapture(Idx(4, 5), Black))
	require.False(t, p.WouldCapture(Idx(0, 0), Black))
}

func TestIsSuicide(t *testing.T) {
	var stones [NumPoints]Color
	// Surround (0,0) with white stones at its only two neighbors, each of which still has
	// another liberty elsewhere, so black playing there is suicide (no capture happens).
	stones[Idx(1, 0)] = White
	stones[Idx(0, 1)] = White
	p := NewPosition(stones, Black, false)
	require.False(t, p.WouldCapture(Idx(0, 0), Black))
	require.True(t, p.IsSuicide(Idx(0, 0), Black))
}

func TestIsSuicideFalseWhenCapturing(t *testing.T) {
	var stones [NumPoints]Color
	// White stone at (1,0) has its only liberty at (0,0); black plays there, capturing it,
	// so it is not suicide. (Black's new stone also keeps a liberty at (0,1).)
	stones[Idx(1, 0)] = White
	stones[Idx(2, 0)] = Black
	stones[Idx(1, 1)] = Black
	p := NewPosition(stones, Black, false)
	require.True(t, p.WouldCapture(Idx(0, 0), Black))
	require.False(t, p.IsSuicide(Idx(0, 0), Black))
}

func TestTransformPreservesStoneCount(t *testing.T) {
	var stones [NumPoints]Color
	stones[Idx(0, 0)] = Black
	stones[Idx(3, 5)] = White
	p := NewPosition(stones, Black, false)
	for s := Symmetry(0); s < NumSymmetries; s++ {
		tp := p.Transform(s)
		var blacks, whites int
		for _, c := range tp.Stones {
			switch c {
			case Black:
				blacks++
			case White:
				whites++
			}
		}
		require.Equal(t, 1, blacks)
		require.Equal(t, 1, whites)
	}
}

func TestModelInputValidate(t *testing.T) {
	p := NewEmptyPosition(Black)
	require.NoError(t, ModelInput{History: []*Position{p}}.Validate())
	require.Error(t, ModelInput{History: nil}.Validate())

	tooLong := make([]*Position, MaxHistory+1)
	for i := range tooLong {
		tooLong[i] = p
	}
	require.Error(t, ModelInput{History: tooLong}.Validate())
}
