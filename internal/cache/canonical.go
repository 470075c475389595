package cache

import "github.com/gozero/infercore/internal/board"

// ChooseCanonicalSymmetry picks a symmetry c for pos such that pos.Transform(c) has the
// numerically smallest Zobrist hash among all 8 dihedral views of pos. Because the 8
// transforms of any one physical board state are exactly the same 8-element set regardless
// of which view pos happens to be expressed in, this choice is a genuine invariant of the
// underlying board -- every one of its 8 equivalent views resolves to the same canonical
// representative.
//
// This is a convenience for callers that want a good default canonical symmetry to fix once
// per game (spec §4.6 "canonical symmetry c for this game"); the cache itself does not call
// it -- TryGet and Merge take the canonical symmetry as an explicit argument, matching the
// external interface in spec §6.
func ChooseCanonicalSymmetry(pos *board.Position) board.Symmetry {
	best := board.Identity
	var bestHash uint64
	for sym := board.Symmetry(0); sym < board.NumSymmetries; sym++ {
		h := pos.Transform(sym).Hash()
		if sym == 0 || h < bestHash {
			best, bestHash = sym, h
		}
	}
	return best
}
