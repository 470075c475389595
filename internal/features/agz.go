package features

import "github.com/gozero/infercore/internal/board"

// agzPlaneCount is 2 stone planes per history step (8 steps) plus one to-play plane.
const agzPlaneCount = 2*board.MaxHistory + 1

// computeAGZPlanes implements the AGZ feature family (spec §4.1): for each of the most
// recent 8 positions (zero-padded if history is shorter), one plane of the current
// player's stones and one of the opponent's, followed by a to-play plane (all 1 for black,
// all 0 for white).
func computeAGZPlanes(input board.ModelInput) ([][]float32, error) {
	planes := make([][]float32, agzPlaneCount)
	current := input.Current()
	me, opp := current.ToPlay, current.ToPlay.Opponent()

	for h := 0; h < board.MaxHistory; h++ {
		myPlane := make([]float32, board.NumPoints)
		oppPlane := make([]float32, board.NumPoints)
		if h < len(input.History) {
			pos := input.History[h]
			for idx, c := range pos.Stones {
				switch c {
				case me:
					myPlane[idx] = 1
				case opp:
					oppPlane[idx] = 1
				}
			}
		}
		planes[2*h] = myPlane
		planes[2*h+1] = oppPlane
	}

	toPlay := make([]float32, board.NumPoints)
	if me == board.Black {
		for i := range toPlay {
			toPlay[i] = 1
		}
	}
	planes[2*board.MaxHistory] = toPlay
	return planes, nil
}
