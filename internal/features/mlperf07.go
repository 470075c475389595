package features

import "github.com/gozero/infercore/internal/board"

// mlperf07History is the number of history planes used by the MLPerf07 family.
const mlperf07History = 4

// mlperf07PlaneCount is 2 stone planes per history step (4 steps), one to-play plane,
// three liberty planes, and one would-capture plane: 8 + 1 + 3 + 1 = 13.
const mlperf07PlaneCount = 2*mlperf07History + 1 + 3 + 1

// computeMLPerf07Planes implements the MLPerf07 feature family (spec §4.1).
func computeMLPerf07Planes(input board.ModelInput) ([][]float32, error) {
	planes := make([][]float32, mlperf07PlaneCount)
	current := input.Current()
	me, opp := current.ToPlay, current.ToPlay.Opponent()

	for h := 0; h < mlperf07History; h++ {
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
	planes[2*mlperf07History] = toPlay

	oneLib := make([]float32, board.NumPoints)
	twoLib := make([]float32, board.NumPoints)
	threePlusLib := make([]float32, board.NumPoints)
	wouldCapture := make([]float32, board.NumPoints)
	for idx, c := range current.Stones {
		if c == board.Empty {
			if current.WouldCapture(idx, current.ToPlay) {
				wouldCapture[idx] = 1
			}
			continue
		}
		switch current.LibertyCount(idx) {
		case 1:
			oneLib[idx] = 1
		case 2:
			twoLib[idx] = 1
		default:
			threePlusLib[idx] = 1
		}
	}
	planes[2*mlperf07History+1] = oneLib
	planes[2*mlperf07History+2] = twoLib
	planes[2*mlperf07History+3] = threePlusLib
	planes[2*mlperf07History+4] = wouldCapture

	return planes, nil
}
