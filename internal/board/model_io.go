package board

import "github.com/pkg/errors"

// MaxHistory is the maximum number of past positions (current position included) a
// ModelInput may carry, matching the AGZ feature family's 8-ply history.
const MaxHistory = 8

// ModelInput is what a caller hands to a Model/BatchingClient for one evaluation: the
// symmetry to apply to the features, and the position history (current position first).
type ModelInput struct {
	// Symmetry is the inference symmetry applied to the input features for this request.
	Symmetry Symmetry

	// History is the ordered sequence of positions, current position first. Its length
	// must be at least 1 and at most MaxHistory; shorter histories are zero-padded by the
	// feature encoder.
	History []*Position
}

// Validate checks the invariants from the spec's ModelInput entry.
func (mi ModelInput) Validate() error {
	if len(mi.History) == 0 {
		return errors.New("board: ModelInput.History must have at least one position")
	}
	if len(mi.History) > MaxHistory {
		return errors.Errorf("board: ModelInput.History has %d positions, max is %d", len(mi.History), MaxHistory)
	}
	for i, p := range mi.History {
		if p == nil {
			return errors.Errorf("board: ModelInput.History[%d] is nil", i)
		}
	}
	return nil
}

// Current returns the most recent position in the input's history.
func (mi ModelInput) Current() *Position { return mi.History[0] }

// ModelOutput is the result of one inference: a policy distribution over PolicySize moves
// (board points plus pass) and a scalar value in [-1, 1] from the current player's
// perspective.
type ModelOutput struct {
	Policy []float32
	Value  float32
}

// NewModelOutput allocates a ModelOutput with a zeroed, correctly-sized policy vector.
func NewModelOutput() ModelOutput {
	return ModelOutput{Policy: make([]float32, PolicySize)}
}
