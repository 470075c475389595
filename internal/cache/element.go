package cache

import (
	"container/list"

	"github.com/gozero/infercore/internal/board"
)

// element is one LRU entry: the merged canonical-frame inference, plus the bitmask of which
// model-to-canonical transforms t have already contributed to it (spec §4.6 "Merge").
type element struct {
	key Key

	// canonicalPolicy and canonicalValue hold the running mean of every merged contribution,
	// expressed in the canonical frame.
	canonicalPolicy []float32
	canonicalValue  float32

	// validSymmetryBits has bit t set when a contribution computed under
	// t = s ∘ c⁻¹ has already been merged in.
	validSymmetryBits  uint8
	numValidSymmetries uint8

	listElem *list.Element
}

func newElement(key Key) *element {
	return &element{
		key:             key,
		canonicalPolicy: make([]float32, board.PolicySize),
	}
}

func (e *element) hasSymmetry(t board.Symmetry) bool {
	return e.validSymmetryBits&(1<<uint(t)) != 0
}

func (e *element) setSymmetry(t board.Symmetry) {
	if !e.hasSymmetry(t) {
		e.validSymmetryBits |= 1 << uint(t)
		e.numValidSymmetries++
	}
}

// merge folds contribution (already in canonical frame) into the running mean as the
// (n+1)'th sample, where n is the element's current numValidSymmetries.
func (e *element) merge(t board.Symmetry, contribution board.ModelOutput) {
	n := float32(e.numValidSymmetries)
	if n == 0 {
		copy(e.canonicalPolicy, contribution.Policy)
		e.canonicalValue = contribution.Value
	} else {
		for i, v := range contribution.Policy {
			e.canonicalPolicy[i] = (n*e.canonicalPolicy[i] + v) / (n + 1)
		}
		e.canonicalValue = (n*e.canonicalValue + contribution.Value) / (n + 1)
	}
	e.setSymmetry(t)
}
