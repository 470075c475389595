package model

import (
	"math/rand"
	"sync"

	"github.com/chewxy/math32"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

// winGameScore bounds RandomModel's value output to the same [-1, +1] range a trained
// model's tanh value head would produce.
const winGameScore = float32(1)

// squashScore maps an unbounded score into (-winGameScore, +winGameScore) with tanh, the same
// S-curve the corpus's trained models apply to their value head's raw logit.
func squashScore(x float32) float32 {
	return math32.Tanh(x) * winGameScore
}

// RandomModel is a Backend Model that draws its policy logits and value from independent
// Gaussians. It is useful for load-testing the batcher/cache/pool machinery, and as a
// deterministic opponent for smoke tests, without needing an actual trained model file
// (spec §4.7 "random:<seed>,<policy-std>:<value-std>").
type RandomModel struct {
	name       string
	descriptor *features.Descriptor
	policyStd  float32
	valueStd   float32

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomModel returns a RandomModel seeded deterministically from seed, drawing policy
// logits from N(0, policyStd) and value logits from N(0, valueStd) before squashing.
func NewRandomModel(name string, descriptor *features.Descriptor, seed int64, policyStd, valueStd float32) *RandomModel {
	return &RandomModel{
		name:       name,
		descriptor: descriptor,
		policyStd:  policyStd,
		valueStd:   valueStd,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (m *RandomModel) Name() string                              { return m.name }
func (m *RandomModel) FeatureDescriptor() *features.Descriptor { return m.descriptor }
func (m *RandomModel) Close() error                             { return nil }

// RunMany implements Model.
func (m *RandomModel) RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error {
	if err := checkRunManyArgs(inputs, outputs); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range inputs {
		logits := make([]float32, board.PolicySize)
		for p := range logits {
			logits[p] = float32(m.rng.NormFloat64()) * m.policyStd
		}
		outputs[i] = board.ModelOutput{
			Policy: Softmax(logits),
			Value:  squashScore(float32(m.rng.NormFloat64()) * m.valueStd),
		}
	}
	if modelName != nil {
		*modelName = m.name
	}
	return nil
}

var _ Model = (*RandomModel)(nil)
