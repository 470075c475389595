package model

import (
	"math"
	"slices"
)

// Softmax returns the softmax of logits in a numerically stable way, matching the
// subtract-the-max trick used throughout the corpus's scoring code.
func Softmax(logits []float32) []float32 {
	probs := make([]float32, len(logits))
	if len(logits) == 0 {
		return probs
	}
	maxValue := slices.Max(logits)
	var sum float32
	for i, v := range logits {
		probs[i] = float32(math.Exp(float64(v - maxValue)))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
