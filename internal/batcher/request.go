// Package batcher implements ModelBatcher and BatchingClient: the per-model request queue
// that coalesces concurrent callers' feature sets into batches and dispatches them to an
// underlying model.Model (spec §3 "ModelBatcher"/"BatchingClient", §4.5). It is grounded on
// the corpus's AutoBatch machinery (internal/ai/tensorflow/auto_batch.go): a channel-fed
// request queue, a dispatcher that fires once enough requests have accumulated, and a
// per-request completion signal — reworked to the spec's FIFO-queue-plus-mutex design and
// its two extra forward-progress conditions (num_waiting, num_active_games) that the
// teacher's single-game-size batcher didn't need.
package batcher

import (
	"github.com/gozero/infercore/internal/board"
)

// InferenceRequest is one caller's pending evaluation (spec §3 "InferenceRequest"):
// feature-source positions, an output destination, an optional model-name sink, and a
// completion signal. The completion channel is closed exactly once, after Output is written.
type InferenceRequest struct {
	Input  board.ModelInput
	Output board.ModelOutput

	// ModelName, if non-nil, receives the backend's reported model identity.
	ModelName *string

	done chan struct{}
}

func newRequest(input board.ModelInput) *InferenceRequest {
	return &InferenceRequest{Input: input, done: make(chan struct{})}
}

// Wait blocks until the request has been filled.
func (r *InferenceRequest) Wait() {
	<-r.done
}

func (r *InferenceRequest) complete() {
	close(r.done)
}
