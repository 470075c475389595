package batcher

import (
	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/model"
)

// Client is a thin per-game handle routing that game's requests to one or two ModelBatchers:
// Primary always, and Other when this client plays in a head-to-head evaluation against a
// different model (spec §3 "BatchingClient").
type Client struct {
	id      string
	Primary *ModelBatcher
	Other   *ModelBatcher // nil unless this client is paired with a different-model opponent
}

var _ model.Model = (*Client)(nil)

// NewClient returns a Client bound to primary, with no pairing.
func NewClient(primary *ModelBatcher) *Client {
	return &Client{id: newClientID(), Primary: primary}
}

// ID returns the client's correlation identifier (a UUID). The batcher's own log lines do
// not include it.
func (c *Client) ID() string { return c.id }

// pair records other as c's paired batcher for an evaluation game (spec §4.5 "Lifecycle
// hooks": StartGame records each client's pair when the two batchers differ).
func (c *Client) pair(other *ModelBatcher) {
	if other != c.Primary {
		c.Other = other
	}
}

// RunMany implements model.Model by enqueueing one InferenceRequest per input on Primary,
// following the enqueue path in spec §4.5.
func (c *Client) RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error {
	if len(inputs) == 0 {
		return errors.New("batcher: RunMany called with an empty batch")
	}
	if len(outputs) != len(inputs) {
		return errors.Errorf("batcher: RunMany got %d inputs but %d output slots", len(inputs), len(outputs))
	}

	requests := make([]*InferenceRequest, len(inputs))
	incrementedOther := make([]bool, len(inputs))
	for i, in := range inputs {
		req := newRequest(in)
		req.ModelName = new(string)
		requests[i] = req
		incrementedOther[i] = c.enqueueOne(req)
	}

	// Step 5: wait with no mutex held, once every request in this call has been enqueued so
	// concurrent dispatches can actually batch them together.
	for i, req := range requests {
		req.Wait()
		outputs[i] = req.Output
		if modelName != nil {
			*modelName = *req.ModelName
		}

		// Step 6: undo whichever increment happened in steps 2-3 for this request.
		if c.Other != nil {
			if incrementedOther[i] {
				c.Other.decrementWaiting()
			} else {
				c.Primary.decrementWaiting()
			}
		}
	}
	return nil
}

// enqueueOne pushes req onto Primary's queue and, if this client is paired, increments the
// appropriate batcher's num_waiting (spec §4.5 enqueue path, steps 1-4). It reports whether
// the increment landed on Other (true) or Primary itself (false), so the caller can later
// undo the correct counter.
func (c *Client) enqueueOne(req *InferenceRequest) (incrementedOther bool) {
	// Step 1: push onto Primary's queue.
	c.Primary.enqueue(req)

	// Steps 2-3: account for the paired batcher, if any.
	if c.Other != nil {
		if c.Other == c.Primary {
			c.Primary.incrementWaiting()
			return false
		}
		c.Other.incrementWaiting()
		return true
	}
	return false
}

// FeatureDescriptor implements model.Model, delegating to the primary batcher's backend.
func (c *Client) FeatureDescriptor() *features.Descriptor {
	return c.Primary.Backend.FeatureDescriptor()
}

// Name implements model.Model.
func (c *Client) Name() string { return c.Primary.ModelPath }

// Close is a no-op: a Client does not own its batchers' lifetime; see BatchingFactory.
func (c *Client) Close() error { return nil }
