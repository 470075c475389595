// Package model defines the Backend Model interface: the narrow contract every inference
// engine (GoMLX-backed, random, fake) implements so the batcher, buffered pool, and
// reloading wrapper can treat them interchangeably (spec §3 "Backend Model", §4.2).
package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

// ErrBackend wraps any error returned from a model's own inference machinery, so callers can
// distinguish "the model itself failed" from usage errors (bad batch size, closed model).
var ErrBackend = errors.New("model: backend inference error")

// Model is a Backend Model (spec §3): something that can run a batch of positions through a
// neural network (or a stand-in) and produce a policy/value pair for each.
type Model interface {
	// RunMany evaluates inputs in a single batch, writing one ModelOutput per input into
	// outputs (len(outputs) must equal len(inputs)). modelName, if non-nil, is filled with
	// the concrete model identity that served the batch (useful when a Model fans out to
	// several underlying model files, as BufferedModel and ReloadingModel do).
	RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error

	// FeatureDescriptor returns the feature encoding this model expects its batches in.
	FeatureDescriptor() *features.Descriptor

	// Name identifies this model instance for logs and metrics.
	Name() string

	// Close releases any resources (device memory, file handles) held by the model.
	Close() error
}

// WrapBackendError annotates err, if non-nil, as originating from the named model's backend.
func WrapBackendError(modelName string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrBackend, "%s: %v", modelName, err)
}

func checkRunManyArgs(inputs []board.ModelInput, outputs []board.ModelOutput) error {
	if len(inputs) == 0 {
		return errors.New("model: RunMany called with an empty batch")
	}
	if len(outputs) != len(inputs) {
		return errors.Errorf("model: RunMany got %d inputs but %d output slots", len(inputs), len(outputs))
	}
	return nil
}

// String is a convenience for logging a Model without repeating its Name() everywhere.
func String(m Model) string {
	return fmt.Sprintf("Model(%s)", m.Name())
}
