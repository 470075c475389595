package model

import (
	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

// FakeModel is a Backend Model that always returns a fixed, caller-supplied output. It is
// grounded on the corpus's practice of wrapping trivial stand-ins behind the same interface
// as the real scorers (c.f. BatchBoardScorerWrapper), used here to unit-test the batcher,
// buffered pool, and cache without any actual neural network.
type FakeModel struct {
	name       string
	descriptor *features.Descriptor
	Output     board.ModelOutput

	// Calls records every batch size RunMany was invoked with, for assertions in tests.
	Calls []int

	// Err, if set, is returned by every RunMany call instead of computing an output.
	Err error
}

// NewFakeModel returns a FakeModel that answers every request with output.
func NewFakeModel(name string, descriptor *features.Descriptor, output board.ModelOutput) *FakeModel {
	return &FakeModel{name: name, descriptor: descriptor, Output: output}
}

func (m *FakeModel) Name() string                            { return m.name }
func (m *FakeModel) FeatureDescriptor() *features.Descriptor { return m.descriptor }
func (m *FakeModel) Close() error                             { return nil }

// RunMany implements Model.
func (m *FakeModel) RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error {
	if err := checkRunManyArgs(inputs, outputs); err != nil {
		return err
	}
	m.Calls = append(m.Calls, len(inputs))
	if m.Err != nil {
		return m.Err
	}
	for i := range inputs {
		outputs[i] = m.Output
	}
	if modelName != nil {
		*modelName = m.name
	}
	return nil
}

var _ Model = (*FakeModel)(nil)
