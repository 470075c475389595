package reloading

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/model"
)

// Model wraps a backend model.Model (typically a buffered.Model) and lets a Factory swap it
// out atomically when a newer generation file appears (spec §3 "ReloadingModel", §4.4).
// Incoming RunMany calls during the swap block on Model's mutex and observe either the old
// or the new backend, never a mix.
type Model struct {
	name string

	mu      sync.RWMutex
	current model.Model
}

var _ model.Model = (*Model)(nil)

func newModel(name string, initial model.Model) *Model {
	return &Model{name: name, current: initial}
}

// RunMany implements model.Model, delegating to the current backend.
func (m *Model) RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.RunMany(inputs, outputs, modelName)
}

// FeatureDescriptor implements model.Model.
func (m *Model) FeatureDescriptor() *features.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.FeatureDescriptor()
}

// Name implements model.Model.
func (m *Model) Name() string { return m.name }

// Close releases the current backend. It does not unregister from the owning Factory; call
// Factory.Forget first if the model is no longer wanted.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Close()
}

// swap drops the old backend before constructing and installing the new one, per the
// "dropping must precede construction" ordering some accelerator runtimes require (§4.4).
func (m *Model) swap(construct func() (model.Model, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.current.Close(); err != nil {
		return errors.Wrapf(err, "reloading: closing previous backend for %s", m.name)
	}
	next, err := construct()
	if err != nil {
		return errors.Wrapf(err, "reloading: constructing replacement backend for %s", m.name)
	}
	m.current = next
	return nil
}
