package gomlxmodel

import (
	"github.com/gozero/infercore/internal/model"
	"github.com/gozero/infercore/internal/modelfile"
)

// init registers the "gomlx" engine with the modelfile factory registry, so a factory path
// string like "gomlx:0,/models/gen42.bin" resolves to a gomlxmodel.Model (spec §4.7, §6).
func init() {
	modelfile.RegisterFactory("gomlx", newFromDefinition)
}

func newFromDefinition(def *modelfile.Definition, device string) (model.Model, error) {
	descriptor, err := def.FeatureDescriptor()
	if err != nil {
		return nil, err
	}
	return New(def.Path, descriptor, "")
}
