package modelfile

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/generics"
	"github.com/gozero/infercore/internal/model"
)

// Factory constructs a model.Model from a parsed Definition and an engine-specific device
// string (an integer device id, a pseudo-URL for a remote accelerator, or empty), matching
// the spec's ModelFactory entity (§3, §4.7).
type Factory func(def *Definition, device string) (model.Model, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// RegisterFactory installs factory as the constructor for engine. Engine implementations
// register themselves from an init() function, following the corpus's registry-by-side-effect
// pattern (c.f. the corpus's driver/backend registration idioms).
func RegisterFactory(engine string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[engine] = factory
}

func lookupFactory(engine string) (Factory, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	f, ok := registry[engine]
	return f, ok
}

// RegisteredEngines returns the ids of every non-"random" engine currently registered, sorted
// for stable, deterministic output (e.g. in a CLI's "unknown engine" error or listing).
func RegisteredEngines() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	return slices.Collect(generics.SortedKeys(registry))
}

// parsedSpec is a factory path string broken into its grammar components (spec §6
// "Factory path string"):  <engine>,<path>  |  <engine>:<device>,<path>  |  random:<seed>,<pstd>:<vstd>
type parsedSpec struct {
	engine string
	device string
	rest   string
}

func parseSpec(spec string) (parsedSpec, error) {
	enginePart, rest, ok := strings.Cut(spec, ",")
	if !ok {
		return parsedSpec{}, errors.Errorf("modelfile: malformed factory spec %q, expected a ','", spec)
	}
	engine, device, _ := strings.Cut(enginePart, ":")
	return parsedSpec{engine: engine, device: device, rest: rest}, nil
}

// NewFromSpec constructs a model.Model from a factory path string (spec §4.7, §6). "random"
// and "fake" are handled directly, without consulting the registry, since neither needs a
// model file (spec §6 lists them as first-class engine ids alongside "an engine id known to a
// registered factory"); every other engine id is looked up in the process-wide registry.
func NewFromSpec(spec string) (model.Model, error) {
	parsed, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}
	if parsed.engine == "random" {
		return newRandomFromSpec(parsed)
	}
	if parsed.engine == "fake" {
		return newFakeFromSpec(parsed)
	}

	factory, ok := lookupFactory(parsed.engine)
	if !ok {
		return nil, errors.Errorf("modelfile: no factory registered for engine %q, have: %v", parsed.engine, RegisteredEngines())
	}
	f, err := os.Open(parsed.rest)
	if err != nil {
		return nil, errors.Wrapf(err, "modelfile: opening model file %q", parsed.rest)
	}
	defer f.Close()
	def, err := ReadDefinition(parsed.rest, f)
	if err != nil {
		return nil, err
	}
	if def.Metadata.Engine != parsed.engine {
		return nil, errors.Errorf("modelfile: spec engine %q does not match file metadata engine %q", parsed.engine, def.Metadata.Engine)
	}
	return factory(def, parsed.device)
}

// newRandomFromSpec parses "random:<seed>,<policy_stddev>:<value_stddev>" and builds a
// model.RandomModel. The feature descriptor defaults to AGZ/NHWC, since a synthetic model
// has no file metadata to read it from.
func newRandomFromSpec(parsed parsedSpec) (model.Model, error) {
	seed, err := strconv.ParseInt(parsed.device, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "modelfile: parsing random seed %q", parsed.device)
	}
	pstdStr, vstdStr, ok := strings.Cut(parsed.rest, ":")
	if !ok {
		return nil, errors.Errorf("modelfile: malformed random spec stddevs %q, expected '<pstd>:<vstd>'", parsed.rest)
	}
	pstd, err := strconv.ParseFloat(pstdStr, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "modelfile: parsing policy_stddev %q", pstdStr)
	}
	vstd, err := strconv.ParseFloat(vstdStr, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "modelfile: parsing value_stddev %q", vstdStr)
	}
	descriptor := features.NewAGZDescriptor(features.NHWC)
	name := "random:" + parsed.device
	return model.NewRandomModel(name, descriptor, seed, float32(pstd), float32(vstd)), nil
}

// newFakeFromSpec builds a model.FakeModel answering every request with a zero-value
// ModelOutput of the right shape. Like "random", "fake" has no model file to read; parsed.rest
// (the path component of the factory spec grammar) is accepted but ignored.
func newFakeFromSpec(parsed parsedSpec) (model.Model, error) {
	descriptor := features.NewAGZDescriptor(features.NHWC)
	name := "fake"
	if parsed.device != "" {
		name = "fake:" + parsed.device
	}
	output := board.ModelOutput{Policy: make([]float32, board.PolicySize)}
	return model.NewFakeModel(name, descriptor, output), nil
}
