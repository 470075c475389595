// Package gomlxmodel implements model.Model on top of GoMLX/GoPJRT: a feed-forward tower
// over flattened board-feature planes, with a value head (tanh-squashed scalar) and a
// policy head (softmax over board.PolicySize logits). It is grounded on the corpus's
// gomlx-backed BoardScorer/PolicyScorer (context.NewExec, FNN layers, checkpoints), adapted
// from board-game-action scoring to fixed-size Go-board policy/value inference.
package gomlxmodel

import (
	"sync"

	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/layers/activations"
	"github.com/gomlx/gomlx/ml/layers/fnn"
	"github.com/gomlx/gomlx/ml/layers/regularizers"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
	"github.com/gozero/infercore/internal/model"
)

// sharedBackend is the process-wide GoMLX accelerator handle; every gomlxmodel.Model shares
// it, matching the corpus's sync.OnceValue singleton backend.
var sharedBackend = sync.OnceValue(func() backends.Backend { return backends.New() })

// Model is a GoMLX-backed Backend Model (spec §3 "Backend Model", §4.2).
type Model struct {
	name       string
	descriptor *features.Descriptor
	ctx        *context.Context
	checkpoint *checkpoints.Handler

	mu   sync.Mutex
	exec *context.Exec
}

var _ model.Model = (*Model)(nil)

// New builds a GoMLX feed-forward policy/value model for the given feature descriptor. If
// checkpointDir is non-empty, weights are loaded from (or initialized and saved to) that
// directory; otherwise the model starts with freshly initialized, unsaved weights.
func New(name string, descriptor *features.Descriptor, checkpointDir string) (*Model, error) {
	ctx := newContext(descriptor)
	m := &Model{name: name, descriptor: descriptor, ctx: ctx}

	if checkpointDir != "" {
		handler, err := checkpoints.Build(ctx).Immediate().Keep(10).Dir(checkpointDir).Done()
		if err != nil {
			return nil, errors.Wrapf(err, "gomlxmodel: loading checkpoint from %s", checkpointDir)
		}
		m.checkpoint = handler
	}

	backend := sharedBackend()
	m.exec = context.NewExec(backend, ctx, func(ctx *context.Context, inputs []*graph.Node) []*graph.Node {
		ctx = ctx.Checked(false)
		value, policy := m.forwardGraph(ctx, inputs[0])
		return []*graph.Node{graph.Squeeze(value, -1), policy}
	})

	// Force variable creation (and, if checkpointed, loading) before the first real call.
	if _, err := m.runBatch([]board.ModelInput{zeroInput(descriptor)}); err != nil {
		return nil, errors.Wrap(err, "gomlxmodel: initializing variables")
	}
	return m, nil
}

func newContext(descriptor *features.Descriptor) *context.Context {
	ctx := context.New()
	ctx.RngStateReset()
	ctx.SetParams(map[string]any{
		"batch_size": 128,

		activations.ParamActivation: "relu",
		regularizers.ParamL2:        1e-5,

		fnn.ParamNumHiddenLayers: 2,
		fnn.ParamNumHiddenNodes:  256,
		fnn.ParamResidual:        true,
		fnn.ParamNormalization:   "layer",
	})
	ctx = ctx.Checked(false)
	return ctx
}

func zeroInput(descriptor *features.Descriptor) board.ModelInput {
	pos := board.NewEmptyPosition(board.Black)
	return board.ModelInput{Symmetry: board.Identity, History: []*board.Position{pos}}
}

// forwardGraph builds the shared tower and the value/policy heads. inputTensor has shape
// [batch, PlaneCount*N*N] (flattened by encodeBatch).
func (m *Model) forwardGraph(ctx *context.Context, inputTensor *graph.Node) (value, policy *graph.Node) {
	embedDim := context.GetParamOr(ctx, fnn.ParamNumHiddenNodes, 256)
	tower := ctx.In("tower")
	embed := fnn.New(tower.In("fnn"), inputTensor, embedDim).Done()

	valueHead := ctx.In("value_head")
	valueLogits := fnn.New(valueHead.In("fnn"), embed, 1).NumHiddenLayers(0, 0).Done()
	value = graph.Tanh(valueLogits)

	policyHead := ctx.In("policy_head")
	policyLogits := fnn.New(policyHead.In("fnn"), embed, board.PolicySize).NumHiddenLayers(0, 0).Done()
	policy = graph.Softmax(policyLogits, -1)
	return value, policy
}

// encodeBatch turns inputs into the flattened float32 tensor the tower expects.
func (m *Model) encodeBatch(inputs []board.ModelInput) (*tensors.Tensor, error) {
	t, err := m.descriptor.EncodeFloat(inputs, 0)
	if err != nil {
		return nil, err
	}
	flatDim := t.Shape.Size() / len(inputs)
	gmlxTensor := tensors.FromShape(shapes.Make(dtypes.Float32, len(inputs), flatDim))
	tensors.MutableFlatData(gmlxTensor, func(flat []float32) {
		copy(flat, t.Data)
	})
	return gmlxTensor, nil
}

func (m *Model) runBatch(inputs []board.ModelInput) ([]board.ModelOutput, error) {
	inputTensor, err := m.encodeBatch(inputs)
	if err != nil {
		return nil, err
	}
	donated := graph.DonateTensorBuffer(inputTensor, sharedBackend())
	results := m.exec.Call(donated)
	values := results[0].Value().([]float32)
	policyFlat := results[1].Value().([]float32)

	outputs := make([]board.ModelOutput, len(inputs))
	for i, in := range inputs {
		rawPolicy := policyFlat[i*board.PolicySize : (i+1)*board.PolicySize]
		decoded, err := features.DecodePolicy(rawPolicy, in.Symmetry)
		if err != nil {
			return nil, err
		}
		outputs[i] = board.ModelOutput{Policy: decoded, Value: values[i]}
	}
	return outputs, nil
}

// RunMany implements model.Model.
func (m *Model) RunMany(inputs []board.ModelInput, outputs []board.ModelOutput, modelName *string) error {
	if len(inputs) == 0 {
		return errors.New("gomlxmodel: RunMany called with an empty batch")
	}
	if len(outputs) != len(inputs) {
		return errors.Errorf("gomlxmodel: RunMany got %d inputs but %d output slots", len(inputs), len(outputs))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	results, err := m.runBatch(inputs)
	if err != nil {
		return model.WrapBackendError(m.name, err)
	}
	copy(outputs, results)
	if modelName != nil {
		*modelName = m.name
	}
	return nil
}

func (m *Model) FeatureDescriptor() *features.Descriptor { return m.descriptor }
func (m *Model) Name() string                            { return m.name }

// Close saves the checkpoint, if any, and releases the executor.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkpoint != nil {
		if err := m.checkpoint.Save(); err != nil {
			klog.Warningf("gomlxmodel: failed to save checkpoint for %s: %v", m.name, err)
		}
	}
	if m.exec != nil {
		m.exec.Finalize()
	}
	return nil
}
