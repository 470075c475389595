// Package features implements the feature-descriptor plumbing: turning a batch of
// board.ModelInput into a contiguous input tensor for a Backend Model, and turning the
// model's policy output back into per-request values, undoing the symmetry applied at
// input time. Two feature families are implemented: AGZ and MLPerf07 (spec §4.1).
package features

import (
	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/tensor"
)

// Layout is the plane arrangement of the input tensor.
type Layout int

const (
	NHWC Layout = iota
	NCHW
)

func (l Layout) String() string {
	if l == NCHW {
		return "nchw"
	}
	return "nhwc"
}

// Family identifies a feature encoding scheme.
type Family int

const (
	AGZ Family = iota
	MLPerf07
)

func (f Family) String() string {
	if f == MLPerf07 {
		return "mlperf07"
	}
	return "agz"
}

// Errors returned by the encode/decode paths; both are fatal to the current call per §4.1.
var (
	ErrInvalidTensorShape   = errors.New("features: tensor shape does not match descriptor")
	ErrUnsupportedInputType = errors.New("features: unsupported input tensor element type")
)

// planeComputer produces the per-input feature planes in the position's own (canonical,
// un-rotated) coordinate frame. Each returned plane is board.NumPoints values long, indexed
// by board.Idx(x, y). The symmetry transform is applied afterwards, uniformly, by the
// Descriptor's encoder.
type planeComputer func(input board.ModelInput) ([][]float32, error)

// Descriptor is the compile-time schema of input planes: the number of planes, the tensor
// layout, and byte/float encoders, matching spec §3's FeatureDescriptor entity.
type Descriptor struct {
	Family     Family
	Layout     Layout
	PlaneCount int

	compute planeComputer
}

// NewAGZDescriptor returns the 17-plane AlphaGo-Zero-style feature descriptor (8-ply
// history stone planes plus a to-play plane).
func NewAGZDescriptor(layout Layout) *Descriptor {
	return &Descriptor{Family: AGZ, Layout: layout, PlaneCount: agzPlaneCount, compute: computeAGZPlanes}
}

// NewMLPerf07Descriptor returns the 13-plane MLPerf-0.7-style feature descriptor (4-ply
// history, to-play, 3 liberty planes, 1 would-capture plane).
func NewMLPerf07Descriptor(layout Layout) *Descriptor {
	return &Descriptor{Family: MLPerf07, Layout: layout, PlaneCount: mlperf07PlaneCount, compute: computeMLPerf07Planes}
}

// shape returns the tensor.Shape for a batch of `batch` inputs under d's layout.
func (d *Descriptor) shape(batch int) tensor.Shape {
	if d.Layout == NCHW {
		return tensor.NewShape(batch, d.PlaneCount, board.N, board.N)
	}
	return tensor.NewShape(batch, board.N, board.N, d.PlaneCount)
}

func (d *Descriptor) offset(batch, batchIdx, planeIdx, x, y int) int {
	if d.Layout == NCHW {
		return ((batchIdx*d.PlaneCount+planeIdx)*board.N+y)*board.N + x
	}
	return ((batchIdx*board.N+y)*board.N+x)*d.PlaneCount + planeIdx
}

// validateBatch checks the batch-level input constraints from §4.1.
func (d *Descriptor) validateBatch(inputs []board.ModelInput, capacity int) error {
	if len(inputs) < 1 {
		return errors.Wrap(ErrInvalidTensorShape, "batch must have at least one input")
	}
	if capacity > 0 && len(inputs) > capacity {
		return errors.Wrapf(ErrInvalidTensorShape, "batch of %d exceeds capacity %d", len(inputs), capacity)
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}
	return nil
}

// encodeInto allocates a tensor shaped for the batch under d's layout and fills it with the
// planes for each input, applying each input's symmetry to the destination coordinate.
func encodeInto[T ~float32 | ~uint8](d *Descriptor, inputs []board.ModelInput, set func(dst []T, offset int, v float32)) (*tensor.Tensor[T], error) {
	shape := d.shape(len(inputs))
	dst := tensor.New[T](shape)
	for bi, in := range inputs {
		planes, err := d.compute(in)
		if err != nil {
			return nil, err
		}
		if len(planes) != d.PlaneCount {
			return nil, errors.Wrapf(ErrInvalidTensorShape, "got %d planes, descriptor declares %d", len(planes), d.PlaneCount)
		}
		for planeIdx, plane := range planes {
			if len(plane) != board.NumPoints {
				return nil, errors.Wrapf(ErrInvalidTensorShape, "plane %d has %d points, want %d", planeIdx, len(plane), board.NumPoints)
			}
			for srcIdx, v := range plane {
				x, y := board.XY(srcIdx)
				dx, dy := board.Transform(in.Symmetry, board.N, x, y)
				set(dst.Data, d.offset(len(inputs), bi, planeIdx, dx, dy), v)
			}
		}
	}
	return dst, nil
}

// EncodeFloat builds a float32 input tensor for the given batch of inputs. Batch size must
// be between 1 and capacity (0 means "no declared capacity limit").
func (d *Descriptor) EncodeFloat(inputs []board.ModelInput, capacity int) (*tensor.Tensor[float32], error) {
	if err := d.validateBatch(inputs, capacity); err != nil {
		return nil, err
	}
	return encodeInto[float32](d, inputs, func(dst []float32, offset int, v float32) { dst[offset] = v })
}

// EncodeByte builds a uint8 (bool-as-byte) input tensor for the given batch of inputs.
func (d *Descriptor) EncodeByte(inputs []board.ModelInput, capacity int) (*tensor.Tensor[uint8], error) {
	if err := d.validateBatch(inputs, capacity); err != nil {
		return nil, err
	}
	return encodeInto[uint8](d, inputs, func(dst []uint8, offset int, v float32) {
		if v != 0 {
			dst[offset] = 1
		} else {
			dst[offset] = 0
		}
	})
}

// DecodePolicy undoes the ModelInput's Symmetry on a raw, model-frame policy vector of
// length board.PolicySize, returning the policy in the caller's original frame. The pass
// component is passed through unchanged, per §4.1.
func DecodePolicy(modelPolicy []float32, sym board.Symmetry) ([]float32, error) {
	if len(modelPolicy) != board.PolicySize {
		return nil, errors.Wrapf(ErrInvalidTensorShape, "policy has %d entries, want %d", len(modelPolicy), board.PolicySize)
	}
	out := make([]float32, board.PolicySize)
	for idx := 0; idx < board.NumPoints; idx++ {
		x, y := board.XY(idx)
		mx, my := board.Transform(sym, board.N, x, y)
		out[idx] = modelPolicy[board.Idx(mx, my)]
	}
	out[board.PassMove] = modelPolicy[board.PassMove]
	return out, nil
}
