// Package tensor implements the small generic tensor type used to move batched features
// and model outputs in and out of Backend Model implementations, without pulling in a full
// ndarray library. Shapes are at most 4 dimensions, matching the spec's NHWC/NCHW layouts.
package tensor

import "github.com/pkg/errors"

// MaxDims is the largest rank this package supports.
const MaxDims = 4

// Shape is a tensor shape of up to MaxDims dimensions. Unused trailing dimensions are 0 and
// ignored by Rank/Size.
type Shape [MaxDims]int

// NewShape builds a Shape from up to MaxDims dimension sizes.
func NewShape(dims ...int) Shape {
	if len(dims) > MaxDims {
		panic("tensor: shape has too many dimensions")
	}
	var s Shape
	copy(s[:], dims)
	return s
}

// Rank returns the number of non-zero leading dimensions.
func (s Shape) Rank() int {
	n := 0
	for _, d := range s {
		if d == 0 {
			break
		}
		n++
	}
	return n
}

// Size returns the total element count (product of the non-zero dimensions), or 0 if the
// shape is empty.
func (s Shape) Size() int {
	if s.Rank() == 0 {
		return 0
	}
	size := 1
	for i := 0; i < s.Rank(); i++ {
		size *= s[i]
	}
	return size
}

// Dim returns dimension i, or 0 if i is out of range.
func (s Shape) Dim(i int) int {
	if i < 0 || i >= MaxDims {
		return 0
	}
	return s[i]
}

// Tensor is a non-owning view over a flat, row-major data buffer with an associated Shape.
// T is typically byte, float32, or bool, matching the element types the spec's backends
// exchange (§4.1 "integer tensor dtype may be bool ... or 8-bit or 32-bit float").
type Tensor[T any] struct {
	Shape Shape
	Data  []T
}

// New allocates a Tensor with the given shape and a zeroed backing array sized to
// shape.Size().
func New[T any](shape Shape) *Tensor[T] {
	return &Tensor[T]{Shape: shape, Data: make([]T, shape.Size())}
}

// NewFromData wraps an existing slice as a Tensor of the given shape. The caller is
// responsible for shape.Size() <= len(data).
func NewFromData[T any](shape Shape, data []T) (*Tensor[T], error) {
	if shape.Size() > len(data) {
		return nil, errors.Errorf("tensor: shape %v needs %d elements, only %d provided", shape, shape.Size(), len(data))
	}
	return &Tensor[T]{Shape: shape, Data: data}, nil
}

// Grow resizes t's backing array to exactly newShape.Size() elements IF that is larger than
// the current capacity; it never shrinks the underlying array, matching the spec's Backend
// Model growth policy ("grow to requested capacity... must never shrink"). It always
// updates Shape to newShape, reusing the existing backing array when it is large enough.
func (t *Tensor[T]) Grow(newShape Shape) {
	needed := newShape.Size()
	if cap(t.Data) < needed {
		grown := make([]T, needed)
		t.Data = grown
	} else {
		t.Data = t.Data[:needed]
	}
	t.Shape = newShape
}
