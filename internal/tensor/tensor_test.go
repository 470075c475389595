package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapeSize(t *testing.T) {
	s := NewShape(2, 9, 9, 17)
	require.Equal(t, 4, s.Rank())
	require.Equal(t, 2*9*9*17, s.Size())
}

func TestGrowNeverShrinksCapacity(t *testing.T) {
	tns := New[float32](NewShape(4, 9, 9, 17))
	backing := tns.Data
	tns.Grow(NewShape(2, 9, 9, 17))
	require.Equal(t, 2*9*9*17, len(tns.Data))
	require.True(t, cap(tns.Data) >= cap(backing), "Grow to a smaller capacity must not reallocate")

	tns.Grow(NewShape(8, 9, 9, 17))
	require.Equal(t, 8*9*9*17, len(tns.Data))
}

func TestNewFromDataRejectsUndersizedBuffer(t *testing.T) {
	_, err := NewFromData[float32](NewShape(10), make([]float32, 3))
	require.Error(t, err)
}
