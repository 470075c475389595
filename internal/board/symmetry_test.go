package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymmetryIsBijective(t *testing.T) {
	for s := Symmetry(0); s < NumSymmetries; s++ {
		seen := make(map[[2]int]bool)
		for y := 0; y < N; y++ {
			for x := 0; x < N; x++ {
				nx, ny := Transform(s, N, x, y)
				require.True(t, nx >= 0 && nx < N && ny >= 0 && ny < N, "symmetry %s maps (%d,%d) out of bounds", s, x, y)
				key := [2]int{nx, ny}
				require.False(t, seen[key], "symmetry %s is not injective", s)
				seen[key] = true
			}
		}
	}
}

func TestSymmetryInverse(t *testing.T) {
	for s := Symmetry(0); s < NumSymmetries; s++ {
		inv := Inverse(s)
		for y := 0; y < N; y++ {
			for x := 0; x < N; x++ {
				mx, my := Transform(s, N, x, y)
				bx, by := Transform(inv, N, mx, my)
				require.Equal(t, x, bx, "symmetry %s inverse %s round trip x", s, inv)
				require.Equal(t, y, by, "symmetry %s inverse %s round trip y", s, inv)
			}
		}
	}
}

func TestComposeIdentity(t *testing.T) {
	for s := Symmetry(0); s < NumSymmetries; s++ {
		require.Equal(t, s, Compose(Identity, s))
		require.Equal(t, s, Compose(s, Identity))
	}
}

func TestComposeThenInverseIsIdentity(t *testing.T) {
	for s := Symmetry(0); s < NumSymmetries; s++ {
		require.Equal(t, Identity, Compose(Inverse(s), s))
		require.Equal(t, Identity, Compose(s, Inverse(s)))
	}
}

func TestAllEightSymmetriesDistinct(t *testing.T) {
	seen := make(map[[NumPoints][2]int]bool)
	for s := Symmetry(0); s < NumSymmetries; s++ {
		var img [NumPoints][2]int
		for y := 0; y < N; y++ {
			for x := 0; x < N; x++ {
				nx, ny := Transform(s, N, x, y)
				img[Idx(x, y)] = [2]int{nx, ny}
			}
		}
		require.False(t, seen[img], "symmetry %s duplicates an earlier symmetry's mapping", s)
		seen[img] = true
	}
}
