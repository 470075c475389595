package board

// Symmetry identifies one of the 8 dihedral symmetries of the square board: 4 rotations
// times 2 reflections. It is the symmetry applied to input features for a single
// inference request (to reduce model bias), or the canonical symmetry used to bring a
// position into a cache-friendly, shared frame.
type Symmetry uint8

const (
	Identity Symmetry = iota
	Rot90
	Rot180
	Rot270
	FlipRot0
	FlipRot90
	FlipRot180
	FlipRot270

	NumSymmetries = 8
)

// String implements fmt.Stringer.
func (s Symmetry) String() string {
	switch s {
	case Identity:
		return "identity"
	case Rot90:
		return "rot90"
	case Rot180:
		return "rot180"
	case Rot270:
		return "rot270"
	case FlipRot0:
		return "flip"
	case FlipRot90:
		return "flip_rot90"
	case FlipRot180:
		return "flip_rot180"
	case FlipRot270:
		return "flip_rot270"
	default:
		return "unknown_symmetry"
	}
}

// Transform applies sym to coordinate (x, y) on an n x n board and returns the
// transformed coordinate. Flips happen before rotation, consistently for every symmetry,
// which is what makes the 8 values form a group under composition.
func Transform(sym Symmetry, n, x, y int) (int, int) {
	if sym >= 4 {
		x = n - 1 - x
	}
	switch sym % 4 {
	case 0:
		// no rotation
	case 1:
		x, y = y, n-1-x
	case 2:
		x, y = n-1-x, n-1-y
	case 3:
		x, y = n-1-y, x
	}
	return x, y
}

// inverseTable and composeTable are built once at init time by brute-force search over a
// reference board size: since all 8 symmetries are affine bijections of the grid, two
// symmetries are equal iff they agree on every cell of any board large enough to break
// accidental coincidences (4x4 suffices, we use a larger size for comfort).
var (
	inverseTable [NumSymmetries]Symmetry
	composeTable [NumSymmetries][NumSymmetries]Symmetry
)

const symmetryTestBoardSize = 9

func init() {
	type point struct{ x, y int }
	apply := func(sym Symmetry) []point {
		pts := make([]point, 0, symmetryTestBoardSize*symmetryTestBoardSize)
		for y := 0; y < symmetryTestBoardSize; y++ {
			for x := 0; x < symmetryTestBoardSize; x++ {
				nx, ny := Transform(sym, symmetryTestBoardSize, x, y)
				pts = append(pts, point{nx, ny})
			}
		}
		return pts
	}
	images := [NumSymmetries][]point{}
	for s := Symmetry(0); s < NumSymmetries; s++ {
		images[s] = apply(s)
	}
	equal := func(a, b []point) bool {
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	// composeTable[a][b] = symmetry equivalent to applying b then a.
	for a := Symmetry(0); a < NumSymmetries; a++ {
		for b := Symmetry(0); b < NumSymmetries; b++ {
			// Compute a∘b directly on coordinates and match against the known images.
			composed := make([]point, 0, len(images[0]))
			for y := 0; y < symmetryTestBoardSize; y++ {
				for x := 0; x < symmetryTestBoardSize; x++ {
					mx, my := Transform(b, symmetryTestBoardSize, x, y)
					fx, fy := Transform(a, symmetryTestBoardSize, mx, my)
					composed = append(composed, point{fx, fy})
				}
			}
			found := false
			for s := Symmetry(0); s < NumSymmetries; s++ {
				if equal(composed, images[s]) {
					composeTable[a][b] = s
					found = true
					break
				}
			}
			if !found {
				panic("board: dihedral symmetry composition table is incomplete")
			}
		}
	}
	for s := Symmetry(0); s < NumSymmetries; s++ {
		for t := Symmetry(0); t < NumSymmetries; t++ {
			if composeTable[s][t] == Identity {
				inverseTable[s] = t
				break
			}
		}
	}
}

// Inverse returns the symmetry that undoes sym.
func Inverse(sym Symmetry) Symmetry {
	return inverseTable[sym]
}

// Compose returns the symmetry equivalent to applying b first, then a: Compose(a, b) = a∘b.
func Compose(a, b Symmetry) Symmetry {
	return composeTable[a][b]
}
