// Package board implements the minimal, opaque position representation the inference core
// needs to drive feature encoding (internal/features) and the symmetry-aware cache
// (internal/cache): a square Go board position with stones, side-to-play, a Zobrist-style
// hash, and just enough chain/liberty computation to support the MLPerf07 liberty and
// would-capture planes. It is deliberately not a full rules engine -- move legality beyond
// "is this empty point a suicide" and scoring are out of scope, per spec.
package board

import (
	"fmt"
	"math/rand"
)

// N is the compile-time board dimension. ModelDefinition.board_size must equal it.
const N = 9

// NumPoints is the number of intersections on the board.
const NumPoints = N * N

// PassMove is the index of the pass move within a policy vector of length NumPoints+1.
const PassMove = NumPoints

// PolicySize is the length of a policy vector: one entry per point, plus pass.
const PolicySize = NumPoints + 1

// Color of a stone, or Empty.
type Color uint8

const (
	Empty Color = iota
	Black
	White
)

// Opponent returns the other color; Empty maps to Empty.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Position is an immutable-after-construction Go board position.
type Position struct {
	Stones [NumPoints]Color

	// ToPlay is the side to move next.
	ToPlay Color

	// PrevMovePass records whether the move immediately preceding this position was a pass.
	PrevMovePass bool

	hash uint64
}

// Idx converts (x, y) board coordinates, 0 <= x,y < N, into a flat Stones index.
func Idx(x, y int) int { return y*N + x }

// XY converts a flat Stones index back into (x, y) board coordinates.
func XY(idx int) (x, y int) { return idx % N, idx / N }

// NewEmptyPosition returns an empty board with the given side to play.
func NewEmptyPosition(toPlay Color) *Position {
	p := &Position{ToPlay: toPlay}
	p.hash = p.computeHash()
	return p
}

// NewPosition builds a position from explicit stones; it recomputes the hash.
func NewPosition(stones [NumPoints]Color, toPlay Color, prevMovePass bool) *Position {
	p := &Position{Stones: stones, ToPlay: toPlay, PrevMovePass: prevMovePass}
	p.hash = p.computeHash()
	return p
}

// Hash returns the cached Zobrist-style hash of the position in its own (non-canonical)
// frame, folding in side-to-play and previous-move-was-pass. See cache.Key for the
// canonical, symmetry-invariant version used as a cache key.
func (p *Position) Hash() uint64 { return p.hash }

// StoneHash returns the Zobrist hash of just the stone layout, ignoring side-to-play and
// previous-move-was-pass. cache.Key uses this as a second, independent collision guard
// alongside the full Hash.
func (p *Position) StoneHash() uint64 {
	var h uint64
	for i, c := range p.Stones {
		h ^= zobristStones[i][c]
	}
	return h
}

// IllegalPointsHash folds in one bit per empty point that would be illegal for the side to
// play, used by cache.NewKey to extend the stone-layout hash per spec's key construction.
func (p *Position) IllegalPointsHash() uint64 {
	var h uint64
	for idx, c := range p.Stones {
		if c == Empty && !p.IsLegalEmptyPoint(idx, p.ToPlay) {
			h ^= zobristIllegal[idx]
		}
	}
	return h
}

func (p *Position) String() string {
	return fmt.Sprintf("Position{toPlay=%s, hash=%016x}", p.ToPlay, p.hash)
}

// --- Zobrist tables ---
//
// Filled deterministically at package init from a fixed seed so that hashes are stable
// across runs and processes -- required for the cache's canonical-hash equality tests.

var (
	zobristStones    [NumPoints][3]uint64 // indexed by Color
	zobristBlackPlay uint64
	zobristPrevPass  uint64
	zobristIllegal   [NumPoints]uint64
)

func init() {
	rng := rand.New(rand.NewSource(0x6d696e69676f)) // "minigo" in hex-ish, just a fixed seed
	for i := 0; i < NumPoints; i++ {
		for c := 0; c < 3; c++ {
			zobristStones[i][c] = rng.Uint64()
		}
		zobristIllegal[i] = rng.Uint64()
	}
	zobristBlackPlay = rng.Uint64()
	zobristPrevPass = rng.Uint64()
}

func (p *Position) computeHash() uint64 {
	var h uint64
	for i, c := range p.Stones {
		h ^= zobristStones[i][c]
	}
	if p.ToPlay == Black {
		h ^= zobristBlackPlay
	}
	if p.PrevMovePass {
		h ^= zobristPrevPass
	}
	return h
}

// neighbors4 returns the up-to-4 orthogonal neighbor indices of idx.
func neighbors4(idx int) []int {
	x, y := XY(idx)
	var out []int
	if x > 0 {
		out = append(out, Idx(x-1, y))
	}
	if x < N-1 {
		out = append(out, Idx(x+1, y))
	}
	if y > 0 {
		out = append(out, Idx(x, y-1))
	}
	if y < N-1 {
		out = append(out, Idx(x, y+1))
	}
	return out
}

// chainAndLiberties returns every stone connected to the stone at idx (same color, via
// orthogonal adjacency) and the set of distinct empty liberty points surrounding the chain.
// idx must be an occupied point.
func (p *Position) chainAndLiberties(idx int) (chain []int, liberties map[int]bool) {
	color := p.Stones[idx]
	visited := map[int]bool{idx: true}
	liberties = make(map[int]bool)
	stack := []int{idx}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		chain = append(chain, cur)
		for _, nb := range neighbors4(cur) {
			switch p.Stones[nb] {
			case Empty:
				liberties[nb] = true
			case color:
				if !visited[nb] {
					visited[nb] = true
					stack = append(stack, nb)
				}
			}
		}
	}
	return chain, liberties
}

// LibertyCount returns the number of liberties of the chain containing idx. idx must be
// occupied.
func (p *Position) LibertyCount(idx int) int {
	_, liberties := p.chainAndLiberties(idx)
	return len(liberties)
}

// WouldCapture reports whether playing color at the empty point idx would immediately
// remove the last liberty of an adjacent opposing chain.
func (p *Position) WouldCapture(idx int, color Color) bool {
	if p.Stones[idx] != Empty {
		return false
	}
	opp := color.Opponent()
	checked := map[int]bool{}
	for _, nb := range neighbors4(idx) {
		if p.Stones[nb] != opp || checked[nb] {
			continue
		}
		_, liberties := p.chainAndLiberties(nb)
		checked[nb] = true
		if len(liberties) == 1 && liberties[idx] {
			return true
		}
	}
	return false
}

// IsSuicide reports whether playing color at the empty point idx would leave that stone's
// new chain with zero liberties, accounting for any opposing chains captured by the same
// move (a capturing move is never suicide).
func (p *Position) IsSuicide(idx int, color Color) bool {
	if p.Stones[idx] != Empty {
		return false
	}
	if p.WouldCapture(idx, color) {
		return false
	}
	// Simulate placing the stone and check the resulting chain's liberties.
	sim := *p
	sim.Stones[idx] = color
	_, liberties := sim.chainAndLiberties(idx)
	return len(liberties) == 0
}

// IsLegalEmptyPoint reports whether color may play at the empty point idx (not suicide).
// Ko is not modeled here -- Position does not carry enough history on its own to decide
// it, matching the "opaque position" Non-goal.
func (p *Position) IsLegalEmptyPoint(idx int, color Color) bool {
	if p.Stones[idx] != Empty {
		return false
	}
	return !p.IsSuicide(idx, color)
}

// Transform returns a new Position with sym applied to every stone coordinate. It does not
// transform the hash incrementally: the hash is recomputed for the new Position.
// cache.NewKey builds its canonical key by calling Transform and hashing the result.
func (p *Position) Transform(sym Symmetry) *Position {
	var out [NumPoints]Color
	for idx, c := range p.Stones {
		x, y := XY(idx)
		nx, ny := Transform(sym, N, x, y)
		out[Idx(nx, ny)] = c
	}
	return NewPosition(out, p.ToPlay, p.PrevMovePass)
}
