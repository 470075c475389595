// Package cache implements the symmetry-aware LRU inference cache: result re-use across the
// 8 dihedral views of the same board position, sharded behind per-shard mutexes for
// concurrent use (spec §3 "InferenceCache", §4.6). It is grounded on the corpus's plain
// container/list-based LRU idiom (rather than a generic cache library) because the merge and
// eviction semantics here are precise enough -- symmetry-bitmask accounting, canonical-frame
// running means -- that a generic cache library's API doesn't expose the right hooks; see
// DESIGN.md for the decision not to use ristretto/v2.
package cache

import "github.com/gozero/infercore/internal/board"

// Key identifies a cached position independent of which of the 8 dihedral symmetries it was
// looked up under: both hashes are computed from pos as transformed by the caller-chosen
// canonical symmetry, so all 8 views of one physical board collide onto the same Key as long
// as every view is keyed under the canonical symmetry that maps it back to the same
// reference frame (spec §4.6 "Key construction"). CacheHash folds in the stone layout,
// side-to-play, previous-move-was-pass, and one bit per illegal empty point; StoneHash covers
// only the stone layout, giving a second, independent collision guard.
type Key struct {
	CacheHash uint64
	StoneHash uint64
}

// illegalPointsSalt further mixes the illegal-point bits into CacheHash so a position that
// differs from another only in which empty points are illegal doesn't collide with StoneHash
// alone guarding against it.
const illegalPointsSalt uint64 = 0xff51afd7ed558ccd

// NewKey builds the Key for pos as seen under canonical symmetry c: the symmetry the caller
// has chosen (typically once per game) to bring every position in that game into a shared
// frame, so that all 8 dihedral views of the same physical board -- each keyed under the c
// that maps it to that frame -- produce the same Key.
func NewKey(pos *board.Position, canonical board.Symmetry) Key {
	canonicalPos := pos
	if canonical != board.Identity {
		canonicalPos = pos.Transform(canonical)
	}
	cacheHash := canonicalPos.Hash() ^ (canonicalPos.IllegalPointsHash() * illegalPointsSalt)
	return Key{CacheHash: cacheHash, StoneHash: canonicalPos.StoneHash()}
}
