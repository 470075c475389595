package cache

import (
	"github.com/pkg/errors"

	"github.com/gozero/infercore/internal/board"
)

// bytesPerEntry approximates one element's steady-state heap footprint: a PolicySize
// float32 slice plus map/list bookkeeping overhead, used only by CapacityForBudget to turn
// a memory budget into an entry count (spec §4.6 SUPPLEMENTED "sizing by memory budget").
const bytesPerEntry = (board.PolicySize * 4) + 96

// Cache is a sharded, symmetry-aware LRU cache of inference results. Every physical board
// position's 8 dihedral views route to the same shard and the same Key (spec §4.6).
type Cache struct {
	shards []*shard
}

// New builds a Cache with numShards shards sharing a total capacity of capacity entries,
// distributed as evenly as possible: shards with index below capacity%numShards get one
// extra slot so the whole capacity is partitioned exactly.
func New(numShards, capacity int) (*Cache, error) {
	if numShards < 1 {
		return nil, errors.New("cache: numShards must be at least 1")
	}
	if capacity < numShards {
		return nil, errors.Errorf("cache: capacity %d is too small for %d shards", capacity, numShards)
	}
	base := capacity / numShards
	remainder := capacity % numShards
	shards := make([]*shard, numShards)
	for i := range shards {
		shardCap := base
		if i < remainder {
			shardCap++
		}
		shards[i] = newShard(shardCap)
	}
	return &Cache{shards: shards}, nil
}

// CapacityForBudget returns the number of entries that fit within byteBudget bytes, at a
// minimum of one entry per shard.
func CapacityForBudget(numShards int, byteBudget int64) int {
	n := int(byteBudget / bytesPerEntry)
	if n < numShards {
		n = numShards
	}
	return n
}

func (c *Cache) shardFor(key Key) *shard {
	return c.shards[key.CacheHash%uint64(len(c.shards))]
}

// TryGet looks up pos under canonical symmetry canonical (fixed for the caller's game) and
// inference symmetry sym. See shard.TryGet for the Result semantics.
func (c *Cache) TryGet(pos *board.Position, canonical, sym board.Symmetry) (board.ModelOutput, Result) {
	key := NewKey(pos, canonical)
	return c.shardFor(key).TryGet(pos, canonical, sym)
}

// Merge folds a freshly computed inference into the cache and returns the merged result in
// pos's own query frame. See shard.Merge.
func (c *Cache) Merge(pos *board.Position, canonical, sym board.Symmetry, modelOutput board.ModelOutput) (board.ModelOutput, error) {
	key := NewKey(pos, canonical)
	return c.shardFor(key).Merge(pos, canonical, sym, modelOutput)
}

// Len returns the total number of cached positions across all shards. Not atomic across
// shards: under concurrent mutation it is a snapshot estimate, not an exact instant count.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.len()
	}
	return total
}

// Clear empties every shard. Each shard is cleared under its own lock, not all shards
// atomically together -- a concurrent reader can observe some shards already cleared and
// others not yet, which is acceptable since Clear is an administrative operation, not part
// of the inference hot path.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.clear()
	}
}
