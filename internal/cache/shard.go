package cache

import (
	"container/list"
	"sync"

	"github.com/gozero/infercore/internal/board"
	"github.com/gozero/infercore/internal/features"
)

// Result classifies a TryGet lookup (spec §4.6 "Lookup").
type Result int

const (
	// Miss means no entry exists for this position at all: the caller must run inference.
	Miss Result = iota
	// SymmetryMiss means an entry exists but not yet under the requested inference symmetry:
	// the caller must still run inference, but the result will merge into the existing entry.
	SymmetryMiss
	// Hit means the requested inference symmetry is already merged in; no inference needed.
	Hit
)

// shard is one lock-striped LRU partition of the cache.
type shard struct {
	mu       sync.Mutex
	capacity int
	items    map[Key]*element
	order    *list.List // front = most recently used
}

func newShard(capacity int) *shard {
	return &shard{
		capacity: capacity,
		items:    make(map[Key]*element),
		order:    list.New(),
	}
}

// TryGet looks up pos under canonical symmetry c (fixed for this game) and the inference
// symmetry sym the caller intends to use. A Hit's returned ModelOutput is already expressed
// in the caller's own (query) coordinate frame -- the same frame pos itself is in --
// regardless of which symmetry was used to populate the entry.
func (s *shard) TryGet(pos *board.Position, c, sym board.Symmetry) (board.ModelOutput, Result) {
	key := NewKey(pos, c)
	t := board.Compose(sym, board.Inverse(c))

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, found := s.items[key]
	if !found {
		return board.ModelOutput{}, Miss
	}
	s.order.MoveToFront(elem.listElem)
	if !elem.hasSymmetry(t) {
		return board.ModelOutput{}, SymmetryMiss
	}
	return s.toQueryFrame(elem, c), Hit
}

// Merge folds a freshly computed inference -- modelOutput, in the model's native coordinate
// frame for inference symmetry sym -- into the entry for pos under canonical symmetry c,
// returning the merged result already transformed back into pos's own query frame (spec
// §4.6 "Merge").
func (s *shard) Merge(pos *board.Position, c, sym board.Symmetry, modelOutput board.ModelOutput) (board.ModelOutput, error) {
	key := NewKey(pos, c)
	t := board.Compose(sym, board.Inverse(c))

	// t = s ∘ c⁻¹ is exactly the transform that turns the model's raw, native-frame output
	// into the canonical frame this entry is keyed on (spec §4.6 "Merge").
	canonicalPolicy, err := features.DecodePolicy(modelOutput.Policy, t)
	if err != nil {
		return board.ModelOutput{}, err
	}
	contribution := board.ModelOutput{Policy: canonicalPolicy, Value: modelOutput.Value}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, found := s.items[key]
	if found {
		s.order.MoveToFront(elem.listElem)
		if elem.hasSymmetry(t) {
			return s.toQueryFrame(elem, c), nil
		}
		elem.merge(t, contribution)
		return s.toQueryFrame(elem, c), nil
	}

	elem = newElement(key)
	elem.merge(t, contribution)
	elem.listElem = s.order.PushFront(elem)
	s.items[key] = elem
	s.evictIfNeededLocked()
	return s.toQueryFrame(elem, c), nil
}

// toQueryFrame transforms elem's canonical-frame output back into the query frame pos was
// expressed in (i.e. applies c, undoing the canonicalization NewKey used when the entry was
// created). Must be called with s.mu held.
func (s *shard) toQueryFrame(elem *element, c board.Symmetry) board.ModelOutput {
	queryPolicy, err := features.DecodePolicy(elem.canonicalPolicy, c)
	if err != nil {
		// canonicalPolicy is always board.PolicySize long by construction; DecodePolicy can
		// only fail on a length mismatch, which would indicate a cache-internal bug.
		panic(err)
	}
	return board.ModelOutput{Policy: queryPolicy, Value: elem.canonicalValue}
}

func (s *shard) evictIfNeededLocked() {
	for len(s.items) > s.capacity {
		back := s.order.Back()
		if back == nil {
			return
		}
		evicted := back.Value.(*element)
		s.order.Remove(back)
		delete(s.items, evicted.key)
	}
}

func (s *shard) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *shard) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[Key]*element)
	s.order = list.New()
}
