// Package seedtable provides the two lookup-structure backends the
// differencing algorithms share (spec Section 9, "Lookup structures"):
// an open-addressed fixed-size table keyed by fp mod q, and a splay
// tree keyed by the full fingerprint. Both are exposed behind the same
// Table interface so pkg/diff's algorithms never depend on the
// concrete backend.
package seedtable

import "github.com/deltacomp/deltac/pkg/splay"

// Table maps a 64-bit fingerprint to a value of type V. Two backends
// satisfy it: a direct-mapped hash table (NewHashTable) and a splay
// tree (NewSplayTable).
type Table[V any] interface {
	// Find returns the stored value for fp and true, or the zero value
	// and false if absent.
	Find(fp uint64) (V, bool)

	// InsertOrGet returns the existing value for fp if present
	// (first-found / retain-existing policy), otherwise stores and
	// returns value.
	InsertOrGet(fp uint64, value V) V

	// Insert stores value for fp, overwriting any existing entry.
	Insert(fp uint64, value V)
}

// slot is the in-place record layout for a HashTable entry: the full
// fingerprint is kept alongside the value so that a slot collision
// (two distinct fingerprints mapping to the same fp mod q) can be
// detected rather than silently aliased.
type slot[V any] struct {
	fp       uint64
	value    V
	occupied bool
}

// HashTable is an open-addressed, fixed-capacity, single-slot-per-index
// table keyed by fp mod Cap. It never chains: a second fingerprint
// landing on an occupied slot simply does not find the first (this
// matches the "first-found" semantics the One-Pass and Correcting
// algorithms rely on — collisions are expected and tolerated, not an
// error condition).
type HashTable[V any] struct {
	slots []slot[V]
	cap   uint64
}

// NewHashTable returns a HashTable with the given fixed capacity. cap
// must be > 0.
func NewHashTable[V any](cap uint64) *HashTable[V] {
	return &HashTable[V]{slots: make([]slot[V], cap), cap: cap}
}

func (h *HashTable[V]) index(fp uint64) uint64 { return fp % h.cap }

// Find implements Table.
func (h *HashTable[V]) Find(fp uint64) (V, bool) {
	s := &h.slots[h.index(fp)]
	if s.occupied && s.fp == fp {
		return s.value, true
	}
	var zero V
	return zero, false
}

// InsertOrGet implements Table.
func (h *HashTable[V]) InsertOrGet(fp uint64, value V) V {
	s := &h.slots[h.index(fp)]
	if s.occupied && s.fp == fp {
		return s.value
	}
	s.fp = fp
	s.value = value
	s.occupied = true
	return value
}

// Insert implements Table.
func (h *HashTable[V]) Insert(fp uint64, value V) {
	s := &h.slots[h.index(fp)]
	s.fp = fp
	s.value = value
	s.occupied = true
}

// SplayTable adapts a splay.Tree to the Table interface, keyed
// directly on the full fingerprint (no modular reduction, so there is
// no capacity to size and no slot collision ever occurs).
type SplayTable[V any] struct {
	tree *splay.Tree[V]
}

// NewSplayTable returns an empty SplayTable.
func NewSplayTable[V any]() *SplayTable[V] {
	return &SplayTable[V]{tree: splay.New[V]()}
}

// Find implements Table.
func (s *SplayTable[V]) Find(fp uint64) (V, bool) { return s.tree.Find(fp) }

// InsertOrGet implements Table.
func (s *SplayTable[V]) InsertOrGet(fp uint64, value V) V {
	return s.tree.InsertOrGet(fp, value)
}

// Insert implements Table.
func (s *SplayTable[V]) Insert(fp uint64, value V) { s.tree.Insert(fp, value) }

// MultiMap maps a fingerprint to the set of R-offsets whose seed
// produced it (spec 4.E.1's "multi-map from fingerprint to all
// R-offsets"), used only by Greedy. Two backends satisfy it: a chained
// hash table (NewChainedMultiMap) and a splay tree of offset slices
// (NewSplayMultiMap).
type MultiMap interface {
	// Add records that offset's seed fingerprint is fp.
	Add(fp uint64, offset int)

	// Offsets returns every offset previously added under fp, in
	// insertion order, or nil if none.
	Offsets(fp uint64) []int
}

type chainEntry struct {
	fp     uint64
	offset int
	next   *chainEntry
}

// ChainedMultiMap is a classic separate-chaining hash table indexed by
// fp mod nbuckets; unlike HashTable it never loses colliding entries.
type ChainedMultiMap struct {
	buckets []*chainEntry
}

// NewChainedMultiMap returns a ChainedMultiMap with the given bucket count.
func NewChainedMultiMap(nbuckets int) *ChainedMultiMap {
	if nbuckets < 1 {
		nbuckets = 1
	}
	return &ChainedMultiMap{buckets: make([]*chainEntry, nbuckets)}
}

// Add implements MultiMap.
func (m *ChainedMultiMap) Add(fp uint64, offset int) {
	idx := fp % uint64(len(m.buckets))
	m.buckets[idx] = &chainEntry{fp: fp, offset: offset, next: m.buckets[idx]}
}

// Offsets implements MultiMap.
func (m *ChainedMultiMap) Offsets(fp uint64) []int {
	idx := fp % uint64(len(m.buckets))
	var out []int
	for e := m.buckets[idx]; e != nil; e = e.next {
		if e.fp == fp {
			out = append(out, e.offset)
		}
	}
	// Add prepends to the chain, so reverse to restore insertion order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SplayMultiMap is a splay tree keyed on the full fingerprint, each
// node holding the growing slice of offsets seen for that key.
type SplayMultiMap struct {
	tree *splay.Tree[[]int]
}

// NewSplayMultiMap returns an empty SplayMultiMap.
func NewSplayMultiMap() *SplayMultiMap {
	return &SplayMultiMap{tree: splay.New[[]int]()}
}

// Add implements MultiMap.
func (m *SplayMultiMap) Add(fp uint64, offset int) {
	existing := m.tree.InsertOrGet(fp, nil)
	m.tree.Insert(fp, append(existing, offset))
}

// Offsets implements MultiMap.
func (m *SplayMultiMap) Offsets(fp uint64) []int {
	v, _ := m.tree.Find(fp)
	return v
}
