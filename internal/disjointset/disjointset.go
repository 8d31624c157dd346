// Package disjointset implements a concurrency-safe union-find with path
// compression, union-by-rank, and a partition-lattice join (§4.1 of the
// engine spec). It is the primitive the dataflow engine's Clustering value
// type is built on.
package disjointset

import (
	"fmt"
	"sort"
	"sync"
)

// state is the interior a DisjointSet value points to. Copying a
// DisjointSet by value copies the pointer, not the mutex or maps — multiple
// handles then alias the same underlying state, matching the "shared
// interior" lifecycle the spec describes: cheap clones, concurrent find
// from any handle serialized by the same lock.
type state[K comparable] struct {
	mu     sync.RWMutex
	parent map[K]K
	rank   map[K]int
}

// DisjointSet is a union-find over elements of type K. The zero value is
// not usable; construct with New.
type DisjointSet[K comparable] struct {
	s *state[K]
}

// New creates an empty disjoint set.
func New[K comparable]() DisjointSet[K] {
	return DisjointSet[K]{s: &state[K]{
		parent: make(map[K]K),
		rank:   make(map[K]int),
	}}
}

// Find returns the root representative of the set containing x, applying
// full path compression. x is added as a fresh singleton on first touch
// (make-set on demand, per the spec's edge policy). Requires exclusive
// access since it mutates the parent map.
func (d DisjointSet[K]) Find(x K) K {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.findLocked(x)
}

// findLocked assumes d.s.mu is already held for writing.
func (d DisjointSet[K]) findLocked(x K) K {
	parent, ok := d.s.parent[x]
	if !ok {
		d.s.parent[x] = x
		d.s.rank[x] = 0
		return x
	}
	if parent == x {
		return x
	}
	root := d.findLocked(parent)
	d.s.parent[x] = root
	return root
}

// ParentOf returns x's immediate parent pointer without adding x if it has
// never been touched (per the spec's edge policy: unknown x returns x
// without being inserted). Uses only a shared (read) lock — no path
// compression, no mutation.
func (d DisjointSet[K]) ParentOf(x K) K {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	if p, ok := d.s.parent[x]; ok {
		return p
	}
	return x
}

// Union merges the sets containing x and y. Returns true iff a merge
// actually happened (the two were previously in different sets). Attaches
// the lower-ranked root under the higher-ranked root; on a tie, y's root is
// attached under x's root and x's root's rank increases by one. Never
// rebalances or decreases a rank.
func (d DisjointSet[K]) Union(x, y K) bool {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	rootX := d.findLocked(x)
	rootY := d.findLocked(y)
	if rootX == rootY {
		return false
	}

	rankX := d.s.rank[rootX]
	rankY := d.s.rank[rootY]

	switch {
	case rankX < rankY:
		d.s.parent[rootX] = rootY
	case rankX > rankY:
		d.s.parent[rootY] = rootX
	default:
		d.s.parent[rootY] = rootX
		d.s.rank[rootX] = rankX + 1
	}
	return true
}

// IterSet returns every element currently known to share x's root,
// including x itself. Elements never touched before are not implicitly
// added by this call beyond x.
func (d DisjointSet[K]) IterSet(x K) []K {
	root := d.Find(x)

	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []K
	for k := range d.s.parent {
		if d.findLocked(k) == root {
			out = append(out, k)
		}
	}
	return out
}

// IterParentIDs returns every element ever touched (the domain of the
// parent map), in no particular order.
func (d DisjointSet[K]) IterParentIDs() []K {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	out := make([]K, 0, len(d.s.parent))
	for k := range d.s.parent {
		out = append(out, k)
	}
	return out
}

// snapshot copies the parent map for lock-free heavy processing elsewhere
// (used by Join). Rank is irrelevant to the snapshot's purpose.
func (d DisjointSet[K]) snapshot() map[K]K {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	out := make(map[K]K, len(d.s.parent))
	for k, v := range d.s.parent {
		out[k] = v
	}
	return out
}

// localFind resolves x's root within a plain (unlocked, non-shared) parent
// map, compressing paths in that local copy only. Used by Join to resolve
// roots in each side's snapshot without touching the live structures.
func localFind[K comparable](m map[K]K, x K) K {
	parent, ok := m[x]
	if !ok {
		m[x] = x
		return x
	}
	if parent == x {
		return x
	}
	root := localFind(m, parent)
	m[x] = root
	return root
}

// IsEmpty reports whether the disjoint set has never had an element
// touched.
func (d DisjointSet[K]) IsEmpty() bool {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return len(d.s.parent) == 0
}

// Clone returns a structurally independent copy: same partition, distinct
// interior, so mutating the clone never affects the original. Used
// internally by Join's empty-side short-circuit; exported because pipeline
// nodes that hand out a disjoint set they intend to keep mutating need the
// same independence guarantee.
func (d DisjointSet[K]) Clone() DisjointSet[K] {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	out := New[K]()
	for k, v := range d.s.parent {
		out.s.parent[k] = v
	}
	for k, v := range d.s.rank {
		out.s.rank[k] = v
	}
	return out
}

// Join computes the coarsest partition refined by both d and other — the
// least upper bound in the partition lattice, equivalently the equivalence
// closure of the union of their relations.
//
// Algorithm (§4.1):
//  1. Snapshot both sides' parent maps without holding locks during the
//     heavy work below.
//  2. Short-circuit: an empty side means the other side's partition is
//     already the coarsest common refinement.
//  3. Universe = every element mentioned anywhere in either snapshot
//     (as a key or as a value — a root mentioned only as a value is still
//     part of the universe).
//  4. For each element x in the universe, union x with find_a(x) and with
//     find_b(x) in the result using local path-compressing finds over the
//     snapshots. If x ~ y under a, both resolve to the same find_a
//     representative and therefore both end up unioned to it — and hence
//     to each other — in the result; symmetrically for b. The result is
//     exactly the equivalence closure of a ∪ b.
func (d DisjointSet[K]) Join(other DisjointSet[K]) DisjointSet[K] {
	snapA := d.snapshot()
	snapB := other.snapshot()

	if len(snapA) == 0 {
		return other.Clone()
	}
	if len(snapB) == 0 {
		return d.Clone()
	}

	universe := make(map[K]struct{}, len(snapA)+len(snapB))
	for k, v := range snapA {
		universe[k] = struct{}{}
		universe[v] = struct{}{}
	}
	for k, v := range snapB {
		universe[k] = struct{}{}
		universe[v] = struct{}{}
	}

	// Union order determines the resulting tree shape (rank ties break
	// toward whichever root is attached second), so a map-order walk here
	// would make two Joins of the same two partitions produce different
	// shapes. Sort the universe by its string form first — any total order
	// would do, this one needs no extra constraint on K — so the same pair
	// of inputs always produces the same tree.
	ordered := make([]K, 0, len(universe))
	for x := range universe {
		ordered = append(ordered, x)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return fmt.Sprint(ordered[i]) < fmt.Sprint(ordered[j])
	})

	result := New[K]()
	for _, x := range ordered {
		rootA := localFind(snapA, x)
		rootB := localFind(snapB, x)
		result.Union(x, rootA)
		result.Union(x, rootB)
	}
	return result
}

// Equal reports whether d and other induce the same partition: every
// element either side has ever touched maps to the same group on both
// sides. This is partition-equivalence, not tree-shape equality — two
// disjoint sets reaching the same grouping by a different Union call order
// (e.g. a node that unions over a Go map's randomized iteration, or two
// Joins fed the same pair of partitions in different internal orders) are
// Equal. The engine's fixpoint loop relies on this: AppendIfChanged calls
// Equal to decide whether a clustering node "progressed," and a
// shape-sensitive comparison would register spurious progress forever on
// any node whose Union order isn't pinned, defeating §4.4's quiescence
// check.
func (d DisjointSet[K]) Equal(other DisjointSet[K]) bool {
	if d.s == other.s {
		return true
	}

	d.s.mu.RLock()
	domain := make(map[K]struct{}, len(d.s.parent)+len(other.s.parent))
	for k := range d.s.parent {
		domain[k] = struct{}{}
	}
	d.s.mu.RUnlock()

	other.s.mu.RLock()
	for k := range other.s.parent {
		domain[k] = struct{}{}
	}
	other.s.mu.RUnlock()

	rootAtoB := make(map[K]K, len(domain))
	rootBtoA := make(map[K]K, len(domain))
	for x := range domain {
		rootA := d.Find(x)
		rootB := other.Find(x)

		if mapped, ok := rootAtoB[rootA]; ok {
			if mapped != rootB {
				return false
			}
		} else {
			rootAtoB[rootA] = rootB
		}

		if mapped, ok := rootBtoA[rootB]; ok {
			if mapped != rootA {
				return false
			}
		} else {
			rootBtoA[rootB] = rootA
		}
	}
	return true
}
