package dataflow

import (
	"github.com/rawblock/coinjoin-engine/internal/disjointset"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
)

// Value is the type-erased interface every node-storage fact implements.
// Each closed-set value type (TxSet, TxOutSet, Mask, Clustering, Index,
// AllTxsOutput — §3) implements Value for a fixed concrete key type K,
// giving the engine uniform storage while callers recover the concrete
// type via a plain Go type assertion at the read site (the "single typed
// downcast" the spec calls for).
type Value interface {
	// Equal reports whether this fact is equivalent to other, used for
	// fixpoint change detection. Implementations type-assert other to
	// their own concrete type; a mismatched type is never equal.
	Equal(other Value) bool
	// Combine folds this fact (the accumulator so far) with next (a later
	// fact of the same concrete type) per the value type's combine law,
	// returning the updated accumulator.
	Combine(next Value) Value
}

// combineFacts folds a non-empty slice of facts of one node's value type
// into the single current value a consumer who has seen all of them would
// observe (§3's "current value ... is the combination law over all facts
// produced so far"). Returns nil for an empty slice; callers substitute
// the value type's empty/default instance.
func combineFacts(facts []Value) Value {
	if len(facts) == 0 {
		return nil
	}
	acc := facts[0]
	for _, f := range facts[1:] {
		acc = acc.Combine(f)
	}
	return acc
}

// ─── TxSet<K> ────────────────────────────────────────────────────────────

// TxSet is the "set of K" value type, combined by union, used for sets of
// transactions. Sets of outputs use TxOutSet below, a distinct Go type of
// identical shape, so a node's declared output type cannot be confused
// between the two at the type-system level.
type TxSet[K comparable] struct {
	Items map[K]struct{}
}

// NewTxSet builds a TxSet from the given elements (may be empty).
func NewTxSet[K comparable](elems ...K) TxSet[K] {
	m := make(map[K]struct{}, len(elems))
	for _, e := range elems {
		m[e] = struct{}{}
	}
	return TxSet[K]{Items: m}
}

func (s TxSet[K]) Has(k K) bool {
	_, ok := s.Items[k]
	return ok
}

func (s TxSet[K]) Slice() []K {
	out := make([]K, 0, len(s.Items))
	for k := range s.Items {
		out = append(out, k)
	}
	return out
}

func (s TxSet[K]) Equal(other Value) bool {
	o, ok := other.(TxSet[K])
	if !ok || len(o.Items) != len(s.Items) {
		return false
	}
	for k := range s.Items {
		if _, ok := o.Items[k]; !ok {
			return false
		}
	}
	return true
}

func (s TxSet[K]) Combine(next Value) Value {
	o, ok := next.(TxSet[K])
	if !ok {
		return s
	}
	out := make(map[K]struct{}, len(s.Items)+len(o.Items))
	for k := range s.Items {
		out[k] = struct{}{}
	}
	for k := range o.Items {
		out[k] = struct{}{}
	}
	return TxSet[K]{Items: out}
}

// ─── TxOutSet<K> ─────────────────────────────────────────────────────────

// TxOutSet is the output-ID analogue of TxSet, kept as a distinct Go type
// so an Expr[TxOutSet[OutId]] and an Expr[TxSet[OutId]] (which would never
// legitimately coexist, but the spec enumerates them as separate value
// types) are not interchangeable.
type TxOutSet[K comparable] struct {
	Items map[K]struct{}
}

func NewTxOutSet[K comparable](elems ...K) TxOutSet[K] {
	m := make(map[K]struct{}, len(elems))
	for _, e := range elems {
		m[e] = struct{}{}
	}
	return TxOutSet[K]{Items: m}
}

func (s TxOutSet[K]) Has(k K) bool {
	_, ok := s.Items[k]
	return ok
}

func (s TxOutSet[K]) Slice() []K {
	out := make([]K, 0, len(s.Items))
	for k := range s.Items {
		out = append(out, k)
	}
	return out
}

func (s TxOutSet[K]) Equal(other Value) bool {
	o, ok := other.(TxOutSet[K])
	if !ok || len(o.Items) != len(s.Items) {
		return false
	}
	for k := range s.Items {
		if _, ok := o.Items[k]; !ok {
			return false
		}
	}
	return true
}

func (s TxOutSet[K]) Combine(next Value) Value {
	o, ok := next.(TxOutSet[K])
	if !ok {
		return s
	}
	out := make(map[K]struct{}, len(s.Items)+len(o.Items))
	for k := range s.Items {
		out[k] = struct{}{}
	}
	for k := range o.Items {
		out[k] = struct{}{}
	}
	return TxOutSet[K]{Items: out}
}

// ─── Mask<K> ─────────────────────────────────────────────────────────────

// Mask is a partial function K -> bool, combined key-wise last-write-wins:
// keys present in a later fact overwrite the earlier value.
type Mask[K comparable] struct {
	Items map[K]bool
}

func NewMask[K comparable]() Mask[K] {
	return Mask[K]{Items: make(map[K]bool)}
}

// Get returns mask[k], defaulting to false for a missing key.
func (m Mask[K]) Get(k K) bool {
	return m.Items[k]
}

func (m Mask[K]) Equal(other Value) bool {
	o, ok := other.(Mask[K])
	if !ok || len(o.Items) != len(m.Items) {
		return false
	}
	for k, v := range m.Items {
		if ov, ok := o.Items[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (m Mask[K]) Combine(next Value) Value {
	o, ok := next.(Mask[K])
	if !ok {
		return m
	}
	out := make(map[K]bool, len(m.Items)+len(o.Items))
	for k, v := range m.Items {
		out[k] = v
	}
	for k, v := range o.Items {
		out[k] = v
	}
	return Mask[K]{Items: out}
}

// ─── Clustering<K> ───────────────────────────────────────────────────────

// Clustering wraps a disjoint-set viewed as a partition-lattice value,
// combined by partition join (§4.1).
type Clustering[K comparable] struct {
	DS disjointset.DisjointSet[K]
}

func NewClustering[K comparable]() Clustering[K] {
	return Clustering[K]{DS: disjointset.New[K]()}
}

func (c Clustering[K]) Equal(other Value) bool {
	o, ok := other.(Clustering[K])
	if !ok {
		return false
	}
	return c.DS.Equal(o.DS)
}

func (c Clustering[K]) Combine(next Value) Value {
	o, ok := next.(Clustering[K])
	if !ok {
		return c
	}
	return Clustering[K]{DS: c.DS.Join(o.DS)}
}

// ─── Index<I> ────────────────────────────────────────────────────────────

// IndexValue wraps an opaque graph-index handle, combined by keep-first
// (the index is populated once by the source node; later facts, if any,
// never supersede it).
type IndexValue struct {
	Index graphsrc.GraphIndex
}

func (v IndexValue) Equal(other Value) bool {
	o, ok := other.(IndexValue)
	return ok && o.Index == v.Index
}

func (v IndexValue) Combine(next Value) Value {
	return v
}

// ─── AllTxsOutput<I> ─────────────────────────────────────────────────────

// AllTxsOutput is the source node's output: the set of every transaction
// ID in the corpus paired with the populated index handle. Combined by
// keep-first, same rationale as IndexValue.
type AllTxsOutput[K comparable] struct {
	Txs   TxSet[K]
	Index IndexValue
}

func (v AllTxsOutput[K]) Equal(other Value) bool {
	o, ok := other.(AllTxsOutput[K])
	if !ok {
		return false
	}
	return v.Txs.Equal(o.Txs) && v.Index.Equal(o.Index)
}

func (v AllTxsOutput[K]) Combine(next Value) Value {
	return v
}
