package dataflow

import (
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// ─── source ──────────────────────────────────────────────────────────────

// AllTxsSourceNode drains the corpus exactly once, populates the graph
// index with every transaction it sees, and emits the corpus-wide
// transaction-ID set paired with the now-populated index handle (§6).
type AllTxsSourceNode struct{}

func (AllTxsSourceNode) Name() string { return "AllTxs" }

func (AllTxsSourceNode) EvalSource(ctx *SourceEvalContext) Value {
	txs, _ := ctx.Take() // ok=false (already consumed) just yields an empty corpus
	builder := ctx.Builder()

	txIDs := make([]ids.TxID, 0, len(txs))
	for _, tx := range txs {
		builder.AddTx(tx)
		txIDs = append(txIDs, tx.ID())
	}

	return AllTxsOutput[ids.TxID]{
		Txs:   NewTxSet(txIDs...),
		Index: IndexValue{Index: builder},
	}
}

// NewAllTxsSource registers the single corpus source node.
func NewAllTxsSource(ctx *Context) Expr[AllTxsOutput[ids.TxID]] {
	return NewSourceExpr[AllTxsOutput[ids.TxID]](ctx, AllTxsSourceNode{})
}

// TxsOf projects the transaction-ID set out of a source node's combined
// output, for callers that only need the set and not the index handle.
type txsOfNode struct {
	src Expr[AllTxsOutput[ids.TxID]]
}

func (n *txsOfNode) Name() string            { return "TxsOf" }
func (n *txsOfNode) Dependencies() []NodeID  { return []NodeID{n.src.ID()} }
func (n *txsOfNode) Eval(ctx *EvalContext) Value {
	out := GetOrDefault(ctx, n.src, AllTxsOutput[ids.TxID]{Txs: NewTxSet[ids.TxID]()})
	return out.Txs
}

// NewTxsOf registers a node projecting the transaction set out of src.
func NewTxsOf(ctx *Context, src Expr[AllTxsOutput[ids.TxID]]) Expr[TxSet[ids.TxID]] {
	return NewExpr[TxSet[ids.TxID]](ctx, &txsOfNode{src: src})
}

// ─── projections ─────────────────────────────────────────────────────────

// outputsNode maps a transaction set to the set of every output those
// transactions create.
type outputsNode struct {
	txs Expr[TxSet[ids.TxID]]
}

func (n *outputsNode) Name() string           { return "Outputs" }
func (n *outputsNode) Dependencies() []NodeID { return []NodeID{n.txs.ID()} }

func (n *outputsNode) Eval(ctx *EvalContext) Value {
	set := GetOrDefault(ctx, n.txs, NewTxSet[ids.TxID]())
	out := NewTxOutSet[ids.OutID]()
	idx := ctx.Index()
	for txID := range set.Items {
		tx, ok := idx.Tx(txID)
		if !ok {
			continue
		}
		for _, o := range tx.Outputs() {
			out.Items[o.ID()] = struct{}{}
		}
	}
	return out
}

// NewOutputs registers a projection from a transaction set to its outputs.
func NewOutputs(ctx *Context, txs Expr[TxSet[ids.TxID]]) Expr[TxOutSet[ids.OutID]] {
	return NewExpr[TxOutSet[ids.OutID]](ctx, &outputsNode{txs: txs})
}

// txsOfOutputsNode maps an output set to the set of transactions that
// created those outputs.
type txsOfOutputsNode struct {
	outs Expr[TxOutSet[ids.OutID]]
}

func (n *txsOfOutputsNode) Name() string           { return "TxsOfOutputs" }
func (n *txsOfOutputsNode) Dependencies() []NodeID { return []NodeID{n.outs.ID()} }

func (n *txsOfOutputsNode) Eval(ctx *EvalContext) Value {
	set := GetOrDefault(ctx, n.outs, NewTxOutSet[ids.OutID]())
	out := NewTxSet[ids.TxID]()
	idx := ctx.Index()
	for outID := range set.Items {
		txID, ok := idx.TxIDForOut(outID)
		if !ok {
			continue
		}
		out.Items[txID] = struct{}{}
	}
	return out
}

// NewTxsOfOutputs registers a projection from an output set to its owning
// transactions.
func NewTxsOfOutputs(ctx *Context, outs Expr[TxOutSet[ids.OutID]]) Expr[TxSet[ids.TxID]] {
	return NewExpr[TxSet[ids.TxID]](ctx, &txsOfOutputsNode{outs: outs})
}

// ─── set × mask ──────────────────────────────────────────────────────────

// filterWithMaskNode keeps set elements whose mask entry is true.
type filterWithMaskNode[K comparable] struct {
	set  Expr[TxSet[K]]
	mask Expr[Mask[K]]
}

func (n *filterWithMaskNode[K]) Name() string { return "FilterWithMask" }
func (n *filterWithMaskNode[K]) Dependencies() []NodeID {
	return []NodeID{n.set.ID(), n.mask.ID()}
}

func (n *filterWithMaskNode[K]) Eval(ctx *EvalContext) Value {
	s := GetOrDefault(ctx, n.set, NewTxSet[K]())
	m := GetOrDefault(ctx, n.mask, NewMask[K]())
	out := NewTxSet[K]()
	for k := range s.Items {
		if m.Get(k) {
			out.Items[k] = struct{}{}
		}
	}
	return out
}

// NewFilterWithMask registers a node keeping set elements masked true.
func NewFilterWithMask[K comparable](ctx *Context, set Expr[TxSet[K]], mask Expr[Mask[K]]) Expr[TxSet[K]] {
	return NewExpr[TxSet[K]](ctx, &filterWithMaskNode[K]{set: set, mask: mask})
}

// filterExcludeNode keeps set elements whose mask entry is false (or
// absent, since Mask.Get defaults missing keys to false).
type filterExcludeNode[K comparable] struct {
	set  Expr[TxSet[K]]
	mask Expr[Mask[K]]
}

func (n *filterExcludeNode[K]) Name() string { return "FilterExclude" }
func (n *filterExcludeNode[K]) Dependencies() []NodeID {
	return []NodeID{n.set.ID(), n.mask.ID()}
}

func (n *filterExcludeNode[K]) Eval(ctx *EvalContext) Value {
	s := GetOrDefault(ctx, n.set, NewTxSet[K]())
	m := GetOrDefault(ctx, n.mask, NewMask[K]())
	out := NewTxSet[K]()
	for k := range s.Items {
		if !m.Get(k) {
			out.Items[k] = struct{}{}
		}
	}
	return out
}

// NewFilterExclude registers a node keeping set elements masked false.
func NewFilterExclude[K comparable](ctx *Context, set Expr[TxSet[K]], mask Expr[Mask[K]]) Expr[TxSet[K]] {
	return NewExpr[TxSet[K]](ctx, &filterExcludeNode[K]{set: set, mask: mask})
}

// ─── mask algebra ────────────────────────────────────────────────────────

// negateMaskNode flips every entry a mask actually holds; keys the source
// mask never mentions stay absent (and so still read false via Get).
type negateMaskNode[K comparable] struct {
	src Expr[Mask[K]]
}

func (n *negateMaskNode[K]) Name() string           { return "Negate" }
func (n *negateMaskNode[K]) Dependencies() []NodeID { return []NodeID{n.src.ID()} }

func (n *negateMaskNode[K]) Eval(ctx *EvalContext) Value {
	m := GetOrDefault(ctx, n.src, NewMask[K]())
	out := NewMask[K]()
	for k, v := range m.Items {
		out.Items[k] = !v
	}
	return out
}

// NewNegate registers a node negating every entry of src.
func NewNegate[K comparable](ctx *Context, src Expr[Mask[K]]) Expr[Mask[K]] {
	return NewExpr[Mask[K]](ctx, &negateMaskNode[K]{src: src})
}

// andMasksNode computes the union of both masks' keys, each valued by the
// logical AND of the two masks read at that key (a missing key reads
// false on either side, per Mask.Get).
type andMasksNode[K comparable] struct {
	a, b Expr[Mask[K]]
}

func (n *andMasksNode[K]) Name() string           { return "And" }
func (n *andMasksNode[K]) Dependencies() []NodeID { return []NodeID{n.a.ID(), n.b.ID()} }

func (n *andMasksNode[K]) Eval(ctx *EvalContext) Value {
	ma := GetOrDefault(ctx, n.a, NewMask[K]())
	mb := GetOrDefault(ctx, n.b, NewMask[K]())
	out := NewMask[K]()
	for k := range ma.Items {
		out.Items[k] = ma.Get(k) && mb.Get(k)
	}
	for k := range mb.Items {
		if _, seen := out.Items[k]; !seen {
			out.Items[k] = ma.Get(k) && mb.Get(k)
		}
	}
	return out
}

// NewAnd registers a node ANDing a and b key-wise over the union of their
// keys.
func NewAnd[K comparable](ctx *Context, a, b Expr[Mask[K]]) Expr[Mask[K]] {
	return NewExpr[Mask[K]](ctx, &andMasksNode[K]{a: a, b: b})
}

// orMasksNode computes the union of both masks' keys, each valued by the
// logical OR of the two masks read at that key.
type orMasksNode[K comparable] struct {
	a, b Expr[Mask[K]]
}

func (n *orMasksNode[K]) Name() string           { return "Or" }
func (n *orMasksNode[K]) Dependencies() []NodeID { return []NodeID{n.a.ID(), n.b.ID()} }

func (n *orMasksNode[K]) Eval(ctx *EvalContext) Value {
	ma := GetOrDefault(ctx, n.a, NewMask[K]())
	mb := GetOrDefault(ctx, n.b, NewMask[K]())
	out := NewMask[K]()
	for k := range ma.Items {
		out.Items[k] = ma.Get(k) || mb.Get(k)
	}
	for k := range mb.Items {
		if _, seen := out.Items[k]; !seen {
			out.Items[k] = ma.Get(k) || mb.Get(k)
		}
	}
	return out
}

// NewOr registers a node ORing a and b key-wise over the union of their
// keys.
func NewOr[K comparable](ctx *Context, a, b Expr[Mask[K]]) Expr[Mask[K]] {
	return NewExpr[Mask[K]](ctx, &orMasksNode[K]{a: a, b: b})
}

// ─── clustering ──────────────────────────────────────────────────────────

// clusteringJoinNode explicitly joins two clustering inputs into their
// coarsest common refinement, for pipelines that compute two partial
// clusterings from different heuristics and need them unified as one
// expression rather than relying solely on per-node fact combination.
type clusteringJoinNode[K comparable] struct {
	a, b Expr[Clustering[K]]
}

func (n *clusteringJoinNode[K]) Name() string           { return "ClusteringJoin" }
func (n *clusteringJoinNode[K]) Dependencies() []NodeID { return []NodeID{n.a.ID(), n.b.ID()} }

func (n *clusteringJoinNode[K]) Eval(ctx *EvalContext) Value {
	ca := GetOrDefault(ctx, n.a, NewClustering[K]())
	cb := GetOrDefault(ctx, n.b, NewClustering[K]())
	return Clustering[K]{DS: ca.DS.Join(cb.DS)}
}

// NewClusteringJoin registers a node joining a and b's partitions.
func NewClusteringJoin[K comparable](ctx *Context, a, b Expr[Clustering[K]]) Expr[Clustering[K]] {
	return NewExpr[Clustering[K]](ctx, &clusteringJoinNode[K]{a: a, b: b})
}
