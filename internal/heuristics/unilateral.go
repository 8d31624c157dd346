package heuristics

import (
	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// isUnilateralNode flags a transaction as unilateral (single controlling
// entity) by default — the optimistic assumption CIOH itself relies on —
// unless it is CoinJoin-shaped, or the global clustering already shows
// two of its input prevouts sitting in two *different* non-trivial
// partition blocks (each already merged with something else), which is
// positive evidence the inputs don't in fact share one owner. This node
// and the global clustering it reads close a cycle (§4.6): the global
// clustering is built in part from transactions this node calls
// unilateral, and this node's conflict check depends on how much of the
// global clustering has converged so far — empty at the start of a run
// and growing as MultiInputClustering merges inputs over successive
// fixpoint iterations. clustering is the Expr side of a Placeholder the
// caller unifies once the global clustering expression exists.
type isUnilateralNode struct {
	txs        dataflow.Expr[dataflow.TxSet[ids.TxID]]
	coinJoin   dataflow.Expr[dataflow.Mask[ids.TxID]]
	clustering dataflow.Expr[dataflow.Clustering[ids.OutID]]
}

// NewIsUnilateral registers the unilateral-input classifier. Pass the
// Expr of a Placeholder[Clustering[ids.OutID]] as clustering and Unify it
// with the global clustering expression once built.
func NewIsUnilateral(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]],
	clustering dataflow.Expr[dataflow.Clustering[ids.OutID]],
) dataflow.Expr[dataflow.Mask[ids.TxID]] {
	return dataflow.NewExpr[dataflow.Mask[ids.TxID]](ctx, &isUnilateralNode{txs: txs, coinJoin: coinJoin, clustering: clustering})
}

func (n *isUnilateralNode) Name() string { return "IsUnilateral" }
func (n *isUnilateralNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID(), n.coinJoin.ID(), n.clustering.ID()}
}

func (n *isUnilateralNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	cj := dataflow.GetOrDefault(ctx, n.coinJoin, dataflow.NewMask[ids.TxID]())
	clustering := dataflow.GetOrDefault(ctx, n.clustering, dataflow.NewClustering[ids.OutID]())
	out := dataflow.NewMask[ids.TxID]()

	forEachTx(ctx.Index(), set, func(tx graphsrc.Tx) {
		if cj.Get(tx.ID()) {
			out.Items[tx.ID()] = false
			return
		}
		out.Items[tx.ID()] = !hasConflictingPrevouts(&clustering, tx)
	})
	return out
}

// hasConflictingPrevouts reports whether two of tx's resolvable input
// prevouts already sit in two different non-trivial partition blocks
// (each already merged with some other output by a prior fixpoint pass).
// A block of size one means "not yet known to belong to anyone else" —
// not evidence of separate ownership — so only a clash between two
// already-established blocks counts. This is the only direction a
// disjoint set can give positive evidence of non-membership: it can say
// two things are the same, never that they are different, so the single
// case it can rule out is "these two inputs are each already proven to
// belong to someone else, and to different someones."
func hasConflictingPrevouts(clustering *dataflow.Clustering[ids.OutID], tx graphsrc.Tx) bool {
	var establishedRoot ids.OutID
	haveEstablished := false
	for _, in := range tx.Inputs() {
		prevOut, ok := in.PrevTxOutID()
		if !ok {
			continue
		}
		root := clustering.DS.Find(prevOut)
		if len(clustering.DS.IterSet(root)) <= 1 {
			continue
		}
		if !haveEstablished {
			establishedRoot = root
			haveEstablished = true
			continue
		}
		if root != establishedRoot {
			return true
		}
	}
	return false
}

// BuildGlobalClustering wires the full cyclic clustering pipeline: a
// placeholder standing in for the global clustering, an isUnilateral
// classifier reading it, a multi-input clustering gated on both
// isCoinJoin and isUnilateral, a same-address clustering, a change
// clustering built from changeMask, and the join of all three as the
// global clustering the placeholder is finally
// unified with. Returns the global clustering Expr and the isUnilateral
// mask Expr for callers that need either downstream.
func BuildGlobalClustering(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	outs dataflow.Expr[dataflow.TxOutSet[ids.OutID]],
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]],
	changeMask dataflow.Expr[dataflow.Mask[ids.OutID]],
) (dataflow.Expr[dataflow.Clustering[ids.OutID]], dataflow.Expr[dataflow.Mask[ids.TxID]]) {
	placeholder := dataflow.NewPlaceholder[dataflow.Clustering[ids.OutID]](ctx)

	isUnilateral := NewIsUnilateral(ctx, txs, coinJoin, placeholder.Expr())
	notUnilateral := dataflow.NewNegate(ctx, isUnilateral)
	skipMultiInput := dataflow.NewOr(ctx, coinJoin, notUnilateral)

	multiInput := NewMultiInputClustering(ctx, txs, skipMultiInput)
	sameAddress := NewSameAddressClustering(ctx, outs)
	changeClustering := NewChangeClustering(ctx, txs, changeMask)

	step := dataflow.NewClusteringJoin(ctx, multiInput, sameAddress)
	global := dataflow.NewClusteringJoin(ctx, step, changeClustering)

	placeholder.Unify(global)

	return global, isUnilateral
}
