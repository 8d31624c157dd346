package heuristics

import (
	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// ─── multi-input clustering (common input ownership) ──────────────────────

// multiInputClusteringNode unions every resolvable input prevout of a
// non-CoinJoin transaction into one cluster — the classic assumption that
// whoever can sign for all of a transaction's inputs controls them all
// (grounded on cluster_engine.go's weighted union-find, generalized from
// addresses to output IDs).
type multiInputClusteringNode struct {
	txs      dataflow.Expr[dataflow.TxSet[ids.TxID]]
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]]
}

// NewMultiInputClustering registers a CIOH clustering node. coinJoin
// marks transactions this heuristic must not apply to (CoinJoin inputs
// are deliberately not co-owned).
func NewMultiInputClustering(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]],
) dataflow.Expr[dataflow.Clustering[ids.OutID]] {
	return dataflow.NewExpr[dataflow.Clustering[ids.OutID]](ctx, &multiInputClusteringNode{txs: txs, coinJoin: coinJoin})
}

func (n *multiInputClusteringNode) Name() string { return "MultiInputClustering" }
func (n *multiInputClusteringNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID(), n.coinJoin.ID()}
}

func (n *multiInputClusteringNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	cj := dataflow.GetOrDefault(ctx, n.coinJoin, dataflow.NewMask[ids.TxID]())
	out := dataflow.NewClustering[ids.OutID]()

	forEachTx(ctx.Index(), set, func(tx graphsrc.Tx) {
		if cj.Get(tx.ID()) {
			return
		}
		var first ids.OutID
		have := false
		for _, in := range tx.Inputs() {
			prevOut, ok := in.PrevTxOutID()
			if !ok {
				continue
			}
			if !have {
				first = prevOut
				out.DS.Find(first)
				have = true
				continue
			}
			out.DS.Union(first, prevOut)
		}
	})
	return out
}

// ─── same-address clustering ────────────────────────────────────────────

// sameAddressClusteringNode unions every output sharing a script-pubkey
// hash into one cluster — conservative address reuse, the oldest
// clustering heuristic in the catalog.
type sameAddressClusteringNode struct {
	outs dataflow.Expr[dataflow.TxOutSet[ids.OutID]]
}

// NewSameAddressClustering registers a same-script clustering node over
// outs.
func NewSameAddressClustering(ctx *dataflow.Context, outs dataflow.Expr[dataflow.TxOutSet[ids.OutID]]) dataflow.Expr[dataflow.Clustering[ids.OutID]] {
	return dataflow.NewExpr[dataflow.Clustering[ids.OutID]](ctx, &sameAddressClusteringNode{outs: outs})
}

func (n *sameAddressClusteringNode) Name() string { return "SameAddressClustering" }
func (n *sameAddressClusteringNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.outs.ID()}
}

func (n *sameAddressClusteringNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.outs, dataflow.NewTxOutSet[ids.OutID]())
	out := dataflow.NewClustering[ids.OutID]()
	idx := ctx.Index()

	byScript := make(map[graphsrc.ScriptHash]ids.OutID)
	for outID := range set.Items {
		txID, ok := idx.TxIDForOut(outID)
		if !ok {
			continue
		}
		tx, ok := idx.Tx(txID)
		if !ok {
			continue
		}
		var script graphsrc.ScriptHash
		found := false
		for _, o := range tx.Outputs() {
			if o.ID() == outID {
				script = o.ScriptPubKeyHash()
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if first, seen := byScript[script]; seen {
			out.DS.Union(first, outID)
		} else {
			byScript[script] = outID
			out.DS.Find(outID)
		}
	}
	return out
}

// ─── change clustering ───────────────────────────────────────────────────

// changeClusteringNode links each transaction's change output (per
// changeMask) to that transaction's first resolvable input prevout —
// the change output belongs to the same entity as the inputs that funded
// the transaction.
type changeClusteringNode struct {
	txs        dataflow.Expr[dataflow.TxSet[ids.TxID]]
	changeMask dataflow.Expr[dataflow.Mask[ids.OutID]]
}

// NewChangeClustering registers a node linking each identified change
// output back to its transaction's inputs.
func NewChangeClustering(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	changeMask dataflow.Expr[dataflow.Mask[ids.OutID]],
) dataflow.Expr[dataflow.Clustering[ids.OutID]] {
	return dataflow.NewExpr[dataflow.Clustering[ids.OutID]](ctx, &changeClusteringNode{txs: txs, changeMask: changeMask})
}

func (n *changeClusteringNode) Name() string { return "ChangeClustering" }
func (n *changeClusteringNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID(), n.changeMask.ID()}
}

func (n *changeClusteringNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	mask := dataflow.GetOrDefault(ctx, n.changeMask, dataflow.NewMask[ids.OutID]())
	out := dataflow.NewClustering[ids.OutID]()

	forEachTx(ctx.Index(), set, func(tx graphsrc.Tx) {
		var firstInput ids.OutID
		haveInput := false
		for _, in := range tx.Inputs() {
			if prevOut, ok := in.PrevTxOutID(); ok {
				firstInput = prevOut
				haveInput = true
				break
			}
		}
		if !haveInput {
			return
		}
		for _, o := range tx.Outputs() {
			if mask.Get(o.ID()) {
				out.DS.Union(firstInput, o.ID())
			}
		}
	})
	return out
}
