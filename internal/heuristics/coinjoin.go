package heuristics

import (
	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// minEqualOutputAnonSet is the smallest group of identically-valued
// outputs this heuristic accepts as a CoinJoin anonymity set (a pair of
// equal outputs is too common by coincidence; three or more, each
// plausibly belonging to a distinct participant, is the conventional
// threshold).
const minEqualOutputAnonSet = 3

// isCoinJoinNode flags transactions whose output set contains a large
// equal-value group alongside multiple inputs, the structural signature
// Wasabi/Samourai-style CoinJoins share regardless of coordinator.
type isCoinJoinNode struct {
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]]
}

// NewIsCoinJoin registers a node flagging each transaction in txs as a
// likely CoinJoin.
func NewIsCoinJoin(ctx *dataflow.Context, txs dataflow.Expr[dataflow.TxSet[ids.TxID]]) dataflow.Expr[dataflow.Mask[ids.TxID]] {
	return dataflow.NewExpr[dataflow.Mask[ids.TxID]](ctx, &isCoinJoinNode{txs: txs})
}

func (n *isCoinJoinNode) Name() string { return "IsCoinJoin" }
func (n *isCoinJoinNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID()}
}

func (n *isCoinJoinNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	out := dataflow.NewMask[ids.TxID]()
	idx := ctx.Index()

	forEachTx(idx, set, func(tx graphsrc.Tx) {
		out.Items[tx.ID()] = isCoinJoinShape(tx)
	})
	return out
}

// isCoinJoinShape reports whether tx's output multiset contains an
// equal-value group of at least minEqualOutputAnonSet entries alongside
// more than one input.
func isCoinJoinShape(tx graphsrc.Tx) bool {
	if len(tx.Inputs()) < 2 {
		return false
	}
	counts := make(map[int64]int)
	for _, o := range tx.Outputs() {
		counts[o.Value()]++
	}
	for _, c := range counts {
		if c >= minEqualOutputAnonSet {
			return true
		}
	}
	return false
}
