package heuristics

import (
	"sort"

	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// ─── UIH-1: optimal change ───────────────────────────────────────────────

// uih1Node flags, for each two-output non-CoinJoin transaction, the
// output smaller than every resolvable input as the optimal-change
// candidate: a wallet constructing change as "inputs minus payment minus
// fee" can never produce a change value exceeding its smallest input,
// so an output that does is evidence it is the payment, not the change
// (BlockSci's Optimal Change Heuristic, exposed here as a standalone
// dataflow fact).
type uih1Node struct {
	txs      dataflow.Expr[dataflow.TxSet[ids.TxID]]
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]]
}

// NewUIH1 registers the optimal-change UIH-1 node.
func NewUIH1(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]],
) dataflow.Expr[dataflow.Mask[ids.OutID]] {
	return dataflow.NewExpr[dataflow.Mask[ids.OutID]](ctx, &uih1Node{txs: txs, coinJoin: coinJoin})
}

func (n *uih1Node) Name() string { return "UIH1" }
func (n *uih1Node) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID(), n.coinJoin.ID()}
}

func (n *uih1Node) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	cj := dataflow.GetOrDefault(ctx, n.coinJoin, dataflow.NewMask[ids.TxID]())
	out := dataflow.NewMask[ids.OutID]()
	idx := ctx.Index()

	forEachTx(idx, set, func(tx graphsrc.Tx) {
		if cj.Get(tx.ID()) || tx.OutputCount() != 2 {
			return
		}
		values := inputValues(idx, tx)
		if len(values) == 0 {
			return
		}
		minInput := values[0]
		for _, v := range values[1:] {
			if v < minInput {
				minInput = v
			}
		}
		for i := 0; i < tx.OutputCount(); i++ {
			o := tx.OutputAt(i)
			out.Items[o.ID()] = o.Value() < minInput
		}
	})
	return out
}

// ─── UIH-2: unnecessary input ────────────────────────────────────────────

// uih2Node flags transactions whose inputs include at least one that was
// unnecessary to reach the payment+fee total — direct evidence of a
// UTXO-selection strategy that doesn't optimize for privacy (ported from
// fee_analysis.go's detectUnnecessaryInputs: sort inputs ascending, then
// greedily test whether dropping the smallest remaining input would still
// cover what the transaction needed).
type uih2Node struct {
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]]
}

// NewUIH2 registers the unnecessary-input UIH-2 node.
func NewUIH2(ctx *dataflow.Context, txs dataflow.Expr[dataflow.TxSet[ids.TxID]]) dataflow.Expr[dataflow.Mask[ids.TxID]] {
	return dataflow.NewExpr[dataflow.Mask[ids.TxID]](ctx, &uih2Node{txs: txs})
}

func (n *uih2Node) Name() string { return "UIH2" }
func (n *uih2Node) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID()}
}

func (n *uih2Node) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	out := dataflow.NewMask[ids.TxID]()
	idx := ctx.Index()

	forEachTx(idx, set, func(tx graphsrc.Tx) {
		values := inputValues(idx, tx)
		if len(values) != len(tx.Inputs()) || len(values) <= 1 {
			// A coinbase or any input with an unresolvable prevout makes
			// the "could this input have been dropped" question
			// unanswerable for this transaction; skip it rather than
			// guess (§Part D's "skip if no resolvable input values" rule).
			out.Items[tx.ID()] = false
			return
		}
		out.Items[tx.ID()] = hasUnnecessaryInput(values, txOutputSum(tx))
	})
	return out
}

// hasUnnecessaryInput reports whether some proper subset of values
// (input amounts) could have covered needed (outputs, fee excluded since
// the graph index doesn't expose it, so this is an approximation).
func hasUnnecessaryInput(values []int64, needed int64) bool {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	total := int64(0)
	for _, v := range values {
		total += v
	}

	cumulative := total
	for _, v := range sorted {
		remaining := cumulative - v
		if remaining >= needed {
			return true
		}
		cumulative = remaining
	}
	return false
}
