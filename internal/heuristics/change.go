package heuristics

import (
	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// ─── positional change identification ───────────────────────────────────

// changePositionalNode flags the last output of a two-or-more-output,
// non-CoinJoin transaction as change, unless it is also the transaction's
// largest output (a payment, not a remainder). Wallets that don't
// randomize output order — still common outside CoinJoin coordinators —
// leak this positionally.
type changePositionalNode struct {
	txs      dataflow.Expr[dataflow.TxSet[ids.TxID]]
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]]
}

// NewChangePositional registers the positional change-identification
// node.
func NewChangePositional(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]],
) dataflow.Expr[dataflow.Mask[ids.OutID]] {
	return dataflow.NewExpr[dataflow.Mask[ids.OutID]](ctx, &changePositionalNode{txs: txs, coinJoin: coinJoin})
}

func (n *changePositionalNode) Name() string { return "ChangePositional" }
func (n *changePositionalNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID(), n.coinJoin.ID()}
}

func (n *changePositionalNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	cj := dataflow.GetOrDefault(ctx, n.coinJoin, dataflow.NewMask[ids.TxID]())
	out := dataflow.NewMask[ids.OutID]()

	forEachTx(ctx.Index(), set, func(tx graphsrc.Tx) {
		if cj.Get(tx.ID()) || tx.OutputCount() < 2 {
			return
		}
		last := tx.OutputAt(tx.OutputCount() - 1)
		maxVal := last.Value()
		for i := 0; i < tx.OutputCount()-1; i++ {
			if v := tx.OutputAt(i).Value(); v > maxVal {
				maxVal = v
			}
		}
		out.Items[last.ID()] = last.Value() < maxVal
	})
	return out
}

// ─── fingerprint change identification ──────────────────────────────────

// changeFingerprintNode flags the sole non-round-amount output of a
// transaction whose nLockTime is set to a plausible anti-fee-sniping
// value (nonzero) as change: humans pay round amounts, the wallet-
// computed remainder almost never is, and anti-fee-sniping is itself a
// wallet-behavior fingerprint worth gating on (grounded on
// change_detection.go's round-number vote and fee_analysis.go's
// wallet-fingerprinting framing).
type changeFingerprintNode struct {
	txs      dataflow.Expr[dataflow.TxSet[ids.TxID]]
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]]
}

// NewChangeFingerprint registers the fingerprint/locktime change-
// identification node.
func NewChangeFingerprint(
	ctx *dataflow.Context,
	txs dataflow.Expr[dataflow.TxSet[ids.TxID]],
	coinJoin dataflow.Expr[dataflow.Mask[ids.TxID]],
) dataflow.Expr[dataflow.Mask[ids.OutID]] {
	return dataflow.NewExpr[dataflow.Mask[ids.OutID]](ctx, &changeFingerprintNode{txs: txs, coinJoin: coinJoin})
}

func (n *changeFingerprintNode) Name() string { return "ChangeFingerprint" }
func (n *changeFingerprintNode) Dependencies() []dataflow.NodeID {
	return []dataflow.NodeID{n.txs.ID(), n.coinJoin.ID()}
}

func (n *changeFingerprintNode) Eval(ctx *dataflow.EvalContext) dataflow.Value {
	set := dataflow.GetOrDefault(ctx, n.txs, dataflow.NewTxSet[ids.TxID]())
	cj := dataflow.GetOrDefault(ctx, n.coinJoin, dataflow.NewMask[ids.TxID]())
	out := dataflow.NewMask[ids.OutID]()

	forEachTx(ctx.Index(), set, func(tx graphsrc.Tx) {
		if cj.Get(tx.ID()) || tx.LockTime() == 0 {
			return
		}
		nonRoundIdx := -1
		nonRoundCount := 0
		for i := 0; i < tx.OutputCount(); i++ {
			if !isRoundAmount(tx.OutputAt(i).Value()) {
				nonRoundCount++
				nonRoundIdx = i
			}
		}
		if nonRoundCount == 1 {
			out.Items[tx.OutputAt(nonRoundIdx).ID()] = true
		}
	})
	return out
}
