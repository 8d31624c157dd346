// The heuristic catalog wires nine classic clustering/classification
// heuristics into the dataflow engine as ordinary nodes: each is a pure
// function of its declared dependencies, consuming and producing the
// engine's value types (TxSet, Mask, Clustering) exactly like any other
// node. Every heuristic reads transactions through the graph-index
// contract, so it can run uniformly over an RPC-backed subset or an
// in-memory test fixture.
package heuristics

import (
	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// txInputSum returns the total value of tx's resolvable inputs and
// whether every input resolved (false if any input is coinbase or its
// prevout is missing from idx — the original's "skip if no resolvable
// input values" rule, §Part D).
func txInputSum(idx graphsrc.GraphIndex, tx graphsrc.Tx) (sum int64, complete bool) {
	complete = true
	for _, in := range tx.Inputs() {
		prevOutID, ok := in.PrevTxOutID()
		if !ok {
			complete = false
			continue
		}
		prevTxID, ok := in.PrevTxID()
		if !ok {
			complete = false
			continue
		}
		prevTx, ok := idx.Tx(prevTxID)
		if !ok {
			complete = false
			continue
		}
		vout, ok := in.PrevVout()
		if !ok {
			complete = false
			continue
		}
		if int(vout) >= prevTx.OutputCount() {
			complete = false
			continue
		}
		_ = prevOutID
		sum += prevTx.OutputAt(int(vout)).Value()
	}
	return sum, complete
}

func txOutputSum(tx graphsrc.Tx) int64 {
	var sum int64
	for _, o := range tx.Outputs() {
		sum += o.Value()
	}
	return sum
}

// inputValues returns each resolvable input's value, in input order,
// skipping any input whose prevout can't be resolved.
func inputValues(idx graphsrc.GraphIndex, tx graphsrc.Tx) []int64 {
	values := make([]int64, 0, len(tx.Inputs()))
	for _, in := range tx.Inputs() {
		prevTxID, ok := in.PrevTxID()
		if !ok {
			continue
		}
		prevTx, ok := idx.Tx(prevTxID)
		if !ok {
			continue
		}
		vout, ok := in.PrevVout()
		if !ok || int(vout) >= prevTx.OutputCount() {
			continue
		}
		values = append(values, prevTx.OutputAt(int(vout)).Value())
	}
	return values
}

// forEachTx resolves each TxID in set against idx, skipping any that the
// index doesn't (yet) know about.
func forEachTx(idx graphsrc.GraphIndex, set dataflow.TxSet[ids.TxID], fn func(graphsrc.Tx)) {
	for txID := range set.Items {
		tx, ok := idx.Tx(txID)
		if !ok {
			continue
		}
		fn(tx)
	}
}
