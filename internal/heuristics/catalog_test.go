package heuristics

import (
	"testing"

	"github.com/rawblock/coinjoin-engine/internal/dataflow"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/graphsrc/testgraph"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

func runPipeline(t *testing.T, corpusTxs []graphsrc.Tx, graph graphsrc.IndexBuilder) (*dataflow.Engine, dataflow.Expr[dataflow.TxSet[ids.TxID]], dataflow.Expr[dataflow.Mask[ids.TxID]], dataflow.Expr[dataflow.Clustering[ids.OutID]]) {
	t.Helper()
	ctx := dataflow.NewContext()
	src := dataflow.NewAllTxsSource(ctx)
	txs := dataflow.NewTxsOf(ctx, src)
	outs := dataflow.NewOutputs(ctx, txs)

	coinJoin := NewIsCoinJoin(ctx, txs)
	changeMask := NewChangePositional(ctx, txs, coinJoin)
	global, _ := BuildGlobalClustering(ctx, txs, outs, coinJoin, changeMask)

	corpus := graphsrc.NewCorpus(corpusTxs)
	engine := dataflow.NewEngine(ctx, corpus, graph)
	engine.RunToFixpoint()

	return engine, txs, coinJoin, global
}

func TestMultiInputClusteringMergesSpentPrevouts(t *testing.T) {
	b := testgraph.NewBuilder()
	tx0 := b.Tx()
	out0 := tx0.Output(b, 100000)
	out1 := tx0.Output(b, 50000)

	tx1 := b.Tx()
	tx1.Spend(b, tx0.ID(), out0, 0)
	tx1.Spend(b, tx0.ID(), out1, 1)
	tx1.Output(b, 140000)

	graph := b.Build()
	engine, _, _, global := runPipeline(t, b.Txs(), graph)

	fact, ok := engine.EvaluatedFacts(global.ID())
	if !ok {
		t.Fatalf("expected global clustering to have produced a fact")
	}
	clustering := fact.(dataflow.Clustering[ids.OutID])
	if clustering.DS.Find(out0) != clustering.DS.Find(out1) {
		t.Fatalf("expected out0 and out1 to cluster together via shared spender tx1")
	}
}

func TestIsCoinJoinFlagsEqualOutputTransaction(t *testing.T) {
	b := testgraph.NewBuilder()
	tx := b.Tx()
	tx.Coinbase(b)
	tx.Coinbase(b)
	tx.Output(b, 100000)
	tx.Output(b, 100000)
	tx.Output(b, 100000)

	graph := b.Build()
	engine, _, coinJoin, _ := runPipeline(t, b.Txs(), graph)

	fact, _ := engine.EvaluatedFacts(coinJoin.ID())
	mask := fact.(dataflow.Mask[ids.TxID])
	if !mask.Get(tx.ID()) {
		t.Fatalf("expected equal-output 3-way transaction to be flagged a CoinJoin")
	}
}

func TestUIH2FlagsExcessInput(t *testing.T) {
	b := testgraph.NewBuilder()
	funding := b.Tx()
	out0 := funding.Output(b, 100000)
	out1 := funding.Output(b, 5000)

	spender := b.Tx()
	spender.Spend(b, funding.ID(), out0, 0)
	spender.Spend(b, funding.ID(), out1, 1)
	spender.Output(b, 95000) // out0 alone (100000) already covers this; out1 was unnecessary

	graph := b.Build()
	corpus := graphsrc.NewCorpus(b.Txs())

	ctx := dataflow.NewContext()
	src := dataflow.NewAllTxsSource(ctx)
	txs := dataflow.NewTxsOf(ctx, src)
	uih2 := NewUIH2(ctx, txs)

	engine := dataflow.NewEngine(ctx, corpus, graph)
	engine.RunToFixpoint()

	fact, _ := engine.EvaluatedFacts(uih2.ID())
	mask := fact.(dataflow.Mask[ids.TxID])
	if !mask.Get(spender.ID()) {
		t.Fatalf("expected spender transaction to be flagged for an unnecessary input")
	}
}
