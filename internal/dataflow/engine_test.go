package dataflow

import (
	"testing"

	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// ─── minimal fake graph, just enough to exercise the engine end to end ────

type fakeOut struct {
	id    ids.OutID
	value int64
}

func (o fakeOut) ID() ids.OutID                          { return o.id }
func (o fakeOut) Value() int64                           { return o.value }
func (o fakeOut) ScriptPubKeyHash() graphsrc.ScriptHash   { return graphsrc.ScriptHash{} }

type fakeIn struct {
	id      ids.InID
	prevOut ids.OutID
	prevTx  ids.TxID
	vout    uint32
	coin    bool
}

func (i fakeIn) ID() ids.InID { return i.id }
func (i fakeIn) PrevTxOutID() (ids.OutID, bool) {
	if i.coin {
		return ids.OutID{}, false
	}
	return i.prevOut, true
}
func (i fakeIn) PrevTxID() (ids.TxID, bool) {
	if i.coin {
		return ids.TxID{}, false
	}
	return i.prevTx, true
}
func (i fakeIn) PrevVout() (uint32, bool) {
	if i.coin {
		return 0, false
	}
	return i.vout, true
}

type fakeTx struct {
	id   ids.TxID
	ins  []graphsrc.In
	outs []graphsrc.Out
}

func (t fakeTx) ID() ids.TxID              { return t.id }
func (t fakeTx) Inputs() []graphsrc.In     { return t.ins }
func (t fakeTx) Outputs() []graphsrc.Out   { return t.outs }
func (t fakeTx) OutputCount() int          { return len(t.outs) }
func (t fakeTx) OutputAt(i int) graphsrc.Out { return t.outs[i] }
func (t fakeTx) LockTime() uint32          { return 0 }

// fakeGraph is a trivial in-memory IndexBuilder backing the tests.
type fakeGraph struct {
	txs      map[ids.TxID]graphsrc.Tx
	outOwner map[ids.OutID]ids.TxID
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		txs:      make(map[ids.TxID]graphsrc.Tx),
		outOwner: make(map[ids.OutID]ids.TxID),
	}
}

func (g *fakeGraph) AddTx(tx graphsrc.Tx) {
	g.txs[tx.ID()] = tx
	for _, o := range tx.Outputs() {
		g.outOwner[o.ID()] = tx.ID()
	}
}

func (g *fakeGraph) Tx(id ids.TxID) (graphsrc.Tx, bool) {
	t, ok := g.txs[id]
	return t, ok
}

func (g *fakeGraph) TxIDForOut(id ids.OutID) (ids.TxID, bool) {
	t, ok := g.outOwner[id]
	return t, ok
}

func (g *fakeGraph) TxIDForIn(id ids.InID) (ids.TxID, bool) {
	return ids.TxID{}, false
}

func (g *fakeGraph) SpenderForOut(out ids.OutID) (ids.InID, bool) {
	return ids.InID{}, false
}

func (g *fakeGraph) ScriptPubKeyToTxOutID(hash graphsrc.ScriptHash) (ids.OutID, bool) {
	return ids.OutID{}, false
}

// ─── tests ─────────────────────────────────────────────────────────────

func buildTwoTxCorpus() []graphsrc.Tx {
	tx1 := fakeTx{
		id: ids.NewDenseTxID(0),
		outs: []graphsrc.Out{
			fakeOut{id: ids.NewDenseOutID(0), value: 1000},
			fakeOut{id: ids.NewDenseOutID(1), value: 2000},
		},
	}
	tx2 := fakeTx{
		id: ids.NewDenseTxID(1),
		ins: []graphsrc.In{
			fakeIn{id: ids.NewDenseInID(0), prevOut: ids.NewDenseOutID(0), prevTx: ids.NewDenseTxID(0), vout: 0},
		},
		outs: []graphsrc.Out{
			fakeOut{id: ids.NewDenseOutID(2), value: 900},
		},
	}
	return []graphsrc.Tx{tx1, tx2}
}

func TestEngineSourceAndProjection(t *testing.T) {
	ctx := NewContext()
	src := NewAllTxsSource(ctx)
	txs := NewTxsOf(ctx, src)
	outs := NewOutputs(ctx, txs)

	corpus := graphsrc.NewCorpus(buildTwoTxCorpus())
	engine := NewEngine(ctx, corpus, newFakeGraph())
	engine.RunToFixpoint()

	got, ok := engine.EvaluatedFacts(outs.ID())
	if !ok {
		t.Fatalf("expected outputs node to have produced a fact")
	}
	outSet := got.(TxOutSet[ids.OutID])
	if len(outSet.Items) != 3 {
		t.Fatalf("expected 3 outputs across both transactions, got %d", len(outSet.Items))
	}
}

func TestEngineFilterWithMask(t *testing.T) {
	ctx := NewContext()
	src := NewAllTxsSource(ctx)
	txs := NewTxsOf(ctx, src)

	maskNode := &constMaskNode[ids.TxID]{m: Mask[ids.TxID]{Items: map[ids.TxID]bool{
		ids.NewDenseTxID(0): true,
	}}}
	maskExpr := NewExpr[Mask[ids.TxID]](ctx, maskNode)
	kept := NewFilterWithMask(ctx, txs, maskExpr)

	corpus := graphsrc.NewCorpus(buildTwoTxCorpus())
	engine := NewEngine(ctx, corpus, newFakeGraph())
	engine.RunToFixpoint()

	got, _ := engine.EvaluatedFacts(kept.ID())
	set := got.(TxSet[ids.TxID])
	if len(set.Items) != 1 || !set.Has(ids.NewDenseTxID(0)) {
		t.Fatalf("expected only tx 0 kept, got %v", set.Items)
	}
}

// constMaskNode is a test-only source-free node that emits a fixed mask.
type constMaskNode[K comparable] struct {
	m Mask[K]
}

func (n *constMaskNode[K]) Name() string           { return "ConstMask" }
func (n *constMaskNode[K]) Dependencies() []NodeID { return nil }
func (n *constMaskNode[K]) Eval(ctx *EvalContext) Value {
	return n.m
}

func TestEnginePlaceholderCycle(t *testing.T) {
	ctx := NewContext()

	ph := NewPlaceholder[Mask[ids.TxID]](ctx)

	// A node that depends on the placeholder and derives a mask from it,
	// plus a constant seed so the cycle has somewhere to start.
	derive := &derivedMaskNode{seed: ids.NewDenseTxID(0), ph: ph.Expr()}
	derivedExpr := NewExpr[Mask[ids.TxID]](ctx, derive)

	ph.Unify(derivedExpr)

	corpus := graphsrc.NewCorpus(nil)
	engine := NewEngine(ctx, corpus, newFakeGraph())
	engine.RunToFixpoint()

	got, ok := engine.EvaluatedFacts(derivedExpr.ID())
	if !ok {
		t.Fatalf("expected derived node to have produced a fact")
	}
	m := got.(Mask[ids.TxID])
	if !m.Get(ids.NewDenseTxID(0)) {
		t.Fatalf("expected seed key to read true after convergence")
	}
}

// derivedMaskNode copies every entry the placeholder currently reports and
// then sets seed to true, on every evaluation, letting the cycle settle at
// a stable fixpoint rather than oscillating.
type derivedMaskNode struct {
	seed ids.TxID
	ph   Expr[Mask[ids.TxID]]
	runs int
}

func (n *derivedMaskNode) Name() string { return "DerivedMask" }
func (n *derivedMaskNode) Dependencies() []NodeID {
	return []NodeID{n.ph.ID()}
}

func (n *derivedMaskNode) Eval(ctx *EvalContext) Value {
	n.runs++
	prev := GetOrDefault(ctx, n.ph, NewMask[ids.TxID]())
	out := NewMask[ids.TxID]()
	for k, v := range prev.Items {
		out.Items[k] = v
	}
	out.Items[n.seed] = true
	return out
}
