package testgraph

import "testing"

func TestBuilderSpendChain(t *testing.T) {
	b := NewBuilder()
	tx1 := b.Tx()
	out0 := tx1.Output(b, 1000)

	tx2 := b.Tx()
	tx2.Spend(b, tx1.ID(), out0, 0)
	tx2.Output(b, 950)

	g := b.Build()

	got, ok := g.Tx(tx1.ID())
	if !ok || got.OutputCount() != 1 {
		t.Fatalf("expected tx1 to have 1 output")
	}

	owner, ok := g.TxIDForOut(out0)
	if !ok || owner != tx1.ID() {
		t.Fatalf("expected out0 owned by tx1")
	}

	spender, ok := g.SpenderForOut(out0)
	if !ok {
		t.Fatalf("expected out0 to have a spender")
	}
	spenderTx, ok := g.TxIDForIn(spender)
	if !ok || spenderTx != tx2.ID() {
		t.Fatalf("expected out0's spender to belong to tx2")
	}
}

func TestBuilderCoinbaseHasNoPrevOut(t *testing.T) {
	b := NewBuilder()
	tx := b.Tx()
	tx.Coinbase(b)
	tx.Output(b, 5000000000)

	g := b.Build()
	got, _ := g.Tx(tx.ID())
	in := got.Inputs()[0]
	if _, ok := in.PrevTxOutID(); ok {
		t.Fatalf("expected coinbase input to report no previous output")
	}
}

func TestAllTxIDsPreservesOrder(t *testing.T) {
	b := NewBuilder()
	t1 := b.Tx()
	t1.Output(b, 1)
	t2 := b.Tx()
	t2.Output(b, 2)

	g := b.Build()
	ordered := g.AllTxIDs()
	if len(ordered) != 2 || ordered[0] != t1.ID() || ordered[1] != t2.ID() {
		t.Fatalf("expected AllTxIDs in declaration order, got %v", ordered)
	}
}
