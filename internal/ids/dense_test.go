package ids

import "testing"

func TestDenseLayoutRanges(t *testing.T) {
	layout := NewDenseLayout([]uint64{3, 0, 2}, []uint64{0, 2, 1})

	if got := layout.OutRange(NewDenseTxID(0)); got != (TxRange{0, 3}) {
		t.Fatalf("tx0 out range = %v", got)
	}
	if got := layout.OutRange(NewDenseTxID(2)); got != (TxRange{3, 5}) {
		t.Fatalf("tx2 out range = %v", got)
	}
	if got := layout.InRange(NewDenseTxID(1)); got != (TxRange{0, 2}) {
		t.Fatalf("tx1 in range = %v", got)
	}

	outs := layout.OutputsOf(NewDenseTxID(2))
	if len(outs) != 2 || outs[0].DenseIndex() != 3 || outs[1].DenseIndex() != 4 {
		t.Fatalf("unexpected outputs: %v", outs)
	}
}

func TestDenseLayoutTxOfOutput(t *testing.T) {
	layout := NewDenseLayout([]uint64{3, 0, 2}, []uint64{0, 2, 1})

	for _, want := range []struct {
		out uint64
		tx  uint64
	}{{0, 0}, {2, 0}, {3, 2}, {4, 2}} {
		tx, ok := layout.TxOfOutput(NewDenseOutID(want.out))
		if !ok {
			t.Fatalf("output %d not found", want.out)
		}
		if uint64(tx.DenseIndex()) != want.tx {
			t.Fatalf("output %d: got tx %d want %d", want.out, tx.DenseIndex(), want.tx)
		}
	}

	if _, ok := layout.TxOfOutput(NewDenseOutID(5)); ok {
		t.Fatalf("expected out-of-range output to be not found")
	}
}

func TestDenseLayoutTxOfInput(t *testing.T) {
	layout := NewDenseLayout([]uint64{3, 0, 2}, []uint64{0, 2, 1})

	tx, ok := layout.TxOfInput(NewDenseInID(0))
	if !ok || tx.DenseIndex() != 1 {
		t.Fatalf("expected input 0 to belong to tx1, got tx=%v ok=%v", tx, ok)
	}
	tx, ok = layout.TxOfInput(NewDenseInID(2))
	if !ok || tx.DenseIndex() != 2 {
		t.Fatalf("expected input 2 to belong to tx2, got tx=%v ok=%v", tx, ok)
	}
}
