package dataflow

import "testing"

func TestTxSetUnion(t *testing.T) {
	a := NewTxSet(1, 2)
	b := NewTxSet(2, 3)
	c := a.Combine(b).(TxSet[int])
	want := NewTxSet(1, 2, 3)
	if !c.Equal(want) {
		t.Fatalf("expected union {1,2,3}, got %v", c.Items)
	}
}

func TestTxSetEqualIgnoresOrder(t *testing.T) {
	a := NewTxSet(3, 1, 2)
	b := NewTxSet(1, 2, 3)
	if !a.Equal(b) {
		t.Fatalf("expected order-independent equality")
	}
}

func TestMaskLastWriteWins(t *testing.T) {
	a := Mask[string]{Items: map[string]bool{"x": true, "y": false}}
	b := Mask[string]{Items: map[string]bool{"y": true, "z": true}}
	c := a.Combine(b).(Mask[string])
	if !c.Get("x") || !c.Get("y") || !c.Get("z") {
		t.Fatalf("unexpected combined mask: %v", c.Items)
	}
}

func TestMaskMissingKeyDefaultsFalse(t *testing.T) {
	m := NewMask[int]()
	if m.Get(7) {
		t.Fatalf("expected missing key to default to false")
	}
}

func TestClusteringCombineJoins(t *testing.T) {
	a := NewClustering[int]()
	a.DS.Union(1, 2)
	b := NewClustering[int]()
	b.DS.Union(2, 3)

	c := a.Combine(b).(Clustering[int])
	root := c.DS.Find(1)
	for _, x := range []int{2, 3} {
		if c.DS.Find(x) != root {
			t.Fatalf("expected joined clustering to merge 1,2,3 transitively")
		}
	}
}

func TestIndexValueCombineKeepsFirst(t *testing.T) {
	a := IndexValue{Index: nil}
	b := IndexValue{Index: nil}
	if a.Combine(b).(IndexValue) != (IndexValue{Index: nil}) {
		t.Fatalf("expected keep-first combine")
	}
}

func TestCombineFactsEmptyIsNil(t *testing.T) {
	if combineFacts(nil) != nil {
		t.Fatalf("expected nil for empty fact slice")
	}
}

func TestCombineFactsFoldsInOrder(t *testing.T) {
	facts := []Value{NewTxSet(1), NewTxSet(2), NewTxSet(3)}
	got := combineFacts(facts).(TxSet[int])
	want := NewTxSet(1, 2, 3)
	if !got.Equal(want) {
		t.Fatalf("expected folded union {1,2,3}, got %v", got.Items)
	}
}
