package disjointset

import "testing"

func TestFindIdempotent(t *testing.T) {
	d := New[int]()
	d.Union(1, 2)
	d.Union(2, 3)
	for _, x := range []int{1, 2, 3, 9} {
		if d.Find(x) != d.Find(d.Find(x)) {
			t.Fatalf("find not idempotent for %d", x)
		}
	}
}

func TestUnionMakesFindEqual(t *testing.T) {
	d := New[string]()
	d.Union("a", "b")
	if d.Find("a") != d.Find("b") {
		t.Fatalf("expected a and b to share a root")
	}
}

func TestUnionSelfIsNoop(t *testing.T) {
	d := New[int]()
	d.Find(5)
	if d.Union(5, 5) {
		t.Fatalf("union(x,x) should return false")
	}
}

func TestUnionReturnsWhetherMerged(t *testing.T) {
	d := New[int]()
	if !d.Union(1, 2) {
		t.Fatalf("first union of distinct elements should return true")
	}
	if d.Union(1, 2) {
		t.Fatalf("second union of already-merged elements should return false")
	}
}

func TestPathCompression(t *testing.T) {
	d := New[int]()
	d.Union(0, 1)
	d.Union(1, 2)
	d.Union(2, 3)
	d.Union(3, 4)
	root := d.Find(4)
	if d.ParentOf(4) != root {
		t.Fatalf("expected path compression to point 4 directly at root %v, got %v", root, d.ParentOf(4))
	}
	if d.ParentOf(3) != root {
		t.Fatalf("expected path compression to point 3 directly at root %v, got %v", root, d.ParentOf(3))
	}
}

func TestParentOfUnknownDoesNotInsert(t *testing.T) {
	d := New[int]()
	if d.ParentOf(42) != 42 {
		t.Fatalf("expected ParentOf on unknown element to return itself")
	}
	if len(d.IterParentIDs()) != 0 {
		t.Fatalf("ParentOf must not insert unknown elements")
	}
}

func TestFindUnknownInserts(t *testing.T) {
	d := New[int]()
	d.Find(7)
	if len(d.IterParentIDs()) != 1 {
		t.Fatalf("expected Find to make-set on first touch")
	}
}

func TestJoinWithEmptyReturnsClone(t *testing.T) {
	d := New[int]()
	d.Union(1, 2)
	empty := New[int]()

	joined := d.Join(empty)
	if joined.Find(1) != joined.Find(2) {
		t.Fatalf("join(a, empty) should preserve a's partition")
	}

	// Mutating the joined result must not affect d (independence of clone).
	joined.Union(1, 3)
	if d.Find(1) == d.Find(3) {
		t.Fatalf("join result must not alias the original's interior")
	}
}

func TestJoinSelfIsEquivalentPartition(t *testing.T) {
	d := New[int]()
	d.Union(1, 2)
	d.Union(3, 4)

	joined := d.Join(d)
	if joined.Find(1) != joined.Find(2) || joined.Find(3) != joined.Find(4) {
		t.Fatalf("join(a,a) must preserve a's partition")
	}
	if joined.Find(1) == joined.Find(3) {
		t.Fatalf("join(a,a) must not merge unrelated blocks")
	}
}

func TestJoinCommutative(t *testing.T) {
	a := New[int]()
	a.Union(1, 2)
	b := New[int]()
	b.Union(2, 3)

	ab := a.Join(b)
	ba := b.Join(a)

	elems := []int{1, 2, 3}
	for _, x := range elems {
		for _, y := range elems {
			if (ab.Find(x) == ab.Find(y)) != (ba.Find(x) == ba.Find(y)) {
				t.Fatalf("join(a,b) and join(b,a) induce different partitions at (%d,%d)", x, y)
			}
		}
	}
}

func TestJoinCoarsestCommonRefinement(t *testing.T) {
	// a: {1,2} {3,4}
	a := New[int]()
	a.Union(1, 2)
	a.Union(3, 4)
	// b: {2,3}
	b := New[int]()
	b.Union(2, 3)

	// Equivalence closure of a ∪ b: {1,2,3,4} all joined transitively.
	joined := a.Join(b)
	root := joined.Find(1)
	for _, x := range []int{2, 3, 4} {
		if joined.Find(x) != root {
			t.Fatalf("expected %d to join the same block as 1", x)
		}
	}
}

func TestJoinDoesNotOvermerge(t *testing.T) {
	a := New[int]()
	a.Union(1, 2)
	b := New[int]()
	b.Union(3, 4)

	joined := a.Join(b)
	if joined.Find(1) == joined.Find(3) {
		t.Fatalf("unrelated blocks from a and b must stay separate after join")
	}
}

func TestEqualIsPartitionEquivalence(t *testing.T) {
	a := New[int]()
	a.Union(1, 2)
	b := New[int]()
	b.Union(1, 2)
	if !a.Equal(b) {
		t.Fatalf("expected structurally identical disjoint sets to be Equal")
	}

	c := New[int]()
	c.Union(2, 1) // same partition, tree built in the opposite order
	if !a.Equal(c) {
		t.Fatalf("expected Equal to hold for the same partition regardless of Union order")
	}

	e := New[int]()
	e.Union(1, 2)
	e.Union(2, 3) // e additionally groups 3 into {1,2}'s block
	if a.Equal(e) {
		t.Fatalf("expected Equal to fail once one side groups an element the other leaves singleton")
	}
}

func sameElems(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	for _, x := range b {
		if !set[x] {
			return false
		}
	}
	return true
}

func TestIterSet(t *testing.T) {
	d := New[int]()
	d.Union(1, 2)
	d.Union(2, 3)
	d.Find(9) // unrelated singleton

	members := d.IterSet(1)
	if !sameElems(members, []int{1, 2, 3}) {
		t.Fatalf("unexpected cluster membership: %v", members)
	}
}
