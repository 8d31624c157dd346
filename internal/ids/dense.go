package ids

// TxRange records the dense [Start, End) output or input sub-range owned by
// a single transaction, mirroring the fixed-width column files described in
// §6 of the engine spec (the `(file_no, file_off, tx_in_end, tx_out_end)`
// table and friends) without committing to their on-disk layout.
type TxRange struct {
	Start uint64
	End   uint64
}

// Len reports how many IDs fall in the range.
func (r TxRange) Len() uint64 { return r.End - r.Start }

// Contains reports whether idx falls within [Start, End).
func (r TxRange) Contains(idx uint64) bool { return idx >= r.Start && idx < r.End }

// DenseLayout maps dense transaction indices to their owned output and
// input sub-ranges. It is built once per corpus and is immutable
// thereafter — exactly the read-only, file-backed shape the external
// collaborators of §6 expose to the core.
type DenseLayout struct {
	outRanges []TxRange
	inRanges  []TxRange
}

// NewDenseLayout builds a layout from parallel per-tx output/input counts.
// outCounts[i] and inCounts[i] are the number of outputs/inputs owned by
// dense transaction i; ranges are assigned by prefix sum in tx order.
func NewDenseLayout(outCounts, inCounts []uint64) *DenseLayout {
	if len(outCounts) != len(inCounts) {
		panic("ids: outCounts and inCounts must have equal length")
	}
	l := &DenseLayout{
		outRanges: make([]TxRange, len(outCounts)),
		inRanges:  make([]TxRange, len(inCounts)),
	}
	var outCursor, inCursor uint64
	for i := range outCounts {
		l.outRanges[i] = TxRange{Start: outCursor, End: outCursor + outCounts[i]}
		outCursor += outCounts[i]
		l.inRanges[i] = TxRange{Start: inCursor, End: inCursor + inCounts[i]}
		inCursor += inCounts[i]
	}
	return l
}

// TxCount returns the number of transactions in the layout.
func (l *DenseLayout) TxCount() int { return len(l.outRanges) }

// OutRange returns the dense output sub-range owned by tx.
func (l *DenseLayout) OutRange(tx TxID) TxRange {
	return l.outRanges[tx.DenseIndex()]
}

// InRange returns the dense input sub-range owned by tx.
func (l *DenseLayout) InRange(tx TxID) TxRange {
	return l.inRanges[tx.DenseIndex()]
}

// OutputsOf enumerates the dense OutIDs owned by tx.
func (l *DenseLayout) OutputsOf(tx TxID) []OutID {
	rng := l.OutRange(tx)
	out := make([]OutID, 0, rng.Len())
	for i := rng.Start; i < rng.End; i++ {
		out = append(out, NewDenseOutID(i))
	}
	return out
}

// InputsOf enumerates the dense InIDs owned by tx.
func (l *DenseLayout) InputsOf(tx TxID) []InID {
	rng := l.InRange(tx)
	out := make([]InID, 0, rng.Len())
	for i := rng.Start; i < rng.End; i++ {
		out = append(out, NewDenseInID(i))
	}
	return out
}

// TxOfOutput finds the dense transaction owning out via binary search over
// the sorted, non-overlapping output ranges.
func (l *DenseLayout) TxOfOutput(out OutID) (TxID, bool) {
	idx := uint64(out.DenseIndex())
	lo, hi := 0, len(l.outRanges)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.outRanges[mid].Contains(idx) {
			return NewDenseTxID(uint64(mid)), true
		}
		if idx < l.outRanges[mid].Start {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return TxID{}, false
}

// TxOfInput finds the dense transaction owning in via binary search over
// the sorted, non-overlapping input ranges.
func (l *DenseLayout) TxOfInput(in InID) (TxID, bool) {
	idx := uint64(in.DenseIndex())
	lo, hi := 0, len(l.inRanges)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.inRanges[mid].Contains(idx) {
			return NewDenseTxID(uint64(mid)), true
		}
		if idx < l.inRanges[mid].Start {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return TxID{}, false
}
