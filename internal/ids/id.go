// Package ids implements the tagged abstract ID representation shared by
// the transaction, output, and input ID families (§3 of the engine spec).
//
// Two concrete representations coexist behind one tagged integer:
//   - dense: a contiguous index into a flat per-family table, known at
//     source time from the on-disk column files.
//   - loose: a content-hashed 32-bit tag identifying a transaction plus a
//     vout/vin offset within it, used when the corpus is a loose in-memory
//     set with no global dense numbering.
//
// The sign bit of the backing int64 discriminates the two: non-negative
// values are dense indices, negative values are loose IDs. Zero is
// reserved for the dense family so a loose payload is never zero.
package ids

import (
	"fmt"
	"math"
)

// ErrZeroTaggedLooseID is returned by the loose constructors when the
// supplied tag hashes to zero. Tag 0 with offset 0 would pack to 0, the
// same value as dense index 0, so a zero tag is rejected outright rather
// than silently aliasing.
var ErrZeroTaggedLooseID = fmt.Errorf("ids: loose id tag must be non-zero")

// Raw is the common tagged-integer representation backing TxID, OutID, and
// InID. It is never constructed directly outside this package; each ID
// family wraps it in a distinct named type so the three families cannot be
// mixed up at compile time even though they share the same packing scheme.
type Raw int64

// IsDense reports whether r was constructed from a dense index.
func (r Raw) IsDense() bool { return r >= 0 }

// IsLoose reports whether r was constructed from a loose (tag, offset) pair.
func (r Raw) IsLoose() bool { return r < 0 }

// DenseIndex returns the dense index packed into r. Only meaningful when
// IsDense(r) is true.
func (r Raw) DenseIndex() int64 { return int64(r) }

// LooseParts unpacks the 32-bit tag and offset packed into r. Only
// meaningful when IsLoose(r) is true.
//
// Round-trip note: negation of a signed 64-bit integer is well-defined in
// Go's two's-complement arithmetic for every value except math.MinInt64,
// which negates to itself. A loose tag would have to collide with that
// exact bit pattern (tag == 1<<31, offset == 0, twice) to hit the edge —
// astronomically unlikely for a hash-derived tag, and not guarded against
// here.
func (r Raw) LooseParts() (tag uint32, offset uint32) {
	packed := uint64(-int64(r))
	return uint32(packed >> 32), uint32(packed)
}

// NewDenseRaw packs a non-negative dense index into the tagged
// representation. idx must be < math.MaxInt64; callers never construct
// dense indices anywhere near that bound in practice.
func NewDenseRaw(idx uint64) Raw {
	if idx > math.MaxInt64 {
		panic("ids: dense index overflows tagged representation")
	}
	return Raw(idx)
}

// NewLooseRaw packs a (tag, offset) pair into the tagged representation.
// Returns ErrZeroTaggedLooseID if tag is zero.
func NewLooseRaw(tag uint32, offset uint32) (Raw, error) {
	if tag == 0 {
		return 0, ErrZeroTaggedLooseID
	}
	packed := int64(uint64(tag)<<32 | uint64(offset))
	return Raw(-packed), nil
}

func (r Raw) String() string {
	if r.IsDense() {
		return fmt.Sprintf("dense(%d)", r.DenseIndex())
	}
	tag, offset := r.LooseParts()
	return fmt.Sprintf("loose(tag=%08x,off=%d)", tag, offset)
}

// TxID identifies a transaction.
type TxID struct{ Raw }

// OutID identifies a transaction output.
type OutID struct{ Raw }

// InID identifies a transaction input.
type InID struct{ Raw }

// NewDenseTxID, NewDenseOutID, NewDenseInID construct dense family members.
func NewDenseTxID(idx uint64) TxID   { return TxID{NewDenseRaw(idx)} }
func NewDenseOutID(idx uint64) OutID { return OutID{NewDenseRaw(idx)} }
func NewDenseInID(idx uint64) InID   { return InID{NewDenseRaw(idx)} }

// NewLooseTxID, NewLooseOutID, NewLooseInID construct loose family members.
// tag is the 32-bit content hash of the owning transaction; offset is the
// vout/vin position for OutID/InID (ignored — conventionally zero — for
// TxID, whose identity is the transaction itself).
func NewLooseTxID(tag uint32) (TxID, error) {
	r, err := NewLooseRaw(tag, 0)
	return TxID{r}, err
}

func NewLooseOutID(tag uint32, vout uint32) (OutID, error) {
	r, err := NewLooseRaw(tag, vout)
	return OutID{r}, err
}

func NewLooseInID(tag uint32, vin uint32) (InID, error) {
	r, err := NewLooseRaw(tag, vin)
	return InID{r}, err
}

func (t TxID) String() string  { return "TxID" + t.Raw.String() }
func (o OutID) String() string { return "OutID" + o.Raw.String() }
func (i InID) String() string  { return "InID" + i.Raw.String() }
