package testgraph

import (
	"encoding/binary"

	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// Builder assembles a small transaction graph fluently, auto-numbering
// dense IDs as transactions and outputs are declared, then hands the
// finished set to a Graph via Build.
type Builder struct {
	txs     []*txBuilder
	nextTx  uint64
	nextOut uint64
	nextIn  uint64
}

// NewBuilder returns an empty fixture builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// txBuilder accumulates one transaction's outputs and inputs before Build.
type txBuilder struct {
	id       ids.TxID
	outs     []graphsrc.Out
	ins      []graphsrc.In
	lockTime uint32
}

// Tx starts a new transaction and returns it for chaining Output/Spend
// calls. Transactions are numbered in declaration order.
func (b *Builder) Tx() *txBuilder {
	tx := &txBuilder{id: ids.NewDenseTxID(b.nextTx)}
	b.nextTx++
	b.txs = append(b.txs, tx)
	return tx
}

func (b *Builder) allocOut() ids.OutID {
	id := ids.NewDenseOutID(b.nextOut)
	b.nextOut++
	return id
}

func (b *Builder) allocIn() ids.InID {
	id := ids.NewDenseInID(b.nextIn)
	b.nextIn++
	return id
}

// ID returns the transaction's assigned ID.
func (t *txBuilder) ID() ids.TxID { return t.id }

// Output appends a new output of the given value to t and returns its ID.
// Needs the owning Builder to allocate the output's global dense ID. Each
// output gets a script hash derived from its own ID, so two outputs never
// accidentally collide into the same same-address cluster — call
// OutputWithScript directly when a fixture needs deliberate address reuse.
func (t *txBuilder) Output(b *Builder, value int64) ids.OutID {
	id := b.allocOut()
	t.outs = append(t.outs, Out{id: id, value: value, script: scriptHashForOutID(id)})
	return id
}

// scriptHashForOutID derives a distinct placeholder script hash from an
// output's dense index, so fixtures built with Output alone never
// accidentally alias under same-address clustering.
func scriptHashForOutID(id ids.OutID) graphsrc.ScriptHash {
	var h graphsrc.ScriptHash
	binary.BigEndian.PutUint64(h[12:], uint64(id.Raw.DenseIndex()))
	return h
}

// OutputWithScript is Output, additionally tagging the output with a
// script hash so same-script clustering fixtures can be built.
func (t *txBuilder) OutputWithScript(b *Builder, value int64, script graphsrc.ScriptHash) ids.OutID {
	id := b.allocOut()
	t.outs = append(t.outs, Out{id: id, value: value, script: script})
	return id
}

// Spend appends an input to t consuming prevOut (owned by prevTx at
// position vout).
func (t *txBuilder) Spend(b *Builder, prevTx ids.TxID, prevOut ids.OutID, vout uint32) ids.InID {
	id := b.allocIn()
	t.ins = append(t.ins, In{id: id, prevTx: prevTx, prevOut: prevOut, prevVout: vout})
	return id
}

// Coinbase appends a coinbase-style input (no previous output) to t.
func (t *txBuilder) Coinbase(b *Builder) ids.InID {
	id := b.allocIn()
	t.ins = append(t.ins, In{id: id, coinbase: true})
	return id
}

// LockTime sets t's nLockTime field, returning t for chaining.
func (t *txBuilder) LockTime(lt uint32) *txBuilder {
	t.lockTime = lt
	return t
}

// Txs returns every graphsrc.Tx declared so far, in declaration order.
func (b *Builder) Txs() []graphsrc.Tx {
	out := make([]graphsrc.Tx, len(b.txs))
	for i, t := range b.txs {
		out[i] = Tx{id: t.id, inputs: t.ins, outputs: t.outs, lockTime: t.lockTime}
	}
	return out
}

// Build populates a fresh Graph with every declared transaction and
// returns it.
func (b *Builder) Build() *Graph {
	g := New()
	for _, tx := range b.Txs() {
		g.AddTx(tx)
	}
	return g
}
