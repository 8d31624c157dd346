// Package testgraph implements an in-memory graphsrc.IndexBuilder for
// tests and a fluent Builder for constructing small transaction graphs by
// hand, grounded on the teacher's habit of building models.Transaction
// literals directly in test files rather than round-tripping fixtures
// through a parser.
package testgraph

import (
	"sync"

	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// Out is a concrete graphsrc.Out.
type Out struct {
	id     ids.OutID
	value  int64
	script graphsrc.ScriptHash
}

func (o Out) ID() ids.OutID                        { return o.id }
func (o Out) Value() int64                         { return o.value }
func (o Out) ScriptPubKeyHash() graphsrc.ScriptHash { return o.script }

// In is a concrete graphsrc.In. A zero-value PrevTx/PrevOut/PrevVout marks
// a coinbase-style input with Coinbase set true.
type In struct {
	id       ids.InID
	prevOut  ids.OutID
	prevTx   ids.TxID
	prevVout uint32
	coinbase bool
}

func (i In) ID() ids.InID { return i.id }

func (i In) PrevTxOutID() (ids.OutID, bool) {
	if i.coinbase {
		return ids.OutID{}, false
	}
	return i.prevOut, true
}

func (i In) PrevTxID() (ids.TxID, bool) {
	if i.coinbase {
		return ids.TxID{}, false
	}
	return i.prevTx, true
}

func (i In) PrevVout() (uint32, bool) {
	if i.coinbase {
		return 0, false
	}
	return i.prevVout, true
}

// Tx is a concrete graphsrc.Tx.
type Tx struct {
	id       ids.TxID
	inputs   []graphsrc.In
	outputs  []graphsrc.Out
	lockTime uint32
}

func (t Tx) ID() ids.TxID                   { return t.id }
func (t Tx) Inputs() []graphsrc.In          { return t.inputs }
func (t Tx) Outputs() []graphsrc.Out        { return t.outputs }
func (t Tx) OutputCount() int               { return len(t.outputs) }
func (t Tx) OutputAt(i int) graphsrc.Out    { return t.outputs[i] }
func (t Tx) LockTime() uint32               { return t.lockTime }

// Graph is a loose, in-memory graphsrc.IndexBuilder backed by plain maps —
// adequate for unit tests and small fixtures, never meant to scale to a
// real chain (that is rpcgraph's job).
type Graph struct {
	mu        sync.RWMutex
	txs       map[ids.TxID]graphsrc.Tx
	outOwner  map[ids.OutID]ids.TxID
	spender   map[ids.OutID]ids.InID
	inOwner   map[ids.InID]ids.TxID
	scriptOut map[graphsrc.ScriptHash]ids.OutID
	order     []ids.TxID
}

// New returns an empty graph ready to be populated via AddTx.
func New() *Graph {
	return &Graph{
		txs:       make(map[ids.TxID]graphsrc.Tx),
		outOwner:  make(map[ids.OutID]ids.TxID),
		spender:   make(map[ids.OutID]ids.InID),
		inOwner:   make(map[ids.InID]ids.TxID),
		scriptOut: make(map[graphsrc.ScriptHash]ids.OutID),
	}
}

// AddTx indexes tx's outputs and inputs. Calling AddTx twice for the same
// transaction ID overwrites the first registration.
func (g *Graph) AddTx(tx graphsrc.Tx) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.txs[tx.ID()]; !exists {
		g.order = append(g.order, tx.ID())
	}
	g.txs[tx.ID()] = tx

	for _, o := range tx.Outputs() {
		g.outOwner[o.ID()] = tx.ID()
		if _, seen := g.scriptOut[o.ScriptPubKeyHash()]; !seen {
			g.scriptOut[o.ScriptPubKeyHash()] = o.ID()
		}
	}
	for _, in := range tx.Inputs() {
		g.inOwner[in.ID()] = tx.ID()
		if prevOut, ok := in.PrevTxOutID(); ok {
			g.spender[prevOut] = in.ID()
		}
	}
}

func (g *Graph) Tx(id ids.TxID) (graphsrc.Tx, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.txs[id]
	return t, ok
}

func (g *Graph) TxIDForOut(id ids.OutID) (ids.TxID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.outOwner[id]
	return t, ok
}

func (g *Graph) TxIDForIn(id ids.InID) (ids.TxID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.inOwner[id]
	return t, ok
}

func (g *Graph) SpenderForOut(out ids.OutID) (ids.InID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	in, ok := g.spender[out]
	return in, ok
}

func (g *Graph) ScriptPubKeyToTxOutID(hash graphsrc.ScriptHash) (ids.OutID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.scriptOut[hash]
	return id, ok
}

// AllTxIDs returns every transaction ID added, in AddTx order.
func (g *Graph) AllTxIDs() []ids.TxID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ids.TxID, len(g.order))
	copy(out, g.order)
	return out
}

var (
	_ graphsrc.IndexBuilder = (*Graph)(nil)
	_ graphsrc.AllTxIDs     = (*Graph)(nil)
)
