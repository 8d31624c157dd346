// Package graphsrc pins down the external graph-index contract (§6 of the
// engine spec): the read-only query surface the dataflow core consumes to
// walk a UTXO-style transaction graph, plus the one-shot source-corpus
// contract that feeds it. Concrete backends — an in-memory loose graph for
// tests (testgraph), a Bitcoin Core RPC-backed graph (rpcgraph) — live in
// sibling packages and satisfy GraphIndex without the core ever depending
// on their storage details.
package graphsrc

import "github.com/rawblock/coinjoin-engine/internal/ids"

// ScriptHash is the 20-byte script-pubkey hash two outputs are considered
// to "share a script" by.
type ScriptHash [20]byte

// Tx is the read-only view of one transaction's shape.
type Tx interface {
	ID() ids.TxID
	Inputs() []In
	Outputs() []Out
	OutputCount() int
	OutputAt(i int) Out
	LockTime() uint32
}

// In is the read-only view of one transaction input.
type In interface {
	ID() ids.InID
	// PrevTxOutID returns the output this input spends, or ok=false for a
	// coinbase-style input with no previous output.
	PrevTxOutID() (id ids.OutID, ok bool)
	// PrevTxID returns the transaction owning the spent output, or
	// ok=false for coinbase.
	PrevTxID() (id ids.TxID, ok bool)
	// PrevVout returns the spent output's position within its owning
	// transaction, or ok=false for coinbase.
	PrevVout() (vout uint32, ok bool)
}

// Out is the read-only view of one transaction output.
type Out interface {
	ID() ids.OutID
	Value() int64
	ScriptPubKeyHash() ScriptHash
}

// GraphIndex is the abstract graph the dataflow core queries. All queries
// are read-only after the source phase populates it. Missing data is
// always explicit (a bool "found" flag), never a silently wrong answer:
// SpenderForOut returns ok=false for an unspent output, PrevTxOutID
// returns ok=false for a coinbase-style input.
type GraphIndex interface {
	Tx(id ids.TxID) (Tx, bool)
	TxIDForOut(id ids.OutID) (ids.TxID, bool)
	TxIDForIn(id ids.InID) (ids.TxID, bool)
	// SpenderForOut returns the input that spends out, or ok=false if out
	// is unspent (as observed by this index).
	SpenderForOut(out ids.OutID) (ids.InID, bool)
	// ScriptPubKeyToTxOutID returns the canonical first output using hash,
	// or ok=false if no known output uses it.
	ScriptPubKeyToTxOutID(hash ScriptHash) (ids.OutID, bool)
}

// IndexBuilder extends GraphIndex with the mutation the source node needs
// during its one-shot population phase. Backends that are inherently
// complete and read-only (e.g. an RPC-backed chain view) may implement
// AddTx as a no-op.
type IndexBuilder interface {
	GraphIndex
	AddTx(tx Tx)
}

// AllTxIDs is satisfied by backends that can enumerate every transaction
// they know about. The dataflow source nodes do not
// use it; they build their sets from the corpus.
type AllTxIDs interface {
	AllTxIDs() []ids.TxID
}
