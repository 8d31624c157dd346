package rpcgraph

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
	"github.com/rawblock/coinjoin-engine/internal/ids"
)

// rpcTx adapts one btcjson.TxRawResult to graphsrc.Tx, deriving its
// inputs' and outputs' loose IDs from the transaction's own content tag.
type rpcTx struct {
	id    ids.TxID
	raw   *btcjson.TxRawResult
	graph *Graph
	hash  *chainhash.Hash
}

func (t *rpcTx) ID() ids.TxID { return t.id }

func (t *rpcTx) Inputs() []graphsrc.In {
	out := make([]graphsrc.In, len(t.raw.Vin))
	for i, vin := range t.raw.Vin {
		out[i] = &rpcIn{tx: t, index: uint32(i), vin: vin}
	}
	return out
}

func (t *rpcTx) Outputs() []graphsrc.Out {
	out := make([]graphsrc.Out, len(t.raw.Vout))
	for i, vout := range t.raw.Vout {
		out[i] = &rpcOut{tx: t, vout: vout}
	}
	return out
}

func (t *rpcTx) OutputCount() int { return len(t.raw.Vout) }

func (t *rpcTx) OutputAt(i int) graphsrc.Out {
	return &rpcOut{tx: t, vout: t.raw.Vout[i]}
}

func (t *rpcTx) LockTime() uint32 { return t.raw.LockTime }

func (t *rpcTx) tag() uint32 {
	tag, _ := t.id.LooseParts()
	return tag
}

// rpcIn adapts one btcjson.Vin to graphsrc.In.
type rpcIn struct {
	tx    *rpcTx
	index uint32
	vin   btcjson.Vin
}

func (i *rpcIn) ID() (id ids.InID) {
	id, _ = ids.NewLooseInID(i.tx.tag(), i.index)
	return id
}

func (i *rpcIn) isCoinbase() bool {
	return i.vin.Coinbase != ""
}

func (i *rpcIn) PrevTxID() (ids.TxID, bool) {
	if i.isCoinbase() {
		return ids.TxID{}, false
	}
	hash, err := chainhash.NewHashFromStr(i.vin.Txid)
	if err != nil {
		return ids.TxID{}, false
	}
	id, err := ids.NewLooseTxID(tagFor(hash))
	if err != nil {
		return ids.TxID{}, false
	}
	return id, true
}

func (i *rpcIn) PrevVout() (uint32, bool) {
	if i.isCoinbase() {
		return 0, false
	}
	return i.vin.Vout, true
}

func (i *rpcIn) PrevTxOutID() (ids.OutID, bool) {
	if i.isCoinbase() {
		return ids.OutID{}, false
	}
	hash, err := chainhash.NewHashFromStr(i.vin.Txid)
	if err != nil {
		return ids.OutID{}, false
	}
	id, err := ids.NewLooseOutID(tagFor(hash), i.vin.Vout)
	if err != nil {
		return ids.OutID{}, false
	}
	return id, true
}

// rpcOut adapts one btcjson.Vout to graphsrc.Out.
type rpcOut struct {
	tx   *rpcTx
	vout btcjson.Vout
}

func (o *rpcOut) ID() (id ids.OutID) {
	id, _ = ids.NewLooseOutID(o.tx.tag(), o.vout.N)
	return id
}

func (o *rpcOut) Value() int64 {
	return int64(o.vout.Value * 1e8)
}

func (o *rpcOut) ScriptPubKeyHash() graphsrc.ScriptHash {
	var h graphsrc.ScriptHash
	script, err := hex.DecodeString(o.vout.ScriptPubKey.Hex)
	if err != nil {
		return h
	}
	sum := sha256.Sum256(script)
	copy(h[:], sum[:20])
	return h
}

var (
	_ graphsrc.Tx  = (*rpcTx)(nil)
	_ graphsrc.In  = (*rpcIn)(nil)
	_ graphsrc.Out = (*rpcOut)(nil)
)
