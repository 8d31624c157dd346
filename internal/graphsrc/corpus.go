package graphsrc

import "sync"

// Corpus is a finite, one-shot supply of transactions satisfying the Tx
// contract. The source node consumes it exactly once via Take; the corpus
// is frozen thereafter (§6: "the source consumes it exactly once and
// thereafter the corpus is frozen").
type Corpus struct {
	mu    sync.Mutex
	facts []Tx
	taken bool
}

// NewCorpus wraps a finite slice of transactions as a one-shot corpus.
func NewCorpus(txs []Tx) *Corpus {
	return &Corpus{facts: txs}
}

// Take returns the corpus contents and marks it consumed. Subsequent calls
// return ok=false.
func (c *Corpus) Take() (txs []Tx, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken {
		return nil, false
	}
	c.taken = true
	return c.facts, true
}
