// Package dataflow implements the typed lazy dataflow engine: an
// expression graph of nodes producing semantic collection values (sets,
// masks, clusterings), with dependency tracking, topological evaluation,
// and fixpoint iteration so a clustering may depend on a classifier that
// depends (transitively) on the clustering itself.
package dataflow

// NodeID is a node's monotonically assigned identity within one Context.
// IDs never recycle.
type NodeID int64

// Node is a pure function of its dependencies. It may be evaluated more
// than once during fixpoint iteration; Eval must be deterministic given
// the values its dependencies currently hold.
type Node interface {
	// Dependencies lists the node IDs this node reads from via EvalContext.
	// A placeholder reports no dependencies until unified (§4.6).
	Dependencies() []NodeID
	// Name identifies the node kind for diagnostics/logging.
	Name() string
	// Eval computes this node's next fact from the current EvalContext.
	Eval(ctx *EvalContext) Value
}

// SourceNode has no dependencies and is executed exactly once, at the
// start of a run, with exclusive access to the input corpus and the
// external graph index being populated.
type SourceNode interface {
	Name() string
	EvalSource(ctx *SourceEvalContext) Value
}
