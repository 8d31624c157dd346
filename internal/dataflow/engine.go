package dataflow

import (
	"fmt"
	"sync"

	"github.com/rawblock/coinjoin-engine/internal/graphsrc"
)

// defaultMaxIterations bounds the fixpoint loop (§4.4: "a run that has not
// converged after 100 iterations is a defect in the pipeline definition,
// not a transient condition worth retrying"). Overridable via
// Engine.SetMaxIterations, and in the service binary via
// FIXPOINT_MAX_ITERATIONS (see SPEC_FULL.md Part B).
const defaultMaxIterations = 100

// EvalContext is the read surface a regular Node's Eval sees: its own
// identity (for cursor bookkeeping) and read-only access to the populated
// graph index.
type EvalContext struct {
	storage *NodeStorage
	nodeID  NodeID
	index   graphsrc.GraphIndex
}

func (c *EvalContext) NodeID() NodeID             { return c.nodeID }
func (c *EvalContext) Index() graphsrc.GraphIndex { return c.index }

// Get reads expr's dependency value for the node currently evaluating,
// panicking if expr's producer has never produced a fact — the non-cyclic
// "used before evaluated" misuse the engine never tolerates.
func Get[T Value](ctx *EvalContext, expr Expr[T]) T {
	v, ok := ctx.storage.Get(ctx.nodeID, expr.ID())
	if !ok {
		panic(fmt.Sprintf("dataflow: node %d read node %d before it ever produced a fact", ctx.nodeID, expr.ID()))
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("dataflow: node %d: value type mismatch reading node %d", ctx.nodeID, expr.ID()))
	}
	return t
}

// GetOrDefault reads expr's dependency value, substituting def if its
// producer has never produced a fact (the placeholder-before-unify case).
func GetOrDefault[T Value](ctx *EvalContext, expr Expr[T], def T) T {
	v, ok := ctx.storage.Get(ctx.nodeID, expr.ID())
	if !ok {
		return def
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("dataflow: node %d: value type mismatch reading node %d", ctx.nodeID, expr.ID()))
	}
	return t
}

// SourceEvalContext is the exclusive-access surface a SourceNode sees: the
// one-shot corpus and mutable access to the index being populated.
type SourceEvalContext struct {
	corpus  *graphsrc.Corpus
	builder graphsrc.IndexBuilder
}

// Take consumes the corpus. A second call from a second source node
// (or a retry) observes ok=false, per the corpus's one-shot contract.
func (c *SourceEvalContext) Take() ([]graphsrc.Tx, bool) {
	return c.corpus.Take()
}

// Builder returns exclusive, mutating access to the graph index.
func (c *SourceEvalContext) Builder() graphsrc.IndexBuilder {
	return c.builder
}

// Engine owns one pipeline's registry, fact storage, input corpus and
// graph index, and drives evaluation to a fixpoint.
type Engine struct {
	ctx           *Context
	storage       *NodeStorage
	corpus        *graphsrc.Corpus
	indexMu       sync.RWMutex
	index         graphsrc.IndexBuilder
	maxIterations int
	iterations    int
	onIteration   func(iteration int, nodesEvaluated int, progressed bool)
}

// NewEngine builds an engine over ctx, ready to consume corpus into index
// when RunToFixpoint executes ctx's source nodes.
func NewEngine(ctx *Context, corpus *graphsrc.Corpus, index graphsrc.IndexBuilder) *Engine {
	return &Engine{
		ctx:           ctx,
		storage:       NewNodeStorage(),
		corpus:        corpus,
		index:         index,
		maxIterations: defaultMaxIterations,
	}
}

// SetMaxIterations overrides the fixpoint iteration cap (default 100).
func (e *Engine) SetMaxIterations(n int) {
	e.maxIterations = n
}

// OnIteration registers a callback invoked once after every fixpoint pass
// with the iteration number, how many nodes were (re-)evaluated that
// pass, and whether any of them produced a changed fact. Intended for a
// caller broadcasting run progress (e.g. over a websocket hub). It is
// called synchronously from RunToFixpoint, so it is never called
// concurrently and the next pass starts only after it returns.
func (e *Engine) OnIteration(fn func(iteration int, nodesEvaluated int, progressed bool)) {
	e.onIteration = fn
}

// Iterations reports how many fixpoint passes the last RunToFixpoint call
// took to converge.
func (e *Engine) Iterations() int {
	return e.iterations
}

// Context returns the registry this engine evaluates.
func (e *Engine) Context() *Context {
	return e.ctx
}

// EvaluatedFacts returns the current combined value of the node named by
// id, folding every fact it has ever produced (non_volatile_get). ok is
// false if the node has not produced anything yet.
func (e *Engine) EvaluatedFacts(id NodeID) (Value, bool) {
	return e.storage.Combined(id)
}

// RunToFixpoint executes every source node exactly once, then iterates
// regular nodes in best-effort topological order until no node observes
// new facts from its dependencies, per §4.4. Panics if convergence is not
// reached within the iteration cap — a pipeline-definition defect, not a
// retryable condition.
func (e *Engine) RunToFixpoint() {
	e.runSources()

	order := e.topoSort()
	evaluated := make(map[NodeID]bool, len(order))

	e.iterations = 0
	for {
		e.iterations++
		if e.iterations > e.maxIterations {
			panic(fmt.Sprintf("dataflow: fixpoint did not converge after %d iterations", e.maxIterations))
		}

		progressed := false
		nodesEvaluated := 0
		for _, id := range order {
			node, ok := e.ctx.GetNode(id)
			if !ok {
				continue // source-node ID swept in by topoSort's dependency walk
			}

			deps := node.Dependencies()
			needsEval := !evaluated[id]
			if !needsEval {
				for _, dep := range deps {
					if e.storage.HasNewFacts(id, dep) {
						needsEval = true
						break
					}
				}
			}
			if !needsEval {
				continue
			}

			e.indexMu.RLock()
			ectx := &EvalContext{storage: e.storage, nodeID: id, index: e.index}
			v := node.Eval(ectx)
			e.indexMu.RUnlock()

			evaluated[id] = true
			nodesEvaluated++
			if e.storage.AppendIfChanged(id, v) {
				progressed = true
			}
		}

		if e.onIteration != nil {
			e.onIteration(e.iterations, nodesEvaluated, progressed)
		}

		if !progressed {
			return
		}
	}
}

// runSources executes every registered source node once, with exclusive
// access to the corpus and the index being populated.
func (e *Engine) runSources() {
	for _, id := range e.ctx.AllSourceNodeIDs() {
		node, ok := e.ctx.GetSourceNode(id)
		if !ok {
			continue
		}
		e.indexMu.Lock()
		sctx := &SourceEvalContext{corpus: e.corpus, builder: e.index}
		v := node.EvalSource(sctx)
		e.indexMu.Unlock()
		e.storage.Append(id, v)
	}
}

// topoSort computes a best-effort topological order over regular nodes by
// post-order DFS, skipping any edge back to a node already on the current
// DFS stack (a cycle edge) rather than failing — cyclic pipelines are
// expected and resolved by fixpoint iteration, not by this ordering.
func (e *Engine) topoSort() []NodeID {
	ids := e.ctx.AllNodeIDs()
	visited := make(map[NodeID]bool, len(ids))
	inStack := make(map[NodeID]bool, len(ids))
	order := make([]NodeID, 0, len(ids))

	var visit func(id NodeID)
	visit = func(id NodeID) {
		if visited[id] || inStack[id] {
			return
		}
		inStack[id] = true
		if node, ok := e.ctx.GetNode(id); ok {
			for _, dep := range node.Dependencies() {
				if e.ctx.Contains(dep) {
					visit(dep)
				}
			}
		}
		inStack[id] = false
		visited[id] = true
		order = append(order, id)
	}

	for _, id := range ids {
		visit(id)
	}
	return order
}
