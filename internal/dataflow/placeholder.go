package dataflow

import "fmt"

// Placeholder is a node registered with no dependencies, later unified
// with exactly one target node to close a cycle (§4.6) — e.g. a global
// clustering node that a unilateral-input classifier reads, where the
// classifier itself feeds the clustering. Unify may be called at most
// once; a second call panics.
type Placeholder[T Value] struct {
	expr   Expr[T]
	target *NodeID
}

// NewPlaceholder registers an unresolved placeholder node of type T.
func NewPlaceholder[T Value](ctx *Context) Placeholder[T] {
	node := &placeholderNode[T]{}
	expr := NewExpr[T](ctx, node)
	node.self = expr.ID()
	return Placeholder[T]{expr: expr}
}

// Expr returns the stable handle other nodes depend on — valid before and
// after Unify.
func (p Placeholder[T]) Expr() Expr[T] {
	return p.expr
}

// IsUnified reports whether Unify has already been called.
func (p Placeholder[T]) IsUnified() bool {
	return p.target != nil
}

// UnifiedTarget returns the node this placeholder was unified with, if
// any.
func (p Placeholder[T]) UnifiedTarget() (NodeID, bool) {
	if p.target == nil {
		return 0, false
	}
	return *p.target, true
}

// Unify closes the cycle: the placeholder's node now depends on target
// and its Eval reads target's current value through, stale or fresh, same
// as any ordinary dependency read. Panics if this placeholder has already
// been unified.
func (p *Placeholder[T]) Unify(target Expr[T]) {
	if p.target != nil {
		panic(fmt.Sprintf("dataflow: placeholder node %d unified twice", p.expr.ID()))
	}
	t := target.ID()
	p.target = &t

	node, _ := p.expr.Ctx().GetNode(p.expr.ID())
	pn := node.(*placeholderNode[T])
	pn.target = &t
}

// placeholderNode is the Node behind a Placeholder. Before Unify it
// reports no dependencies and its Eval returns the zero value of T (the
// engine evaluates every registered node on its first pass, so an
// un-unified placeholder is still evaluated). After Unify it depends on
// target and its Eval simply mirrors target's current value.
type placeholderNode[T Value] struct {
	self   NodeID
	target *NodeID
}

func (n *placeholderNode[T]) Name() string {
	return "Placeholder"
}

func (n *placeholderNode[T]) Dependencies() []NodeID {
	if n.target == nil {
		return nil
	}
	return []NodeID{*n.target}
}

func (n *placeholderNode[T]) Eval(ctx *EvalContext) Value {
	if n.target == nil {
		var zero T
		return zero
	}
	v, ok := ctx.storage.Get(n.self, *n.target)
	if !ok {
		var zero T
		return zero
	}
	return v
}
