package adt

import (
	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

// Lambda is the callable deferred value kind from spec.md §4.B: a
// positional/named parameter list plus a body expression, evaluated in a
// fresh child scope on every call.
//
// Closure is rebound to the tuple that currently holds this cell every
// time the enclosing tuple is cloned (see Clone below), which gives
// lambdas the same late-binding behavior as every other deferred kind:
// free variables resolve against wherever the lambda ends up living after
// composition, not against the tuple it was written in.
type Lambda struct {
	Params   []string
	Defaults map[string]expr.Node // parameter -> default-value expression
	Body     expr.Node
	Closure  *Tuple
	rng      token.Range
}

// NewLambda constructs a Lambda rooted at closure (the tuple under
// construction when the `!lambda` tag was decoded).
func NewLambda(params []string, defaults map[string]expr.Node, body expr.Node, closure *Tuple, rng token.Range) *Lambda {
	return &Lambda{Params: params, Defaults: defaults, Body: body, Closure: closure, rng: rng}
}

func (l *Lambda) Pos() token.Range { return l.rng }

// Resolve returns the lambda itself: a lambda cell's "value" is the
// callable, not a call result (spec.md §4.B).
func (l *Lambda) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return l, nil
}

func (l *Lambda) IsUndefined(scope *Tuple, ctx *Context) (bool, error) {
	return false, nil
}

func (l *Lambda) Clone(newScope *Tuple) Deferred {
	return &Lambda{Params: l.Params, Defaults: l.Defaults, Body: l.Body, Closure: newScope, rng: l.rng}
}

// Call binds args positionally then kwargs by name into a fresh child of
// the closure scope, filling any remaining parameters from their default
// expressions, then evaluates Body there.
func (l *Lambda) Call(ctx *Context, args []Value, kwargs map[string]Value) (Value, error) {
	scope := NewTuple(l.Closure, l.Closure.options, l.rng)
	bound := make(map[string]bool, len(l.Params))
	for i, p := range l.Params {
		if i < len(args) {
			scope.setCell(p, args[i], scope)
			bound[p] = true
		}
	}
	for k, v := range kwargs {
		scope.setCell(k, v, scope)
		bound[k] = true
	}
	for _, p := range l.Params {
		if bound[p] {
			continue
		}
		def, ok := l.Defaults[p]
		if !ok {
			return nil, ctx.Errorf(LambdaCallError, "missing argument `%s`", p)
		}
		v, err := EvalNode(ctx, scope, def, l.rng)
		if err != nil {
			return nil, err
		}
		scope.setCell(p, v, scope)
	}
	return EvalNode(ctx, scope, l.Body, l.rng)
}
