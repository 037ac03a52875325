package adt

import (
	"strings"

	"github.com/cockroachdb/apd/v3"

	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

// EvalNode walks an expr.Node against scope, implementing the per-kind
// rules of spec.md §4.E. rng is the source range of the deferred value
// that is driving this evaluation (expr.Node carries only byte offsets
// into its own expression text, not a file-anchored position, so every
// value produced while evaluating one expression shares its owning
// deferred's range).
func EvalNode(ctx *Context, scope *Tuple, n expr.Node, rng token.Range) (Value, error) {
	switch x := n.(type) {
	case *expr.Constant:
		return evalConstant(ctx, scope, x, rng)
	case *expr.Name:
		return Lookup(ctx, scope, x.Ident, rng)
	case *expr.Attribute:
		return evalAttribute(ctx, scope, x, rng)
	case *expr.Subscript:
		return evalSubscript(ctx, scope, x, rng)
	case *expr.Slice:
		return evalSlice(ctx, scope, x, rng)
	case *expr.UnaryOp:
		return evalUnaryOp(ctx, scope, x, rng)
	case *expr.BinOp:
		return evalBinOp(ctx, scope, x, rng)
	case *expr.Compare:
		return evalCompare(ctx, scope, x, rng)
	case *expr.BoolOp:
		return evalBoolOp(ctx, scope, x, rng)
	case *expr.IfExp:
		return evalIfExp(ctx, scope, x, rng)
	case *expr.Call:
		return evalCall(ctx, scope, x, rng)
	case *expr.ListLit:
		return evalListLit(ctx, scope, x, rng)
	case *expr.TupleLit:
		return evalTupleLit(ctx, scope, x, rng)
	case *expr.SetLit:
		return evalSetLit(ctx, scope, x, rng)
	case *expr.DictLit:
		return evalDictLit(ctx, scope, x, rng)
	case *expr.Comprehension:
		return evalComprehension(ctx, scope, x, rng)
	default:
		return nil, ctx.Errorf(NotImplemented, "unsupported expression node %T", n)
	}
}

func evalConstant(ctx *Context, scope *Tuple, c *expr.Constant, rng token.Range) (Value, error) {
	switch c.Kind {
	case expr.ConstString:
		out, err := interpolateString(ctx, scope, c.Text, rng)
		if err != nil {
			return nil, err
		}
		return String(out), nil
	case expr.ConstInt:
		return parseIntLiteral(c.Text, rng)
	case expr.ConstFloat:
		return parseFloatLiteral(c.Text, rng)
	case expr.ConstBool:
		return Bool(c.Text == "true"), nil
	case expr.ConstNull:
		return NullValue(rng), nil
	default:
		return nil, ctx.Errorf(NotImplemented, "unsupported constant kind")
	}
}

func evalAttribute(ctx *Context, scope *Tuple, a *expr.Attribute, rng token.Range) (Value, error) {
	v, err := EvalNode(ctx, scope, a.X, rng)
	if err != nil {
		return nil, err
	}
	switch a.Attr {
	case "up":
		t, ok := v.(*Tuple)
		if !ok {
			return nil, ctx.Errorf(NotImplemented, "`.up` requires a tuple")
		}
		if t.Parent() == nil {
			return nil, ctx.Errorf(NameNotFound, "`up` has no meaning at the module root")
		}
		return t.Parent(), nil
	case "super":
		t, ok := v.(*Tuple)
		if !ok {
			return nil, ctx.Errorf(NotImplemented, "`.super` requires a tuple")
		}
		if t.Super() == nil {
			return nil, ctx.Errorf(NameNotFound, "tuple has no `super`")
		}
		return t.Super(), nil
	}
	return indexNamed(ctx, v, a.Attr)
}

// indexNamed performs member access by name: local-only resolution (no
// outward walk) against a Tuple, or host-map indexing otherwise (spec.md
// §4.E "Attribute").
func indexNamed(ctx *Context, v Value, key string) (Value, error) {
	switch x := v.(type) {
	case *Tuple:
		return x.Get(ctx, key)
	case *HostMap:
		if val, ok := x.Entries[key]; ok {
			return val, nil
		}
		return nil, ctx.Errorf(NameNotFound, "there is no variable called `%s`", key)
	default:
		return nil, ctx.Errorf(NotImplemented, "value is not indexable by name `%s`", key)
	}
}

func evalSubscript(ctx *Context, scope *Tuple, s *expr.Subscript, rng token.Range) (Value, error) {
	v, err := EvalNode(ctx, scope, s.X, rng)
	if err != nil {
		return nil, err
	}
	idx, err := EvalNode(ctx, scope, s.Index, rng)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case List:
		i, err := listIndex(ctx, len(x.Elems), idx)
		if err != nil {
			return nil, err
		}
		return x.Elems[i], nil
	case String:
		runes := []rune(string(x))
		i, err := listIndex(ctx, len(runes), idx)
		if err != nil {
			return nil, err
		}
		return String(string(runes[i])), nil
	case *Tuple, *HostMap:
		key, err := asKeyString(idx)
		if err != nil {
			return nil, ctx.Errorf(NotImplemented, "%v", err)
		}
		return indexNamed(ctx, v, key)
	default:
		return nil, ctx.Errorf(NotImplemented, "value is not subscriptable")
	}
}

func listIndex(ctx *Context, n int, idx Value) (int, error) {
	i, ok := idx.(Int)
	if !ok {
		return 0, ctx.Errorf(NotImplemented, "index must be an integer")
	}
	v := int(asInt64(i))
	if v < 0 {
		v += n
	}
	if v < 0 || v >= n {
		return 0, ctx.Errorf(NotImplemented, "index out of range")
	}
	return v, nil
}

func evalSlice(ctx *Context, scope *Tuple, s *expr.Slice, rng token.Range) (Value, error) {
	v, err := EvalNode(ctx, scope, s.X, rng)
	if err != nil {
		return nil, err
	}
	var n int
	switch x := v.(type) {
	case List:
		n = len(x.Elems)
	case String:
		n = len([]rune(string(x)))
	default:
		return nil, ctx.Errorf(NotImplemented, "value is not sliceable")
	}
	lo, hi := 0, n
	if s.Lo != nil {
		lv, err := EvalNode(ctx, scope, s.Lo, rng)
		if err != nil {
			return nil, err
		}
		lo = clampSliceIndex(int(asInt64(lv)), n)
	}
	if s.Hi != nil {
		hv, err := EvalNode(ctx, scope, s.Hi, rng)
		if err != nil {
			return nil, err
		}
		hi = clampSliceIndex(int(asInt64(hv)), n)
	}
	if hi < lo {
		hi = lo
	}
	switch x := v.(type) {
	case List:
		out := append([]Value{}, x.Elems[lo:hi]...)
		return NewList(out, rng), nil
	case String:
		runes := []rune(string(x))
		return String(string(runes[lo:hi])), nil
	}
	panic("unreachable")
}

func clampSliceIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func evalUnaryOp(ctx *Context, scope *Tuple, u *expr.UnaryOp, rng token.Range) (Value, error) {
	if u.Op == "not" {
		v, err := EvalNode(ctx, scope, u.X, rng)
		if err != nil {
			return nil, err
		}
		return Bool(!Truthy(v)), nil
	}
	v, err := EvalNode(ctx, scope, u.X, rng)
	if err != nil {
		return nil, err
	}
	d, isFloat, ok := asDecimal(v)
	if !ok {
		return nil, ctx.Errorf(NotImplemented, "unary `%s` requires a number", u.Op)
	}
	switch u.Op {
	case "+":
		return v, nil
	case "-":
		var neg apd.Decimal
		neg.Neg(&d)
		if isFloat {
			return Float{D: neg, rng: rng}, nil
		}
		return Int{D: neg, rng: rng}, nil
	case "~":
		bi, ok := asBigInt(d)
		if !ok {
			return nil, ctx.Errorf(NotImplemented, "`~` requires an integer")
		}
		bi.Not(bi)
		var out apd.Decimal
		out.SetString(bi.String())
		return Int{D: out, rng: rng}, nil
	}
	return nil, ctx.Errorf(NotImplemented, "unsupported unary operator `%s`", u.Op)
}

func evalBinOp(ctx *Context, scope *Tuple, b *expr.BinOp, rng token.Range) (Value, error) {
	if b.Op == "@" {
		xv, err := EvalNode(ctx, scope, b.X, rng)
		if err != nil {
			return nil, err
		}
		yv, err := EvalNode(ctx, scope, b.Y, rng)
		if err != nil {
			return nil, err
		}
		xt, ok := xv.(*Tuple)
		if !ok {
			return nil, ctx.Errorf(CompositionTypeError, "left side of `@` did not evaluate to a tuple")
		}
		yt, ok := yv.(*Tuple)
		if !ok {
			return nil, ctx.Errorf(CompositionTypeError, "right side of `@` did not evaluate to a tuple")
		}
		return Composite(ctx, []*Tuple{xt, yt}, scope, rng)
	}
	xv, err := EvalNode(ctx, scope, b.X, rng)
	if err != nil {
		return nil, err
	}
	yv, err := EvalNode(ctx, scope, b.Y, rng)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case "in", "not-in":
		found, err := containsValue(ctx, yv, xv)
		if err != nil {
			return nil, err
		}
		if b.Op == "not-in" {
			found = !found
		}
		return Bool(found), nil
	case "is", "is-not":
		eq := structuralEqual(xv, yv)
		if b.Op == "is-not" {
			eq = !eq
		}
		return Bool(eq), nil
	}
	return arith(b.Op, xv, yv, rng)
}

func containsValue(ctx *Context, container, needle Value) (bool, error) {
	switch x := container.(type) {
	case List:
		for _, e := range x.Elems {
			if structuralEqual(e, needle) {
				return true, nil
			}
		}
		return false, nil
	case String:
		sub, ok := needle.(String)
		if !ok {
			return false, ctx.Errorf(NotImplemented, "`in` on a string requires a string operand")
		}
		return strings.Contains(string(x), string(sub)), nil
	case *Tuple:
		key, err := asKeyString(needle)
		if err != nil {
			return false, nil
		}
		return x.Contains(key), nil
	case *HostMap:
		key, err := asKeyString(needle)
		if err != nil {
			return false, nil
		}
		_, ok := x.Entries[key]
		return ok, nil
	default:
		return false, ctx.Errorf(NotImplemented, "`in` is not supported on this type")
	}
}

func evalCompare(ctx *Context, scope *Tuple, c *expr.Compare, rng token.Range) (Value, error) {
	left, err := EvalNode(ctx, scope, c.First, rng)
	if err != nil {
		return nil, err
	}
	for i, op := range c.Ops {
		right, err := EvalNode(ctx, scope, c.Rest[i], rng)
		if err != nil {
			return nil, err
		}
		ok, err := compareOne(ctx, op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return Bool(false), nil
		}
		left = right
	}
	return Bool(true), nil
}

func compareOne(ctx *Context, op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return structuralEqual(a, b), nil
	case "!=":
		return !structuralEqual(a, b), nil
	case "is":
		return structuralEqual(a, b), nil
	case "is-not":
		return !structuralEqual(a, b), nil
	case "in", "not-in":
		found, err := containsValue(ctx, b, a)
		if err != nil {
			return false, err
		}
		if op == "not-in" {
			found = !found
		}
		return found, nil
	}
	da, _, oka := asDecimal(a)
	db, _, okb := asDecimal(b)
	if oka && okb {
		cmp := numericCompare(da, db)
		return compareCmp(op, cmp), nil
	}
	if sa, ok := a.(String); ok {
		if sb, ok := b.(String); ok {
			cmp := strings.Compare(string(sa), string(sb))
			return compareCmp(op, cmp), nil
		}
	}
	return false, ctx.Errorf(NotImplemented, "unsupported operand types for `%s`", op)
}

func compareCmp(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func evalBoolOp(ctx *Context, scope *Tuple, b *expr.BoolOp, rng token.Range) (Value, error) {
	var last Value
	for _, n := range b.Vals {
		v, err := EvalNode(ctx, scope, n, rng)
		if err != nil {
			return nil, err
		}
		last = v
		if b.Op == "or" && Truthy(v) {
			return v, nil
		}
		if b.Op == "and" && !Truthy(v) {
			return v, nil
		}
	}
	return last, nil
}

func evalIfExp(ctx *Context, scope *Tuple, n *expr.IfExp, rng token.Range) (Value, error) {
	c, err := EvalNode(ctx, scope, n.Cond, rng)
	if err != nil {
		return nil, err
	}
	if Truthy(c) {
		return EvalNode(ctx, scope, n.X, rng)
	}
	return EvalNode(ctx, scope, n.Y, rng)
}

func evalListLit(ctx *Context, scope *Tuple, n *expr.ListLit, rng token.Range) (Value, error) {
	elems := make([]Value, len(n.Elts))
	for i, e := range n.Elts {
		v, err := EvalNode(ctx, scope, e, rng)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return NewList(elems, rng), nil
}

// evalTupleLit evaluates a parenthesized tuple literal `(a, b, c)`: the
// expression grammar's notion of a fixed-size sequence, represented the
// same way as a list since Yamlet's own "Tuple" type is the scope object,
// not this grammar construct (spec.md §4.D literal list; the ambiguity is
// inherited from the corpus's own overloaded terminology).
func evalTupleLit(ctx *Context, scope *Tuple, n *expr.TupleLit, rng token.Range) (Value, error) {
	elems := make([]Value, len(n.Elts))
	for i, e := range n.Elts {
		v, err := EvalNode(ctx, scope, e, rng)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return NewList(elems, rng), nil
}

func evalSetLit(ctx *Context, scope *Tuple, n *expr.SetLit, rng token.Range) (Value, error) {
	var elems []Value
	for _, e := range n.Elts {
		v, err := EvalNode(ctx, scope, e, rng)
		if err != nil {
			return nil, err
		}
		dup := false
		for _, existing := range elems {
			if structuralEqual(existing, v) {
				dup = true
				break
			}
		}
		if !dup {
			elems = append(elems, v)
		}
	}
	return NewList(elems, rng), nil
}

// evalDictLit evaluates an expression-level `{k: v, …}` literal as an
// inline tuple (spec.md §4.E: "dict literal values become
// ExpressionEvaluate deferreds wrapped in a fresh tuple with the correct
// parent, so that late-binding references … resolve against the
// enclosing composed scope"). The brace syntax is the same one `t1 {
// overrides }` composition uses, so a standalone `{...}` expression
// literal and a composition overlay are the same construct at this layer.
func evalDictLit(ctx *Context, scope *Tuple, n *expr.DictLit, rng token.Range) (Value, error) {
	out := NewTuple(scope, scope.options, rng)
	for _, e := range n.Entries {
		// A bare name as key (`{c: 30}`) names the key itself, the way an
		// overlay's keys do; any other key expression is evaluated.
		if nm, ok := e.Key.(*expr.Name); ok {
			out.setCell(nm.Ident, NewExpressionEvaluate(e.Value, rng), out)
			continue
		}
		keyV, err := EvalNode(ctx, scope, e.Key, rng)
		if err != nil {
			return nil, err
		}
		key, err := asKeyString(keyV)
		if err != nil {
			return nil, ctx.Errorf(NotImplemented, "%v", err)
		}
		out.setCell(key, NewExpressionEvaluate(e.Value, rng), out)
	}
	return out, nil
}

// evalComprehension materializes list/set/dict/generator comprehensions
// eagerly: the engine has no host-visible lazy iterator value, so a
// generator expression behaves like a list comprehension here.
func evalComprehension(ctx *Context, scope *Tuple, n *expr.Comprehension, rng token.Range) (Value, error) {
	var listOut []Value
	dictOut := NewHostMap(rng)
	err := walkCompClauses(ctx, scope, n.Clauses, 0, func(inner *Tuple) error {
		switch n.Kind {
		case expr.CompDict:
			kv, err := EvalNode(ctx, inner, n.Key, rng)
			if err != nil {
				return err
			}
			vv, err := EvalNode(ctx, inner, n.Value, rng)
			if err != nil {
				return err
			}
			key, err := asKeyString(kv)
			if err != nil {
				return ctx.Errorf(NotImplemented, "%v", err)
			}
			dictOut.Set(key, vv)
		case expr.CompSet:
			v, err := EvalNode(ctx, inner, n.Elt, rng)
			if err != nil {
				return err
			}
			for _, existing := range listOut {
				if structuralEqual(existing, v) {
					return nil
				}
			}
			listOut = append(listOut, v)
		default:
			v, err := EvalNode(ctx, inner, n.Elt, rng)
			if err != nil {
				return err
			}
			listOut = append(listOut, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if n.Kind == expr.CompDict {
		return dictOut, nil
	}
	return NewList(listOut, rng), nil
}

// walkCompClauses recursively binds each `for`/`if` clause, invoking body
// once per surviving combination of iteration variables.
func walkCompClauses(ctx *Context, scope *Tuple, clauses []expr.CompClause, i int, body func(*Tuple) error) error {
	if i >= len(clauses) {
		return body(scope)
	}
	cl := clauses[i]
	iterV, err := EvalNode(ctx, scope, cl.Iter, token.Range{})
	if err != nil {
		return err
	}
	items, err := iterableElems(ctx, iterV)
	if err != nil {
		return err
	}
	for _, item := range items {
		inner := NewTuple(scope, scope.options, token.Range{})
		if err := bindTargets(ctx, inner, cl.Targets, item); err != nil {
			return err
		}
		ok := true
		for _, cond := range cl.Ifs {
			v, err := EvalNode(ctx, inner, cond, token.Range{})
			if err != nil {
				return err
			}
			if !Truthy(v) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if err := walkCompClauses(ctx, inner, clauses, i+1, body); err != nil {
			return err
		}
	}
	return nil
}

func iterableElems(ctx *Context, v Value) ([]Value, error) {
	switch x := v.(type) {
	case List:
		return x.Elems, nil
	case String:
		runes := []rune(string(x))
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = String(string(r))
		}
		return out, nil
	case *Tuple:
		keys := x.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return out, nil
	default:
		return nil, ctx.Errorf(NotImplemented, "value is not iterable")
	}
}

func bindTargets(ctx *Context, inner *Tuple, targets []string, item Value) error {
	if len(targets) == 1 {
		inner.setCell(targets[0], item, inner)
		return nil
	}
	l, ok := item.(List)
	if !ok || len(l.Elems) != len(targets) {
		return ctx.Errorf(NotImplemented, "cannot unpack comprehension target")
	}
	for i, t := range targets {
		inner.setCell(t, l.Elems[i], inner)
	}
	return nil
}
