package adt

import (
	"github.com/cockroachdb/apd/v3"

	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

// evalCall implements spec.md §4.E "Call": the callee may resolve to a
// Lambda, a host function, or one of the fixed builtins (`cond`, `len`,
// `int`, `float`, `str`). A bare-name callee that already resolves inside
// scope (a user value shadowing a builtin name) always wins.
func evalCall(ctx *Context, scope *Tuple, c *expr.Call, rng token.Range) (Value, error) {
	if name, ok := simpleCalleeName(c.Func); ok && !nameResolves(ctx, scope, name) {
		switch name {
		case "cond":
			return evalCond(ctx, scope, c, rng)
		case "len", "int", "float", "str":
			return evalUnaryBuiltin(ctx, scope, name, c, rng)
		}
		if hf, ok := ctx.Options.Functions[name]; ok {
			return callHostFunc(ctx, scope, hf, c, rng)
		}
	}

	calleeV, err := EvalNode(ctx, scope, c.Func, rng)
	if err != nil {
		return nil, err
	}
	lam, ok := calleeV.(*Lambda)
	if !ok {
		return nil, ctx.Errorf(NotImplemented, "value is not callable")
	}
	args, kwargs, err := evalCallArgs(ctx, scope, c, rng)
	if err != nil {
		return nil, err
	}
	return lam.Call(ctx, args, kwargs)
}

func simpleCalleeName(n expr.Node) (string, bool) {
	name, ok := n.(*expr.Name)
	if !ok {
		return "", false
	}
	return name.Ident, true
}

// nameResolves probes whether n is already bound in scope, so builtins act
// purely as a fallback behind user definitions (spec.md §4.F describes
// name resolution; builtins live entirely outside that chain, so a
// successful Lookup always takes precedence).
func nameResolves(ctx *Context, scope *Tuple, n string) bool {
	_, err := Lookup(ctx, scope, n, token.Range{})
	return err == nil
}

func evalCallArgs(ctx *Context, scope *Tuple, c *expr.Call, rng token.Range) ([]Value, map[string]Value, error) {
	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		v, err := EvalNode(ctx, scope, a, rng)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	var kwargs map[string]Value
	if len(c.Kwargs) > 0 {
		kwargs = make(map[string]Value, len(c.Kwargs))
		for _, kw := range c.Kwargs {
			v, err := EvalNode(ctx, scope, kw.Value, rng)
			if err != nil {
				return nil, nil, err
			}
			kwargs[kw.Name] = v
		}
	}
	return args, kwargs, nil
}

func callHostFunc(ctx *Context, scope *Tuple, hf HostFunc, c *expr.Call, rng token.Range) (Value, error) {
	args, kwargs, err := evalCallArgs(ctx, scope, c, rng)
	if err != nil {
		return nil, err
	}
	return hf(ctx, args, kwargs)
}

// evalCond is the one argument-deferring builtin (spec.md §4.E): its
// branches are evaluated lazily, only the winning one is ever touched.
func evalCond(ctx *Context, scope *Tuple, c *expr.Call, rng token.Range) (Value, error) {
	if len(c.Args) != 3 {
		return nil, ctx.Errorf(LambdaCallError, "cond() requires exactly 3 arguments")
	}
	cv, err := EvalNode(ctx, scope, c.Args[0], rng)
	if err != nil {
		return nil, err
	}
	if Truthy(cv) {
		return EvalNode(ctx, scope, c.Args[1], rng)
	}
	return EvalNode(ctx, scope, c.Args[2], rng)
}

func evalUnaryBuiltin(ctx *Context, scope *Tuple, name string, c *expr.Call, rng token.Range) (Value, error) {
	if len(c.Args) != 1 || len(c.Kwargs) != 0 {
		return nil, ctx.Errorf(LambdaCallError, "%s() requires exactly 1 positional argument", name)
	}
	v, err := EvalNode(ctx, scope, c.Args[0], rng)
	if err != nil {
		return nil, err
	}
	switch name {
	case "len":
		return builtinLen(ctx, v, rng)
	case "int":
		return builtinInt(ctx, v, rng)
	case "float":
		return builtinFloat(ctx, v, rng)
	case "str":
		s, err := stringify(v)
		if err != nil {
			return nil, ctx.Errorf(NotImplemented, "%v", err)
		}
		return String(s), nil
	}
	panic("unreachable")
}

func builtinLen(ctx *Context, v Value, rng token.Range) (Value, error) {
	var n int
	switch x := v.(type) {
	case List:
		n = len(x.Elems)
	case String:
		n = len([]rune(string(x)))
	case *Tuple:
		n = x.Len()
	case *HostMap:
		n = len(x.Order)
	default:
		return nil, ctx.Errorf(NotImplemented, "len() is not supported on this type")
	}
	return Int{D: intDecimal(int64(n)), rng: rng}, nil
}

func builtinInt(ctx *Context, v Value, rng token.Range) (Value, error) {
	switch x := v.(type) {
	case Int:
		return x, nil
	case Float:
		var truncated apd.Decimal
		truncCtx := *decCtx
		truncCtx.Rounding = apd.RoundDown
		truncCtx.RoundToIntegralValue(&truncated, &x.D)
		return Int{D: truncated, rng: rng}, nil
	case String:
		return parseIntLiteral(string(x), rng)
	case Bool:
		if x {
			return Int{D: intDecimal(1), rng: rng}, nil
		}
		return Int{D: intDecimal(0), rng: rng}, nil
	}
	return nil, ctx.Errorf(NotImplemented, "int() is not supported on this type")
}

func builtinFloat(ctx *Context, v Value, rng token.Range) (Value, error) {
	switch x := v.(type) {
	case Float:
		return x, nil
	case Int:
		return Float{D: x.D, rng: rng}, nil
	case String:
		return parseFloatLiteral(string(x), rng)
	}
	return nil, ctx.Errorf(NotImplemented, "float() is not supported on this type")
}
