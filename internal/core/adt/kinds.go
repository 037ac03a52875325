package adt

import (
	"strings"

	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

// resolveNested resolves v against scope if it is itself a Deferred,
// otherwise returns it unchanged. Used by composition-time deferred kinds
// (IfLadderItem, FlatCompositor) whose branch/term values may themselves
// be unresolved cells.
func resolveNested(scope *Tuple, ctx *Context, v Value) (Value, error) {
	if d, ok := v.(Deferred); ok {
		return d.Resolve(scope, ctx)
	}
	return v, nil
}

// StringInterpolate is the `!fmt` deferred kind (spec.md §4.B): scans text
// for `{{`/`}}` literal-brace escapes and balanced `{expr}` substitutions,
// evaluating each substitution against scope and stringifying the result.
type StringInterpolate struct {
	cacheSlot
	Text string
	rng  token.Range
}

func NewStringInterpolate(text string, rng token.Range) *StringInterpolate {
	return &StringInterpolate{Text: text, rng: rng}
}

func (s *StringInterpolate) Pos() token.Range { return s.rng }

func (s *StringInterpolate) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return s.cacheSlot.resolveCached(s, "interpolating `"+s.Text+"`", s.rng, ctx, func(ctx *Context) (Value, error) {
		out, err := interpolateString(ctx, scope, s.Text, s.rng)
		if err != nil {
			return nil, err
		}
		return String(out), nil
	})
}

func (s *StringInterpolate) IsUndefined(scope *Tuple, ctx *Context) (bool, error) { return false, nil }

func (s *StringInterpolate) Clone(newScope *Tuple) Deferred {
	return &StringInterpolate{Text: s.Text, rng: s.rng}
}

// interpolateString implements the substitution scan itself; unbalanced
// braces pass through literally rather than raising, per spec.md §4.B.
func interpolateString(ctx *Context, scope *Tuple, text string, rng token.Range) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				b.WriteByte(c)
				i++
				continue
			}
			inner := text[i+1 : i+1+end]
			node, err := expr.Parse(inner)
			if err != nil {
				b.WriteByte(c)
				i++
				continue
			}
			v, err := EvalNode(ctx, scope, node, rng)
			if err != nil {
				return "", err
			}
			s, err := stringify(v)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			i += 2 + end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// ExpressionEvaluate is the `!expr` deferred kind, and also how inline
// expression-grammar tuple literals (`{k: v}`) bind their values: Resolve
// evaluates Node against whatever scope currently holds the cell, giving
// late-binding for free (spec.md §4.B, §4.E).
type ExpressionEvaluate struct {
	cacheSlot
	Node expr.Node
	rng  token.Range
}

func NewExpressionEvaluate(node expr.Node, rng token.Range) *ExpressionEvaluate {
	return &ExpressionEvaluate{Node: node, rng: rng}
}

func (e *ExpressionEvaluate) Pos() token.Range { return e.rng }

func (e *ExpressionEvaluate) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return e.cacheSlot.resolveCached(e, "evaluating expression", e.rng, ctx, func(ctx *Context) (Value, error) {
		return EvalNode(ctx, scope, e.Node, e.rng)
	})
}

func (e *ExpressionEvaluate) IsUndefined(scope *Tuple, ctx *Context) (bool, error) { return false, nil }

func (e *ExpressionEvaluate) Clone(newScope *Tuple) Deferred {
	return &ExpressionEvaluate{Node: e.Node, rng: e.rng}
}

// CompositeItem is one item of a `!composite` list: either a parsed
// expression to evaluate against the composite's scope (the flow-sequence
// form `!composite [t1, t2]` and the space-separated scalar form both parse
// every item as an expression), or a tuple value decoded directly from a
// non-scalar YAML node such as an inline mapping literal (spec.md §8 seed
// scenario 1's `!composite [t1, { val: "..." }]`, which has no expression
// text to parse at all).
type CompositeItem struct {
	Node    expr.Node // set when the item is a parsed expression
	Literal Value     // set when the item is an already-built tuple literal
}

func (it CompositeItem) clone(newScope *Tuple) CompositeItem {
	if it.Literal != nil {
		return CompositeItem{Literal: cloneValue(it.Literal, newScope)}
	}
	return it
}

// TupleListComposite is the `!composite` deferred kind: each item is a
// bare name, a space-separated identifier sequence, an inline tuple
// literal, or a nested deferred; Resolve composites them left-to-right
// (spec.md §4.B, §4.G).
type TupleListComposite struct {
	cacheSlot
	Items []CompositeItem
	rng   token.Range
}

func NewTupleListComposite(items []CompositeItem, rng token.Range) *TupleListComposite {
	return &TupleListComposite{Items: items, rng: rng}
}

func (c *TupleListComposite) Pos() token.Range { return c.rng }

func (c *TupleListComposite) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return c.cacheSlot.resolveCached(c, "compositing", c.rng, ctx, func(ctx *Context) (Value, error) {
		parts := make([]*Tuple, 0, len(c.Items))
		for _, item := range c.Items {
			var v Value
			var err error
			if item.Literal != nil {
				v, err = resolveNested(scope, ctx, item.Literal)
			} else {
				v, err = EvalNode(ctx, scope, item.Node, c.rng)
			}
			if err != nil {
				return nil, err
			}
			t, ok := v.(*Tuple)
			if !ok {
				return nil, ctx.Errorf(CompositionTypeError, "!composite item did not evaluate to a tuple")
			}
			parts = append(parts, t)
		}
		return Composite(ctx, parts, scope, c.rng)
	})
}

func (c *TupleListComposite) IsUndefined(scope *Tuple, ctx *Context) (bool, error) { return false, nil }

func (c *TupleListComposite) Clone(newScope *Tuple) Deferred {
	items := make([]CompositeItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = it.clone(newScope)
	}
	return &TupleListComposite{Items: items, rng: c.rng}
}

// ImportLoad is the `!import` deferred kind: string-interpolates its text
// to a module path, asks the runtime's ImportResolver for either a cached
// tuple or raw bytes, and loads recursively on a cache miss (spec.md
// §4.B, §5). Parsing raw bytes into a tuple is supplied by the embedding
// runtime package through ctx.Options so that this package never imports
// the YAML decoder (avoiding an import cycle between adt and
// encoding/yaml).
type ImportLoad struct {
	cacheSlot
	Text string
	rng  token.Range
}

func NewImportLoad(text string, rng token.Range) *ImportLoad {
	return &ImportLoad{Text: text, rng: rng}
}

func (m *ImportLoad) Pos() token.Range { return m.rng }

func (m *ImportLoad) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return m.cacheSlot.resolveCached(m, "importing `"+m.Text+"`", m.rng, ctx, func(ctx *Context) (Value, error) {
		path, err := interpolateString(ctx, scope, m.Text, m.rng)
		if err != nil {
			return nil, err
		}
		if ctx.Options.ImportResolver == nil {
			return nil, ctx.Errorf(ImportNotFound, "no import resolver configured; cannot resolve `%s`", path)
		}
		info, err := ctx.Options.ImportResolver.Resolve(path)
		if err != nil {
			return nil, ctx.Errorf(ImportNotFound, "%v", err)
		}
		if info.Tuple != nil {
			return info.Tuple, nil
		}
		if ctx.Options.ParseModule == nil {
			return nil, ctx.Errorf(ImportNotFound, "import resolver returned raw bytes but no module parser is configured")
		}
		sub := ctx
		if info.ModuleGlobals != nil {
			sub = ctx.pushImporting(info.ModuleGlobals)
		}
		name := info.CanonicalKey
		if name == "" {
			name = path
		}
		return ctx.Options.ParseModule(sub, info.Raw, name)
	})
}

func (m *ImportLoad) IsUndefined(scope *Tuple, ctx *Context) (bool, error) { return false, nil }

func (m *ImportLoad) Clone(newScope *Tuple) Deferred {
	return &ImportLoad{Text: m.Text, rng: m.rng}
}
