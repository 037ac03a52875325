package adt

import (
	"yamlet.dev/go/internal/core/token"
	"yamlet.dev/go/internal/core/trace"
)

// Context threads the active options and trace-frame chain through every
// evaluation call (spec.md §4.A).
type Context struct {
	Options *Options
	Frame   *trace.Frame
	// importing is the chain of module-globals maps active while
	// resolving a name that crossed an import boundary (spec.md §4.F
	// "cross-module lookup"), nearest importer first.
	importing []map[string]Value
}

// NewContext starts a fresh evaluation rooted at opts, with a top-level
// trace frame.
func NewContext(opts *Options) *Context {
	return &Context{Options: opts, Frame: trace.Root("evaluate", token.Range{})}
}

func (ctx *Context) withFrame(f *trace.Frame) *Context {
	n := *ctx
	n.Frame = f
	return &n
}

func (ctx *Context) pushImporting(globals map[string]Value) *Context {
	n := *ctx
	n.importing = append([]map[string]Value{globals}, ctx.importing...)
	return &n
}

// Get resolves t[k]: if present (and not null), resolves and caches it per
// policy; a null cell reads as "name not found" (spec.md §8 "Boundary
// behaviors"); an external cell raises "access on external".
func (t *Tuple) Get(ctx *Context, k string) (Value, error) {
	raw, ok := t.rawGet(k)
	if !ok {
		return nil, ctx.Errorf(NameNotFound, "there is no variable called `%s`", k)
	}
	return t.resolveCell(ctx, k, raw)
}

func (t *Tuple) resolveCell(ctx *Context, k string, raw Value) (Value, error) {
	if s, ok := IsSentinel(raw); ok {
		switch {
		case s.IsNull(), s.IsUndefined():
			return nil, ctx.Errorf(NameNotFound, "there is no variable called `%s`", k)
		case s.IsExternal():
			return nil, ctx.Errorf(AccessOnExternal, "`%s` is external in this scope", k)
		}
	}
	if d, ok := raw.(Deferred); ok {
		frame := ctx.Frame.BranchForNameResolution("resolving `"+k+"`", k, raw.Pos())
		sub := ctx.withFrame(frame)
		v, err := d.Resolve(t, sub)
		if err != nil {
			return nil, err
		}
		if s, ok := IsSentinel(v); ok {
			switch {
			case s.IsExternal():
				return nil, ctx.Errorf(AccessOnExternal, "`%s` is external in this scope", k)
			case s.IsUndefined():
				// An if-ladder arm that was never selected contributes
				// nothing for this key (spec.md glossary "undefined": not
				// observable outside Keys()/Contains() filtering).
				return nil, ctx.Errorf(NameNotFound, "there is no variable called `%s`", k)
			}
		}
		return v, nil
	}
	return raw, nil
}

// Lookup performs name resolution for n starting at scope, following
// spec.md §4.F: direct key, then outward via parent, then module globals,
// then user globals.
func Lookup(ctx *Context, scope *Tuple, n string, rng token.Range) (Value, error) {
	switch n {
	case "up":
		if scope.parent == nil {
			return nil, ctx.Errorf(NameNotFound, "`up` has no meaning at the module root")
		}
		return scope.parent, nil
	case "super":
		if scope.super == nil {
			return nil, ctx.Errorf(NameNotFound, "`%s` has no `super`", describeScope(scope))
		}
		return scope.super, nil
	case "external":
		return External(rng), nil
	case "null":
		return NullValue(rng), nil
	}

	for s := scope; s != nil; s = s.parent {
		if s.hasResolvable(n) {
			raw, _ := s.rawGet(n)
			if ns, ok := IsSentinel(raw); ok && ns.IsNull() {
				if dbg := scope.options.Debug; dbg.WarnOnNullLookup && dbg.WarnFunc != nil {
					dbg.WarnFunc("`" + n + "` is null in " + describeScope(s))
				}
			}
			v, err := s.resolveCell(ctx, n, raw)
			if err != nil {
				// A null cell at this level falls through to an
				// enclosing scope rather than failing outright
				// (spec.md §4.F step 2).
				if ae, ok := err.(*Error); ok && ae.Kind == NameNotFound {
					continue
				}
				return nil, err
			}
			return v, nil
		}
	}

	for _, globals := range ctx.importing {
		if v, ok := globals[n]; ok {
			return v, nil
		}
	}

	if v, ok := scope.options.Globals[n]; ok {
		return v, nil
	}

	if scope.options.MissingNameValue != nil {
		return scope.options.MissingNameValue, nil
	}

	return nil, ctx.Errorf(NameNotFound, "there is no variable called `%s`", n)
}

func describeScope(t *Tuple) string {
	if t.sourcePoint.Start.IsValid() {
		return t.sourcePoint.String()
	}
	return "tuple"
}
