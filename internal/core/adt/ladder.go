package adt

import (
	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

// LadderArm is one `!if`/`!elif`/`!else` branch. Cond is nil for the
// `!else` arm, which always wins if reached.
type LadderArm struct {
	CondText string
	Cond     expr.Node
	Rng      token.Range
}

// Ladder is the preprocessor record for one `!if`/`!elif`/`!else` chain
// (spec.md §4.H), attached to the tuple under construction and carried
// forward — identity preserved — across composition (§4.G step 3).
type Ladder struct {
	ID    string
	Arms  []LadderArm
	Index *IfLadderIndex
}

// NewLadder allocates a ladder with a fresh, clone-stable identity
// (spec.md §9's resolution of the id()-identity design question: Yamlet
// uses a uuid rather than relying on Go pointer identity, since ladders
// must keep resolving correctly after cloning produces a new *Ladder).
func NewLadder(arms []LadderArm) *Ladder {
	l := &Ladder{ID: newLadderID(), Arms: arms}
	l.Index = &IfLadderIndex{ladderID: l.ID}
	return l
}

// HasElse reports whether the last arm is an unconditional `!else`.
func (l *Ladder) HasElse() bool {
	return len(l.Arms) > 0 && l.Arms[len(l.Arms)-1].Cond == nil
}

// Clone keeps the same id and arm list (arm ASTs are immutable) but resets
// the index's cache, since its conditions are re-evaluated against
// whatever tuple ends up holding the ladder next.
func (l *Ladder) Clone(newScope *Tuple) *Ladder {
	return &Ladder{ID: l.ID, Arms: l.Arms, Index: &IfLadderIndex{ladderID: l.ID}}
}

// IfLadderIndex resolves which arm of a ladder wins in a given scope
// (spec.md §4.B).
type IfLadderIndex struct {
	cacheSlot
	ladderID string
	rng      token.Range
}

func (ix *IfLadderIndex) Pos() token.Range { return ix.rng }

func (ix *IfLadderIndex) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return ix.cacheSlot.resolveCached(ix, "evaluating if-ladder condition", ix.rng, ctx, func(ctx *Context) (Value, error) {
		idx, err := ix.computeIndex(scope, ctx)
		if err != nil {
			return nil, err
		}
		d := intDecimal(int64(idx))
		return Int{D: d, rng: ix.rng}, nil
	})
}

func (ix *IfLadderIndex) computeIndex(scope *Tuple, ctx *Context) (int, error) {
	l := scope.ladder(ix.ladderID)
	if l == nil {
		return -1, ctx.Errorf(NotImplemented, "if-ladder is no longer attached to its scope")
	}
	for i, arm := range l.Arms {
		if arm.Cond == nil {
			return i, nil
		}
		v, err := EvalNode(ctx, scope, arm.Cond, arm.Rng)
		if err != nil {
			return -1, err
		}
		if Truthy(v) {
			return i, nil
		}
	}
	return -1, nil
}

func (ix *IfLadderIndex) IsUndefined(scope *Tuple, ctx *Context) (bool, error) { return false, nil }

func (ix *IfLadderIndex) Clone(newScope *Tuple) Deferred {
	return &IfLadderIndex{ladderID: ix.ladderID, rng: ix.rng}
}

// IfLadderItem is the per-key selector a ladder rewrite installs (spec.md
// §4.B, §4.H step 2-3): Branches is parallel to the ladder's arms, holding
// Undefined wherever that arm didn't set this key.
type IfLadderItem struct {
	cacheSlot
	LadderID string
	Branches []Value
	rng      token.Range
}

func NewIfLadderItem(ladderID string, branches []Value, rng token.Range) *IfLadderItem {
	return &IfLadderItem{LadderID: ladderID, Branches: branches, rng: rng}
}

func (it *IfLadderItem) Pos() token.Range { return it.rng }

func (it *IfLadderItem) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return it.cacheSlot.resolveCached(it, "selecting if-ladder branch", it.rng, ctx, func(ctx *Context) (Value, error) {
		l := scope.ladder(it.LadderID)
		if l == nil {
			return nil, ctx.Errorf(NotImplemented, "if-ladder is no longer attached to its scope")
		}
		idxV, err := l.Index.Resolve(scope, ctx)
		if err != nil {
			return nil, err
		}
		idx := int(asInt64(idxV))
		if idx < 0 || idx >= len(it.Branches) {
			return Undefined(it.rng), nil
		}
		b := it.Branches[idx]
		if s, ok := IsSentinel(b); ok && s.IsUndefined() {
			return Undefined(it.rng), nil
		}
		return resolveNested(scope, ctx, b)
	})
}

func (it *IfLadderItem) IsUndefined(scope *Tuple, ctx *Context) (bool, error) {
	v, err := it.Resolve(scope, ctx)
	if err != nil {
		return false, err
	}
	s, ok := IsSentinel(v)
	return ok && s.IsUndefined(), nil
}

func (it *IfLadderItem) Clone(newScope *Tuple) Deferred {
	branches := make([]Value, len(it.Branches))
	for i, b := range it.Branches {
		branches[i] = cloneValue(b, newScope)
	}
	return &IfLadderItem{LadderID: it.LadderID, Branches: branches, rng: it.rng}
}

// FlatCompositor accumulates terms written against the same key by
// successive `!if` rewrites under it (spec.md §4.B, §4.H step 3).
type FlatCompositor struct {
	cacheSlot
	Terms   []Value
	Varname string
	rng     token.Range
}

func NewFlatCompositor(varname string, terms []Value, rng token.Range) *FlatCompositor {
	return &FlatCompositor{Varname: varname, Terms: terms, rng: rng}
}

func (fc *FlatCompositor) Pos() token.Range { return fc.rng }

func (fc *FlatCompositor) Resolve(scope *Tuple, ctx *Context) (Value, error) {
	return fc.cacheSlot.resolveCached(fc, "composing `"+fc.Varname+"`", fc.rng, ctx, func(ctx *Context) (Value, error) {
		var live []Value
		for _, term := range fc.Terms {
			v, err := resolveNested(scope, ctx, term)
			if err != nil {
				return nil, err
			}
			if s, ok := IsSentinel(v); ok && s.IsUndefined() {
				continue
			}
			live = append(live, v)
		}
		if len(live) == 0 {
			return Undefined(fc.rng), nil
		}
		for _, v := range live {
			if s, ok := IsSentinel(v); ok && s.IsExternal() {
				return nil, ctx.Errorf(AccessOnExternal, "`%s` is external in this scope", fc.Varname)
			}
		}
		if len(live) == 1 {
			return live[0], nil
		}
		allCompositable := true
		for _, v := range live {
			if _, ok := v.(Compositable); !ok {
				allCompositable = false
				break
			}
		}
		if allCompositable {
			acc := live[0].(Compositable).YamletClone(scope)
			for _, v := range live[1:] {
				if err := acc.YamletMerge(v.(Compositable), ctx); err != nil {
					return nil, err
				}
			}
			return acc.(Value), nil
		}
		anyCompositable := false
		for _, v := range live {
			if _, ok := v.(Compositable); ok {
				anyCompositable = true
				break
			}
		}
		if anyCompositable {
			return nil, ctx.Errorf(CompositionTypeError, "`%s`: mixing compositable and non-compositable values under an if-ladder", fc.Varname)
		}
		return live[len(live)-1], nil
	})
}

func (fc *FlatCompositor) IsUndefined(scope *Tuple, ctx *Context) (bool, error) {
	v, err := fc.Resolve(scope, ctx)
	if err != nil {
		return false, err
	}
	s, ok := IsSentinel(v)
	return ok && s.IsUndefined(), nil
}

func (fc *FlatCompositor) Clone(newScope *Tuple) Deferred {
	terms := make([]Value, len(fc.Terms))
	for i, t := range fc.Terms {
		terms[i] = cloneValue(t, newScope)
	}
	return &FlatCompositor{Terms: terms, Varname: fc.Varname, rng: fc.rng}
}
