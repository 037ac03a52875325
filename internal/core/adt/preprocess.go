package adt

import (
	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

// PairKind classifies one YAML mapping pair for BuildTuple's top-to-bottom
// walk (spec.md §4.H).
type PairKind int

const (
	PairPlain PairKind = iota
	PairIf
	PairElif
	PairElse
)

// Pair is one already-decoded mapping entry, handed to BuildTuple by the
// YAML tag-constructor layer. ArmBody is populated for If/Elif/Else: the
// constructor layer recursively builds each arm's body as its own tuple
// before the ladder is closed.
type Pair struct {
	Kind     PairKind
	Key      string
	Local    bool
	Value    Value
	CondText string
	Cond     expr.Node
	ArmBody  *Tuple
	Rng      token.Range
}

type ladderBuilder struct {
	arms   []LadderArm
	bodies []*Tuple
}

// BuildTuple constructs a tuple from pairs in document order, applying the
// if-ladder rewrite (spec.md §4.H) and !local bookkeeping. It is the
// landing point for both the top-level YAML-mapping constructor and
// recursive construction of each if-ladder arm's own body.
func BuildTuple(ctx *Context, pairs []Pair, parent *Tuple, opts *Options, rng token.Range) (*Tuple, error) {
	result := NewTuple(parent, opts, rng)
	if err := FillTuple(ctx, result, pairs); err != nil {
		return nil, err
	}
	return result, nil
}

// FillTuple applies the if-ladder rewrite and !local bookkeeping into an
// already-allocated tuple. Used by the YAML constructor layer, which must
// allocate the tuple before building its cell values (so nested lambdas and
// mappings can close over it as their lexical parent) and only fill it in
// once every pair's value has been constructed.
func FillTuple(ctx *Context, result *Tuple, pairs []Pair) error {
	var open *ladderBuilder
	for _, p := range pairs {
		switch p.Kind {
		case PairIf:
			if open != nil {
				if err := closeLadder(ctx, result, open); err != nil {
					return err
				}
			}
			open = &ladderBuilder{
				arms:   []LadderArm{{CondText: p.CondText, Cond: p.Cond, Rng: p.Rng}},
				bodies: []*Tuple{p.ArmBody},
			}

		case PairElif:
			if open == nil {
				return ctx.Errorf(ConstructionError, "`!elif` without a preceding `!if`")
			}
			open.arms = append(open.arms, LadderArm{CondText: p.CondText, Cond: p.Cond, Rng: p.Rng})
			open.bodies = append(open.bodies, p.ArmBody)

		case PairElse:
			if open == nil {
				return ctx.Errorf(ConstructionError, "`!else` without a preceding `!if`")
			}
			open.arms = append(open.arms, LadderArm{Rng: p.Rng})
			open.bodies = append(open.bodies, p.ArmBody)
			if err := closeLadder(ctx, result, open); err != nil {
				return err
			}
			open = nil

		default: // PairPlain
			if open != nil {
				if err := closeLadder(ctx, result, open); err != nil {
					return err
				}
				open = nil
			}
			if _, exists := result.cells[p.Key]; exists {
				return ctx.Errorf(ConstructionError, "duplicate key `%s`", p.Key)
			}
			result.setCell(p.Key, p.Value, result)
			if p.Local {
				result.markLocal(p.Key)
			}
		}
	}
	if open != nil {
		if err := closeLadder(ctx, result, open); err != nil {
			return err
		}
	}
	return nil
}

// closeLadder rewrites an open if-ladder's arms into result's pair list
// (spec.md §4.H steps 1-4).
func closeLadder(ctx *Context, result *Tuple, lb *ladderBuilder) error {
	ladder := NewLadder(lb.arms)

	var order []string
	seen := map[string]bool{}
	for _, body := range lb.bodies {
		for _, k := range body.rawKeys() {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}

	for _, k := range order {
		localCount, plainCount := 0, 0
		branches := make([]Value, len(lb.bodies))
		for i, body := range lb.bodies {
			raw, ok := body.rawGet(k)
			if !ok {
				branches[i] = Undefined(token.Range{})
				continue
			}
			branches[i] = raw
			if body.isLocal(k) {
				localCount++
			} else {
				plainCount++
			}
		}
		if localCount > 0 && plainCount > 0 {
			return ctx.Errorf(ConstructionError, "`%s` is declared `!local` in one if-ladder arm and plain in another", k)
		}
		item := NewIfLadderItem(ladder.ID, branches, result.sourcePoint)
		result.installLadderItem(k, item)
		if localCount > 0 {
			result.markLocal(k)
		}
	}

	result.addLadder(ladder)
	return nil
}

// installLadderItem inserts item under k, wrapping any existing cell (a
// literal value or an earlier ladder's item) together with item in a
// FlatCompositor, or extending an existing one (spec.md §4.H step 3).
func (t *Tuple) installLadderItem(k string, item *IfLadderItem) {
	if existing, ok := t.cells[k]; ok {
		if fc, ok := existing.(*FlatCompositor); ok {
			fc.Terms = append(fc.Terms, item)
			return
		}
		t.cells[k] = NewFlatCompositor(k, []Value{existing, item}, item.rng)
		return
	}
	t.setCell(k, item, t)
}
