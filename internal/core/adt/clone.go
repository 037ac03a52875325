package adt

// Compositable is the protocol a cell value must satisfy to merge rather
// than replace during composition (spec.md §4.B "User-compositable
// types", §4.G step 2). *Tuple implements it directly; host code can
// register its own values by implementing the same two methods.
type Compositable interface {
	Value
	// YamletMerge folds other into the receiver in place, under ctx.
	YamletMerge(other Compositable, ctx *Context) error
	// YamletClone returns a fresh, independent copy rewired to newScope.
	YamletClone(newScope *Tuple) Compositable
}

// cloneValue produces a fresh copy of v suitable for insertion into a newly
// built or composited tuple, per spec.md §4.G's cloning contract. Scalars
// (String, Bool, Int, Float, Sentinel, HostMap) have no lexical identity
// and are returned unchanged.
func cloneValue(v Value, newScope *Tuple) Value {
	switch x := v.(type) {
	case *Tuple:
		return x.Clone(newScope)
	case Compositable:
		return x.YamletClone(newScope)
	case Deferred:
		return x.Clone(newScope)
	default:
		return v
	}
}

// Clone implements the tuple half of the cloning contract: a new tuple with
// parent = newScope, super = t, every cell cloned (cloneValue is a no-op
// for plain scalars), locals/preprocessors/provenance carried over.
//
// A tuple with no keys at all (the common case for `{}` override blocks
// used purely as composition overlays) returns the freshly allocated copy
// straight away, without walking cells or ladders.
func (t *Tuple) Clone(newScope *Tuple) *Tuple {
	out := NewTuple(newScope, t.options, t.sourcePoint)
	out.super = t
	if len(t.keys) == 0 {
		return out
	}
	for _, k := range t.keys {
		raw, ok := t.cells[k]
		if !ok {
			// Already null-erased; preserve the deleted provenance so
			// explain_value still finds it, but there is no cell to clone.
			if p, ok := t.provenances[k]; ok {
				out.provenances[k] = p
				out.keys = append(out.keys, k)
			}
			continue
		}
		out.setCell(k, cloneValue(raw, out), t)
		if t.isLocal(k) {
			out.markLocal(k)
		}
	}
	for _, id := range t.preprocessOrder {
		l := t.preprocessors[id]
		out.addLadder(l.Clone(out))
	}
	return out
}

// YamletMerge makes *Tuple satisfy Compositable: merging two tuples is just
// a one-step composite() call against their cells.
func (t *Tuple) YamletMerge(other Compositable, ctx *Context) error {
	o, ok := other.(*Tuple)
	if !ok {
		return ctx.Errorf(CompositionTypeError, "cannot merge a tuple with a non-tuple value")
	}
	return mergeInto(ctx, t, o)
}

func (t *Tuple) YamletClone(newScope *Tuple) Compositable {
	return t.Clone(newScope)
}
