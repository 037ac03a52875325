package adt

import "yamlet.dev/go/internal/core/token"

// Composite implements `composite([t1, t2, …])` from spec.md §4.G: union
// the inputs' keys, later tuples overriding earlier, merging compositable
// entries instead of replacing them.
func Composite(ctx *Context, parts []*Tuple, callerScope *Tuple, rng token.Range) (*Tuple, error) {
	if len(parts) == 0 {
		return NewTuple(callerScope, callerScope.options, rng), nil
	}
	result := parts[0].Clone(callerScope)
	for _, ti := range parts[1:] {
		if err := mergeInto(ctx, result, ti); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// mergeInto folds ti's cells into result in place: step 2-3 of spec.md
// §4.G's composite algorithm, applied once per subsequent tuple.
func mergeInto(ctx *Context, result, ti *Tuple) error {
	for _, k := range ti.keys {
		vi, present := ti.cells[k]
		if !present {
			// ti itself erased k; the erasure propagates.
			result.markNull(k, ti)
			continue
		}
		if s, ok := IsSentinel(vi); ok {
			if s.IsNull() {
				result.markNull(k, ti)
				continue
			}
			if s.IsUndefined() {
				return ctx.Errorf(NotImplemented, "internal error: undefined sentinel reached composition for `%s`", k)
			}
			if s.IsExternal() {
				if _, exists := result.cells[k]; !exists {
					result.setCell(k, vi, ti)
				}
				// Else: an earlier tuple already supplies k, so external
				// is a no-op and that value wins (spec.md §4.G step 2,
				// "insert external" only fires when result has no entry).
				continue
			}
		}

		if existing, exists := result.cells[k]; exists {
			if ec, ok := existing.(Compositable); ok {
				if nc, ok := vi.(Compositable); ok {
					if err := ec.YamletMerge(nc, ctx); err != nil {
						return err
					}
					if ti.isLocal(k) {
						result.markLocal(k)
					}
					continue
				}
			}
		}

		result.setCell(k, cloneValue(vi, result), ti)
		if ti.isLocal(k) {
			result.markLocal(k)
		}
	}

	for _, id := range ti.preprocessOrder {
		if result.ladder(id) == nil {
			result.addLadder(ti.preprocessors[id].Clone(result))
		}
	}
	return nil
}
