package adt

import "yamlet.dev/go/internal/core/token"

// Deferred is a cell whose value is computed on first access (spec.md
// §4.B). Every concrete kind below satisfies this interface directly
// rather than through embedding/inheritance, per the sum-type design in
// spec.md §9.
type Deferred interface {
	Value
	// Resolve computes (or returns the cached) value of this cell, as
	// seen from scope — the tuple the cell lives in.
	Resolve(scope *Tuple, ctx *Context) (Value, error)
	// IsUndefined reports whether a lookup may treat this cell as absent
	// without raising, for preprocessor erasure.
	IsUndefined(scope *Tuple, ctx *Context) (bool, error)
	// Clone produces a fresh, uncached copy suitable for insertion into
	// a cloned tuple, with internal references rewired to newScope.
	Clone(newScope *Tuple) Deferred
}

// cacheSlot is embedded by every concrete Deferred kind to implement the
// caching policies and recursion guard from spec.md §4.I.
type cacheSlot struct {
	has   bool
	value Value
}

// resolveCached drives the cache/cycle-guard protocol shared by every
// Deferred kind: push a deferred-eval trace frame (failing on re-entrancy),
// compute on a cache miss, and store the result per ctx's caching policy.
func (s *cacheSlot) resolveCached(self Deferred, desc string, rng token.Range, ctx *Context, compute func(ctx *Context) (Value, error)) (Value, error) {
	policy := ctx.Options.Caching
	if s.has && policy == CacheValues {
		return s.value, nil
	}
	frame, err := ctx.Frame.BranchForDeferredEval(self, desc, rng)
	if err != nil {
		return nil, &Error{Kind: DependencyCycle, Message: err.Error(), Leaf: ctx.Frame}
	}
	sub := ctx.withFrame(frame)
	v, err := compute(sub)
	if err != nil {
		return nil, err
	}
	switch policy {
	case CacheValues:
		s.value = v
		s.has = true
	case CacheNothing:
		// never cache
	case CacheDebug:
		if s.has && !structuralEqual(s.value, v) {
			return nil, &Error{
				Kind:    NotImplemented,
				Message: "CACHE_DEBUG: recomputation of `" + desc + "` produced a different value",
				Leaf:    ctx.Frame,
			}
		}
		s.value = v
		s.has = true
	}
	return v, nil
}

func (s *cacheSlot) reset() {
	s.has = false
	s.value = nil
}

// cachedSnapshot exposes the cache slot to structuralEqual without
// re-triggering evaluation.
func (s *cacheSlot) cachedSnapshot() (Value, bool) {
	return s.value, s.has
}
