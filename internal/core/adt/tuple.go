package adt

import (
	"github.com/google/uuid"

	"yamlet.dev/go/internal/core/token"
)

// Provenance records which source tuple contributed the current value of a
// key, for explain_value (spec.md §4.A ExplainUp, §6).
type Provenance struct {
	// Source is the tuple whose cell is the origin of the current value.
	Source *Tuple
	// Deleted is true when the key's current state is "erased by null",
	// recorded so explain_value can say so even though the key itself is
	// no longer enumerable.
	Deleted bool
}

// Tuple is a Yamlet scope: an ordered mapping from string keys to cells,
// with lexical (parent) and derivation (super) back-references (spec.md
// §3).
type Tuple struct {
	keys  []string // insertion order; includes keys whose cell is the null sentinel
	cells map[string]Value

	locals map[string]bool // keys marked !local: resolvable, not enumerable

	parent *Tuple
	super  *Tuple

	// preprocessors is the ordered map of ladder-identity -> ladder,
	// inherited across composition (spec.md §4.G step 3).
	preprocessors   map[string]*Ladder
	preprocessOrder []string

	provenances map[string]Provenance

	sourcePoint token.Range
	options     *Options
}

// NewTuple allocates an empty tuple rooted at parent (nil for a module
// root), carrying opts.
func NewTuple(parent *Tuple, opts *Options, rng token.Range) *Tuple {
	return &Tuple{
		cells:       map[string]Value{},
		provenances: map[string]Provenance{},
		parent:      parent,
		options:     opts,
		sourcePoint: rng,
	}
}

func (t *Tuple) Pos() token.Range { return t.sourcePoint }

// Parent returns the lexical enclosing scope, or nil for a module root.
func (t *Tuple) Parent() *Tuple { return t.parent }

// Super returns the tuple this one was cloned or derived from, or nil.
func (t *Tuple) Super() *Tuple { return t.super }

// Options returns the runtime options attached to this tuple.
func (t *Tuple) Options() *Options { return t.options }

// rawGet returns the unresolved cell stored under k, and whether it
// exists at all (including null-sentinel cells, which are not
// enumerable but are still "present" for this purpose).
func (t *Tuple) rawGet(k string) (Value, bool) {
	v, ok := t.cells[k]
	return v, ok
}

// setCell inserts or replaces the cell at k, recording insertion order and
// provenance. It does not run composition rules; callers (BuildTuple,
// composite) are responsible for sentinel handling.
func (t *Tuple) setCell(k string, v Value, source *Tuple) {
	if _, exists := t.cells[k]; !exists {
		t.keys = append(t.keys, k)
	}
	t.cells[k] = v
	if source == nil {
		source = t
	}
	t.provenances[k] = Provenance{Source: source}
}

// deleteCellKeepKey removes k's cell but leaves k in the keys slice and
// leaves its provenance untouched.
func (t *Tuple) deleteCellKeepKey(k string) {
	// Keys slice retains k for ordering purposes at the YAML-construction
	// layer; callers that truly want removal use markNull instead.
	delete(t.cells, k)
}

// markNull erases k: the cell is removed from the map (so lookups treat it
// as absent) while k itself stays recorded in provenances as deleted
// (spec.md §3 "Keys whose cell equals the null sentinel are not
// enumerable but are recorded in provenances").
func (t *Tuple) markNull(k string, source *Tuple) {
	delete(t.cells, k)
	t.provenances[k] = Provenance{Source: source, Deleted: true}
}

// markLocal flags k as a preprocessor-local: resolvable by name lookup but
// excluded from enumeration, length and `in` (spec.md §4.H).
func (t *Tuple) markLocal(k string) {
	if t.locals == nil {
		t.locals = map[string]bool{}
	}
	t.locals[k] = true
}

func (t *Tuple) isLocal(k string) bool {
	return t.locals != nil && t.locals[k]
}

// addLadder attaches a ladder to this tuple's preprocessor set, preserving
// insertion order, used both at construction and when composition carries
// ladders forward (spec.md §4.G step 3).
func (t *Tuple) addLadder(l *Ladder) {
	if t.preprocessors == nil {
		t.preprocessors = map[string]*Ladder{}
	}
	if _, ok := t.preprocessors[l.ID]; ok {
		return
	}
	t.preprocessors[l.ID] = l
	t.preprocessOrder = append(t.preprocessOrder, l.ID)
}

func (t *Tuple) ladder(id string) *Ladder {
	if t.preprocessors == nil {
		return nil
	}
	return t.preprocessors[id]
}

// newLadderID mints a clone-stable identifier for a new ladder (spec.md
// §9's resolution of the id()-identity design problem).
func newLadderID() string {
	return uuid.NewString()
}

// Len reports the number of enumerable keys: present cells, minus
// null-erased and !local keys, minus any key whose deferred value
// currently reports itself undefined.
func (t *Tuple) Len() int {
	return len(t.Keys())
}

// Keys returns the enumerable keys in insertion order.
func (t *Tuple) Keys() []string {
	out := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		if _, ok := t.cells[k]; !ok {
			continue // null-erased
		}
		if s, ok := IsSentinel(t.cells[k]); ok && s.IsNull() {
			continue // a `!null` cell written directly
		}
		if t.isLocal(k) {
			continue
		}
		if t.cellIsUndefined(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// rawKeys returns every key with a present cell, in insertion order,
// including !local keys — used by the if-ladder rewrite (spec.md §4.H),
// which must union arm keys before !local filtering applies to the
// enclosing tuple.
func (t *Tuple) rawKeys() []string {
	out := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		if _, ok := t.cells[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Contains reports whether k is an enumerable key (spec.md's `in`
// semantics: absent for null-erased and for deferreds reporting
// undefined; present for !local keys for name-resolution purposes, but
// *not* for `in`, matching "omitted from the output dictionary" in
// §4.H).
func (t *Tuple) Contains(k string) bool {
	v, ok := t.cells[k]
	if !ok {
		return false
	}
	if s, isS := IsSentinel(v); isS && s.IsNull() {
		return false
	}
	if t.isLocal(k) {
		return false
	}
	return !t.cellIsUndefined(k)
}

// hasResolvable reports whether k can be found by name resolution: present,
// not null-erased, regardless of !local.
func (t *Tuple) hasResolvable(k string) bool {
	_, ok := t.cells[k]
	return ok
}

func (t *Tuple) cellIsUndefined(k string) bool {
	v, ok := t.cells[k]
	if !ok {
		return false
	}
	d, ok := v.(Deferred)
	if !ok {
		return false
	}
	ctx := NewContext(t.options)
	undef, err := d.IsUndefined(t, ctx)
	if err != nil {
		// is_undefined probes intentionally suppress the underlying
		// error (spec.md §7): the user sees the real failure at the
		// actual access site, not here.
		return false
	}
	return undef
}

// Provenance returns the recorded provenance for k, used by explain_value.
func (t *Tuple) Provenance(k string) (Provenance, bool) {
	p, ok := t.provenances[k]
	return p, ok
}
