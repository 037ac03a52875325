// Package adt ("abstract data type") implements the tightly-coupled core of
// the Yamlet evaluation engine: the tuple scope graph, deferred-value cache,
// composition/cloning algorithm, expression evaluator, name resolution and
// preprocessor (spec.md §4.B, §4.E–§4.I). Every operation here can re-enter
// every other one, which is why — following the teacher's own choice for
// its unification engine — it lives in one package instead of several thin
// ones that would otherwise import each other in a cycle.
package adt

import (
	"github.com/cockroachdb/apd/v3"

	"yamlet.dev/go/internal/core/token"
)

// Value is anything a Tuple cell can hold: a concrete scalar, a Tuple, a
// Deferred computation, or a Sentinel.
type Value interface {
	// Pos reports where this value originated in the source document.
	Pos() token.Range
}

// Sentinel is one of the four sentinel values from spec.md §4.B. All
// sentinels are falsy and distinct from every concrete value.
type Sentinel struct {
	kind sentinelKind
	rng  token.Range
}

type sentinelKind int8

const (
	sExternal sentinelKind = iota + 1
	sNull
	sUndefined
	sEmpty
)

func (s Sentinel) Pos() token.Range { return s.rng }

// External is the `external` sentinel: a cell that must be supplied by a
// compositing caller before it can be read.
func External(rng token.Range) Sentinel { return Sentinel{kind: sExternal, rng: rng} }

// NullValue is the `null` sentinel: writing it over a key erases that key.
func NullValue(rng token.Range) Sentinel { return Sentinel{kind: sNull, rng: rng} }

// Undefined is the internal "no contribution" sentinel; it must never reach
// composition as an input value (spec.md §4.G step 2 calls this an
// invariant violation).
func Undefined(rng token.Range) Sentinel { return Sentinel{kind: sUndefined, rng: rng} }

// EmptyCache is the internal "not yet computed" marker for a Deferred's
// cache slot.
func EmptyCache() Sentinel { return Sentinel{kind: sEmpty} }

func (s Sentinel) IsExternal() bool  { return s.kind == sExternal }
func (s Sentinel) IsNull() bool      { return s.kind == sNull }
func (s Sentinel) IsUndefined() bool { return s.kind == sUndefined }
func (s Sentinel) IsEmpty() bool     { return s.kind == sEmpty }

// IsSentinel reports whether v is any of the four sentinels and, if so,
// which one.
func IsSentinel(v Value) (Sentinel, bool) {
	s, ok := v.(Sentinel)
	return s, ok
}

func (s Sentinel) String() string {
	switch s.kind {
	case sExternal:
		return "external"
	case sNull:
		return "null"
	case sUndefined:
		return "undefined"
	case sEmpty:
		return "empty"
	default:
		return "sentinel(?)"
	}
}

// Truthy reports v's boolean coercion, following host (Python-like)
// semantics: sentinels, zero numbers, empty strings/lists/tuples are
// falsy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Sentinel:
		return false
	case Bool:
		return bool(x)
	case String:
		return x != ""
	case Int:
		return x.D.Sign() != 0
	case Float:
		return x.D.Sign() != 0
	case List:
		return len(x.Elems) > 0
	case *Tuple:
		return x.Len() > 0
	case *HostMap:
		return len(x.Entries) > 0
	default:
		return true
	}
}

// String is a concrete scalar string value.
type String string

func (String) Pos() token.Range { return token.Range{} }

// Bool is a concrete scalar boolean value.
type Bool bool

func (Bool) Pos() token.Range { return token.Range{} }

// Int is a concrete scalar integer, backed by an arbitrary-precision
// decimal so that large literals (e.g. `0xFFFFFFFF`) and bitwise operations
// behave consistently regardless of host int width.
type Int struct {
	D   apd.Decimal
	rng token.Range
}

func NewInt(d apd.Decimal, rng token.Range) Int { return Int{D: d, rng: rng} }
func (i Int) Pos() token.Range                  { return i.rng }

// Float is a concrete scalar floating-point value, also backed by
// apd.Decimal.
type Float struct {
	D   apd.Decimal
	rng token.Range
}

func NewFloat(d apd.Decimal, rng token.Range) Float { return Float{D: d, rng: rng} }
func (f Float) Pos() token.Range                    { return f.rng }

// List is a concrete sequence value.
type List struct {
	Elems []Value
	rng   token.Range
}

func NewList(elems []Value, rng token.Range) List { return List{Elems: elems, rng: rng} }
func (l List) Pos() token.Range                    { return l.rng }

// HostMap is a plain, non-scope mapping: unlike Tuple it has no parent,
// super, or preprocessors, and never participates in name resolution. It
// is produced by host functions and by `!expr` dict comprehensions; a set
// literal evaluates to a List and a dict literal to a *Tuple.
type HostMap struct {
	Entries map[string]Value
	Order   []string
	rng     token.Range
}

func NewHostMap(rng token.Range) *HostMap {
	return &HostMap{Entries: map[string]Value{}, rng: rng}
}

func (m *HostMap) Pos() token.Range { return m.rng }

func (m *HostMap) Set(k string, v Value) {
	if _, ok := m.Entries[k]; !ok {
		m.Order = append(m.Order, k)
	}
	m.Entries[k] = v
}
