package adt

import (
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go/internal/core/token"
)

func TestCompositeLaterOverridesEarlier(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	a := NewTuple(nil, DefaultOptions(), token.Range{})
	a.setCell("x", String("a"), a)
	b := NewTuple(nil, DefaultOptions(), token.Range{})
	b.setCell("x", String("b"), b)

	out, err := Composite(ctx, []*Tuple{a, b}, a, token.Range{})
	qt.Assert(t, qt.IsNil(err))
	v, err := out.Get(ctx, "x")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, Value(String("b"))))
}

func TestCompositeMergesNestedTuples(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	a := NewTuple(nil, DefaultOptions(), token.Range{})
	inner1 := NewTuple(a, DefaultOptions(), token.Range{})
	inner1.setCell("p", String("1"), inner1)
	a.setCell("nested", inner1, a)

	b := NewTuple(nil, DefaultOptions(), token.Range{})
	inner2 := NewTuple(b, DefaultOptions(), token.Range{})
	inner2.setCell("q", String("2"), inner2)
	b.setCell("nested", inner2, b)

	out, err := Composite(ctx, []*Tuple{a, b}, a, token.Range{})
	qt.Assert(t, qt.IsNil(err))
	nested, err := out.Get(ctx, "nested")
	qt.Assert(t, qt.IsNil(err))
	nt := nested.(*Tuple)
	p, err := nt.Get(ctx, "p")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(p, Value(String("1"))))
	q, err := nt.Get(ctx, "q")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(q, Value(String("2"))))
}

func TestCompositeNullErasesKey(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	a := NewTuple(nil, DefaultOptions(), token.Range{})
	a.setCell("x", String("a"), a)

	b := NewTuple(nil, DefaultOptions(), token.Range{})
	b.markNull("x", b)
	b.keys = append(b.keys, "x")

	out, err := Composite(ctx, []*Tuple{a, b}, a, token.Range{})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(out.Contains("x")))
	prov, ok := out.Provenance("x")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsTrue(prov.Deleted))
}

func TestCompositeEmptyReturnsEmptyTuple(t *testing.T) {
	ctx := NewContext(DefaultOptions())
	scope := NewTuple(nil, DefaultOptions(), token.Range{})
	out, err := Composite(ctx, nil, scope, token.Range{})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out.Len(), 0))
}

func TestTupleCloneIsIndependent(t *testing.T) {
	a := NewTuple(nil, DefaultOptions(), token.Range{})
	a.setCell("x", String("orig"), a)

	clone := a.Clone(nil)
	clone.setCell("x", String("changed"), clone)

	ctx := NewContext(DefaultOptions())
	v, err := a.Get(ctx, "x")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v, Value(String("orig"))))
}
