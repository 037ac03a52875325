package yaml_test

import (
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/internal/encoding/yaml"
)

func decode(t *testing.T, src string) (*adt.Tuple, *adt.Context) {
	t.Helper()
	opts := adt.DefaultOptions()
	ctx := adt.NewContext(opts)
	tup, err := yaml.Decode(ctx, opts, []byte(src), "test.yml")
	qt.Assert(t, qt.IsNil(err))
	return tup, ctx
}

func TestDecodePlainScalars(t *testing.T) {
	tup, ctx := decode(t, `
name: alice
active: true
`)
	name, err := tup.Get(ctx, "name")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(name, adt.Value(adt.String("alice"))))

	active, err := tup.Get(ctx, "active")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(active, adt.Value(adt.Bool(true))))
}

func TestDecodeNestedMapping(t *testing.T) {
	tup, ctx := decode(t, `
outer:
  inner: hello
`)
	outerV, err := tup.Get(ctx, "outer")
	qt.Assert(t, qt.IsNil(err))
	outer, ok := outerV.(*adt.Tuple)
	qt.Assert(t, qt.IsTrue(ok))
	inner, err := outer.Get(ctx, "inner")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(inner, adt.Value(adt.String("hello"))))
}

func TestDecodeNullTag(t *testing.T) {
	tup, _ := decode(t, `
x: !null
y: 1
`)
	qt.Assert(t, qt.IsFalse(tup.Contains("x")))
	qt.Assert(t, qt.IsTrue(tup.Contains("y")))
}

func TestDecodeElseColonLinePreprocessing(t *testing.T) {
	// go.yaml.in/yaml parses a bare `!else:` as a tag with a trailing
	// colon; the source-level rewrite in Decode must turn it into a
	// directive key (`!else`) before that happens.
	tup, ctx := decode(t, `
cond: true
!if cond:
  x: 1
!else:
  x: 2
`)
	qt.Assert(t, qt.IsTrue(tup.Contains("x")))
	v, err := tup.Get(ctx, "x")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNotNil(v))
}

func TestDecodeEmptyDocument(t *testing.T) {
	tup, _ := decode(t, "")
	qt.Assert(t, qt.Equals(tup.Len(), 0))
}

func TestDecodeRejectsNonMappingRoot(t *testing.T) {
	opts := adt.DefaultOptions()
	ctx := adt.NewContext(opts)
	_, err := yaml.Decode(ctx, opts, []byte("- 1\n- 2\n"), "test.yml")
	qt.Assert(t, qt.IsNotNil(err))
}
