package expr_test

import (
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go/internal/core/expr"
)

func TestParseImplicitComposition(t *testing.T) {
	// `a (b)` has no explicit operator between `a` and `(b)`; the implicit
	// composition pass must splice in `@` before the parser ever sees it.
	n, err := expr.Parse("a (b)")
	qt.Assert(t, qt.IsNil(err))
	bin, ok := n.(*expr.BinOp)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(bin.Op, "@"))
	qt.Assert(t, qt.IsTrue(isName(bin.X, "a")))
}

func TestParseExplicitCompositionSameAsImplicit(t *testing.T) {
	explicit, err := expr.Parse("a @ b")
	qt.Assert(t, qt.IsNil(err))
	implicit, err := expr.Parse("a b")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(explicit.(*expr.BinOp).Op, implicit.(*expr.BinOp).Op))
}

func TestParseKeywordsNeverCompose(t *testing.T) {
	// `not x` must stay a UnaryOp, not turn into `not @ x`: keywords never
	// participate in implicit composition.
	n, err := expr.Parse("not x")
	qt.Assert(t, qt.IsNil(err))
	u, ok := n.(*expr.UnaryOp)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(u.Op, "not"))
}

func TestParseTernary(t *testing.T) {
	n, err := expr.Parse("1 if cond else 2")
	qt.Assert(t, qt.IsNil(err))
	if_, ok := n.(*expr.IfExp)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsTrue(isName(if_.Cond, "cond")))
}

func TestParseChainedComparison(t *testing.T) {
	n, err := expr.Parse("a < b <= c")
	qt.Assert(t, qt.IsNil(err))
	cmp, ok := n.(*expr.Compare)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(cmp.Ops, []string{"<", "<="}))
}

func TestParseIsNotAndNotIn(t *testing.T) {
	n, err := expr.Parse("a is not b")
	qt.Assert(t, qt.IsNil(err))
	cmp := n.(*expr.Compare)
	qt.Assert(t, qt.DeepEquals(cmp.Ops, []string{"is-not"}))

	n, err = expr.Parse("a not in b")
	qt.Assert(t, qt.IsNil(err))
	cmp = n.(*expr.Compare)
	qt.Assert(t, qt.DeepEquals(cmp.Ops, []string{"not-in"}))
}

func TestParseAttributeAndSubscript(t *testing.T) {
	n, err := expr.Parse("a.b[0]")
	qt.Assert(t, qt.IsNil(err))
	sub, ok := n.(*expr.Subscript)
	qt.Assert(t, qt.IsTrue(ok))
	attr, ok := sub.X.(*expr.Attribute)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(attr.Attr, "b"))
}

func TestParseSliceWithOpenBounds(t *testing.T) {
	n, err := expr.Parse("a[1:]")
	qt.Assert(t, qt.IsNil(err))
	sl, ok := n.(*expr.Slice)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(sl.Lo))
	qt.Assert(t, qt.IsNil(sl.Hi))
}

func TestParseCallWithKwargs(t *testing.T) {
	n, err := expr.Parse("f(1, x=2)")
	qt.Assert(t, qt.IsNil(err))
	call, ok := n.(*expr.Call)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(call.Args, 1))
	qt.Assert(t, qt.HasLen(call.Kwargs, 1))
	qt.Assert(t, qt.Equals(call.Kwargs[0].Name, "x"))
}

func TestParseListComprehension(t *testing.T) {
	n, err := expr.Parse("[x for x in xs if x]")
	qt.Assert(t, qt.IsNil(err))
	comp, ok := n.(*expr.Comprehension)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(comp.Kind, expr.CompList))
	qt.Assert(t, qt.HasLen(comp.Clauses, 1))
	qt.Assert(t, qt.HasLen(comp.Clauses[0].Ifs, 1))
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := expr.Parse("1 2 3 )")
	qt.Assert(t, qt.IsNotNil(err))
}

func isName(n expr.Node, ident string) bool {
	nm, ok := n.(*expr.Name)
	return ok && nm.Ident == ident
}
