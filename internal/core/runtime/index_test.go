package runtime

import (
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/pkg/path"
)

// TestParseModuleRejectsSynchronousReentrancy exercises the narrow case
// ParseModule's enter/leave guard actually exists for: a module's own
// decode recursively calling back into ParseModule for its own canonical
// key before the first call has finished (spec.md §5 "import recursion"),
// which ordinary lazy `!import` cells never do on their own.
func TestParseModuleRejectsSynchronousReentrancy(t *testing.T) {
	opts := adt.DefaultOptions()
	l := NewLoader(path.Unix, opts)
	opts.ParseModule = l.ParseModule

	qt.Assert(t, qt.IsNil(l.index.enter("self.yml")))
	ctx := adt.NewContext(opts)
	_, err := l.ParseModule(ctx, []byte("x: 1\n"), "self.yml")
	qt.Assert(t, qt.IsNotNil(err))
	ae, ok := err.(*adt.Error)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(ae.Kind, adt.ImportCycle))
	l.index.leave("self.yml")
}

func TestIndexGetMissReturnsFalse(t *testing.T) {
	x := newIndex()
	_, ok := x.get("missing")
	qt.Assert(t, qt.IsFalse(ok))
}
