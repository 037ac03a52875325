package runtime_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/internal/core/runtime"
	"yamlet.dev/go/internal/encoding/yaml"
	"yamlet.dev/go/pkg/path"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	qt.Assert(t, qt.IsNil(os.WriteFile(p, []byte(content), 0o644)))
	return p
}

func TestLoaderResolvesRelativeImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "child.yml", "value: 42\n")
	entry := writeFile(t, dir, "root.yml", "child: !import child.yml\n")

	opts := adt.DefaultOptions()
	loader := runtime.NewLoader(path.Unix, opts)
	opts.ImportResolver = loader.RootResolver(dir)
	opts.ParseModule = loader.ParseModule

	ctx := adt.NewContext(opts)
	raw, err := os.ReadFile(entry)
	qt.Assert(t, qt.IsNil(err))
	tup, err := yaml.Decode(ctx, opts, raw, entry)
	qt.Assert(t, qt.IsNil(err))

	childV, err := tup.Get(ctx, "child")
	qt.Assert(t, qt.IsNil(err))
	child, ok := childV.(*adt.Tuple)
	qt.Assert(t, qt.IsTrue(ok))
	v, err := child.Get(ctx, "value")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNotNil(v))
}

func TestLoaderSharesCachedModuleAcrossImporters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.yml", "x: 1\n")
	writeFile(t, dir, "a.yml", "s: !import shared.yml\n")
	entry := writeFile(t, dir, "root.yml", "a: !import a.yml\nb: !import shared.yml\n")

	opts := adt.DefaultOptions()
	loader := runtime.NewLoader(path.Unix, opts)
	opts.ImportResolver = loader.RootResolver(dir)
	opts.ParseModule = loader.ParseModule

	ctx := adt.NewContext(opts)
	raw, err := os.ReadFile(entry)
	qt.Assert(t, qt.IsNil(err))
	tup, err := yaml.Decode(ctx, opts, raw, entry)
	qt.Assert(t, qt.IsNil(err))

	aV, err := tup.Get(ctx, "a")
	qt.Assert(t, qt.IsNil(err))
	a := aV.(*adt.Tuple)
	sV, err := a.Get(ctx, "s")
	qt.Assert(t, qt.IsNil(err))
	s := sV.(*adt.Tuple)

	bV, err := tup.Get(ctx, "b")
	qt.Assert(t, qt.IsNil(err))
	b := bV.(*adt.Tuple)

	// Both import paths resolve to the same canonical file, so the loader's
	// cache must hand back the identical parsed tuple.
	qt.Assert(t, qt.Equals(s == b, true))
}

// Mutual `!import`s (A imports B imports A) are not themselves an error:
// !import cells are never resolved eagerly during construction, so the two
// modules simply end up as a DAG of cached tuples, not an infinite loop.
// A genuine "import recursion" failure requires a module's own parse to
// re-enter itself synchronously, which only a pathological ParseModule
// caller (not ordinary lazy `!import` use) can trigger; see
// TestParseModuleRejectsSynchronousReentrancy in this package for that
// narrower guarantee.
func TestLoaderToleratesMutualImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "b: !import b.yml\n")
	entry := writeFile(t, dir, "b.yml", "a: !import a.yml\n")

	opts := adt.DefaultOptions()
	loader := runtime.NewLoader(path.Unix, opts)
	opts.ImportResolver = loader.RootResolver(dir)
	opts.ParseModule = loader.ParseModule

	ctx := adt.NewContext(opts)
	raw, err := os.ReadFile(entry)
	qt.Assert(t, qt.IsNil(err))
	tup, err := yaml.Decode(ctx, opts, raw, entry)
	qt.Assert(t, qt.IsNil(err))

	aV, err := tup.Get(ctx, "a")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNotNil(aV))
}

func TestContentKeyIsStableForIdenticalBytes(t *testing.T) {
	raw := []byte("x: 1\n")
	qt.Assert(t, qt.Equals(runtime.ContentKey(raw), runtime.ContentKey(append([]byte{}, raw...))))
}
