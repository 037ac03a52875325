package yamlet_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go"
	"yamlet.dev/go/internal/core/adt"
)

func TestLoadBytesGetScalar(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("name: alice\nage: 30\n"))
	qt.Assert(t, qt.IsNil(err))

	name, err := v.Get("name")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(name, yamlet.RawValue(adt.String("alice"))))
	qt.Assert(t, qt.IsTrue(v.Contains("age")))
	qt.Assert(t, qt.Equals(v.Len(), 2))
}

func TestLoadBytesNestedTuple(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte(`
server:
  host: localhost
  port: 8080
`))
	qt.Assert(t, qt.IsNil(err))

	server, err := v.GetTuple("server")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(server.Keys(), []string{"host", "port"}))
}

func TestLoadFileResolvesSiblingImport(t *testing.T) {
	dir := t.TempDir()
	qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dir, "defaults.yml"), []byte("timeout: 30\n"), 0o644)))
	root := filepath.Join(dir, "app.yml")
	qt.Assert(t, qt.IsNil(os.WriteFile(root, []byte("defaults: !import defaults.yml\n"), 0o644)))

	v, err := yamlet.LoadFile(root)
	qt.Assert(t, qt.IsNil(err))

	defaults, err := v.GetTuple("defaults")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(defaults.Contains("timeout")))
}

func TestWithRawGlobalsVisibleEverywhere(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("r: !expr 'region'\n"), yamlet.WithRawGlobals(map[string]yamlet.RawValue{
		"region": adt.String("eu-west"),
	}))
	qt.Assert(t, qt.IsNil(err))

	r, err := v.Get("r")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(r, yamlet.RawValue(adt.String("eu-west"))))
}

func TestWithMissingNameDefault(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("x: !expr 'undefined_name'\n"),
		yamlet.WithMissingNameDefault(adt.String("fallback")))
	qt.Assert(t, qt.IsNil(err))

	x, err := v.Get("x")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(x, yamlet.RawValue(adt.String("fallback"))))
}

func TestEvaluateFullyProducesNativeMap(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("a: 1\nb:\n  c: hi\n"))
	qt.Assert(t, qt.IsNil(err))

	out, err := v.EvaluateFully()
	qt.Assert(t, qt.IsNil(err))
	m, ok := out.(map[string]any)
	qt.Assert(t, qt.IsTrue(ok))
	inner, ok := m["b"].(map[string]any)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(inner["c"], "hi"))
}

func TestExplainValueReportsDirectSet(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("x: 1\n"))
	qt.Assert(t, qt.IsNil(err))

	md, err := v.ExplainValue("x")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(len(md) > 0))
}

func TestExplainValueUnknownKeyErrors(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("x: 1\n"))
	qt.Assert(t, qt.IsNil(err))

	_, err = v.ExplainValue("missing")
	qt.Assert(t, qt.IsNotNil(err))
}
