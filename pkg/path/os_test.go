package path_test

import (
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go/pkg/path"
)

func TestJoinRelative(t *testing.T) {
	got := path.Join(path.Unix, "/a/b", "c/d.yml")
	qt.Assert(t, qt.Equals(got, "/a/b/c/d.yml"))
}

func TestJoinCleansDotDot(t *testing.T) {
	got := path.Join(path.Unix, "/a/b", "../c.yml")
	qt.Assert(t, qt.Equals(got, "/a/c.yml"))
}

func TestJoinAbsoluteUnixPassesThrough(t *testing.T) {
	got := path.Join(path.Unix, "/a/b", "/etc/x.yml")
	qt.Assert(t, qt.Equals(got, "/etc/x.yml"))
}

func TestJoinAbsoluteWindowsDriveLetter(t *testing.T) {
	got := path.Join(path.Windows, "/a/b", `C:\x.yml`)
	qt.Assert(t, qt.Equals(got, `C:\x.yml`))
}

func TestDir(t *testing.T) {
	qt.Assert(t, qt.Equals(path.Dir("a/b/c.yml"), "a/b"))
	qt.Assert(t, qt.Equals(path.Dir("c.yml"), "."))
}
