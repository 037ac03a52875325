// Package path resolves one Yamlet `!import` request against the directory
// of the file that issued it, the way relative imports are resolved on disk
// (spec.md §4.C "ImportLoad", §6 "Import resolver").
//
// cuelang.org/go/internal/ospath (which the teacher uses for OS-aware path
// splitting) is an internal package outside this module's reach, so Join
// and isAbs below reimplement only the slash/backslash recognition Yamlet
// actually needs, rather than a full cross-platform path grammar.
package path

import (
	"path"
	"strings"
)

// OS selects which path-separator convention Join uses to recognize an
// already-absolute import string. It must be a valid runtime.GOOS value or
// "unix".
type OS string

const (
	Unix    OS = "unix"
	Windows OS = "windows"
	Plan9   OS = "plan9"
)

// Join resolves requested against the slash-separated directory of the
// importing file (baseDir), the way the default file-system ImportResolver
// does it: an absolute requested path (by the given OS's convention) is
// returned unchanged; a relative one is joined to baseDir and cleaned.
func Join(o OS, baseDir, requested string) string {
	if isAbs(o, requested) {
		return requested
	}
	return path.Clean(path.Join(baseDir, requested))
}

func isAbs(o OS, p string) bool {
	switch o {
	case Windows:
		if len(p) >= 2 && p[1] == ':' {
			return true
		}
		return strings.HasPrefix(p, `\\`) || strings.HasPrefix(p, "/")
	default: // Unix, Plan9
		return strings.HasPrefix(p, "/")
	}
}

// Dir returns the slash-separated directory portion of p, for recording as
// the baseDir of whatever p's content goes on to import.
func Dir(p string) string {
	return path.Dir(p)
}
