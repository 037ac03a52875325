package adt

import "yamlet.dev/go/internal/core/token"

// CachePolicy selects how a deferred value's cache field behaves on repeat
// access (spec.md §3 "Caching policies").
type CachePolicy int

const (
	// CacheValues populates the cache once and reuses it (the default).
	CacheValues CachePolicy = iota
	// CacheNothing always recomputes, useful to observe side effects.
	CacheNothing
	// CacheDebug populates the cache but re-evaluates on every access,
	// asserting structural equality with the cached value.
	CacheDebug
)

// ImportInfo is what an ImportResolver returns for a requested import
// string (spec.md §6 "Import resolver").
type ImportInfo struct {
	// CanonicalKey identifies this module for the process-local cache
	// (spec.md §5). Two requests that resolve to the same CanonicalKey
	// share one loaded module tuple.
	CanonicalKey string
	// Tuple is set when the resolver already has a loaded module tuple
	// available (e.g. returning a cached sibling import).
	Tuple *Tuple
	// Raw is parsed from the top by the engine when Tuple is nil.
	Raw []byte
	// ModuleGlobals are visible only while resolving names inside the
	// imported module (spec.md §4.B "ImportLoad").
	ModuleGlobals map[string]Value
}

// ImportResolver is the external collaborator that turns a requested import
// string into either an already-loaded module or raw bytes to parse
// (spec.md §6).
type ImportResolver interface {
	Resolve(requested string) (ImportInfo, error)
}

// HostFunc is the calling contract for a host-supplied function (spec.md
// §6 "Host function table"): arguments are already evaluated, in their
// natural order, before the call.
type HostFunc func(ctx *Context, args []Value, kwargs map[string]Value) (Value, error)

// ConstructorStyle selects how a user tag's scalar text is pre-processed
// before the user callable sees it (spec.md §4.C).
type ConstructorStyle int

const (
	StyleRaw ConstructorStyle = iota
	StyleScalar
	StyleFmt
	StyleExpr
)

// UserConstructor is a registered user tag handler (spec.md §6 "User
// constructor table").
type UserConstructor struct {
	Style ConstructorStyle
	Build func(ctx *Context, text string, rng token.Range) (Value, error)
}

// DebugOptions holds opt-in diagnostics that never change evaluation
// semantics (SPEC_FULL.md §3).
type DebugOptions struct {
	// WarnOnNullLookup makes name resolution pass a message to WarnFunc
	// (when set) each time a scope's cell for the name is the null
	// sentinel, mirroring original_source/yamlet.py's _GclWarning. The
	// engine does no logging of its own.
	WarnOnNullLookup bool
	WarnFunc         func(msg string)
}

// ModuleParser parses raw YAML bytes from an import into a module-root
// tuple. Supplied by the embedding runtime package (which owns the YAML
// decoder) so that this package never imports encoding/yaml (spec.md §4.B
// "ImportLoad").
type ModuleParser func(ctx *Context, raw []byte, name string) (*Tuple, error)

// Options bundles every piece of runtime configuration a Tuple carries
// (spec.md §3 "options").
type Options struct {
	ImportResolver   ImportResolver
	ParseModule      ModuleParser
	MissingNameValue Value // nil means "raise" (the corpus's Error sentinel)
	Functions        map[string]HostFunc
	Globals          map[string]Value
	Constructors     map[string]UserConstructor
	Caching          CachePolicy
	Debug            DebugOptions
}

// DefaultOptions returns the zero-value-safe option set: CACHE_VALUES,
// missing names raise, no globals/functions/constructors/resolver.
func DefaultOptions() *Options {
	return &Options{
		Functions:    map[string]HostFunc{},
		Globals:      map[string]Value{},
		Constructors: map[string]UserConstructor{},
	}
}
