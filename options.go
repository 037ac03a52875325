package yamlet

import (
	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/internal/core/token"
	"yamlet.dev/go/pkg/path"
)

// RawValue is the engine's own value interface (spec.md §4.B), for
// callers building host-native globals, a missing-name default, or a
// user-constructor's built value directly against internal/core/adt
// rather than through a parsed document.
type RawValue = adt.Value

// Context threads options and the trace-frame chain through evaluation
// (spec.md §4.A); it is the first argument to a HostFunc or a user
// constructor's build callback.
type Context = adt.Context

// Range is a source span, passed to a user constructor's build callback
// so it can report errors at the tag's own position.
type Range = token.Range

// CachePolicy selects how a deferred cell's cache behaves on repeat access
// (spec.md §4.I). The zero value is CacheValues.
type CachePolicy = adt.CachePolicy

const (
	CacheValues  = adt.CacheValues
	CacheNothing = adt.CacheNothing
	CacheDebug   = adt.CacheDebug
)

// ConstructorStyle selects how a user tag's scalar text is pre-processed
// before its callable sees it (spec.md §4.C, §6).
type ConstructorStyle = adt.ConstructorStyle

const (
	StyleRaw    = adt.StyleRaw
	StyleScalar = adt.StyleScalar
	StyleFmt    = adt.StyleFmt
	StyleExpr   = adt.StyleExpr
)

// HostFunc is the calling contract for a host-supplied function (spec.md
// §6 "Host function table"): arguments arrive already evaluated.
type HostFunc = adt.HostFunc

// ImportResolver turns a requested `!import` string into either an
// already-loaded module or raw bytes for the engine to parse (spec.md §6).
// runtime.Loader is the default file-system implementation; embedders may
// supply their own (a bundled archive, a network fetch, an in-memory map).
type ImportResolver = adt.ImportResolver

// ImportInfo is what an ImportResolver returns (spec.md §6).
type ImportInfo = adt.ImportInfo

// Value is a tuple, indexable by string key, produced by Load/LoadFile/
// LoadBytes. It satisfies the user-facing surface spec.md §6 fixes in
// contract: __contains__ (Contains), ordered key iteration (Keys), Items,
// Values, Len, ExplainValue and EvaluateFully.
type Value struct {
	ctx *adt.Context
	t   *adt.Tuple
}

// Option configures a Load/LoadFile/LoadBytes call. Options compose: later
// options override earlier ones that touch the same field, except
// WithGlobals/WithRawGlobals/WithFunctions/WithConstructor, which add
// entries to the running map rather than replacing it wholesale.
type Option func(*adt.Options, *config)

// config carries façade-level settings that are resolved into adt.Options
// only once Load knows the document's own directory (needed to root the
// default import resolver).
type config struct {
	os             path.OS
	importResolver adt.ImportResolver // explicit override; nil means "use the default file loader"
}

func newOptions() (*adt.Options, *config) {
	return adt.DefaultOptions(), &config{os: path.Unix}
}

// WithGlobals registers process-global names visible to every scope once
// the local/parent/import chain is exhausted (spec.md §4.F).
func WithGlobals(globals map[string]Value) Option {
	return func(o *adt.Options, _ *config) {
		for k, v := range globals {
			o.Globals[k] = v.t
		}
	}
}

// WithRawGlobals is WithGlobals for callers building host-native globals
// directly against internal/core/adt.
func WithRawGlobals(globals map[string]RawValue) Option {
	return func(o *adt.Options, _ *config) {
		for k, v := range globals {
			o.Globals[k] = v
		}
	}
}

// WithFunctions registers host functions callable by name from expressions
// (spec.md §6 "Host function table").
func WithFunctions(fns map[string]HostFunc) Option {
	return func(o *adt.Options, _ *config) {
		for k, f := range fns {
			o.Functions[k] = f
		}
	}
}

// WithConstructor registers a user tag (spec.md §4.C, §6 "User constructor
// table"). tag is written without its leading `!` in YAML, e.g.
// WithConstructor("secret", yamlet.StyleFmt, build) handles `!secret`.
func WithConstructor(tag string, style ConstructorStyle, build func(ctx *Context, text string, rng Range) (RawValue, error)) Option {
	return func(o *adt.Options, _ *config) {
		o.Constructors[tag] = adt.UserConstructor{Style: style, Build: build}
	}
}

// WithImportResolver overrides the default file-system import resolver
// (runtime.Loader) with resolver. Use this to serve imports from a bundle,
// an embed.FS, or a network fetch instead of the local filesystem.
func WithImportResolver(resolver ImportResolver) Option {
	return func(o *adt.Options, c *config) {
		c.importResolver = resolver
	}
}

// WithCaching selects the deferred-value caching policy (spec.md §4.I).
func WithCaching(p CachePolicy) Option {
	return func(o *adt.Options, _ *config) {
		o.Caching = p
	}
}

// WithMissingNameDefault supplies a value returned for any name that
// resolution would otherwise fail to find, instead of raising (spec.md
// §4.F "configured missing-name default").
func WithMissingNameDefault(v RawValue) Option {
	return func(o *adt.Options, _ *config) {
		o.MissingNameValue = v
	}
}

// WithDebug enables opt-in diagnostics that never change evaluation
// semantics (SPEC_FULL.md §3).
func WithDebug(warnOnNullLookup bool, warn func(msg string)) Option {
	return func(o *adt.Options, _ *config) {
		o.Debug = adt.DebugOptions{WarnOnNullLookup: warnOnNullLookup, WarnFunc: warn}
	}
}

// WithOS selects the path-separator convention the default import
// resolver uses to recognize an already-absolute import string (pkg/path).
// The default is path.Unix whatever the host's own GOOS; callers serving
// imports from another filesystem layout can select a different one.
func WithOS(os path.OS) Option {
	return func(_ *adt.Options, c *config) {
		c.os = os
	}
}
