// Package yamlet evaluates Yamlet documents: YAML extended with tuple
// composition, deferred expressions, and an `!if`/`!elif`/`!else`
// preprocessor (spec.md §1). Load, LoadFile and LoadBytes parse a
// document and return a *Value, a thin read-only view over the resulting
// tuple; Options (built with With* functions) configures import
// resolution, host functions, globals, user tag constructors, and the
// caching policy.
//
// This package is the thin public façade over internal/core/adt (the
// evaluator), internal/encoding/yaml (the tag-constructor layer) and
// internal/core/runtime (import loading), mirroring the way
// cuelang.org/go keeps its tightly-coupled core under internal/ and
// exposes a small stable surface at the package doing the exposing.
package yamlet
