package yamlet

import (
	"fmt"
	"os"

	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/internal/core/runtime"
	"yamlet.dev/go/internal/encoding/yaml"
	"yamlet.dev/go/pkg/path"
)

// LoadFile reads and evaluates the Yamlet document at name, rooting its
// default import resolver at the file's own directory so that `!import
// "./sibling.yml"` resolves the way a shell would expect (spec.md §4.C
// "ImportLoad", §6).
func LoadFile(name string, opts ...Option) (*Value, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return load(name, raw, path.Dir(name), opts)
}

// LoadBytes evaluates a Yamlet document already in memory. name identifies
// it for error messages; any `!import` the document contains is resolved
// against the current directory (".") by the default resolver.
func LoadBytes(name string, data []byte, opts ...Option) (*Value, error) {
	return load(name, data, ".", opts)
}

func load(name string, raw []byte, baseDir string, opts []Option) (*Value, error) {
	base, cfg := newOptions()
	for _, o := range opts {
		o(base, cfg)
	}

	loader := runtime.NewLoader(cfg.os, base)
	resolver := cfg.importResolver
	if resolver == nil {
		resolver = loader.RootResolver(baseDir)
	}
	base.ImportResolver = resolver
	base.ParseModule = loader.ParseModule

	ctx := adt.NewContext(base)
	t, err := yaml.Decode(ctx, base, raw, name)
	if err != nil {
		return nil, wrapError(err)
	}
	return &Value{ctx: ctx, t: t}, nil
}

// Tuple exposes the underlying internal/core/adt.Tuple, for callers (the
// CLI, tests) that need the raw engine type rather than the façade.
func (v *Value) Tuple() *adt.Tuple { return v.t }

// Contains reports whether key names an enumerable cell: present, not
// erased by `null`, not `!local`, and not a deferred reporting itself
// undefined (spec.md §6 "__contains__").
func (v *Value) Contains(key string) bool { return v.t.Contains(key) }

// Keys returns the enumerable keys in insertion/composition order
// (spec.md §5 "Ordering").
func (v *Value) Keys() []string { return v.t.Keys() }

// Len reports the number of enumerable keys.
func (v *Value) Len() int { return v.t.Len() }

// Get resolves key and returns its raw engine value: a scalar, an
// adt.List, a *adt.HostMap, a *adt.Lambda, or a *adt.Tuple if the cell
// holds another tuple (GetTuple wraps that case in a *Value).
func (v *Value) Get(key string) (RawValue, error) {
	raw, err := v.t.Get(v.ctx, key)
	if err != nil {
		return nil, wrapError(err)
	}
	return raw, nil
}

// GetTuple is Get, requiring (and unwrapping) a tuple result — the usual
// case when walking into a nested mapping.
func (v *Value) GetTuple(key string) (*Value, error) {
	raw, err := v.Get(key)
	if err != nil {
		return nil, err
	}
	t, ok := raw.(*adt.Tuple)
	if !ok {
		return nil, fmt.Errorf("`%s` is not a tuple", key)
	}
	return &Value{ctx: v.ctx, t: t}, nil
}

// KV is one (key, value) pair, as returned by Items.
type KV struct {
	Key   string
	Value RawValue
}

// Items returns every enumerable (key, value) pair in order (spec.md §6
// "items").
func (v *Value) Items() ([]KV, error) {
	keys := v.t.Keys()
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		val, err := v.Get(k)
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Key: k, Value: val})
	}
	return out, nil
}

// Values returns every enumerable value in key order (spec.md §6
// "values").
func (v *Value) Values() ([]RawValue, error) {
	items, err := v.Items()
	if err != nil {
		return nil, err
	}
	out := make([]RawValue, len(items))
	for i, kv := range items {
		out[i] = kv.Value
	}
	return out, nil
}

// ExplainValue renders a provenance narrative for key as a small Markdown
// document (a heading naming the key, a paragraph describing which source
// tuple last contributed its current cell, and whether that cell was
// since erased by a `null` override) — spec.md §4.A "ExplainUp", §6
// "explain_value". `yamlet explain` is the intended consumer, rendering
// this Markdown down to terminal text.
func (v *Value) ExplainValue(key string) (string, error) {
	prov, ok := v.t.Provenance(key)
	if !ok {
		if !v.t.Contains(key) {
			return "", fmt.Errorf("`%s` has no recorded provenance", key)
		}
		return fmt.Sprintf("## `%s`\n\nSet directly, with no composition history.\n", key), nil
	}
	origin := "the module root"
	if prov.Source != nil {
		origin = "`" + prov.Source.Pos().String() + "`"
	}
	if prov.Deleted {
		return fmt.Sprintf("## `%s`\n\nLast set by %s, then erased with `null`.\n", key, origin), nil
	}
	return fmt.Sprintf("## `%s`\n\nSet by %s.\n", key, origin), nil
}

// EvaluateFully recursively resolves every cell of the document
// depth-first into host-native structures: map[string]any for tuples,
// []any for lists, and Go scalars otherwise. `null` cells are discarded;
// `external` is a failure only if actually reached by a lookup (spec.md
// §4.I "evaluate_fully").
func (v *Value) EvaluateFully() (any, error) {
	out, err := evaluateFully(v.ctx, v.t)
	if err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

func evaluateFully(ctx *adt.Context, val adt.Value) (any, error) {
	switch x := val.(type) {
	case adt.String:
		return string(x), nil
	case adt.Bool:
		return bool(x), nil
	case adt.Int:
		return x.D, nil
	case adt.Float:
		return x.D, nil
	case adt.Sentinel:
		switch {
		case x.IsNull():
			return nil, nil
		case x.IsExternal():
			return nil, ctx.Errorf(adt.AccessOnExternal, "`external` value reached by evaluate_fully")
		default:
			return nil, nil
		}
	case adt.List:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			ev, err := evaluateFully(ctx, e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case *adt.HostMap:
		out := make(map[string]any, len(x.Order))
		for _, k := range x.Order {
			ev, err := evaluateFully(ctx, x.Entries[k])
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case *adt.Tuple:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			cell, err := x.Get(ctx, k)
			if err != nil {
				return nil, err
			}
			ev, err := evaluateFully(ctx, cell)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case *adt.Lambda:
		return nil, fmt.Errorf("cannot evaluate_fully a lambda value")
	default:
		return nil, fmt.Errorf("evaluate_fully: unsupported value type %T", val)
	}
}
