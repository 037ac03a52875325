package adt

import "github.com/google/go-cmp/cmp"

// structuralEqual implements CACHE_DEBUG's equality check (spec.md §9 Open
// Questions, resolved in SPEC_FULL.md §6.3): structural comparison via
// go-cmp rather than host identity, so that two independently-resolved
// copies of the same nested tuple compare equal even though they are
// different Go values.
func structuralEqual(a, b Value) bool {
	return cmp.Equal(snapshot(a), snapshot(b), cmp.Exporter(func(t any) bool { return true }))
}

// snapshot flattens a Value tree into plain Go data for comparison,
// stopping at Tuple boundaries (compared by their enumerable key set and
// an equality-minded cell snapshot, not by resolving every cell again —
// doing so would recursively re-trigger CACHE_DEBUG's own verification).
func snapshot(v Value) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Sentinel:
		return x.String()
	case String:
		return string(x)
	case Bool:
		return bool(x)
	case Int:
		return "int:" + x.D.String()
	case Float:
		return "float:" + x.D.String()
	case List:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			out[i] = snapshot(e)
		}
		return out
	case *HostMap:
		out := map[string]any{}
		for k, e := range x.Entries {
			out[k] = snapshot(e)
		}
		return out
	case *Tuple:
		out := map[string]any{}
		for _, k := range x.Keys() {
			raw, _ := x.rawGet(k)
			out[k] = snapshotCellShallow(raw)
		}
		return out
	default:
		return v
	}
}

// snapshotCellShallow avoids resolving a nested Deferred a second time
// (which would itself run through CACHE_DEBUG and could recurse forever on
// a cycle); it compares the deferred's already-cached value if any, or a
// stand-in otherwise.
func snapshotCellShallow(v Value) any {
	if d, ok := v.(interface{ cachedSnapshot() (Value, bool) }); ok {
		if cached, ok := d.cachedSnapshot(); ok {
			return snapshot(cached)
		}
		return "<unresolved>"
	}
	return snapshot(v)
}
