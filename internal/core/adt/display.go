package adt

import (
	"fmt"
	"strings"
)

// Stringify exposes stringify to the YAML tag-constructor layer, for
// user-tag FMT/EXPR styles that need to render their resolved value to text
// before handing it to the registered Build callback (spec.md §4.C).
func Stringify(v Value) (string, error) { return stringify(v) }

// stringify renders v the way string interpolation and `str(...)` do: host
// semantics for scalars, Python-repr-like punctuation for collections.
func stringify(v Value) (string, error) {
	switch x := v.(type) {
	case String:
		return string(x), nil
	case Bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case Int:
		return x.D.String(), nil
	case Float:
		return x.D.String(), nil
	case Sentinel:
		return x.String(), nil
	case List:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			s, err := reprValue(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *Tuple:
		return fmt.Sprintf("<tuple %s>", describeScope(x)), nil
	case *HostMap:
		parts := make([]string, 0, len(x.Order))
		for _, k := range x.Order {
			s, err := reprValue(x.Entries[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%q: %s", k, s))
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case *Lambda:
		return "<lambda>", nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// reprValue is stringify with string values quoted, matching Python's
// distinction between str() and repr() inside nested containers.
func reprValue(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return fmt.Sprintf("%q", string(s)), nil
	}
	return stringify(v)
}

func asKeyString(v Value) (string, error) {
	switch x := v.(type) {
	case String:
		return string(x), nil
	case Int:
		return x.D.String(), nil
	case Bool:
		return stringify(x)
	default:
		return "", fmt.Errorf("unsupported dict/tuple key type %T", v)
	}
}
