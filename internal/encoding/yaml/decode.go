// Package yaml turns a YAML document into a Yamlet tuple, dispatching each
// node by its tag to the constructors in spec.md §4.C: an untagged mapping
// becomes a base tuple (after the if-ladder/`!local` preprocessor rewrite in
// internal/core/adt), while `!import`, `!composite`, `!fmt`, `!expr`,
// `!lambda`, `!null`, `!external` and user-registered tags each produce the
// matching adt.Value or adt.Deferred.
package yaml

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	goyaml "go.yaml.in/yaml/v3"

	"yamlet.dev/go/internal/core/adt"
	"yamlet.dev/go/internal/core/expr"
	"yamlet.dev/go/internal/core/token"
)

const (
	tagIf       = "!if"
	tagElif     = "!elif"
	tagElse     = "!else"
	tagLocal    = "!local"
	tagNull     = "!null"
	tagExternal = "!external"
	tagImport   = "!import"
	tagComposite = "!composite"
	tagFmt      = "!fmt"
	tagExpr     = "!expr"
	tagLambda   = "!lambda"
)

// rxElseColon matches a stand-alone `!else:` at the start of a mapping key
// position, which go.yaml.in/yaml parses as a tag with a trailing colon
// rather than as a directive key followed by `:`. Bounded to a line that,
// after optional leading whitespace and a `-` sequence item marker, starts
// with exactly `!else:` and is followed by whitespace or end of line, so it
// never touches an unrelated `!else:something` custom tag.
var rxElseColon = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`(?m)^(\s*(?:-\s*)?)!else:(\s|$)`)
})

// preprocessSource applies the `!else:` -> `!else ` line-level rewrite
// described in spec.md §4.C before handing the bytes to the YAML parser.
func preprocessSource(src []byte) []byte {
	return rxElseColon().ReplaceAll(src, []byte("${1}!else ${2}"))
}

// Decode parses a single YAML document from raw into a module-root tuple.
// name is used for position information and recorded as the tuple's
// source file name.
func Decode(ctx *adt.Context, opts *adt.Options, raw []byte, name string) (*adt.Tuple, error) {
	raw = preprocessSource(raw)
	file := token.NewFile(name, 0, len(raw)+1)
	file.SetLinesForContent(raw)

	var root goyaml.Node
	if err := goyaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	d := &decoder{file: file, opts: opts, ctx: ctx}
	if root.Kind == 0 {
		// Empty document: an empty tuple.
		return adt.NewTuple(nil, opts, token.Range{}), nil
	}
	content := &root
	if root.Kind == goyaml.DocumentNode {
		if len(root.Content) != 1 {
			return nil, fmt.Errorf("%s: expected exactly one YAML document", name)
		}
		content = root.Content[0]
	}
	v, err := d.node(content, nil, opts)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*adt.Tuple)
	if !ok {
		return nil, fmt.Errorf("%s: top-level YAML document must be a mapping", name)
	}
	return t, nil
}

type decoder struct {
	file *token.File
	opts *adt.Options
	ctx  *adt.Context
}

func (d *decoder) rng(yn *goyaml.Node) token.Range {
	off := d.offset(yn)
	p := d.file.Pos(off, token.NoRelPos)
	return token.Range{Start: p, End: p}
}

func (d *decoder) offset(yn *goyaml.Node) int {
	lines := d.file.Lines()
	if yn.Line-1 < 0 || yn.Line-1 >= len(lines) {
		return 0
	}
	return lines[yn.Line-1] + (yn.Column - 1)
}

func (d *decoder) errf(yn *goyaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", d.file.Name(), yn.Line, fmt.Sprintf(format, args...))
}

// node dispatches a single YAML node to the right constructor, resolving
// its tag per spec.md §4.C. parent/opts are threaded through for mapping
// construction (a nested mapping's tuple is a child scope of parent).
func (d *decoder) node(yn *goyaml.Node, parent *adt.Tuple, opts *adt.Options) (adt.Value, error) {
	switch yn.Kind {
	case goyaml.AliasNode:
		return d.node(yn.Alias, parent, opts)
	case goyaml.ScalarNode:
		return d.scalar(yn, parent, opts)
	case goyaml.SequenceNode:
		return d.sequence(yn, parent, opts)
	case goyaml.MappingNode:
		return d.mappingTagged(yn, parent, opts)
	default:
		return nil, d.errf(yn, "unsupported YAML node kind")
	}
}

func (d *decoder) sequence(yn *goyaml.Node, parent *adt.Tuple, opts *adt.Options) (adt.Value, error) {
	rng := d.rng(yn)
	if tag, style, ok := userTag(opts, yn.Tag); ok {
		return d.buildUserTag(yn, tag, style, rng, parent, opts)
	}
	if yn.Tag == tagComposite {
		items := make([]adt.CompositeItem, 0, len(yn.Content))
		for _, c := range yn.Content {
			if c.Kind == goyaml.ScalarNode || c.Kind == goyaml.AliasNode {
				text, err := d.scalarText(c)
				if err != nil {
					return nil, err
				}
				n, err := expr.Parse(text)
				if err != nil {
					return nil, d.errf(c, "!composite item: %v", err)
				}
				items = append(items, adt.CompositeItem{Node: n})
				continue
			}
			// An inline mapping/sequence literal (e.g. `{ val: "..." }`) has
			// no expression text to parse at all; decode it directly.
			v, err := d.node(c, parent, opts)
			if err != nil {
				return nil, err
			}
			items = append(items, adt.CompositeItem{Literal: v})
		}
		return adt.NewTupleListComposite(items, rng), nil
	}
	elems := make([]adt.Value, len(yn.Content))
	for i, c := range yn.Content {
		v, err := d.node(c, parent, opts)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return adt.NewList(elems, rng), nil
}

// mappingTagged builds a tuple from a mapping node (spec.md §4.C's
// untagged-mapping row), or dispatches to a registered user tag.
//
// The result tuple is allocated before any of its pairs' values are built,
// so that a nested mapping or `!lambda` closing over it as its lexical
// parent gets the right (eventually fully-populated) scope object rather
// than a stand-in (spec.md §4.G's late-binding requirement).
func (d *decoder) mappingTagged(yn *goyaml.Node, parent *adt.Tuple, opts *adt.Options) (adt.Value, error) {
	rng := d.rng(yn)
	if tag, style, ok := userTag(opts, yn.Tag); ok {
		return d.buildUserTag(yn, tag, style, rng, parent, opts)
	}
	result := adt.NewTuple(parent, opts, rng)
	pairs, err := d.buildPairs(yn, result, opts)
	if err != nil {
		return nil, err
	}
	if err := adt.FillTuple(d.ctx, result, pairs); err != nil {
		return nil, err
	}
	return result, nil
}

// buildPairs walks a mapping's key/value content in document order,
// recognizing `!if`/`!elif`/`!else` directive keys and `!local`-tagged
// keys (spec.md §4.C, §4.H); every other pair is a plain cell whose value
// is built against result as its lexical parent.
func (d *decoder) buildPairs(yn *goyaml.Node, result *adt.Tuple, opts *adt.Options) ([]adt.Pair, error) {
	if yn.Kind != goyaml.MappingNode {
		return nil, d.errf(yn, "expected a mapping")
	}
	var pairs []adt.Pair
	for i := 0; i+1 < len(yn.Content); i += 2 {
		yk, yv := yn.Content[i], yn.Content[i+1]
		switch yk.Tag {
		case tagIf, tagElif:
			armBody, err := d.mappingValue(yv, result, opts)
			if err != nil {
				return nil, err
			}
			cond, err := expr.Parse(yk.Value)
			if err != nil {
				return nil, d.errf(yk, "%s: %v", yk.Tag, err)
			}
			kind := adt.PairIf
			if yk.Tag == tagElif {
				kind = adt.PairElif
			}
			pairs = append(pairs, adt.Pair{Kind: kind, CondText: yk.Value, Cond: cond, ArmBody: armBody, Rng: d.rng(yk)})
			continue
		case tagElse:
			if yk.Value != "" {
				return nil, d.errf(yk, "!else must be an empty scalar")
			}
			armBody, err := d.mappingValue(yv, result, opts)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, adt.Pair{Kind: adt.PairElse, ArmBody: armBody, Rng: d.rng(yk)})
			continue
		}
		v, err := d.node(yv, result, opts)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, adt.Pair{
			Kind:  adt.PairPlain,
			Key:   yk.Value,
			Local: yk.Tag == tagLocal,
			Value: v,
			Rng:   d.rng(yk),
		})
	}
	return pairs, nil
}

// mappingValue builds yn (an if-ladder arm's body) and requires the result
// to be a tuple, since every arm of a ladder contributes a set of keys to
// its enclosing scope (spec.md §4.H).
func (d *decoder) mappingValue(yn *goyaml.Node, parent *adt.Tuple, opts *adt.Options) (*adt.Tuple, error) {
	v, err := d.node(yn, parent, opts)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*adt.Tuple)
	if !ok {
		return nil, d.errf(yn, "if-ladder arm value must be a mapping")
	}
	return t, nil
}

func (d *decoder) scalarText(yn *goyaml.Node) (string, error) {
	if yn.Kind == goyaml.AliasNode {
		return d.scalarText(yn.Alias)
	}
	if yn.Kind != goyaml.ScalarNode {
		return "", d.errf(yn, "expected a scalar")
	}
	return yn.Value, nil
}

// scalar builds the value for an untagged or tag-bearing scalar node.
func (d *decoder) scalar(yn *goyaml.Node, parent *adt.Tuple, opts *adt.Options) (adt.Value, error) {
	rng := d.rng(yn)
	if tag, style, ok := userTag(opts, yn.Tag); ok {
		return d.buildUserTag(yn, tag, style, rng, parent, opts)
	}
	switch yn.Tag {
	case tagNull:
		if yn.Value != "" {
			return nil, d.errf(yn, "!null must be an empty scalar")
		}
		return adt.NullValue(rng), nil
	case tagExternal:
		if yn.Value != "" {
			return nil, d.errf(yn, "!external must be an empty scalar")
		}
		return adt.External(rng), nil
	case tagImport:
		return adt.NewImportLoad(yn.Value, rng), nil
	case tagFmt:
		return adt.NewStringInterpolate(yn.Value, rng), nil
	case tagExpr:
		n, err := expr.Parse(yn.Value)
		if err != nil {
			return nil, d.errf(yn, "!expr: %v", err)
		}
		return adt.NewExpressionEvaluate(n, rng), nil
	case tagLambda:
		return d.buildLambda(yn, rng, parent)
	case tagComposite:
		text := yn.Value
		var items []adt.CompositeItem
		for _, word := range strings.Fields(text) {
			n, err := expr.Parse(word)
			if err != nil {
				return nil, d.errf(yn, "!composite: %v", err)
			}
			items = append(items, adt.CompositeItem{Node: n})
		}
		return adt.NewTupleListComposite(items, rng), nil
	}
	return d.plainScalar(yn, rng)
}

// buildLambda parses `!lambda`'s `params: body` scalar text (spec.md §4.C):
// `:` separates a comma-separated parameter list (each either `name` or
// `name=default-expr`) from the body expression.
func (d *decoder) buildLambda(yn *goyaml.Node, rng token.Range, parent *adt.Tuple) (adt.Value, error) {
	text := yn.Value
	colon := strings.Index(text, ":")
	if colon < 0 {
		return nil, d.errf(yn, "!lambda requires `params: body`")
	}
	paramsText := strings.TrimSpace(text[:colon])
	bodyText := strings.TrimSpace(text[colon+1:])
	body, err := expr.Parse(bodyText)
	if err != nil {
		return nil, d.errf(yn, "!lambda body: %v", err)
	}
	var params []string
	defaults := map[string]expr.Node{}
	if paramsText != "" {
		for _, raw := range strings.Split(paramsText, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if eq := strings.Index(raw, "="); eq >= 0 {
				name := strings.TrimSpace(raw[:eq])
				defExpr, err := expr.Parse(strings.TrimSpace(raw[eq+1:]))
				if err != nil {
					return nil, d.errf(yn, "!lambda default for `%s`: %v", name, err)
				}
				params = append(params, name)
				defaults[name] = defExpr
			} else {
				params = append(params, raw)
			}
		}
	}
	return adt.NewLambda(params, defaults, body, parent, rng), nil
}

// plainScalar resolves an untagged (or implicit-tagged) scalar using
// go.yaml.in/yaml's own resolution (bool/int/float/null/string), then
// string scalars additionally go through StringInterpolate the way every
// YAML string does (spec.md §4.E "Constant").
func (d *decoder) plainScalar(yn *goyaml.Node, rng token.Range) (adt.Value, error) {
	tag := yn.ShortTag()
	switch tag {
	case "!!null":
		return adt.NullValue(rng), nil
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(yn.Value))
		if err != nil {
			return nil, d.errf(yn, "invalid bool %q", yn.Value)
		}
		return adt.Bool(b), nil
	case "!!int":
		v := strings.ReplaceAll(yn.Value, "_", "")
		return adt.ParseIntLiteral(v, rng)
	case "!!float":
		v := strings.ReplaceAll(yn.Value, "_", "")
		return adt.ParseFloatLiteral(v, rng)
	default:
		return adt.NewStringInterpolate(yn.Value, rng), nil
	}
}

// userTag reports whether tag names a registered user constructor, parsing
// an optional `:style` suffix that overrides the registration's default
// style per call site (spec.md §4.C).
func userTag(opts *adt.Options, tag string) (name string, style adt.ConstructorStyle, ok bool) {
	if opts == nil || len(opts.Constructors) == 0 || !strings.HasPrefix(tag, "!") {
		return "", 0, false
	}
	body := tag[1:]
	name = body
	styleOverride := -1
	if i := strings.LastIndex(body, ":"); i >= 0 {
		switch body[i+1:] {
		case "raw":
			styleOverride = int(adt.StyleRaw)
		case "scalar":
			styleOverride = int(adt.StyleScalar)
		case "fmt":
			styleOverride = int(adt.StyleFmt)
		case "expr":
			styleOverride = int(adt.StyleExpr)
		default:
			return "", 0, false
		}
		name = body[:i]
	}
	reg, ok := opts.Constructors[name]
	if !ok {
		return "", 0, false
	}
	if styleOverride >= 0 {
		return name, adt.ConstructorStyle(styleOverride), true
	}
	return name, reg.Style, true
}

func (d *decoder) buildUserTag(yn *goyaml.Node, name string, style adt.ConstructorStyle, rng token.Range, parent *adt.Tuple, opts *adt.Options) (adt.Value, error) {
	reg := opts.Constructors[name]
	switch style {
	case adt.StyleFmt:
		text, err := d.scalarText(yn)
		if err != nil {
			return nil, err
		}
		return userTagDeferred{build: reg.Build, text: text, rng: rng, via: adt.NewStringInterpolate(text, rng)}, nil
	case adt.StyleExpr:
		text, err := d.scalarText(yn)
		if err != nil {
			return nil, err
		}
		n, err := expr.Parse(text)
		if err != nil {
			return nil, d.errf(yn, "!%s:expr: %v", name, err)
		}
		return userTagDeferred{build: reg.Build, text: text, rng: rng, via: adt.NewExpressionEvaluate(n, rng)}, nil
	case adt.StyleScalar:
		text, err := d.scalarText(yn)
		if err != nil {
			return nil, err
		}
		return reg.Build(d.ctx, text, rng)
	default: // StyleRaw
		text, err := d.scalarText(yn)
		if err != nil {
			return nil, err
		}
		return reg.Build(d.ctx, text, rng)
	}
}

// userTagDeferred runs `via`'s own resolution (interpolation or expression
// evaluation) first, stringifies the result, and hands that to the user's
// Build callback — the FMT/EXPR constructor styles from spec.md §4.C.
type userTagDeferred struct {
	build func(ctx *adt.Context, text string, rng token.Range) (adt.Value, error)
	text  string
	rng   token.Range
	via   adt.Deferred
}

func (u userTagDeferred) Pos() token.Range { return u.rng }

func (u userTagDeferred) Resolve(scope *adt.Tuple, ctx *adt.Context) (adt.Value, error) {
	v, err := u.via.Resolve(scope, ctx)
	if err != nil {
		return nil, err
	}
	s, err := adt.Stringify(v)
	if err != nil {
		return nil, ctx.Errorf(adt.NotImplemented, "%v", err)
	}
	return u.build(ctx, s, u.rng)
}

func (u userTagDeferred) IsUndefined(scope *adt.Tuple, ctx *adt.Context) (bool, error) {
	return false, nil
}

func (u userTagDeferred) Clone(newScope *adt.Tuple) adt.Deferred { return u }
