// Package trace implements the evaluation trace-frame chain described in
// spec.md §4.A: a linked tree of frames recording what the evaluator was
// doing, used both to detect re-entrant evaluation of the same deferred
// cell (a dependency cycle, §4.I) and to render the "breadcrumb" story that
// accompanies every failure (§7).
package trace

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"yamlet.dev/go/internal/core/token"
)

// wrapWidth bounds rendered frame labels so that a single long expression
// doesn't turn a 20-line trace into three lines nobody can read in a
// terminal.
const wrapWidth = 96

// DeferredIdentity is the stable identity of a deferred value, used to spot
// re-entrant evaluation (spec.md §4.I). It is a constraint only: any
// comparable type satisfies it, and BranchForDeferredEval itself takes the
// identity as `any`, so this package does not depend on adt (adt depends
// on trace, not the reverse).
type DeferredIdentity interface {
	comparable
}

// Frame is one node in the trace tree.
type Frame struct {
	label      string
	rang       token.Range
	parent     *Frame
	children   []*Frame
	byName     map[string]*Frame
	evaluating any // the deferred identity this frame is resolving, or nil
}

// Root creates a new top-level frame, the start of a fresh evaluation.
func Root(label string, rng token.Range) *Frame {
	return &Frame{label: label, rang: rng}
}

// Branch pushes a new, unkeyed child frame (spec.md "Branch").
func (f *Frame) Branch(label string, rng token.Range) *Frame {
	child := &Frame{label: label, rang: rng, parent: f}
	f.children = append(f.children, child)
	return child
}

// BranchForNameResolution pushes a child frame keyed by name, so that
// repeated lookups of the same name in the same scope render under one
// entry in the name-deps map (spec.md "BranchForNameResolution").
func (f *Frame) BranchForNameResolution(desc, key string, rng token.Range) *Frame {
	if f.byName == nil {
		f.byName = map[string]*Frame{}
	}
	if existing, ok := f.byName[key]; ok {
		return existing
	}
	child := &Frame{label: desc, rang: rng, parent: f}
	f.byName[key] = child
	f.children = append(f.children, child)
	return child
}

// CycleError reports a dependency-cycle failure, named by the deferred
// value's source text, surfaced when BranchForDeferredEval detects
// re-entrancy.
type CycleError struct {
	Desc string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s is already being evaluated", e.Desc)
}

// BranchForDeferredEval pushes a child frame marking deferred as currently
// evaluating. If any ancestor frame (inclusive of f) is already evaluating
// the same deferred identity, it returns a *CycleError instead of a frame.
func (f *Frame) BranchForDeferredEval(deferred any, desc string, rng token.Range) (*Frame, error) {
	for anc := f; anc != nil; anc = anc.parent {
		if anc.evaluating == deferred {
			return nil, &CycleError{Desc: desc}
		}
	}
	child := &Frame{label: desc, rang: rng, parent: f, evaluating: deferred}
	f.children = append(f.children, child)
	return child, nil
}

// Scope renders a frame's label prefixed as "scope <desc>", used for the
// scoped swap of the active scope while resolving attribute access (spec.md
// "Scope(s)"). The scope description itself is opaque to this package.
func (f *Frame) Scope(desc string, rng token.Range) *Frame {
	return f.Branch("scope "+desc, rng)
}

// Render walks the chain from the deepest frame back to the root and
// produces the root-down, blank-line-separated narrative spec.md §4.A and
// §7 require: every frame's label and source range, then the final failure
// sentence.
func Render(leaf *Frame, failure string) string {
	var chain []*Frame
	for f := leaf; f != nil; f = f.parent {
		chain = append(chain, f)
	}
	// Reverse into root-down order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	var b strings.Builder
	for _, f := range chain {
		label := wordwrap.WrapString(f.label, wrapWidth)
		fmt.Fprintf(&b, "%s\n", label)
		if f.rang.Start.IsValid() {
			fmt.Fprintf(&b, "    at %s\n", f.rang.String())
		}
		b.WriteString("\n")
	}
	b.WriteString(failure)
	b.WriteString("\n")
	return b.String()
}

// ExplainUp renders a provenance tree rooted at f, used by explain_value
// and by error messages that want to show "why" without the full failure
// framing (spec.md "ExplainUp(prefix)").
func ExplainUp(f *Frame, prefix string) string {
	var b strings.Builder
	var walk func(fr *Frame, depth int)
	walk = func(fr *Frame, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(prefix)
		b.WriteString(fr.label)
		b.WriteString("\n")
		for _, c := range fr.children {
			walk(c, depth+1)
		}
	}
	walk(f, 0)
	return b.String()
}

// Range reports the source range this frame is attached to.
func (f *Frame) Range() token.Range { return f.rang }

// Label reports this frame's human-readable description.
func (f *Frame) Label() string { return f.label }

// Parent reports the enclosing frame, or nil at the root.
func (f *Frame) Parent() *Frame { return f.parent }
