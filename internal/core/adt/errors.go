package adt

import (
	"fmt"

	"yamlet.dev/go/internal/core/trace"
)

// Kind enumerates the failure kinds from spec.md §7.
type Kind int

const (
	NameNotFound Kind = iota
	AccessOnExternal
	DependencyCycle
	ImportCycle
	ImportNotFound
	ConstructionError
	CompositionTypeError
	LambdaCallError
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case NameNotFound:
		return "name not found"
	case AccessOnExternal:
		return "access on external"
	case DependencyCycle:
		return "dependency cycle"
	case ImportCycle:
		return "import cycle"
	case ImportNotFound:
		return "import not found"
	case ConstructionError:
		return "construction error"
	case CompositionTypeError:
		return "type error in composition"
	case LambdaCallError:
		return "lambda call error"
	case NotImplemented:
		return "not implemented"
	default:
		return "unknown error"
	}
}

// Error is the engine's single exported failure type: a kind, a message,
// and the trace-frame chain active at the point of failure (spec.md §7).
type Error struct {
	Kind    Kind
	Message string
	Leaf    *trace.Frame
	Cause   error
}

func (e *Error) Error() string {
	if e.Leaf == nil {
		return e.Kind.String() + ": " + e.Message
	}
	return trace.Render(e.Leaf, e.Kind.String()+": "+e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds an *Error rooted at the current frame in ctx.
func (ctx *Context) Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Leaf: ctx.Frame}
}
