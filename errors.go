package yamlet

import "yamlet.dev/go/internal/core/adt"

// Kind classifies an Error the way spec.md §7 enumerates failure kinds.
type Kind = adt.Kind

const (
	NameNotFound         = adt.NameNotFound
	AccessOnExternal     = adt.AccessOnExternal
	DependencyCycle      = adt.DependencyCycle
	ImportCycle          = adt.ImportCycle
	ImportNotFound       = adt.ImportNotFound
	ConstructionError    = adt.ConstructionError
	CompositionTypeError = adt.CompositionTypeError
	LambdaCallError      = adt.LambdaCallError
	NotImplemented       = adt.NotImplemented
)

// Error is Yamlet's single exported failure type: a Kind, a message, and
// the rendered trace-frame breadcrumb active when the failure occurred
// (spec.md §7). Error.Error() renders one paragraph per frame, root-down,
// the way cue/errors renders a CUE errors.Error list.
type Error struct {
	inner *adt.Error
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	ae, ok := err.(*adt.Error)
	if !ok {
		return err
	}
	return &Error{inner: ae}
}

func (e *Error) Error() string { return e.inner.Error() }

func (e *Error) Unwrap() error { return e.inner.Unwrap() }

// Kind reports which of spec.md §7's failure kinds this error is.
func (e *Error) Kind() Kind { return e.inner.Kind }

// As lets errors.As reach the wrapped *adt.Error: given a **adt.Error
// target it stores the inner error there; any other target is left to
// errors.As's own type matching. Most callers switch on Kind() instead.
func (e *Error) As(target any) bool {
	if t, ok := target.(**adt.Error); ok {
		*t = e.inner
		return true
	}
	return false
}
