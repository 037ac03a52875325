package yamlet_test

import (
	"errors"
	"testing"

	qt "github.com/go-quicktest/qt"

	"yamlet.dev/go"
	"yamlet.dev/go/internal/core/adt"
)

func TestGetMissingNameReturnsTypedError(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("x: 1\n"))
	qt.Assert(t, qt.IsNil(err))

	_, err = v.Get("missing")
	qt.Assert(t, qt.IsNotNil(err))

	var ye *yamlet.Error
	qt.Assert(t, qt.IsTrue(errors.As(err, &ye)))
	qt.Assert(t, qt.Equals(ye.Kind(), yamlet.NameNotFound))
}

func TestErrorAsUnwrapsToInnerAdtError(t *testing.T) {
	v, err := yamlet.LoadBytes("doc.yml", []byte("x: 1\n"))
	qt.Assert(t, qt.IsNil(err))

	_, err = v.Get("missing")
	var inner *adt.Error
	qt.Assert(t, qt.IsTrue(errors.As(err, &inner)))
	qt.Assert(t, qt.Equals(inner.Kind, adt.NameNotFound))
}
