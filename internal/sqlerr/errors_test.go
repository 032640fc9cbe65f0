package sqlerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTagging(t *testing.T) {
	assert.Equal(t, CategoryData, NewDataError("bad value", nil).Category())
	assert.Equal(t, CategoryOperational, NewOperationalError("timeout", nil).Category())
	assert.Equal(t, CategoryProgramming, NewProgrammingError("bad sql", nil).Category())
	assert.Equal(t, CategoryNotSupported, NewNotSupportedError("executemany", nil).Category())
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewOperationalError("query failed", cause)
	assert.Equal(t, "query failed: connection reset", err.Error())
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternalError("wrapped", cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestIsDatabaseErrorMembership(t *testing.T) {
	assert.True(t, IsDatabaseError(NewDataError("x", nil)))
	assert.True(t, IsDatabaseError(NewOperationalError("x", nil)))
	assert.True(t, IsDatabaseError(NewIntegrityError("x", nil)))
	assert.True(t, IsDatabaseError(NewImpossibleFilterError("1=0")))
	assert.True(t, IsDatabaseError(NewUnauthenticatedError("x", nil)))
	assert.False(t, IsDatabaseError(NewInterfaceError("x", nil)))
	assert.False(t, IsDatabaseError(NewWarning("x", nil)))
	assert.True(t, IsDatabaseError(NewUnsafeAdaptersError("x")))
}

func TestIsDatabaseErrorWalksUnwrapChain(t *testing.T) {
	inner := NewDataError("inner", nil)
	outer := fmtWrap(inner)
	assert.True(t, IsDatabaseError(outer))
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func fmtWrap(err error) error { return wrapped{err: err} }

func TestSubclassesSatisfySQLError(t *testing.T) {
	var errs []SQLError = []SQLError{
		NewWarning("w", nil),
		NewInterfaceError("i", nil),
		NewDatabaseError("d", nil),
		NewDataError("d", nil),
		NewOperationalError("o", nil),
		NewIntegrityError("i", nil),
		NewInternalError("i", nil),
		NewProgrammingError("p", nil),
		NewNotSupportedError("n", nil),
		NewImpossibleFilterError("f"),
		NewUnsafeAdaptersError("u"),
		NewUnauthenticatedError("u", nil),
	}
	for _, e := range errs {
		require.NotEmpty(t, e.Category())
	}
}
