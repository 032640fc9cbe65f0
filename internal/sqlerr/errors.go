// Package sqlerr implements the DB-API 2.0-shaped error taxonomy described
// in spec.md §6: a small sentinel/wrapped-error hierarchy that lets callers
// distinguish "your query is wrong" from "the adapter's backend is down"
// from "this isn't implemented", while still supporting errors.Is/As over
// the underlying cause.
package sqlerr

import "fmt"

// Category tags the coarse class of a SQLError for logging and for callers
// that want to branch without a type switch.
type Category string

const (
	CategoryWarning       Category = "WARNING"
	CategoryInterface     Category = "INTERFACE_ERROR"
	CategoryData          Category = "DATA_ERROR"
	CategoryOperational   Category = "OPERATIONAL_ERROR"
	CategoryIntegrity     Category = "INTEGRITY_ERROR"
	CategoryInternal      Category = "INTERNAL_ERROR"
	CategoryProgramming   Category = "PROGRAMMING_ERROR"
	CategoryNotSupported  Category = "NOT_SUPPORTED_ERROR"
)

// SQLError is the interface every error in this package satisfies.
type SQLError interface {
	error
	Category() Category
	Unwrap() error
}

type base struct {
	Msg   string
	Cause error
}

func (e base) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e base) Unwrap() error { return e.Cause }

// databaseError marks the DatabaseError family (DatabaseError and its
// subclasses) so IsDatabaseError can test membership without an exhaustive
// type switch, mirroring the DB-API class hierarchy where DatabaseError is
// the parent of DataError/OperationalError/IntegrityError/InternalError/
// ProgrammingError/NotSupportedError.
type databaseError interface {
	isDatabaseError()
}

type dbBase struct{ base }

func (dbBase) isDatabaseError() {}

// Warning signals a non-fatal condition the caller may want to surface,
// e.g. a DROP TABLE on a table that doesn't exist.
type Warning struct{ base }

func (Warning) Category() Category { return CategoryWarning }

func NewWarning(msg string, cause error) *Warning {
	return &Warning{base{Msg: msg, Cause: cause}}
}

// InterfaceError signals misuse of this package's API itself, as opposed to
// a problem with the query or the backend.
type InterfaceError struct{ base }

func (InterfaceError) Category() Category { return CategoryInterface }

func NewInterfaceError(msg string, cause error) *InterfaceError {
	return &InterfaceError{base{Msg: msg, Cause: cause}}
}

// DatabaseError is the generic member of the database-error family, used
// when no more specific subclass applies.
type DatabaseError struct{ dbBase }

func (DatabaseError) Category() Category { return CategoryInternal }

func NewDatabaseError(msg string, cause error) *DatabaseError {
	return &DatabaseError{dbBase{base{Msg: msg, Cause: cause}}}
}

// DataError signals a problem with the data itself: a value that can't be
// parsed, coerced, or that violates a column's declared type.
type DataError struct{ dbBase }

func (DataError) Category() Category { return CategoryData }

func NewDataError(msg string, cause error) *DataError {
	return &DataError{dbBase{base{Msg: msg, Cause: cause}}}
}

// OperationalError signals a failure in the adapter's backend that isn't
// the caller's fault: a network timeout, a dropped connection, a remote
// service returning 5xx.
type OperationalError struct{ dbBase }

func (OperationalError) Category() Category { return CategoryOperational }

func NewOperationalError(msg string, cause error) *OperationalError {
	return &OperationalError{dbBase{base{Msg: msg, Cause: cause}}}
}

// IntegrityError signals a constraint violation: a duplicate rowid, a
// foreign-key-like consistency check in an adapter.
type IntegrityError struct{ dbBase }

func (IntegrityError) Category() Category { return CategoryIntegrity }

func NewIntegrityError(msg string, cause error) *IntegrityError {
	return &IntegrityError{dbBase{base{Msg: msg, Cause: cause}}}
}

// InternalError signals a bug in this module or an adapter: an invariant
// that should never break did.
type InternalError struct{ dbBase }

func (InternalError) Category() Category { return CategoryInternal }

func NewInternalError(msg string, cause error) *InternalError {
	return &InternalError{dbBase{base{Msg: msg, Cause: cause}}}
}

// ProgrammingError signals a malformed query or a caller mistake: bad SQL,
// wrong parameter count, a reference to an unknown table.
type ProgrammingError struct{ dbBase }

func (ProgrammingError) Category() Category { return CategoryProgramming }

func NewProgrammingError(msg string, cause error) *ProgrammingError {
	return &ProgrammingError{dbBase{base{Msg: msg, Cause: cause}}}
}

// NotSupportedError signals a feature this module deliberately doesn't
// implement, e.g. Cursor.Executemany.
type NotSupportedError struct{ dbBase }

func (NotSupportedError) Category() Category { return CategoryNotSupported }

func NewNotSupportedError(msg string, cause error) *NotSupportedError {
	return &NotSupportedError{dbBase{base{Msg: msg, Cause: cause}}}
}

// ImpossibleFilterError is raised by lib.BuildSQL when a bound is
// filters.Impossible, so the set of filters can provably match no row; the
// s3select adapter catches it and returns no rows without sending a
// query. Subclass of DataError: the query's
// predicates are self-contradictory, which is a data problem, not an
// adapter or caller-syntax one.
type ImpossibleFilterError struct{ dbBase }

func (ImpossibleFilterError) Category() Category { return CategoryData }

func NewImpossibleFilterError(msg string) *ImpossibleFilterError {
	return &ImpossibleFilterError{dbBase{base{Msg: msg}}}
}

// UnsafeAdaptersError is raised by the registry when a caller asks to load
// an adapter kind that is not marked safe in a context requiring only safe
// adapters (e.g. multi-tenant query execution). Subclass of
// ProgrammingError: the caller asked for something it isn't allowed to ask
// for.
type UnsafeAdaptersError struct{ dbBase }

func (UnsafeAdaptersError) Category() Category { return CategoryProgramming }

func NewUnsafeAdaptersError(msg string) *UnsafeAdaptersError {
	return &UnsafeAdaptersError{dbBase{base{Msg: msg}}}
}

// UnauthenticatedError is raised by an adapter when its backend rejects the
// configured credentials. Subclass of OperationalError: retrying the same
// query without fixing credentials will fail the same way.
type UnauthenticatedError struct{ dbBase }

func (UnauthenticatedError) Category() Category { return CategoryOperational }

func NewUnauthenticatedError(msg string, cause error) *UnauthenticatedError {
	return &UnauthenticatedError{dbBase{base{Msg: msg, Cause: cause}}}
}

// IsDatabaseError reports whether err is a member of the DatabaseError
// family (DatabaseError or any of its subclasses), walking the Unwrap
// chain.
func IsDatabaseError(err error) bool {
	for err != nil {
		if _, ok := err.(databaseError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
