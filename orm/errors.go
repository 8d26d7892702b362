package orm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a query expects exactly one row but finds none.
	ErrNotFound = errors.New("orm: not found")

	// ErrUnknownType is returned when a logical type name has no registered descriptor.
	ErrUnknownType = errors.New("orm: unknown type")

	// ErrTypeMismatch is returned when a child is asked for a parent of a type
	// other than the one stored in its discriminator column.
	ErrTypeMismatch = errors.New("orm: type mismatch")

	// ErrQuerySyntax is returned for malformed caller-supplied criteria.
	ErrQuerySyntax = errors.New("orm: query syntax")

	// ErrPersistence is returned when a write is rejected.
	ErrPersistence = errors.New("orm: persistence")

	// ErrNoAssociation is returned when two types are not related by a
	// polymorphic association.
	ErrNoAssociation = errors.New("orm: no association")
)

// TypeMismatchError reports a parent lookup with the wrong expected type.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("orm: parent type is %q, not %q", e.Actual, e.Expected)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// QuerySyntaxError reports a malformed WHERE or ORDER BY fragment or an
// undeclared selected column. Err is set when the store's parser rejected
// the statement.
type QuerySyntaxError struct {
	Clause string
	Reason string
	Err    error
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("orm: invalid criteria %q: %s", e.Clause, e.Reason)
}

func (e *QuerySyntaxError) Is(target error) bool { return target == ErrQuerySyntax }

func (e *QuerySyntaxError) Unwrap() error { return e.Err }

// PersistenceError wraps a rejected INSERT, UPDATE or DELETE.
// Constraint is true when the store reported a constraint violation.
type PersistenceError struct {
	Op         string
	Table      string
	Constraint bool
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("orm: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

func persistenceError(op, table string, err error) error {
	return &PersistenceError{Op: op, Table: table, Constraint: IsConstraintViolation(err), Err: err}
}
