package filter

import (
	"errors"
	"fmt"

	"github.com/leandroluk/golemspec/core"
)

// Sentinel errors, matched through errors.Is by the typed errors below.
var (
	// ErrTypeMismatch is returned when a value does not fit its operation.
	ErrTypeMismatch = errors.New("golem: filter type mismatch")

	// ErrArity is returned when a range operation gets the wrong number of values.
	ErrArity = errors.New("golem: filter arity")

	// ErrUnsupportedOperator is returned for an operation with no strategy.
	ErrUnsupportedOperator = errors.New("golem: unsupported filter operator")

	// ErrInvalidTag is returned for a malformed filter tag.
	ErrInvalidTag = errors.New("golem: invalid filter tag")

	// ErrRegistry is returned when a registry cannot be built.
	ErrRegistry = errors.New("golem: invalid filter registry")

	// ErrInvalidPath is returned for relation paths that do not resolve.
	ErrInvalidPath = core.ErrInvalidPath
)

// InvalidPathError reports a relation path that does not resolve against
// the queried root.
type InvalidPathError = core.InvalidPathError

// TypeMismatchError reports a filter value whose type the operation cannot use.
type TypeMismatchError struct {
	Kind  Kind
	Field string // attribute path
	Want  string
	Got   string
}

// Error returns the error string.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("golem: %s on %s wants %s, got %s", e.Kind, e.Field, e.Want, e.Got)
}

// Is reports whether the target error matches TypeMismatchError.
func (e *TypeMismatchError) Is(err error) bool {
	return err == ErrTypeMismatch
}

// ArityError reports a range operation given the wrong number of values.
type ArityError struct {
	Kind Kind
	Want int
	Got  int
}

// Error returns the error string.
func (e *ArityError) Error() string {
	return fmt.Sprintf("golem: %s expects %d values, got %d", e.Kind, e.Want, e.Got)
}

// Is reports whether the target error matches ArityError.
func (e *ArityError) Is(err error) bool {
	return err == ErrArity
}

// UnsupportedOperatorError reports an operation token that names no Kind,
// or a Kind that the registry in use has no strategy for.
type UnsupportedOperatorError struct {
	Op   string
	Kind Kind
}

// Error returns the error string.
func (e *UnsupportedOperatorError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("golem: unsupported filter operator %q", e.Op)
	}
	return fmt.Sprintf("golem: no strategy registered for %s", e.Kind)
}

// Is reports whether the target error matches UnsupportedOperatorError.
func (e *UnsupportedOperatorError) Is(err error) bool {
	return err == ErrUnsupportedOperator
}

// InvalidTagError reports a filter tag that cannot be parsed.
type InvalidTagError struct {
	Type   string
	Field  string
	Tag    string
	Reason string
}

// Error returns the error string.
func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("golem: invalid filter tag %q on %s.%s: %s", e.Tag, e.Type, e.Field, e.Reason)
}

// Is reports whether the target error matches InvalidTagError.
func (e *InvalidTagError) Is(err error) bool {
	return err == ErrInvalidTag
}

// RegistryError reports a Kind supported by zero or several strategies.
type RegistryError struct {
	Kind  Kind
	Count int
}

// Error returns the error string.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("golem: registry: %d strategies support %s, want exactly 1", e.Count, e.Kind)
}

// Is reports whether the target error matches RegistryError.
func (e *RegistryError) Is(err error) bool {
	return err == ErrRegistry
}

// IsTypeMismatch returns true if the error is a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var e *TypeMismatchError
	return errors.As(err, &e)
}

// IsArity returns true if the error is an ArityError.
func IsArity(err error) bool {
	var e *ArityError
	return errors.As(err, &e)
}
