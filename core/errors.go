package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is matched by every *InvalidPathError.
	ErrInvalidPath = errors.New("golem: invalid path")

	// ErrUnknownRelation is returned by From.Join for a name that is not a
	// registered relation of the node's schema.
	ErrUnknownRelation = errors.New("unknown relation")

	// ErrUnknownAttribute is returned by From.Attr for a name that is not a
	// column of the node's schema.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrUnjoinable is returned by From.Join for relations that cannot be
	// joined in a path (many-to-many).
	ErrUnjoinable = errors.New("relation cannot be joined")

	errEmptyPath    = errors.New("empty path")
	errEmptySegment = errors.New("empty segment")
)

// InvalidPathError reports a relation path that is empty, malformed, or
// names a relation or attribute the schema does not have.
type InvalidPathError struct {
	Path    string
	Segment string // offending segment, empty when the whole path is at fault
	Err     error
}

// Error returns the error string.
func (e *InvalidPathError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("golem: invalid path %q at %q: %v", e.Path, e.Segment, e.Err)
	}
	return fmt.Sprintf("golem: invalid path %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvalidPathError) Unwrap() error { return e.Err }

// Is reports whether the target error matches InvalidPathError.
// This allows errors.Is(err, ErrInvalidPath) to return true.
func (e *InvalidPathError) Is(err error) bool {
	return err == ErrInvalidPath
}

// IsInvalidPath returns true if the error is an InvalidPathError.
func IsInvalidPath(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidPathError
	return errors.As(err, &e)
}
