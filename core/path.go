package core

import "strings"

// ResolvePath resolves a dotted relation path against a From. Every
// segment but the last is joined (LEFT), chaining from the previous join;
// the last segment is the attribute. A single-segment path is an
// attribute of from itself.
func ResolvePath(from From, path string) (*Attribute, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &InvalidPathError{Path: path, Err: errEmptyPath}
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, &InvalidPathError{Path: path, Err: errEmptySegment}
		}
	}
	node := from
	for _, s := range segments[:len(segments)-1] {
		next, err := node.Join(s)
		if err != nil {
			return nil, &InvalidPathError{Path: path, Segment: s, Err: err}
		}
		node = next
	}
	last := segments[len(segments)-1]
	attr, err := node.Attr(last)
	if err != nil {
		return nil, &InvalidPathError{Path: path, Segment: last, Err: err}
	}
	return attr, nil
}
