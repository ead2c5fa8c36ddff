package filter

import (
	"reflect"

	"github.com/leandroluk/golemspec/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy builds the condition of one Kind.
type Strategy interface {
	// Kind is the Kind the strategy is registered under.
	Kind() Kind
	// Supports reports whether the strategy handles kind.
	Supports(kind Kind) bool
	// Build returns the condition applying value to attr.
	Build(attr *core.Attribute, value any) (*core.Condition, error)
}

// BuildFunc is the signature of a strategy's Build method.
type BuildFunc func(attr *core.Attribute, value any) (*core.Condition, error)

// NewStrategy returns a Strategy handling exactly kind with build.
func NewStrategy(kind Kind, build BuildFunc) Strategy {
	return funcStrategy{kind: kind, build: build}
}

type funcStrategy struct {
	kind  Kind
	build BuildFunc
}

func (s funcStrategy) Kind() Kind              { return s.kind }
func (s funcStrategy) Supports(kind Kind) bool { return kind == s.kind }
func (s funcStrategy) Build(attr *core.Attribute, value any) (*core.Condition, error) {
	return s.build(attr, value)
}

// DefaultStrategies returns one strategy per Kind.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewStrategy(Equal, buildEqual),
		NewStrategy(Like, buildLike),
		NewStrategy(GreaterThan, buildGreaterThan),
		NewStrategy(LessThan, buildLessThan),
		NewStrategy(In, buildIn),
		NewStrategy(Between, buildBetween),
	}
}

func buildEqual(attr *core.Attribute, value any) (*core.Condition, error) {
	return core.Cond(attr).Eq(normalize(value)), nil
}

// buildLike matches attr case-insensitively against "%value%".
func buildLike(attr *core.Attribute, value any) (*core.Condition, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return nil, mismatch(Like, attr, "string", value)
	}
	// Casers keep state and are not safe for concurrent use.
	lower := cases.Lower(language.Und).String(rv.String())
	return core.Cond(attr).ILike("%" + lower + "%"), nil
}

func buildGreaterThan(attr *core.Attribute, value any) (*core.Condition, error) {
	if !core.Ordered(value) {
		return nil, mismatch(GreaterThan, attr, "ordered value", value)
	}
	return core.Cond(attr).Gt(normalize(value)), nil
}

func buildLessThan(attr *core.Attribute, value any) (*core.Condition, error) {
	if !core.Ordered(value) {
		return nil, mismatch(LessThan, attr, "ordered value", value)
	}
	return core.Cond(attr).Lt(normalize(value)), nil
}

// buildIn matches attr against a collection whose elements share one type.
func buildIn(attr *core.Attribute, value any) (*core.Condition, error) {
	items, ok := elements(value)
	if !ok {
		return nil, mismatch(In, attr, "slice", value)
	}
	if len(items) == 0 {
		return core.True(), nil
	}
	first := reflect.TypeOf(items[0])
	values := make([]any, len(items))
	for i, item := range items {
		if item == nil || reflect.TypeOf(item) != first {
			return nil, mismatch(In, attr, "elements of type "+typeName(items[0]), item)
		}
		values[i] = normalize(item)
	}
	return core.Cond(attr).In(values...), nil
}

// buildBetween matches attr against an inclusive [start, end] pair.
// Date bounds become start-of-day UTC instants.
func buildBetween(attr *core.Attribute, value any) (*core.Condition, error) {
	items, ok := elements(value)
	if !ok {
		return nil, mismatch(Between, attr, "slice of 2", value)
	}
	if len(items) != 2 {
		return nil, &ArityError{Kind: Between, Want: 2, Got: len(items)}
	}
	start, end := items[0], items[1]
	_, startIsDate := start.(Date)
	_, endIsDate := end.(Date)
	switch {
	case startIsDate != endIsDate:
		return nil, mismatch(Between, attr, "two dates", pick(startIsDate, end, start))
	case start == nil || end == nil || reflect.TypeOf(start) != reflect.TypeOf(end):
		return nil, mismatch(Between, attr, "bounds of type "+typeName(start), end)
	case !startIsDate && !core.Ordered(start):
		return nil, mismatch(Between, attr, "ordered bounds", start)
	}
	return core.Cond(attr).Between(normalize(start), normalize(end)), nil
}

// elements unpacks a slice or array into its elements.
func elements(value any) ([]any, bool) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func normalize(value any) any {
	switch v := value.(type) {
	case Date:
		return v.StartOfDay()
	case *Date:
		if v != nil {
			return v.StartOfDay()
		}
	}
	return value
}

func mismatch(kind Kind, attr *core.Attribute, want string, got any) *TypeMismatchError {
	return &TypeMismatchError{Kind: kind, Field: attr.Path, Want: want, Got: typeName(got)}
}

func pick(cond bool, a, b any) any {
	if cond {
		return a
	}
	return b
}
