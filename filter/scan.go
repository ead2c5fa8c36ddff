package filter

import (
	"fmt"
	"reflect"
)

// Field is an active filter field: its public name, its value (pointers
// dereferenced) and its parsed tag.
type Field struct {
	Name   string
	GoName string
	Value  any
	Meta   Meta
}

// Path returns the path the field constrains.
func (f Field) Path() string { return f.Meta.path(f.GoName) }

// Scan returns the active tagged fields of spec in declaration order,
// reading the `filter` tag. A nil spec has no fields.
func Scan(spec any) ([]Field, error) {
	return scan(spec, DefaultTagKey)
}

func scan(spec any, tagKey string) ([]Field, error) {
	rv := reflect.ValueOf(spec)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}
	if rv.Kind() != reflect.Struct {
		return nil, &TypeMismatchError{Field: "filter", Want: "struct", Got: rv.Type().String()}
	}
	metas, err := metaOf(rv.Type(), tagKey)
	if err != nil {
		return nil, err
	}
	out := make([]Field, 0, len(metas))
	for _, m := range metas {
		fv, err := rv.FieldByIndexErr(m.Index)
		if err != nil {
			// promoted through a nil embedded pointer
			continue
		}
		value, ok := activeValue(fv)
		if !ok {
			continue
		}
		out = append(out, Field{Name: m.Name, GoName: m.GoName, Value: value, Meta: m.Meta})
	}
	return out, nil
}

// activeValue reports whether v takes part in filtering and returns it
// with pointers and interfaces unwrapped. Nil, empty collections, empty
// strings and scalar zero values are inactive; a non-nil pointer is always
// active, so *bool false and *int 0 filter.
func activeValue(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, false
		}
		inner := v.Elem()
		for inner.Kind() == reflect.Pointer || inner.Kind() == reflect.Interface {
			if inner.IsNil() {
				return nil, false
			}
			inner = inner.Elem()
		}
		if k := inner.Kind(); (k == reflect.Slice || k == reflect.Map) && inner.Len() == 0 {
			return nil, false
		}
		return inner.Interface(), true
	case reflect.Slice, reflect.Map, reflect.String:
		if v.Len() == 0 {
			return nil, false
		}
	case reflect.Invalid:
		return nil, false
	default:
		if v.IsZero() {
			return nil, false
		}
	}
	return v.Interface(), true
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
