package filter

import (
	"reflect"
	"strings"

	"github.com/leandroluk/golemspec/core"
)

// Rewrite maps sort keys that name a relation-bound filter field onto the
// field's relation path, so ordering uses the same joined column the
// filter constrains. Other keys and the directions are kept. specType may
// be a filter value, a pointer to one, or its reflect.Type.
//
// Rewrite never fails: an unusable specType leaves sort unchanged.
func (b *Builder) Rewrite(sort []core.Sort, specType any) []core.Sort {
	if len(sort) == 0 {
		return sort
	}
	t := structType(specType)
	if t == nil {
		return sort
	}
	metas, err := metaOf(t, b.tagKey)
	if err != nil {
		return sort
	}
	out := make([]core.Sort, len(sort))
	for i, s := range sort {
		out[i] = s
		for _, m := range metas {
			if m.Meta.Relation == "" {
				continue
			}
			if m.Name == s.FieldName || strings.EqualFold(m.GoName, s.FieldName) {
				out[i].FieldName = m.Meta.Relation
				break
			}
		}
	}
	return out
}

func structType(v any) reflect.Type {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}
