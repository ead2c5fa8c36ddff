package filter

import (
	"reflect"
	"strings"
	"sync"
)

// DefaultTagKey is the struct tag read for filter metadata.
const DefaultTagKey = "filter"

// Meta is the parsed filter tag of one field.
type Meta struct {
	Kind     Kind
	Relation string // dotted relation path, empty for a root attribute
}

// path returns the path the field resolves against the root: the relation
// path when one is declared, the Go field name otherwise.
func (m Meta) path(goName string) string {
	if m.Relation != "" {
		return m.Relation
	}
	return goName
}

// fieldMeta is the cached, per-type description of one tagged field.
type fieldMeta struct {
	Name   string // public name: json name or Go name
	GoName string
	Index  []int
	Meta   Meta
}

type metaKey struct {
	tagKey string
	typ    reflect.Type
}

type metaEntry struct {
	fields []fieldMeta
	err    error
}

var metaCache sync.Map // metaKey -> metaEntry

// metaOf returns the tagged fields of t, parsing tags once per type.
func metaOf(t reflect.Type, tagKey string) ([]fieldMeta, error) {
	key := metaKey{tagKey: tagKey, typ: t}
	if v, ok := metaCache.Load(key); ok {
		e := v.(metaEntry)
		return e.fields, e.err
	}
	fields, err := parseMeta(t, tagKey)
	v, _ := metaCache.LoadOrStore(key, metaEntry{fields: fields, err: err})
	e := v.(metaEntry)
	return e.fields, e.err
}

func parseMeta(t reflect.Type, tagKey string) ([]fieldMeta, error) {
	var out []fieldMeta
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup(tagKey)
		if !ok || tag == "-" {
			continue
		}
		meta, err := parseTag(tag)
		if err != nil {
			if ite, ok := err.(*InvalidTagError); ok {
				ite.Type, ite.Field = t.Name(), sf.Name
			}
			return nil, err
		}
		out = append(out, fieldMeta{
			Name:   publicName(sf),
			GoName: sf.Name,
			Index:  sf.Index,
			Meta:   meta,
		})
	}
	return out, nil
}

func parseTag(tag string) (Meta, error) {
	parts := strings.Split(tag, ",")
	op := strings.TrimSpace(parts[0])
	if op == "" {
		return Meta{}, &InvalidTagError{Tag: tag, Reason: "missing operation"}
	}
	kind, err := ParseKind(op)
	if err != nil {
		return Meta{}, err
	}
	meta := Meta{Kind: kind}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(key) != "relation" {
			return Meta{}, &InvalidTagError{Tag: tag, Reason: "unknown option " + strings.TrimSpace(part)}
		}
		meta.Relation = strings.TrimSpace(value)
	}
	return meta, nil
}

// publicName is the json name of a field when it has one, its Go name otherwise.
func publicName(sf reflect.StructField) string {
	if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return sf.Name
}
