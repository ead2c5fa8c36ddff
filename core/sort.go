package core

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// DefaultSortTagKey is the struct tag that declares default sort columns:
//
//	Name      string    `sort:"priority=1"`
//	CreatedAt time.Time `sort:"priority=0,desc"`
const DefaultSortTagKey = "sort"

// Order is the direction of a Sort.
type Order int

const (
	Asc  Order = 1
	Desc Order = -1
)

func (o Order) String() string {
	if o < 0 {
		return "desc"
	}
	return "asc"
}

// Sort represents an ordering rule used in queries.
//
// FieldName specifies which column/field to sort by. It may be a dotted
// relation path ("cargo.nome") when the query is built on a From.
// Order determines the direction: 1 for ascending (ASC), -1 for descending (DESC).
type Sort struct {
	FieldName string
	Order     Order
}

// String renders the sort as "property,direction".
func (s Sort) String() string {
	return s.FieldName + "," + s.Order.String()
}

// ParseSort parses one or more "property[,asc|desc]" items, the format used
// by pagination query strings. An empty input yields an unsorted (nil) request.
func ParseSort(items ...string) ([]Sort, error) {
	var out []Sort
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, dir, _ := strings.Cut(item, ",")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("golem: invalid sort %q: empty property", item)
		}
		s := Sort{FieldName: name, Order: Asc}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			s.Order = Desc
		default:
			return nil, fmt.Errorf("golem: invalid sort %q: unknown direction %q", item, dir)
		}
		out = append(out, s)
	}
	return out, nil
}

// DefaultSort resolves the default ordering declared on an entity type
// through sort tags. The argument may be a value, a pointer or a
// reflect.Type. Fields promoted from embedded structs are included, so a
// base struct acts like a superclass. Descriptors are ordered by ascending
// priority; ties keep declaration order. It returns nil (unsorted) when
// the entity declares nothing.
func DefaultSort(entity any) ([]Sort, error) {
	t, ok := entity.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(entity)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("golem: default sort: %v is not a struct", t)
	}
	return defaultSortOf(t, DefaultSortTagKey)
}

type sortDescriptor struct {
	field     string
	ascending bool
	priority  int
}

func defaultSortOf(t reflect.Type, tagKey string) ([]Sort, error) {
	var descriptors []sortDescriptor
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous {
			continue
		}
		tag, ok := sf.Tag.Lookup(tagKey)
		if !ok {
			continue
		}
		d, err := parseSortTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		d.field = sf.Name
		descriptors = append(descriptors, d)
	}
	if len(descriptors) == 0 {
		return nil, nil
	}
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].priority < descriptors[j].priority
	})
	out := make([]Sort, 0, len(descriptors))
	for _, d := range descriptors {
		order := Asc
		if !d.ascending {
			order = Desc
		}
		out = append(out, Sort{FieldName: d.field, Order: order})
	}
	return out, nil
}

func parseSortTag(tag string) (sortDescriptor, error) {
	d := sortDescriptor{ascending: true}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.EqualFold(part, "asc"):
			d.ascending = true
		case strings.EqualFold(part, "desc"):
			d.ascending = false
		case strings.HasPrefix(part, "priority="):
			n, err := strconv.Atoi(strings.TrimPrefix(part, "priority="))
			if err != nil {
				return d, fmt.Errorf("invalid sort priority %q", part)
			}
			d.priority = n
		default:
			return d, fmt.Errorf("invalid sort tag option %q", part)
		}
	}
	return d, nil
}
