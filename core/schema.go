// Package core provides the fundamental building blocks of the golem ORM.
// This file defines the schema system, which maps Go structs to database
// collections/tables, describes fields and relations, and supports schema building.
package core

import (
	"fmt"
	"reflect"
	"strings"
)

// Field represents a struct field mapped to a database column.
//
// It contains metadata such as the Go field name, database column name,
// type information, constraints (primary key, unique, required), default value,
// and special markers for timestamp fields (createdAt, updatedAt, deletedAt).
type Field struct {
	StructFieldName    string       // Name of the field in the Go struct
	DatabaseColumnName string       // Name of the column in the database
	Type               reflect.Type // Go type of the field
	IsPrimaryKey       bool         // Whether this field is a primary key
	IsUnique           bool         // Whether this field is unique
	IsRequired         bool         // Whether this field is required
	DefaultValue       string       // Default value (if any)
	MemoryOffset       uintptr      // Memory offset within the struct
	Index              []int        // Index path for reflect.Value.FieldByIndex

	// Special timestamp markers
	IsCreatedAt bool
	IsUpdatedAt bool
	IsDeletedAt bool
}

// FieldOption is a function used to configure a Field.
type FieldOption func(*Field)

// PrimaryKey marks the field as a primary key.
func PrimaryKey() FieldOption {
	return func(f *Field) { f.IsPrimaryKey = true }
}

// Unique marks the field as unique.
func Unique() FieldOption {
	return func(f *Field) { f.IsUnique = true }
}

// Required marks the field as required (non-nullable).
func Required() FieldOption {
	return func(f *Field) { f.IsRequired = true }
}

// Default sets a default value for the field.
func Default(value string) FieldOption {
	return func(f *Field) { f.DefaultValue = value }
}

// CreatedAt marks the field as the createdAt timestamp.
func CreatedAt() FieldOption {
	return func(f *Field) { f.IsCreatedAt = true }
}

// UpdatedAt marks the field as the updatedAt timestamp.
func UpdatedAt() FieldOption {
	return func(f *Field) { f.IsUpdatedAt = true }
}

// DeletedAt marks the field as the deletedAt timestamp (for soft deletes).
func DeletedAt() FieldOption {
	return func(f *Field) { f.IsDeletedAt = true }
}

// SchemaCore contains the minimal schema information required at runtime.
//
// It includes the database name, collection/table name, fields, relations,
// the default ordering declared through sort tags, and a map of fields
// indexed by their memory offsets.
type SchemaCore struct {
	Database       string
	Collection     string
	Fields         []*Field
	RelationList   []RelationInternal
	DefaultSort    []Sort
	fieldsByOffset map[uintptr]*Field
}

// FieldByName finds a field by Go name or column name, ignoring case.
func (s *SchemaCore) FieldByName(name string) *Field {
	for _, f := range s.Fields {
		if strings.EqualFold(f.StructFieldName, name) || strings.EqualFold(f.DatabaseColumnName, name) {
			return f
		}
	}
	return nil
}

// findRelation finds a registered relation by field name, ignoring case.
func (s *SchemaCore) findRelation(name string) *RelationInternal {
	for i := range s.RelationList {
		if strings.EqualFold(s.RelationList[i].FieldName, name) {
			return &s.RelationList[i]
		}
	}
	return nil
}

// columnOf maps a Go field name to its column name.
func (s *SchemaCore) columnOf(structField string) string {
	for _, f := range s.Fields {
		if f.StructFieldName == structField {
			return f.DatabaseColumnName
		}
	}
	return structField
}

// RelationKind defines the type of relationship between entities.
type RelationKind int

const (
	OneToOne   RelationKind = 1
	OneToMany  RelationKind = 2
	ManyToMany RelationKind = 3
)

func (k RelationKind) String() string {
	switch k {
	case OneToOne:
		return "one-to-one"
	case OneToMany:
		return "one-to-many"
	case ManyToMany:
		return "many-to-many"
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// Relation describes a relationship between two schemas in a generic form.
//
// L = Local type, F = Foreign type, J = Join type (for many-to-many).
type Relation[L any, F any, J any] struct {
	Kind           RelationKind
	Field          any            // func(*L) *<FieldType in L> (e.g. *[]Role)
	RefSchema      *SchemaMeta[F] // Schema of the foreign entity
	LocalKey       any            // func(*L) *<KeyType in L>
	ForeignKey     any            // func(*F) *<KeyType in F>
	JoinTable      string         // Join table/collection name (for many-to-many)
	JoinLocalKey   any            // func(*J) *<KeyType in J> (many-to-many)
	JoinForeignKey any            // func(*J) *<KeyType in J> (many-to-many)
}

// RelationInternal is the normalized runtime representation of a relation.
//
// Unlike Relation, it stores resolved field names instead of selector functions
// and refers to the foreign schema through its untyped core.
type RelationInternal struct {
	Kind           RelationKind
	FieldName      string
	RefSchema      *SchemaCore
	LocalKey       string
	ForeignKey     string
	JoinTable      string
	JoinLocalKey   string
	JoinForeignKey string
}

// SchemaMeta extends SchemaCore with runtime metadata.
//
// It contains registered hooks and cached references to special
// fields (createdAt, updatedAt, deletedAt).
type SchemaMeta[T any] struct {
	SchemaCore
	PreHookList  map[PreHook][]func(*T) error
	PostHookList map[PostHook][]func(*T) error

	createdAtField *Field
	updatedAtField *Field
	deletedAtField *Field
}

// AddRelation resolves selectors into field names and adds the relation
// to the schema's internal list.
func AddRelation[L any, F any, J any](schema *SchemaMeta[L], r Relation[L, F, J]) {
	internal := RelationInternal{
		Kind:           r.Kind,
		FieldName:      fieldNameFromSelectorFor[L](r.Field),
		RefSchema:      &r.RefSchema.SchemaCore,
		LocalKey:       fieldNameFromSelectorFor[L](r.LocalKey),
		ForeignKey:     fieldNameFromSelectorFor[F](r.ForeignKey),
		JoinTable:      r.JoinTable,
		JoinLocalKey:   fieldNameFromSelectorFor[J](r.JoinLocalKey),
		JoinForeignKey: fieldNameFromSelectorFor[J](r.JoinForeignKey),
	}
	schema.RelationList = append(schema.RelationList, internal)
}

// SchemaBuilder is used to construct a schema definition from a Go struct.
//
// It collects field metadata using reflection and applies customization
// through SchemaOptions.
type SchemaBuilder[T any] struct {
	database       string
	collection     string
	tagKey         string
	sortTagKey     string
	structType     reflect.Type
	fields         []*Field
	fieldsByOffset map[uintptr]*Field
}

// SchemaOption represents a function that customizes the schema builder.
type SchemaOption[T any] func(*SchemaBuilder[T])

// TagKey sets the struct tag key to use for database column mapping.
func TagKey[T any](key string) SchemaOption[T] {
	return func(schemaBuilder *SchemaBuilder[T]) { schemaBuilder.tagKey = key }
}

// SortTagKey sets the struct tag key that declares default sort columns.
func SortTagKey[T any](key string) SchemaOption[T] {
	return func(schemaBuilder *SchemaBuilder[T]) { schemaBuilder.sortTagKey = key }
}

// Table sets the database collection/table name for the schema.
func Table[T any](name string) SchemaOption[T] {
	return func(schemaBuilder *SchemaBuilder[T]) { schemaBuilder.collection = name }
}

// Database sets the database name for the schema.
func Database[T any](name string) SchemaOption[T] {
	return func(schemaBuilder *SchemaBuilder[T]) { schemaBuilder.database = name }
}

// OverrideField allows modifying the metadata of a specific field
// (e.g., making it required, unique, primary key, etc.).
func OverrideField[T any, F any](selector func(*T) *F, opts ...FieldOption) SchemaOption[T] {
	return func(schemaBuilder *SchemaBuilder[T]) {
		if schemaBuilder.fieldsByOffset == nil || len(schemaBuilder.fields) == 0 {
			return // fields are not reflected yet
		}
		offset := offsetOf(selector)
		if field, ok := schemaBuilder.fieldsByOffset[offset]; ok {
			for _, opt := range opts {
				opt(field)
			}
		} else {
			panic("core: OverrideField: field not found by selector")
		}
	}
}

// Schema builds a SchemaMeta[T] by reflecting on struct fields
// and applying the given SchemaOptions.
//
// Fields tagged `db:"-"` are not columns (typically relation fields), and
// embedded structs contribute their promoted fields. The default sort is
// read from `sort` tags once, here.
//
// It detects special timestamp fields (createdAt, updatedAt, deletedAt)
// based on FieldOptions applied via OverrideField.
func Schema[T any](options ...SchemaOption[T]) *SchemaMeta[T] {
	var zero T
	structType := reflect.TypeOf(zero)
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	builder := &SchemaBuilder[T]{
		structType:     structType,
		fieldsByOffset: make(map[uintptr]*Field),
		sortTagKey:     DefaultSortTagKey,
	}

	// Apply options before building fields (Table/Database/TagKey/etc.)
	for _, option := range options {
		option(builder)
	}

	tagKey := builder.tagKey
	if tagKey == "" {
		tagKey = "db"
	}

	// Reflect fields from struct type
	for _, sf := range reflect.VisibleFields(structType) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		dbName := sf.Tag.Get(tagKey)
		if dbName == "-" {
			continue
		}
		if dbName == "" {
			dbName = sf.Name
		}

		field := &Field{
			StructFieldName:    sf.Name,
			DatabaseColumnName: dbName,
			Type:               sf.Type,
			MemoryOffset:       offsetInRoot(structType, sf.Index),
			Index:              sf.Index,
		}
		builder.fields = append(builder.fields, field)
		builder.fieldsByOffset[field.MemoryOffset] = field
	}

	// Re-apply options so that OverrideField can work after fields exist
	for _, option := range options {
		option(builder)
	}

	defaultSort, err := defaultSortOf(structType, builder.sortTagKey)
	if err != nil {
		panic(fmt.Sprintf("core: schema %s: %v", structType.Name(), err))
	}

	meta := &SchemaMeta[T]{
		SchemaCore: SchemaCore{
			Database:       builder.database,
			Collection:     builder.collection,
			Fields:         builder.fields,
			DefaultSort:    defaultSort,
			fieldsByOffset: builder.fieldsByOffset,
		},
		PreHookList:  make(map[PreHook][]func(*T) error),
		PostHookList: make(map[PostHook][]func(*T) error),
	}

	// Detect special fields once
	for _, f := range builder.fields {
		if f.IsCreatedAt {
			meta.createdAtField = f
		}
		if f.IsUpdatedAt {
			meta.updatedAtField = f
		}
		if f.IsDeletedAt {
			meta.deletedAtField = f
		}
	}

	return meta
}

// offsetInRoot sums the offsets along an index path so promoted fields of
// embedded structs get their offset relative to the outer struct.
func offsetInRoot(t reflect.Type, index []int) uintptr {
	var offset uintptr
	for _, i := range index {
		if t.Kind() == reflect.Pointer {
			// promoted through an embedded pointer: no stable offset
			return ^uintptr(0)
		}
		sf := t.Field(i)
		offset += sf.Offset
		t = sf.Type
	}
	return offset
}
