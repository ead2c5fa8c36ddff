// Package core provides the fundamental building blocks of the golem ORM.
// This file defines the Model[T], which represents the entry point for working
// with a specific schema (entity). A Model handles persistence, queries,
// relations, hooks, soft-deletes, and event emission.
package core

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Model represents a repository-like abstraction for a schema T.
//
// It wraps a SchemaMeta[T] and a Driver, exposing high-level operations such as
// Create, Update, Delete, FindOne, FindMany, and Count. Models are generic
// and type-safe, ensuring that all operations are tied to a specific entity type.
type Model[T any] struct {
	schema      *SchemaMeta[T]
	driver      Driver
	compiler    Compiler
	rootOptions []RootOption
}

// NewModel creates a new Model instance bound to a schema and driver.
//
// Example:
//
//	userModel := core.NewModel(userSchema, postgresDriver)
func NewModel[T any](schema *SchemaMeta[T], driver Driver) *Model[T] {
	return &Model[T]{schema: schema, driver: driver}
}

// LoadRelation explicitly loads one or more relations into a given document.
//
// It accepts pointers to struct fields that represent relations and resolves
// their values from the database.
//
// Example:
//
//	var user User
//	_ = userModel.LoadRelation(ctx, &user, &user.Profile, &user.Roles)
func (m *Model[T]) LoadRelation(ctx context.Context, doc *T, fieldPtrs ...any) error {
	value := reflect.ValueOf(doc).Elem()

	for _, ptr := range fieldPtrs {
		rv := reflect.ValueOf(ptr)
		if rv.Kind() != reflect.Pointer {
			return fmt.Errorf("LoadRelation: argument must be a pointer to a field")
		}

		// discover the struct field name that matches the pointer
		fieldName := ""
		for i := 0; i < value.NumField(); i++ {
			field := value.Field(i)
			if field.Addr().Interface() == ptr {
				fieldName = value.Type().Field(i).Name
				break
			}
		}
		if fieldName == "" {
			return fmt.Errorf("LoadRelation: field not found for pointer %v", ptr)
		}

		if err := m.loadRelationList(ctx, doc, []string{fieldName}); err != nil {
			return err
		}
	}
	return nil
}

// withSoftDelete applies soft-delete filtering rules to a query.
// It automatically excludes deleted records unless WithDeleted or OnlyDeleted
// flags are set in the query options.
func (m *Model[T]) withSoftDelete(where *Where) *Where {
	if where == nil || m.schema.deletedAtField == nil {
		return where
	}
	eff := *where // shallow copy
	deleted := &Condition{FieldName: m.schema.deletedAtField.DatabaseColumnName}
	if where.From != nil {
		if attr, err := where.From.Attr(m.schema.deletedAtField.StructFieldName); err == nil {
			deleted = Cond(attr)
		}
	}

	if where.OnlyDeleted {
		eff.Condition = foldConditionsAnd(where.Condition, deleted.Nil().Not())
		return &eff
	}
	if !where.WithDeleted {
		eff.Condition = foldConditionsAnd(where.Condition, deleted.Nil())
	}
	return &eff
}

// loadRelationList resolves and loads the specified relations into a document.
//
// It supports OneToOne, OneToMany, and ManyToMany relations by automatically
// issuing additional queries against the related schemas.
func (m *Model[T]) loadRelationList(ctx context.Context, doc *T, nameList []string) error {
	return loadRelations(ctx, m.driver, &m.schema.SchemaCore, reflect.ValueOf(doc).Elem(), nameList)
}

// loadRelations is the untyped relation loader; related schemas are only
// known through their SchemaCore, so rows are mapped by reflection on the
// relation field's element type.
func loadRelations(ctx context.Context, driver Driver, schema *SchemaCore, value reflect.Value, nameList []string) error {
	for _, relationName := range nameList {
		relation := schema.findRelation(relationName)
		if relation == nil || relation.RefSchema == nil {
			continue
		}

		field := value.FieldByName(relation.FieldName)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		localVal := value.FieldByName(relation.LocalKey).Interface()
		foreignColumn := relation.RefSchema.columnOf(relation.ForeignKey)

		var condition *Condition
		switch relation.Kind {
		case OneToOne, OneToMany:
			condition = (&Condition{FieldName: foreignColumn}).Eq(localVal)

		case ManyToMany:
			// 1) fetch join table rows where JoinLocalKey = localVal
			joinQuery := &Where{
				Condition: (&Condition{FieldName: relation.JoinLocalKey}).Eq(localVal),
			}
			rawJoin, err := driver.FindMany(ctx, &SchemaCore{Database: schema.Database, Collection: relation.JoinTable}, joinQuery)
			if err != nil {
				return err
			}
			joinRows, _ := rawJoin.([]map[string]any)

			// 2) extract foreign IDs
			foreignIDs := make([]any, 0, len(joinRows))
			for _, jr := range joinRows {
				foreignIDs = append(foreignIDs, jr[relation.JoinForeignKey])
			}
			if len(foreignIDs) == 0 {
				continue
			}
			// 3) fetch related entities by IN condition
			condition = (&Condition{FieldName: foreignColumn}).In(foreignIDs...)
		}

		raw, err := driver.FindMany(ctx, relation.RefSchema, &Where{Condition: condition})
		if err != nil {
			return err
		}
		rows, _ := raw.([]map[string]any)
		if err := setRelationField(relation.RefSchema, field, rows); err != nil {
			return fmt.Errorf("relation %s: %w", relation.FieldName, err)
		}
	}
	return nil
}

// setRelationField stores rows into a relation field of kind T, *T, []T or []*T.
func setRelationField(schema *SchemaCore, field reflect.Value, rows []map[string]any) error {
	ft := field.Type()
	switch ft.Kind() {
	case reflect.Slice:
		elem := ft.Elem()
		out := reflect.MakeSlice(ft, 0, len(rows))
		for _, row := range rows {
			item, err := newFromRow(schema, elem, row)
			if err != nil {
				return err
			}
			out = reflect.Append(out, item)
		}
		field.Set(out)
	default:
		if len(rows) == 0 {
			return nil
		}
		item, err := newFromRow(schema, ft, rows[0])
		if err != nil {
			return err
		}
		field.Set(item)
	}
	return nil
}

func newFromRow(schema *SchemaCore, t reflect.Type, row map[string]any) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		ptr := reflect.New(t.Elem())
		return ptr, assignRow(schema, row, ptr.Elem())
	}
	ptr := reflect.New(t)
	return ptr.Elem(), assignRow(schema, row, ptr.Elem())
}

// WithTenant creates a new Model[T] instance bound to a different database.
//
// It clones the schema and replaces only the Database name in SchemaCore.
// This is useful for multi-tenant or sharded architectures.
func (m *Model[T]) WithTenant(database string) *Model[T] {
	cloneSchema := *m.schema
	cloneCore := cloneSchema.SchemaCore
	cloneCore.Database = database
	cloneSchema.SchemaCore = cloneCore

	clone := *m
	clone.schema = &cloneSchema
	return &clone
}

// WithCompiler returns a copy of the model that compiles filters with c
// instead of the registered default.
func (m *Model[T]) WithCompiler(c Compiler) *Model[T] {
	clone := *m
	clone.compiler = c
	return &clone
}

// WithRootOptions returns a copy of the model whose filter roots are built
// with opts (join reuse, for instance).
func (m *Model[T]) WithRootOptions(opts ...RootOption) *Model[T] {
	clone := *m
	clone.rootOptions = append(append([]RootOption(nil), m.rootOptions...), opts...)
	return &clone
}

// Schema returns the model schema.
func (m *Model[T]) Schema() *SchemaMeta[T] { return m.schema }

// Create inserts a new entity into the database.
//
// It automatically sets createdAt and updatedAt fields (if defined in the schema),
// executes PreInsert hooks, performs the insert via the driver, executes PostInsert hooks,
// and emits an EventInsert.
func (m *Model[T]) Create(ctx context.Context, doc *T) error {
	return dispatchOperation(ctx, OperationInsert, doc, func() error {
		now := time.Now()
		val := reflect.ValueOf(doc).Elem()

		if m.schema.createdAtField != nil {
			f := val.FieldByName(m.schema.createdAtField.StructFieldName)
			setTimeField(f, now)
		}
		if m.schema.updatedAtField != nil {
			f := val.FieldByName(m.schema.updatedAtField.StructFieldName)
			setTimeField(f, now)
		}

		if err := m.runPre(PreInsert, doc); err != nil {
			return err
		}
		if err := m.driver.Insert(ctx, &m.schema.SchemaCore, doc); err != nil {
			return err
		}
		if err := m.runPost(PostInsert, doc); err != nil {
			return err
		}
		Emit(EventInsert, InsertPayload[T]{Schema: &m.schema.SchemaCore, Doc: doc})
		return nil
	})
}

// findOneInternal is the internal implementation of FindOne queries.
//
// It executes PreFind hooks, applies soft-delete rules, executes the driver query,
// maps the result to the struct, loads relations if requested, executes PostFind hooks,
// and emits an EventFind.
func (m *Model[T]) findOneInternal(ctx context.Context, qb *Query[T], relationList ...string) (*T, error) {
	var zero T
	if err := m.runPre(PreFind, &zero); err != nil {
		return nil, err
	}

	where := m.withSoftDelete(qb.where)

	var result *T
	err := dispatchOperation(ctx, OperationFind, qb, func() error {
		raw, err := m.driver.FindOne(ctx, &m.schema.SchemaCore, where)
		if err != nil || raw == nil {
			return err
		}
		row, ok := raw.(map[string]any)
		if !ok {
			return nil
		}
		value := new(T)
		if err := mapToStruct(&m.schema.SchemaCore, row, value); err != nil {
			return err
		}
		if err := m.loadRelationList(ctx, value, relationList); err != nil {
			return err
		}
		_ = m.runPost(PostFind, value)
		Emit(EventFind, FindOnePayload[T]{Schema: &m.schema.SchemaCore, Where: where, Doc: value})
		result = value
		return nil
	})
	return result, err
}

// findManyInternal is the internal implementation of FindMany queries.
//
// It executes PreFind hooks, applies soft-delete rules, executes the driver query,
// maps the results to structs, loads relations if requested, executes PostFind hooks,
// and emits an EventFind.
func (m *Model[T]) findManyInternal(ctx context.Context, qb *Query[T], relationList ...string) ([]T, error) {
	var zero T
	if err := m.runPre(PreFind, &zero); err != nil {
		return nil, err
	}

	where := m.withSoftDelete(qb.where)

	var results []T
	err := dispatchOperation(ctx, OperationFind, qb, func() error {
		raw, err := m.driver.FindMany(ctx, &m.schema.SchemaCore, where)
		if err != nil || raw == nil {
			return err
		}
		rows, ok := raw.([]map[string]any)
		if !ok {
			return nil
		}
		for _, row := range rows {
			value := new(T)
			if err := mapToStruct(&m.schema.SchemaCore, row, value); err != nil {
				return err
			}
			if err := m.loadRelationList(ctx, value, relationList); err != nil {
				return err
			}
			_ = m.runPost(PostFind, value)
			results = append(results, *value)
		}
		Emit(EventFind, FindManyPayload[T]{Schema: &m.schema.SchemaCore, Where: where, DocList: results})
		return nil
	})
	return results, err
}

// Update applies changes to entities matching a condition.
//
// It automatically updates the updatedAt field (if defined in the schema),
// performs the update via the driver, and emits an EventUpdate.
func (m *Model[T]) Update(ctx context.Context, condition *Condition, changes Changes) error {
	return dispatchOperation(ctx, OperationUpdate, changes, func() error {
		if m.schema.updatedAtField != nil {
			changes[m.schema.updatedAtField.DatabaseColumnName] = time.Now()
		}
		if err := m.driver.Update(ctx, &m.schema.SchemaCore, condition, changes); err != nil {
			return err
		}
		Emit(EventUpdate, UpdatePayload{Schema: &m.schema.SchemaCore, Condition: condition, Changes: changes})
		return nil
	})
}

// Delete removes entities matching a condition.
//
// If soft-delete is enabled (deletedAt field exists), it sets the deletedAt timestamp
// instead of physically removing the record. Otherwise, it delegates to the driver's Delete.
// An EventUpdate or EventDelete is emitted depending on the strategy used.
func (m *Model[T]) Delete(ctx context.Context, condition *Condition) error {
	return dispatchOperation(ctx, OperationDelete, condition, func() error {
		if m.schema.deletedAtField != nil {
			changes := Changes{m.schema.deletedAtField.DatabaseColumnName: time.Now()}
			if err := m.driver.Update(ctx, &m.schema.SchemaCore, condition, changes); err != nil {
				return err
			}
			Emit(EventUpdate, UpdatePayload{Schema: &m.schema.SchemaCore, Condition: condition, Changes: changes})
			return nil
		}
		if err := m.driver.Delete(ctx, &m.schema.SchemaCore, condition); err != nil {
			return err
		}
		Emit(EventDelete, DeletePayload{Schema: &m.schema.SchemaCore, Condition: condition})
		return nil
	})
}

// Count returns the number of entities matching the query.
//
// It applies soft-delete rules automatically and delegates counting to the driver.
func (m *Model[T]) Count(ctx context.Context, qb *Query[T]) (int64, error) {
	where := m.withSoftDelete(qb.where)
	var count int64
	err := dispatchOperation(ctx, OperationCount, qb, func() error {
		var err error
		count, err = m.driver.Count(ctx, &m.schema.SchemaCore, where)
		return err
	})
	return count, err
}

// FindOneQuery is a pending single-entity query; relations to eager-load
// are added with Include and the query is executed by Run.
type FindOneQuery[T any] struct {
	model           *Model[T]
	query           *Query[T]
	includeNameList []string
}

// FindOne prepares a query returning the first matching entity.
func (m *Model[T]) FindOne(query *Query[T]) *FindOneQuery[T] {
	return &FindOneQuery[T]{model: m, query: query}
}

// Include eager-loads the relation whose field the selector points to.
//
//	.Include(func(u *User) any { return &u.RoleList })
func (q *FindOneQuery[T]) Include(selector func(*T) any) *FindOneQuery[T] {
	q.includeNameList = append(q.includeNameList, fieldNameFromSelectorFor[T](selector))
	return q
}

// Run executes the query. It returns nil, nil when nothing matches.
func (q *FindOneQuery[T]) Run(ctx context.Context) (*T, error) {
	return q.model.findOneInternal(ctx, q.query, q.includeNameList...)
}

// FindManyQuery is a pending multi-entity query.
type FindManyQuery[T any] struct {
	model        *Model[T]
	qb           *Query[T]
	includeNames []string
}

// FindMany prepares a query returning every matching entity.
func (m *Model[T]) FindMany(qb *Query[T]) *FindManyQuery[T] {
	return &FindManyQuery[T]{model: m, qb: qb}
}

// Include eager-loads the relation whose field the selector points to.
func (q *FindManyQuery[T]) Include(selector func(*T) any) *FindManyQuery[T] {
	q.includeNames = append(q.includeNames, fieldNameFromSelectorFor[T](selector))
	return q
}

// Run executes the query.
func (q *FindManyQuery[T]) Run(ctx context.Context) ([]T, error) {
	return q.model.findManyInternal(ctx, q.qb, q.includeNames...)
}

// NewQuery starts a query on the model schema.
func (m *Model[T]) NewQuery() *Query[T] {
	return NewQuery(m.schema)
}

// FindAll returns one page of entities. An unsorted page is ordered by the
// schema's default sort.
func (m *Model[T]) FindAll(ctx context.Context, page Page) ([]T, error) {
	if page.Unsorted() {
		page.Sort = m.schema.DefaultSort
	}
	return m.findManyInternal(ctx, m.NewQuery().Page(page))
}

// Filter returns one page of the entities matching a filter struct.
//
// An unsorted page takes the schema's default sort. The filter is compiled
// against a fresh root of the schema; sort keys naming filter fields bound
// to a relation are rewritten to that relation path, so they order by the
// same joined column the filter constrains.
func (m *Model[T]) Filter(ctx context.Context, spec any, page Page) ([]T, error) {
	var results []T
	err := dispatchOperation(ctx, OperationFilter, spec, func() error {
		qb, err := m.FilterQuery(spec, page)
		if err != nil {
			return err
		}
		results, err = m.findManyInternal(ctx, qb)
		return err
	})
	return results, err
}

// FilterCount returns the number of entities matching a filter struct.
func (m *Model[T]) FilterCount(ctx context.Context, spec any) (int64, error) {
	qb, err := m.FilterQuery(spec, Page{})
	if err != nil {
		return 0, err
	}
	return m.Count(ctx, qb)
}

// FilterQuery compiles a filter struct and a page into a query without
// running it.
func (m *Model[T]) FilterQuery(spec any, page Page) (*Query[T], error) {
	compiler := m.compiler
	if compiler == nil {
		compiler = registeredCompiler()
	}
	if compiler == nil {
		return nil, ErrNoCompiler
	}
	qb := m.NewQuery()
	root := qb.Root(m.rootOptions...)
	condition, err := compiler.Compile(spec, root)
	if err != nil {
		return nil, err
	}
	if page.Unsorted() {
		page.Sort = m.schema.DefaultSort
	}
	page.Sort = compiler.Rewrite(page.Sort, spec)
	qb.Match(condition, root).Page(page)
	Emit(EventFilter, FilterPayload{Schema: &m.schema.SchemaCore, Spec: spec, Where: qb.Options()})
	return qb, nil
}
