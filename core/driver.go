// Package core provides the fundamental building blocks of the golem ORM.
// It defines abstractions for queries, models, schema handling, and drivers.
package core

import "context"

// Where encapsulates filtering and pagination options for queries.
//
// It contains:
//   - Condition: the root filter condition (composed of one or more *Condition).
//   - Limit: maximum number of results to return.
//   - Offset: number of rows to skip.
//   - Sort: list of Sort rules to apply.
//   - WithDeleted: whether to include soft-deleted rows.
//   - OnlyDeleted: whether to return only soft-deleted rows.
//   - From: the root the condition was compiled against. When it holds
//     joins, drivers must render them (LEFT) and resolve sort keys that are
//     relation paths through it.
type Where struct {
	Condition   *Condition
	Limit       int
	Offset      int
	Sort        []Sort
	WithDeleted bool
	OnlyDeleted bool
	From        *Root
}

// Page is a pagination request: a window plus an optional sort. A nil or
// empty Sort means unsorted.
type Page struct {
	Limit  int
	Offset int
	Sort   []Sort
}

// Unsorted reports whether the page carries no sort.
func (p Page) Unsorted() bool { return len(p.Sort) == 0 }

// SortKey returns the attribute a sort key addresses. A key that is a
// relation path is resolved through from, adding its joins; keys are
// otherwise looked up on the schema. Drivers fall back to the raw key
// when neither knows it.
func SortKey(schema *SchemaCore, from *Root, key string) *Attribute {
	if from != nil {
		if attr, err := ResolvePath(from, key); err == nil {
			return attr
		}
		return nil
	}
	if f := schema.FieldByName(key); f != nil {
		return &Attribute{Alias: "", Path: f.DatabaseColumnName, Column: f.DatabaseColumnName, Field: f.StructFieldName, Type: f.Type}
	}
	return nil
}

// Changes represents a set of field updates, mapping column names to new values.
// It is typically used in Update operations.
type Changes map[string]any

// Transaction defines the contract for database transaction management.
//
// Implementations must provide atomic commit and rollback semantics.
type Transaction interface {
	// Commit finalizes the transaction and makes all changes permanent.
	Commit(ctx context.Context) error
	// Rollback reverts the transaction, discarding all changes.
	Rollback(ctx context.Context) error
}

// Driver defines the contract for database backends supported by the ORM.
//
// Each driver (e.g., PostgresDriver, MongoDriver) must implement this interface
// to handle basic CRUD operations, transactions, and connectivity.
type Driver interface {
	// Connect establishes a new connection or validates connectivity.
	Connect(ctx context.Context) error
	// Ping checks if the underlying database is reachable.
	Ping(ctx context.Context) error
	// Close terminates the connection and releases resources.
	Close(ctx context.Context) error

	// Transaction starts a new database transaction.
	Transaction(ctx context.Context) (Transaction, error)

	// Insert persists one or more documents/entities in the database.
	Insert(ctx context.Context, schema *SchemaCore, documents ...any) error
	// FindOne retrieves a single document/entity matching the given options.
	FindOne(ctx context.Context, schema *SchemaCore, options *Where) (any, error)
	// FindMany retrieves multiple documents/entities matching the given options.
	FindMany(ctx context.Context, schema *SchemaCore, options *Where) (any, error)
	// Update modifies existing documents/entities matching the condition.
	Update(ctx context.Context, schema *SchemaCore, condition *Condition, changes Changes) error
	// Delete removes documents/entities matching the condition.
	// If soft-delete is enabled, this may update a deletedAt column instead.
	Delete(ctx context.Context, schema *SchemaCore, condition *Condition) error
	// Count returns the number of documents/entities matching the options.
	// Limit, Offset and Sort are ignored; joins recorded on options.From are not.
	Count(ctx context.Context, schema *SchemaCore, options *Where) (int64, error)
}
