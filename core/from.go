package core

import (
	"fmt"
	"reflect"
)

// From is a node a query can read attributes from: the root entity of the
// query or one of its joined relations. Root and Join implement it the
// same way, so a path is resolved by a plain loop over From values.
type From interface {
	// Join returns the LEFT join node for the named relation, creating it
	// on first use.
	Join(name string) (From, error)
	// Attr returns the attribute reference for the named field.
	Attr(name string) (*Attribute, error)
}

// Attribute is a resolved column reference.
//
// Alias is the SQL table alias of the owning node ("t0" for the root) and
// Path is the dotted document path of the column ("Endereco.cidade"), which
// document stores use after embedding joined relations.
type Attribute struct {
	Alias  string
	Path   string
	Column string
	Field  string
	Type   reflect.Type
}

// Root is the From of the entity being queried. It records the joins
// requested through it, in creation order, for drivers to render.
//
// A Root is built per query and is not safe for concurrent use.
type Root struct {
	schema *SchemaCore
	alias  string
	reuse  bool
	joins  []*Join
}

// RootOption configures a Root.
type RootOption func(*Root)

// WithJoinReuse controls whether resolving the same relation twice reuses
// the existing join node (the default) or adds an independent one.
func WithJoinReuse(reuse bool) RootOption {
	return func(r *Root) { r.reuse = reuse }
}

// NewRoot creates the From of the given schema.
func NewRoot(schema *SchemaCore, opts ...RootOption) *Root {
	r := &Root{schema: schema, alias: "t0", reuse: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schema returns the root schema.
func (r *Root) Schema() *SchemaCore { return r.schema }

// Alias returns the SQL alias of the root table.
func (r *Root) Alias() string { return r.alias }

// Joins returns the join nodes in creation order. Parents always precede
// their children.
func (r *Root) Joins() []*Join { return r.joins }

// Join implements From.
func (r *Root) Join(name string) (From, error) {
	return r.join(nil, name)
}

// Attr implements From.
func (r *Root) Attr(name string) (*Attribute, error) {
	return attributeOf(r.schema, r.alias, "", name)
}

func (r *Root) join(parent *Join, name string) (*Join, error) {
	schema, parentAlias, parentPath := r.schema, r.alias, ""
	if parent != nil {
		schema, parentAlias, parentPath = parent.Schema(), parent.Alias, parent.Path
	}
	rel := schema.findRelation(name)
	if rel == nil {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownRelation, name, schema.Collection)
	}
	if rel.Kind == ManyToMany || rel.RefSchema == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnjoinable, rel.Kind, rel.FieldName)
	}
	if r.reuse {
		for _, j := range r.joins {
			if j.parent == parent && j.relation.FieldName == rel.FieldName {
				return j, nil
			}
		}
	}
	j := &Join{
		root:          r,
		parent:        parent,
		relation:      rel,
		Alias:         fmt.Sprintf("t%d", len(r.joins)+1),
		ParentAlias:   parentAlias,
		Path:          joinPath(parentPath, rel.FieldName),
		ParentPath:    parentPath,
		LocalColumn:   schema.columnOf(rel.LocalKey),
		ForeignColumn: rel.RefSchema.columnOf(rel.ForeignKey),
	}
	r.joins = append(r.joins, j)
	return j, nil
}

// Join is a LEFT join of a relation, either from the root or from another join.
type Join struct {
	root     *Root
	parent   *Join
	relation *RelationInternal

	Alias         string // alias of the joined table
	ParentAlias   string // alias of the table the relation belongs to
	Path          string // dotted relation path from the root
	ParentPath    string // relation path of the parent, empty for the root
	LocalColumn   string // key column on the parent side
	ForeignColumn string // key column on the joined side
}

// Schema returns the schema of the joined relation.
func (j *Join) Schema() *SchemaCore { return j.relation.RefSchema }

// Kind returns the relation kind.
func (j *Join) Kind() RelationKind { return j.relation.Kind }

// Join implements From.
func (j *Join) Join(name string) (From, error) {
	return j.root.join(j, name)
}

// Attr implements From.
func (j *Join) Attr(name string) (*Attribute, error) {
	return attributeOf(j.Schema(), j.Alias, j.Path, name)
}

func attributeOf(schema *SchemaCore, alias, path, name string) (*Attribute, error) {
	f := schema.FieldByName(name)
	if f == nil {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownAttribute, name, schema.Collection)
	}
	return &Attribute{
		Alias:  alias,
		Path:   joinPath(path, f.DatabaseColumnName),
		Column: f.DatabaseColumnName,
		Field:  f.StructFieldName,
		Type:   f.Type,
	}, nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
