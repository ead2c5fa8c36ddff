package filter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/leandroluk/golemspec/core"
)

// Builder compiles filter structs. The zero value is not usable; create
// one with NewBuilder. A Builder is safe for concurrent use.
type Builder struct {
	registry *Registry
	tagKey   string
	logger   *slog.Logger
}

var _ core.Compiler = (*Builder)(nil)

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry sets the strategies used to build conditions.
func WithRegistry(r *Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithTagKey sets the struct tag read for filter metadata.
func WithTagKey(key string) Option {
	return func(b *Builder) { b.tagKey = key }
}

// WithLogger sets the logger compiles are reported to, at Debug level.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder using the default registry and tag key.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		registry: DefaultRegistry(),
		tagKey:   DefaultTagKey,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile turns spec into one condition against from: the AND of the
// conditions of its active fields, in declaration order. A spec without
// active fields compiles to core.True().
//
// Compilation stops at the first failing field; the error names the field
// and wraps the cause, so errors.As still finds the typed error.
func (b *Builder) Compile(spec any, from core.From) (*core.Condition, error) {
	fields, err := scan(spec, b.tagKey)
	if err != nil {
		return nil, err
	}
	conds := make([]*core.Condition, 0, len(fields))
	for _, f := range fields {
		c, err := b.compileField(f, from)
		if err != nil {
			return nil, fmt.Errorf("golem: filter field %s: %w", f.Name, err)
		}
		conds = append(conds, c)
	}
	cond := core.All(conds...)
	if root, ok := from.(*core.Root); ok {
		b.logger.Debug("filter compiled",
			slog.String("collection", root.Schema().Collection),
			slog.Int("fields", len(fields)),
			slog.Int("joins", len(root.Joins())))
	}
	return cond, nil
}

func (b *Builder) compileField(f Field, from core.From) (*core.Condition, error) {
	attr, err := core.ResolvePath(from, f.Path())
	if err != nil {
		return nil, err
	}
	strategy, err := b.registry.Strategy(f.Meta.Kind)
	if err != nil {
		return nil, err
	}
	return strategy.Build(attr, f.Value)
}

// Specification is a compiled filter: the condition, the root holding the
// joins it needs, and the sort rewritten onto the same relation paths.
type Specification struct {
	Condition *core.Condition
	Sort      []core.Sort
	From      *core.Root
}

// Where returns driver options for the specification.
func (s *Specification) Where() *core.Where {
	return &core.Where{Condition: s.Condition, Sort: s.Sort, From: s.From}
}

// Build compiles spec against root and rewrites sort for it.
func (b *Builder) Build(spec any, root *core.Root, sort []core.Sort) (*Specification, error) {
	cond, err := b.Compile(spec, root)
	if err != nil {
		return nil, err
	}
	return &Specification{Condition: cond, Sort: b.Rewrite(sort, spec), From: root}, nil
}

var defaultBuilder = NewBuilder()

func init() {
	core.UseCompiler(defaultBuilder)
}

// Compile compiles spec with the default builder.
func Compile(spec any, from core.From) (*core.Condition, error) {
	return defaultBuilder.Compile(spec, from)
}

// Build builds a Specification with the default builder.
func Build(spec any, root *core.Root, sort []core.Sort) (*Specification, error) {
	return defaultBuilder.Build(spec, root, sort)
}

// Rewrite rewrites sort with the default builder.
func Rewrite(sort []core.Sort, specType any) []core.Sort {
	return defaultBuilder.Rewrite(sort, specType)
}

// Resolve resolves a dotted relation path against from.
func Resolve(from core.From, path string) (*core.Attribute, error) {
	return core.ResolvePath(from, path)
}
