package filter_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/filter"
	"github.com/leandroluk/golemspec/internal/hr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(opts ...core.RootOption) *core.Root {
	return core.NewRoot(&hr.FuncionarioSchema.SchemaCore, opts...)
}

func ptr[T any](v T) *T { return &v }

func TestCompile_NoActiveFields(t *testing.T) {
	for name, spec := range map[string]any{
		"zero value":  hr.FuncionarioFilter{},
		"pointer":     &hr.FuncionarioFilter{},
		"empty lists": &hr.FuncionarioFilter{UF: []string{}, IDs: []int64{}, DataAdmissao: []filter.Date{}},
		"nil":         nil,
		"nil pointer": (*hr.FuncionarioFilter)(nil),
	} {
		t.Run(name, func(t *testing.T) {
			root := newRoot()
			cond, err := filter.Compile(spec, root)
			require.NoError(t, err)
			assert.True(t, cond.IsTrue())
			assert.Empty(t, root.Joins())
		})
	}
}

func TestCompile_FieldIndependence(t *testing.T) {
	full := hr.FuncionarioFilter{
		NomeCompleto: "silva",
		CargoID:      ptr(int64(3)),
		Cidade:       "Recife",
		UF:           []string{"PE", "PB"},
		SalarioAcima: ptr(decimal.NewFromInt(5000)),
		DataAdmissao: []filter.Date{filter.NewDate(2020, 1, 1), filter.NewDate(2020, 12, 31)},
		Ativo:        ptr(true),
	}
	parts := []hr.FuncionarioFilter{
		{NomeCompleto: full.NomeCompleto},
		{CargoID: full.CargoID},
		{Cidade: full.Cidade},
		{UF: full.UF},
		{SalarioAcima: full.SalarioAcima},
		{DataAdmissao: full.DataAdmissao},
		{Ativo: full.Ativo},
	}

	combinedRoot := newRoot()
	combined, err := filter.Compile(&full, combinedRoot)
	require.NoError(t, err)

	separateRoot := newRoot()
	var conds []*core.Condition
	for _, part := range parts {
		cond, err := filter.Compile(&part, separateRoot)
		require.NoError(t, err)
		require.Len(t, cond.Children, 1)
		conds = append(conds, cond)
	}

	assert.Equal(t, core.All(conds...), combined)
	assert.Len(t, combined.Children, len(parts))
	assert.Equal(t, len(separateRoot.Joins()), len(combinedRoot.Joins()))
}

func TestCompile_Like(t *testing.T) {
	cond, err := filter.Compile(&hr.FuncionarioFilter{NomeCompleto: "Silva"}, newRoot())
	require.NoError(t, err)
	require.Len(t, cond.Children, 1)

	like := cond.Children[0]
	assert.Equal(t, core.OpILike, *like.Operator)
	assert.Equal(t, "%silva%", like.Value)
	assert.Equal(t, "nome_completo", like.Attribute.Path)
	assert.Equal(t, "t0", like.Attribute.Alias)
}

func TestCompile_LikeRejectsNumbers(t *testing.T) {
	type spec struct {
		Salario int `filter:"like"`
	}
	_, err := filter.Compile(spec{Salario: 10}, newRoot())
	require.Error(t, err)
	assert.True(t, errors.Is(err, filter.ErrTypeMismatch))
	assert.True(t, filter.IsTypeMismatch(err))
	assert.Contains(t, err.Error(), "filter field Salario")

	var mismatch *filter.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, filter.Like, mismatch.Kind)
	assert.Equal(t, "int", mismatch.Got)
}

func TestCompile_BetweenArity(t *testing.T) {
	type spec struct {
		IDs []int64 `filter:"between,relation=id"`
	}
	for _, ids := range [][]int64{{1}, {1, 2, 3}} {
		_, err := filter.Compile(spec{IDs: ids}, newRoot())
		require.Error(t, err)
		assert.True(t, errors.Is(err, filter.ErrArity))
		assert.True(t, filter.IsArity(err))

		var arity *filter.ArityError
		require.ErrorAs(t, err, &arity)
		assert.Equal(t, 2, arity.Want)
		assert.Equal(t, len(ids), arity.Got)
	}
}

func TestCompile_BetweenDates(t *testing.T) {
	spec := hr.FuncionarioFilter{
		DataAdmissao: []filter.Date{filter.NewDate(2020, time.January, 1), filter.NewDate(2020, time.December, 31)},
	}
	cond, err := filter.Compile(&spec, newRoot())
	require.NoError(t, err)
	require.Len(t, cond.Children, 1)

	between := cond.Children[0]
	assert.Equal(t, core.OpBetween, *between.Operator)
	assert.Equal(t, []any{
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC),
	}, between.Value)
	assert.Equal(t, "data_admissao", between.Attribute.Column)
}

func TestCompile_BetweenMixedBounds(t *testing.T) {
	type spec struct {
		Admissao []any `filter:"between,relation=dataAdmissao"`
	}
	for name, bounds := range map[string][]any{
		"date and string":  {filter.NewDate(2020, 1, 1), "2020-12-31"},
		"string and date":  {"2020-01-01", filter.NewDate(2020, 12, 31)},
		"int and float":    {1, 2.5},
		"nil bound":        {nil, 2},
		"unordered bounds": {[]int{1}, []int{2}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := filter.Compile(spec{Admissao: bounds}, newRoot())
			assert.True(t, filter.IsTypeMismatch(err), "got %v", err)
		})
	}
}

func TestCompile_BetweenNonList(t *testing.T) {
	type spec struct {
		Salario *int `filter:"between"`
	}
	_, err := filter.Compile(spec{Salario: ptr(3)}, newRoot())
	assert.True(t, filter.IsTypeMismatch(err))
}

func TestCompile_In(t *testing.T) {
	cond, err := filter.Compile(&hr.FuncionarioFilter{IDs: []int64{1, 2, 3}}, newRoot())
	require.NoError(t, err)
	require.Len(t, cond.Children, 1)
	in := cond.Children[0]
	assert.Equal(t, core.OpIn, *in.Operator)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, in.Value)

	type mixed struct {
		IDs []any `filter:"in,relation=id"`
	}
	_, err = filter.Compile(mixed{IDs: []any{1, "2"}}, newRoot())
	assert.True(t, filter.IsTypeMismatch(err))
}

func TestCompile_PointerZeroValuesAreActive(t *testing.T) {
	cond, err := filter.Compile(&hr.FuncionarioFilter{Ativo: ptr(false), CargoID: ptr(int64(0))}, newRoot())
	require.NoError(t, err)
	require.Len(t, cond.Children, 2)
	assert.Equal(t, int64(0), cond.Children[0].Value)
	assert.Equal(t, false, cond.Children[1].Value)
}

func TestCompile_GreaterAndLessThan(t *testing.T) {
	spec := hr.FuncionarioFilter{
		SalarioAcima:  ptr(decimal.NewFromInt(3000)),
		AdmitidoAntes: ptr(filter.NewDate(2021, time.March, 1)),
	}
	cond, err := filter.Compile(&spec, newRoot())
	require.NoError(t, err)
	require.Len(t, cond.Children, 2)

	gt, lt := cond.Children[0], cond.Children[1]
	assert.Equal(t, core.OpGt, *gt.Operator)
	assert.True(t, decimal.NewFromInt(3000).Equal(gt.Value.(decimal.Decimal)))
	assert.Equal(t, core.OpLt, *lt.Operator)
	assert.Equal(t, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC), lt.Value)

	type unordered struct {
		Salario []int `filter:"gt"`
	}
	_, err = filter.Compile(unordered{Salario: []int{1}}, newRoot())
	assert.True(t, filter.IsTypeMismatch(err))
}

func TestCompile_RelationPath(t *testing.T) {
	root := newRoot()
	cond, err := filter.Compile(&hr.FuncionarioFilter{Cidade: "recife"}, root)
	require.NoError(t, err)

	joins := root.Joins()
	require.Len(t, joins, 2)
	assert.Equal(t, "Endereco", joins[0].Path)
	assert.Equal(t, "t0", joins[0].ParentAlias)
	assert.Equal(t, "endereco_id", joins[0].LocalColumn)
	assert.Equal(t, "id", joins[0].ForeignColumn)
	assert.Equal(t, "Endereco.Cidade", joins[1].Path)
	assert.Equal(t, joins[0].Alias, joins[1].ParentAlias)

	attr := cond.Children[0].Attribute
	assert.Equal(t, joins[1].Alias, attr.Alias)
	assert.Equal(t, "nome", attr.Column)
	assert.Equal(t, "Endereco.Cidade.nome", attr.Path)
}

func TestCompile_SharedRelationJoins(t *testing.T) {
	spec := hr.FuncionarioFilter{Cidade: "recife", UF: []string{"PE"}, CargoID: ptr(int64(1)), CargoNome: "dev"}

	reused := newRoot()
	_, err := filter.Compile(&spec, reused)
	require.NoError(t, err)
	assert.Len(t, reused.Joins(), 3)

	independent := newRoot(core.WithJoinReuse(false))
	_, err = filter.Compile(&spec, independent)
	require.NoError(t, err)
	assert.Len(t, independent.Joins(), 6)
}

func TestCompile_InvalidPath(t *testing.T) {
	type spec struct {
		Chefe string `filter:"eq,relation=chefe.nome"`
		Bad   string `filter:"eq,relation=cargo..nome"`
		Col   string `filter:"eq,relation=cargo.salario"`
	}
	for name, s := range map[string]spec{
		"unknown relation":  {Chefe: "x"},
		"empty segment":     {Bad: "x"},
		"unknown attribute": {Col: "x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := filter.Compile(s, newRoot())
			require.Error(t, err)
			assert.True(t, errors.Is(err, filter.ErrInvalidPath))
			var pathErr *filter.InvalidPathError
			assert.ErrorAs(t, err, &pathErr)
		})
	}
}

func TestCompile_InvalidTags(t *testing.T) {
	type unknownOption struct {
		Email string `filter:"eq,foo=bar"`
	}
	_, err := filter.Compile(unknownOption{Email: "a"}, newRoot())
	assert.True(t, errors.Is(err, filter.ErrInvalidTag))
	var tagErr *filter.InvalidTagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "Email", tagErr.Field)

	type unknownOperation struct {
		Email string `filter:"regex"`
	}
	_, err = filter.Compile(unknownOperation{Email: "a"}, newRoot())
	assert.True(t, errors.Is(err, filter.ErrUnsupportedOperator))

	// tags are validated even when the field is inactive
	_, err = filter.Compile(unknownOperation{}, newRoot())
	assert.True(t, errors.Is(err, filter.ErrUnsupportedOperator))
}

func TestCompile_NotAStruct(t *testing.T) {
	_, err := filter.Compile(42, newRoot())
	assert.True(t, errors.Is(err, filter.ErrTypeMismatch))
}

func TestCompile_Concurrent(t *testing.T) {
	spec := hr.FuncionarioFilter{NomeCompleto: "ana", UF: []string{"SP"}, IDs: []int64{1, 2}}
	want, err := filter.Compile(&spec, newRoot())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := filter.Compile(&spec, newRoot())
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestBuild(t *testing.T) {
	root := newRoot()
	spec, err := filter.Build(&hr.FuncionarioFilter{CargoNome: "dev"}, root, []core.Sort{{FieldName: "cargoNome", Order: core.Desc}})
	require.NoError(t, err)
	assert.Equal(t, []core.Sort{{FieldName: "cargo.nome", Order: core.Desc}}, spec.Sort)
	assert.Same(t, root, spec.From)

	where := spec.Where()
	assert.Same(t, spec.Condition, where.Condition)
	assert.Same(t, root, where.From)
}

func TestBuilder_WithRegistry(t *testing.T) {
	var seen []filter.Kind
	strategies := filter.DefaultStrategies()
	strategies[0] = filter.NewStrategy(filter.Equal, func(attr *core.Attribute, value any) (*core.Condition, error) {
		seen = append(seen, filter.Equal)
		return core.Cond(attr).Eq(value), nil
	})
	b := filter.NewBuilder(filter.WithRegistry(filter.MustRegistry(strategies...)))

	_, err := b.Compile(&hr.FuncionarioFilter{Email: "a@b.c"}, newRoot())
	require.NoError(t, err)
	assert.Equal(t, []filter.Kind{filter.Equal}, seen)
}

func TestBuilder_WithTagKey(t *testing.T) {
	type spec struct {
		Email string `search:"eq" filter:"like"`
	}
	cond, err := filter.NewBuilder(filter.WithTagKey("search")).Compile(spec{Email: "A"}, newRoot())
	require.NoError(t, err)
	assert.Equal(t, core.OpEq, *cond.Children[0].Operator)
	assert.Equal(t, "A", cond.Children[0].Value)
}
