package core_test

import (
	"testing"

	"github.com/leandroluk/golemspec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	assert.True(t, core.All().IsTrue())
	assert.True(t, core.All(nil, core.True()).IsTrue())
	assert.True(t, (*core.Condition)(nil).IsTrue())

	a := (&core.Condition{FieldName: "a"}).Eq(1)
	b := (&core.Condition{FieldName: "b"}).Gt(2)
	c := (&core.Condition{FieldName: "c"}).Lt(3)
	got := core.All(a, core.All(b, c), nil)
	require.Len(t, got.Children, 3)
	assert.Same(t, a, got.Children[0])
	assert.Same(t, b, got.Children[1])
	assert.Same(t, c, got.Children[2])
	assert.False(t, got.IsTrue())

	// OR nodes are kept whole
	or := a.Or(b)
	assert.Equal(t, []*core.Condition{or}, core.All(or).Children)
}

func TestCondition_Operators(t *testing.T) {
	root := core.NewRoot(&pessoaSchema.SchemaCore)
	attr, err := root.Attr("idade")
	require.NoError(t, err)

	between := core.Cond(attr).Between(18, 65)
	assert.Equal(t, core.OpBetween, *between.Operator)
	assert.Equal(t, []any{18, 65}, between.Value)
	assert.Equal(t, "idade", between.Column())
	assert.Same(t, attr, between.Attribute)

	ilike := core.Cond(attr).ILike("%a%")
	assert.Equal(t, core.OpILike, *ilike.Operator)

	in := (&core.Condition{FieldName: "idade"}).In(1, 2)
	assert.Equal(t, []any{1, 2}, in.Value)
	assert.Equal(t, "idade", in.Column())

	assert.True(t, core.OpAnd.IsLogical())
	assert.False(t, core.OpBetween.IsLogical())
}
