package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leandroluk/golemspec/core"
	_ "github.com/leandroluk/golemspec/filter"
	"github.com/leandroluk/golemspec/internal/hr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func field(name string) *core.Condition { return &core.Condition{FieldName: name} }

func TestToMongoLikePattern(t *testing.T) {
	assert.Equal(t, "^.*admin.$", toMongoLikePattern("%admin_"))
	assert.Equal(t, `^a\.b\(c\)$`, toMongoLikePattern("a.b(c)"))
	assert.Equal(t, "^.*são.*$", toMongoLikePattern("%são%"))
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name string
		cond *core.Condition
		want bson.M
	}{
		{"nil", nil, bson.M{}},
		{"true", core.True(), bson.M{}},
		{"eq", field("nome").Eq("Ana"), bson.M{"nome": "Ana"}},
		{"is null", field("gerente").Nil(), bson.M{"gerente": bson.M{"$eq": nil}}},
		{"gt", field("idade").Gt(18), bson.M{"idade": bson.M{"$gt": 18}}},
		{"lte", field("idade").Lte(65), bson.M{"idade": bson.M{"$lte": 65}}},
		{"ilike", field("nome").ILike("%silva%"), bson.M{"nome": primitive.Regex{Pattern: "^.*silva.*$", Options: "i"}}},
		{"between", field("idade").Between(18, 65), bson.M{"idade": bson.M{"$gte": 18, "$lte": 65}}},
		{"in", field("id").In(1, 2), bson.M{"id": bson.M{"$in": []any{1, 2}}}},
		{"or", field("a").Eq(1).Or(field("b").Eq(2)), bson.M{"$or": []bson.M{{"a": 1}, {"b": 2}}}},
		{"not", field("a").Eq(1).Not(), bson.M{"$nor": []bson.M{{"a": 1}}}},
		{"and", core.All(field("a").Eq(1), field("b").Eq(2)), bson.M{"$and": []bson.M{{"a": 1}, {"b": 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.cond))
		})
	}
}

func TestBuildFilter_RelationPath(t *testing.T) {
	root := core.NewRoot(&hr.FuncionarioSchema.SchemaCore)
	attr, err := core.ResolvePath(root, "endereco.cidade.uf")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"Endereco.Cidade.uf": bson.M{"$in": []any{"PE"}}}, buildFilter(core.Cond(attr).In("PE")))
}

func TestPipeline(t *testing.T) {
	schema := &hr.FuncionarioSchema.SchemaCore
	root := core.NewRoot(schema)
	attr, err := core.ResolvePath(root, "endereco.cidade.nome")
	require.NoError(t, err)

	where := &core.Where{
		Condition: core.Cond(attr).ILike("%recife%"),
		From:      root,
		Sort:      []core.Sort{{FieldName: "cargo.nome", Order: core.Desc}},
		Limit:     10,
		Offset:    20,
	}
	want := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "enderecos"},
			{Key: "localField", Value: "endereco_id"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "Endereco"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$Endereco"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "cidades"},
			{Key: "localField", Value: "Endereco.cidade_id"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "Endereco.Cidade"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$Endereco.Cidade"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "cargos"},
			{Key: "localField", Value: "cargo_id"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "Cargo"},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$Cargo"}, {Key: "preserveNullAndEmptyArrays", Value: true}}}},
		{{Key: "$match", Value: bson.M{"Endereco.Cidade.nome": primitive.Regex{Pattern: "^.*recife.*$", Options: "i"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "Cargo.nome", Value: -1}}}},
		{{Key: "$skip", Value: int64(20)}},
		{{Key: "$limit", Value: int64(10)}},
		{{Key: "$project", Value: bson.D{{Key: "Endereco", Value: 0}, {Key: "Cargo", Value: 0}}}},
	}
	assert.Equal(t, want, Pipeline(schema, where))
}

func TestPipeline_NoJoins(t *testing.T) {
	got := Pipeline(&hr.CidadeSchema.SchemaCore, nil)
	assert.Equal(t, mongo.Pipeline{{{Key: "$match", Value: bson.M{}}}}, got)
}

func TestBSONConversion(t *testing.T) {
	id := uuid.MustParse("6f1c1d1e-0000-4000-8000-000000000001")
	bin := toBSON(id)
	assert.Equal(t, primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: id[:]}, bin)
	assert.Equal(t, id, fromBSON(bin))

	d := toBSON(decimal.RequireFromString("1234.50"))
	require.IsType(t, primitive.Decimal128{}, d)
	assert.Equal(t, "1234.50", fromBSON(d))

	at := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	back, ok := fromBSON(primitive.NewDateTimeFromTime(at)).(time.Time)
	require.True(t, ok)
	assert.True(t, at.Equal(back))

	assert.Equal(t, []any{"a", bin}, toBSON([]any{"a", id}))
	assert.Equal(t, map[string]any{"id": id}, fromBSON(bson.M{"id": bin}))
}

func TestMongoDriver(t *testing.T) {
	uri := os.Getenv("GOLEM_MONGO_URI")
	if uri == "" {
		t.Skip("GOLEM_MONGO_URI not set")
	}
	ctx := context.Background()
	driver, err := NewMongoDriver(ctx, uri, "golem_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = driver.client.Database(driver.defaultDatabase).Drop(ctx)
		_ = driver.Close(ctx)
	})

	cidades := core.NewModel(hr.CidadeSchema, driver)
	enderecos := core.NewModel(hr.EnderecoSchema, driver)
	require.NoError(t, cidades.Create(ctx, &hr.Cidade{ID: 1, Nome: "Recife", UF: "PE"}))
	require.NoError(t, cidades.Create(ctx, &hr.Cidade{ID: 2, Nome: "Lisboa", UF: "LX"}))
	require.NoError(t, enderecos.Create(ctx, &hr.Endereco{ID: 1, Logradouro: "Rua da Aurora", CidadeID: 1}))
	require.NoError(t, enderecos.Create(ctx, &hr.Endereco{ID: 2, Logradouro: "Rua Augusta", CidadeID: 2}))

	type enderecoFilter struct {
		Cidade string `filter:"like,relation=cidade.nome"`
	}
	got, err := enderecos.Filter(ctx, enderecoFilter{Cidade: "recife"}, core.Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rua da Aurora", got[0].Logradouro)
}
