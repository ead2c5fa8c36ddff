package sqlrender_test

import (
	"strings"
	"testing"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/driver/sqlrender"
	"github.com/leandroluk/golemspec/internal/hr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cidades = &hr.CidadeSchema.SchemaCore

func field(name string) *core.Condition { return &core.Condition{FieldName: name} }

func TestSelect(t *testing.T) {
	where := &core.Where{
		Condition: field("nome").Eq("Recife"),
		Sort:      []core.Sort{{FieldName: "Nome", Order: core.Asc}},
		Limit:     10,
		Offset:    20,
	}
	tests := []struct {
		dialect sqlrender.Dialect
		want    string
	}{
		{sqlrender.Postgres, `SELECT "id", "nome", "uf" FROM "cidades" WHERE "nome" = $1 ORDER BY "nome" ASC LIMIT 10 OFFSET 20`},
		{sqlrender.MySQL, "SELECT `id`, `nome`, `uf` FROM `cidades` WHERE `nome` = ? ORDER BY `nome` ASC LIMIT 10 OFFSET 20"},
		{sqlrender.SQLite, `SELECT "id", "nome", "uf" FROM "cidades" WHERE "nome" = ? ORDER BY "nome" ASC LIMIT 10 OFFSET 20`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			sql, args := tt.dialect.Select(cidades, where, false)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{"Recife"}, args)
		})
	}
}

func TestSelect_Paging(t *testing.T) {
	sql, args := sqlrender.SQLite.Select(cidades, &core.Where{Offset: 5}, false)
	assert.Equal(t, `SELECT "id", "nome", "uf" FROM "cidades" WHERE 1=1 LIMIT -1 OFFSET 5`, sql)
	assert.Empty(t, args)

	sql, _ = sqlrender.Postgres.Select(cidades, &core.Where{Offset: 5}, false)
	assert.Equal(t, `SELECT "id", "nome", "uf" FROM "cidades" WHERE 1=1 OFFSET 5`, sql)

	sql, _ = sqlrender.Postgres.Select(cidades, &core.Where{Limit: 50, Offset: 5}, true)
	assert.Equal(t, `SELECT "id", "nome", "uf" FROM "cidades" WHERE 1=1 LIMIT 1`, sql)

	sql, _ = sqlrender.Postgres.Select(cidades, nil, false)
	assert.Equal(t, `SELECT "id", "nome", "uf" FROM "cidades" WHERE 1=1`, sql)
}

func TestSelect_Joins(t *testing.T) {
	schema := &hr.FuncionarioSchema.SchemaCore
	root := core.NewRoot(schema)
	attr, err := core.ResolvePath(root, "endereco.cidade.nome")
	require.NoError(t, err)

	where := &core.Where{
		Condition: core.Cond(attr).ILike("%recife%"),
		From:      root,
		Sort:      []core.Sort{{FieldName: "cargo.nome", Order: core.Desc}},
	}
	sql, args := sqlrender.Postgres.Select(schema, where, false)

	assert.Contains(t, sql, `"t0"."id", `)
	assert.Contains(t, sql, ` FROM "funcionarios" AS "t0"`+
		` LEFT JOIN "enderecos" AS "t1" ON "t0"."endereco_id" = "t1"."id"`+
		` LEFT JOIN "cidades" AS "t2" ON "t1"."cidade_id" = "t2"."id"`+
		` LEFT JOIN "cargos" AS "t3" ON "t0"."cargo_id" = "t3"."id"`+
		` WHERE LOWER("t2"."nome") LIKE $1`)
	assert.True(t, strings.HasSuffix(sql, ` ORDER BY "t3"."nome" DESC`), sql)
	assert.Equal(t, []any{"%recife%"}, args)
}

func TestCount(t *testing.T) {
	schema := &hr.FuncionarioSchema.SchemaCore

	sql, args := sqlrender.Postgres.Count(schema, &core.Where{Condition: field("ativo").Eq(true)})
	assert.Equal(t, `SELECT COUNT(*) FROM "funcionarios" WHERE "ativo" = $1`, sql)
	assert.Equal(t, []any{true}, args)

	root := core.NewRoot(schema)
	attr, err := core.ResolvePath(root, "cargo.nome")
	require.NoError(t, err)
	sql, args = sqlrender.MySQL.Count(schema, &core.Where{Condition: core.Cond(attr).Like("%dev%"), From: root})
	assert.Equal(t, "SELECT COUNT(DISTINCT `t0`.`id`) FROM `funcionarios` AS `t0`"+
		" LEFT JOIN `cargos` AS `t1` ON `t0`.`cargo_id` = `t1`.`id`"+
		" WHERE `t1`.`nome` LIKE ?", sql)
	assert.Equal(t, []any{"%dev%"}, args)
}

func TestCondition(t *testing.T) {
	tests := []struct {
		name     string
		cond     *core.Condition
		wantSQL  string
		wantArgs []any
	}{
		{"nil", nil, "1=1", nil},
		{"true", core.True(), "1=1", nil},
		{"is null", field("gerente").Nil(), `"gerente" IS NULL`, nil},
		{"like", field("nome").Like("a%"), `"nome" ILIKE $1`, []any{"a%"}},
		{"ilike", field("nome").ILike("a%"), `LOWER("nome") LIKE $1`, []any{"a%"}},
		{"between", field("idade").Between(18, 65), `"idade" BETWEEN $1 AND $2`, []any{18, 65}},
		{"in", field("id").In(1, 2), `"id" IN ($1, $2)`, []any{1, 2}},
		{"empty in", field("id").In(), "1=0", nil},
		{"gte lte", core.All(field("a").Gte(1), field("b").Lte(2)), `("a" >= $1 AND "b" <= $2)`, []any{1, 2}},
		{"or", field("a").Eq(1).Or(field("b").Lt(2)), `("a" = $1 OR "b" < $2)`, []any{1, 2}},
		{"not", field("a").Gt(1).Not(), `NOT ("a" > $1)`, []any{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := sqlrender.Postgres.Condition(tt.cond, 0)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestCondition_Offset(t *testing.T) {
	sql, args := sqlrender.Postgres.Condition(field("a").Eq("x"), 2)
	assert.Equal(t, `"a" = $3`, sql)
	assert.Equal(t, []any{"x"}, args)
}

func TestInsertUpdateDelete(t *testing.T) {
	sql, args := sqlrender.Postgres.Insert(cidades, &hr.Cidade{ID: 1, Nome: "Recife", UF: "PE"})
	assert.Equal(t, `INSERT INTO "cidades" ("id", "nome", "uf") VALUES ($1, $2, $3)`, sql)
	assert.Equal(t, []any{int64(1), "Recife", "PE"}, args)

	sql, args = sqlrender.Postgres.Update(cidades, field("id").Eq(1), core.Changes{"uf": "PE", "nome": "Olinda"})
	assert.Equal(t, `UPDATE "cidades" SET "nome" = $1, "uf" = $2 WHERE "id" = $3`, sql)
	assert.Equal(t, []any{"Olinda", "PE", 1}, args)

	sql, args = sqlrender.MySQL.Delete(cidades, field("id").In(1, 2))
	assert.Equal(t, "DELETE FROM `cidades` WHERE `id` IN (?, ?)", sql)
	assert.Equal(t, []any{1, 2}, args)
}

func TestTableAndQuote(t *testing.T) {
	assert.Equal(t, `"rh"."cidades"`, sqlrender.Postgres.Table(&core.SchemaCore{Database: "rh", Collection: "cidades"}))
	assert.Equal(t, `"a""b"`, sqlrender.Postgres.Quote(`a"b`))
	assert.Equal(t, "`a``b`", sqlrender.MySQL.Quote("a`b"))
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"postgres": "postgres", "PGX": "postgres", "postgresql": "postgres",
		"mysql": "mysql", "sqlite3": "sqlite", "sqlite": "sqlite",
	} {
		d, err := sqlrender.ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, d.Name)
	}
	_, err := sqlrender.ByName("oracle")
	assert.Error(t, err)
}
