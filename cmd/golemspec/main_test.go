package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/leandroluk/golemspec/config"
	"github.com/leandroluk/golemspec/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Log.Level = "ERROR"
	return cfg
}

func TestRunCompile_Postgres(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"cargoNome": "Dev", "uf": ["PE"]}`)
	require.NoError(t, runCompile(&out, in, testConfig(t), &compileOptions{dialect: "postgres", limit: 20}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	sql := lines[0]
	assert.True(t, strings.HasPrefix(sql, `SELECT "t0".`), sql)
	assert.Contains(t, sql, ` FROM "funcionarios" AS "t0"`+
		` LEFT JOIN "cargos" AS "t1" ON "t0"."cargo_id" = "t1"."id"`+
		` LEFT JOIN "enderecos" AS "t2" ON "t0"."endereco_id" = "t2"."id"`+
		` LEFT JOIN "cidades" AS "t3" ON "t2"."cidade_id" = "t3"."id"`+
		` WHERE (LOWER("t1"."nome") LIKE $1 AND "t3"."uf" IN ($2))`+
		` ORDER BY "t0"."nome_completo" ASC, "t0"."created_at" DESC LIMIT 20`)
	assert.Equal(t, "-- 1: %dev%", lines[1])
	assert.Equal(t, "-- 2: PE", lines[2])
}

func TestRunCompile_SortByFilterField(t *testing.T) {
	var out bytes.Buffer
	opts := &compileOptions{dialect: "sqlite", sort: []string{"cidade,desc"}, offset: 10}
	require.NoError(t, runCompile(&out, strings.NewReader(`{}`), testConfig(t), opts))
	assert.Contains(t, out.String(), `LEFT JOIN "cidades" AS "t2"`)
	assert.Contains(t, out.String(), ` WHERE 1=1 ORDER BY "t2"."nome" DESC LIMIT -1 OFFSET 10`)
}

func TestRunCompile_Mongo(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"cidade": "recife"}`)
	require.NoError(t, runCompile(&out, in, testConfig(t), &compileOptions{dialect: "mongo"}))
	doc := out.String()
	assert.Contains(t, doc, `"pipeline"`)
	assert.Contains(t, doc, `"$lookup"`)
	assert.Contains(t, doc, `"Endereco.Cidade.nome"`)
	assert.Contains(t, doc, `^.*recife.*$`)
}

func TestRunCompile_EmptyInput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runCompile(&out, strings.NewReader(""), testConfig(t), &compileOptions{dialect: "mysql"}))
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), "FROM `funcionarios` AS `t0` WHERE 1=1 ORDER BY")
}

func TestRunCompile_Errors(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := runCompile(&out, strings.NewReader(`{"salario": 1}`), cfg, &compileOptions{dialect: "postgres"})
	assert.ErrorContains(t, err, "decode filter")

	err = runCompile(&out, strings.NewReader(`{"dataAdmissao": ["2020-01-01"]}`), cfg, &compileOptions{dialect: "postgres"})
	var arity *filter.ArityError
	assert.True(t, errors.As(err, &arity), "%v", err)

	err = runCompile(&out, strings.NewReader(`{}`), cfg, &compileOptions{dialect: "oracle"})
	assert.Error(t, err)

	err = runCompile(&out, strings.NewReader(`{}`), cfg, &compileOptions{dialect: "postgres", sort: []string{"id,sideways"}})
	assert.Error(t, err)
}

func TestRunSort(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSort(&out, filter.NewBuilder(), nil))
	assert.Equal(t, "NomeCompleto,asc\nCreatedAt,desc\n", out.String())

	out.Reset()
	require.NoError(t, runSort(&out, filter.NewBuilder(), []string{"cargoId,desc", "email"}))
	assert.Equal(t, "cargoId,desc -> cargo.id,desc\nemail,asc -> email,asc\n", out.String())
}

func TestRootCmd(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sort", "uf"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "uf,asc -> endereco.cidade.uf,asc\n", out.String())

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(`{"ids": [1, 2]}`))
	cmd.SetArgs([]string{"compile", "--dialect", "mysql"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "WHERE (`t0`.`id` IN (?, ?))")
	assert.Contains(t, out.String(), "-- 1: 1\n-- 2: 2\n")
}
