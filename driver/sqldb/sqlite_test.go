package sqldb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/driver/sqldb"
	"github.com/leandroluk/golemspec/internal/hr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sqliteDDL = []string{
	`CREATE TABLE cidades (id INTEGER PRIMARY KEY, nome TEXT NOT NULL, uf TEXT NOT NULL)`,
	`CREATE TABLE enderecos (id INTEGER PRIMARY KEY, logradouro TEXT NOT NULL, bairro TEXT NOT NULL, cidade_id INTEGER)`,
}

func openSQLite(t *testing.T) (*sqldb.Driver, *core.Model[hr.Endereco]) {
	t.Helper()
	ctx := context.Background()
	driver, err := sqldb.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection of :memory: is a new database
	driver.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { driver.Close(ctx) })
	require.NoError(t, driver.Connect(ctx))
	for _, ddl := range sqliteDDL {
		_, err = driver.DB().ExecContext(ctx, ddl)
		require.NoError(t, err)
	}

	cidades := core.NewModel(hr.CidadeSchema, driver)
	for _, c := range []hr.Cidade{
		{ID: 1, Nome: "São Paulo", UF: "SP"},
		{ID: 2, Nome: "Recife", UF: "PE"},
		{ID: 3, Nome: "Olinda", UF: "PE"},
	} {
		require.NoError(t, cidades.Create(ctx, &c))
	}
	enderecos := core.NewModel(hr.EnderecoSchema, driver)
	for _, e := range []hr.Endereco{
		{ID: 1, Logradouro: "Av. Paulista", Bairro: "Bela Vista", CidadeID: 1},
		{ID: 2, Logradouro: "Rua da Aurora", Bairro: "Boa Vista", CidadeID: 2},
		{ID: 3, Logradouro: "Rua do Amparo", Bairro: "Carmo", CidadeID: 3},
		{ID: 4, Logradouro: "Rua Augusta", Bairro: "Consolação", CidadeID: 1},
		{ID: 5, Logradouro: "Rua Sem Cidade", Bairro: "Centro"},
	} {
		require.NoError(t, enderecos.Create(ctx, &e))
	}
	return driver, enderecos
}

func logradouros(list []hr.Endereco) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Logradouro
	}
	return out
}

func TestSQLite_Filter(t *testing.T) {
	_, enderecos := openSQLite(t)
	ctx := context.Background()
	byID := core.Page{Sort: []core.Sort{{FieldName: "id", Order: core.Asc}}}

	tests := []struct {
		name string
		spec EnderecoFilter
		want []string
	}{
		{"no active fields", EnderecoFilter{}, []string{"Av. Paulista", "Rua da Aurora", "Rua do Amparo", "Rua Augusta", "Rua Sem Cidade"}},
		{"like", EnderecoFilter{Logradouro: "rua a"}, []string{"Rua Augusta"}},
		{"like through a relation", EnderecoFilter{Cidade: "RECIFE"}, []string{"Rua da Aurora"}},
		{"in through a relation", EnderecoFilter{UF: []string{"PE"}}, []string{"Rua da Aurora", "Rua do Amparo"}},
		{"in", EnderecoFilter{IDs: []int64{1, 5}}, []string{"Av. Paulista", "Rua Sem Cidade"}},
		{"shared join", EnderecoFilter{Cidade: "o", UF: []string{"PE"}}, []string{"Rua do Amparo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enderecos.Filter(ctx, tt.spec, byID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, logradouros(got))

			n, err := enderecos.FilterCount(ctx, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)
		})
	}
}

func TestSQLite_SortByFilterField(t *testing.T) {
	_, enderecos := openSQLite(t)
	sort, err := core.ParseSort("cidade,desc", "id")
	require.NoError(t, err)

	got, err := enderecos.Filter(context.Background(), EnderecoFilter{UF: []string{"SP", "PE"}}, core.Page{Sort: sort, Limit: 3})
	require.NoError(t, err)
	// São Paulo > Recife > Olinda
	assert.Equal(t, []string{"Av. Paulista", "Rua Augusta", "Rua da Aurora"}, logradouros(got))
}

func TestSQLite_Include(t *testing.T) {
	_, enderecos := openSQLite(t)
	q := enderecos.NewQuery().Filter(func(f core.Filter[hr.Endereco]) []*core.Condition {
		return []*core.Condition{f.Where(func(e *hr.Endereco) any { return &e.ID }).Eq(int64(2))}
	})
	got, err := enderecos.FindOne(q).Include(func(e *hr.Endereco) any { return &e.Cidade }).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Cidade)
	assert.Equal(t, "Recife", got.Cidade.Nome)
}

func TestSQLite_Transaction(t *testing.T) {
	driver, enderecos := openSQLite(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := core.RunTransaction(ctx, driver, func(ctx context.Context) error {
		if err := enderecos.Create(ctx, &hr.Endereco{ID: 6, Logradouro: "Rua Nova", Bairro: "Centro", CidadeID: 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := enderecos.FilterCount(ctx, EnderecoFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	changes := core.Changes{"bairro": "Recife Antigo"}
	require.NoError(t, core.RunTransaction(ctx, driver, func(ctx context.Context) error {
		return enderecos.Update(ctx, (&core.Condition{FieldName: "id"}).Eq(int64(2)), changes)
	}))
	got, err := enderecos.Filter(ctx, EnderecoFilter{IDs: []int64{2}}, core.Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Recife Antigo", got[0].Bairro)
}
