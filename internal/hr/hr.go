// Package hr is a small human-resources domain used by the command line
// tool and the driver tests: employees with a role, a department and an
// address in a city.
package hr

import (
	"time"

	"github.com/google/uuid"
	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/filter"
	"github.com/shopspring/decimal"
)

// Auditable holds the audit columns shared by every entity.
type Auditable struct {
	CreatedAt time.Time `db:"created_at" sort:"priority=1,desc"`
}

type Cidade struct {
	ID   int64  `db:"id"`
	Nome string `db:"nome" sort:"priority=0"`
	UF   string `db:"uf"`
}

type Endereco struct {
	ID         int64   `db:"id"`
	Logradouro string  `db:"logradouro"`
	Bairro     string  `db:"bairro"`
	CidadeID   int64   `db:"cidade_id"`
	Cidade     *Cidade `db:"-"`
}

type Cargo struct {
	ID            int64           `db:"id"`
	Nome          string          `db:"nome" sort:"priority=0"`
	Nivel         string          `db:"nivel"`
	SalarioMinimo decimal.Decimal `db:"salario_minimo"`
}

type Departamento struct {
	ID   uuid.UUID `db:"id"`
	Nome string    `db:"nome" sort:"priority=0"`
}

// Funcionario is an employee. Unsorted listings order by name, then by
// creation time, newest first.
type Funcionario struct {
	Auditable
	ID             int64           `db:"id"`
	NomeCompleto   string          `db:"nome_completo" sort:"priority=0"`
	Email          string          `db:"email"`
	Salario        decimal.Decimal `db:"salario"`
	DataAdmissao   time.Time       `db:"data_admissao"`
	Ativo          bool            `db:"ativo"`
	CargoID        int64           `db:"cargo_id"`
	DepartamentoID uuid.UUID       `db:"departamento_id"`
	EnderecoID     int64           `db:"endereco_id"`

	Cargo        *Cargo        `db:"-"`
	Departamento *Departamento `db:"-"`
	Endereco     *Endereco     `db:"-"`
}

// FuncionarioFilter is the search form of employees.
type FuncionarioFilter struct {
	NomeCompleto   string            `json:"nomeCompleto" filter:"like"`
	Email          string            `json:"email" filter:"eq"`
	CargoID        *int64            `json:"cargoId" filter:"eq,relation=cargo.id"`
	CargoNome      string            `json:"cargoNome" filter:"like,relation=cargo.nome"`
	DepartamentoID *uuid.UUID        `json:"departamentoId" filter:"eq,relation=departamento.id"`
	Cidade         string            `json:"cidade" filter:"like,relation=endereco.cidade.nome"`
	UF             []string          `json:"uf" filter:"in,relation=endereco.cidade.uf"`
	SalarioAcima   *decimal.Decimal  `json:"salarioAcima" filter:"gt,relation=salario"`
	SalarioBruto   []decimal.Decimal `json:"salarioBruto" filter:"between,relation=salario"`
	DataAdmissao   []filter.Date     `json:"dataAdmissao" filter:"between"`
	AdmitidoAntes  *filter.Date      `json:"admitidoAntes" filter:"lt,relation=dataAdmissao"`
	Ativo          *bool             `json:"ativo" filter:"eq"`
	IDs            []int64           `json:"ids" filter:"in,relation=id"`
}

var (
	CidadeSchema = core.Schema[Cidade](
		core.Table[Cidade]("cidades"),
		core.OverrideField(func(c *Cidade) *int64 { return &c.ID }, core.PrimaryKey()),
	)
	EnderecoSchema = core.Schema[Endereco](
		core.Table[Endereco]("enderecos"),
		core.OverrideField(func(e *Endereco) *int64 { return &e.ID }, core.PrimaryKey()),
	)
	CargoSchema = core.Schema[Cargo](
		core.Table[Cargo]("cargos"),
		core.OverrideField(func(c *Cargo) *int64 { return &c.ID }, core.PrimaryKey()),
		core.OverrideField(func(c *Cargo) *string { return &c.Nome }, core.Unique(), core.Required()),
	)
	DepartamentoSchema = core.Schema[Departamento](
		core.Table[Departamento]("departamentos"),
		core.OverrideField(func(d *Departamento) *uuid.UUID { return &d.ID }, core.PrimaryKey()),
	)
	FuncionarioSchema = core.Schema[Funcionario](
		core.Table[Funcionario]("funcionarios"),
		core.OverrideField(func(f *Funcionario) *int64 { return &f.ID }, core.PrimaryKey()),
		core.OverrideField(func(f *Funcionario) *string { return &f.Email }, core.Unique(), core.Required()),
		core.OverrideField(func(f *Funcionario) *time.Time { return &f.CreatedAt }, core.CreatedAt()),
	)
)

func init() {
	core.AddRelation(EnderecoSchema, core.Relation[Endereco, Cidade, any]{
		Kind:       core.OneToOne,
		Field:      func(e *Endereco) **Cidade { return &e.Cidade },
		RefSchema:  CidadeSchema,
		LocalKey:   func(e *Endereco) *int64 { return &e.CidadeID },
		ForeignKey: func(c *Cidade) *int64 { return &c.ID },
	})
	core.AddRelation(FuncionarioSchema, core.Relation[Funcionario, Cargo, any]{
		Kind:       core.OneToOne,
		Field:      func(f *Funcionario) **Cargo { return &f.Cargo },
		RefSchema:  CargoSchema,
		LocalKey:   func(f *Funcionario) *int64 { return &f.CargoID },
		ForeignKey: func(c *Cargo) *int64 { return &c.ID },
	})
	core.AddRelation(FuncionarioSchema, core.Relation[Funcionario, Departamento, any]{
		Kind:       core.OneToOne,
		Field:      func(f *Funcionario) **Departamento { return &f.Departamento },
		RefSchema:  DepartamentoSchema,
		LocalKey:   func(f *Funcionario) *uuid.UUID { return &f.DepartamentoID },
		ForeignKey: func(d *Departamento) *uuid.UUID { return &d.ID },
	})
	core.AddRelation(FuncionarioSchema, core.Relation[Funcionario, Endereco, any]{
		Kind:       core.OneToOne,
		Field:      func(f *Funcionario) **Endereco { return &f.Endereco },
		RefSchema:  EnderecoSchema,
		LocalKey:   func(f *Funcionario) *int64 { return &f.EnderecoID },
		ForeignKey: func(e *Endereco) *int64 { return &e.ID },
	})
}
