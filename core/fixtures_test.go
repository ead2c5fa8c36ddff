package core_test

import (
	"time"

	"github.com/leandroluk/golemspec/core"
)

type Base struct {
	CriadoEm time.Time `db:"criado_em" sort:"priority=1,desc"`
}

type Pessoa struct {
	Base
	ID         int64     `db:"id"`
	Nome       string    `db:"nome" sort:"priority=0"`
	Idade      int       `db:"idade"`
	EnderecoID int64     `db:"endereco_id"`
	Endereco   *Endereco `db:"-"`
	Tags       []Tag     `db:"-"`
}

type Endereco struct {
	ID     int64  `db:"id"`
	Cidade string `db:"cidade"`
	PaisID int64  `db:"pais_id"`
	Pais   *Pais  `db:"-"`
}

type Pais struct {
	ID   int64  `db:"id"`
	Nome string `db:"nome"`
}

type Tag struct {
	ID   int64  `db:"id"`
	Nome string `db:"nome"`
}

type PessoaTag struct {
	PessoaID int64 `db:"pessoa_id"`
	TagID    int64 `db:"tag_id"`
}

var (
	paisSchema     = core.Schema[Pais](core.Table[Pais]("paises"))
	enderecoSchema = core.Schema[Endereco](core.Table[Endereco]("enderecos"))
	tagSchema      = core.Schema[Tag](core.Table[Tag]("tags"))
	pessoaSchema   = core.Schema[Pessoa](
		core.Table[Pessoa]("pessoas"),
		core.OverrideField(func(p *Pessoa) *int64 { return &p.ID }, core.PrimaryKey()),
		core.OverrideField(func(p *Pessoa) *time.Time { return &p.CriadoEm }, core.CreatedAt()),
	)
)

func init() {
	core.AddRelation(enderecoSchema, core.Relation[Endereco, Pais, any]{
		Kind:       core.OneToOne,
		Field:      func(e *Endereco) **Pais { return &e.Pais },
		RefSchema:  paisSchema,
		LocalKey:   func(e *Endereco) *int64 { return &e.PaisID },
		ForeignKey: func(p *Pais) *int64 { return &p.ID },
	})
	core.AddRelation(pessoaSchema, core.Relation[Pessoa, Endereco, any]{
		Kind:       core.OneToOne,
		Field:      func(p *Pessoa) **Endereco { return &p.Endereco },
		RefSchema:  enderecoSchema,
		LocalKey:   func(p *Pessoa) *int64 { return &p.EnderecoID },
		ForeignKey: func(e *Endereco) *int64 { return &e.ID },
	})
	core.AddRelation(pessoaSchema, core.Relation[Pessoa, Tag, PessoaTag]{
		Kind:           core.ManyToMany,
		Field:          func(p *Pessoa) *[]Tag { return &p.Tags },
		RefSchema:      tagSchema,
		LocalKey:       func(p *Pessoa) *int64 { return &p.ID },
		ForeignKey:     func(t *Tag) *int64 { return &t.ID },
		JoinTable:      "pessoa_tags",
		JoinLocalKey:   func(j *PessoaTag) *int64 { return &j.PessoaID },
		JoinForeignKey: func(j *PessoaTag) *int64 { return &j.TagID },
	})
}
