package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leandroluk/golemspec/config"
	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/driver/mongodb"
	"github.com/leandroluk/golemspec/driver/sqlrender"
	"github.com/leandroluk/golemspec/filter"
	"github.com/leandroluk/golemspec/internal/hr"
	"github.com/leandroluk/golemspec/logger"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

type compileOptions struct {
	file    string
	dialect string
	sort    []string
	limit   int
	offset  int
}

func newCompileCmd(configFile *string) *cobra.Command {
	opts := &compileOptions{}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a FuncionarioFilter JSON document",
		Long: `Reads a FuncionarioFilter as JSON (from --file, or stdin) and prints the
query that selects the matching funcionarios: SQL plus arguments for
postgres, mysql and sqlite, an aggregation pipeline for mongo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dialect") {
				opts.dialect = cfg.Database.Dialect
			}
			in := cmd.InOrStdin()
			if opts.file != "" && opts.file != "-" {
				f, err := os.Open(opts.file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runCompile(cmd.OutOrStdout(), in, cfg, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "filter document (default stdin)")
	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", "postgres", "postgres, mysql, sqlite or mongo")
	cmd.Flags().StringArrayVarP(&opts.sort, "sort", "s", nil, `sort item "property[,asc|desc]", repeatable`)
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "page offset")
	return cmd
}

func runCompile(out io.Writer, in io.Reader, cfg *config.Config, opts *compileOptions) error {
	var spec hr.FuncionarioFilter
	decoder := json.NewDecoder(in)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&spec); err != nil && err != io.EOF {
		return fmt.Errorf("decode filter: %w", err)
	}

	sort, err := core.ParseSort(opts.sort...)
	if err != nil {
		return err
	}
	schema := &hr.FuncionarioSchema.SchemaCore
	if len(sort) == 0 {
		sort = schema.DefaultSort
	}

	log := logger.New(os.Stderr, cfg.Logger())
	builder := filter.NewBuilder(append(cfg.BuilderOptions(), filter.WithLogger(log))...)
	root := core.NewRoot(schema, cfg.RootOptions()...)
	compiled, err := builder.Build(&spec, root, sort)
	if err != nil {
		return err
	}
	where := compiled.Where()
	where.Limit, where.Offset = opts.limit, opts.offset

	if strings.EqualFold(opts.dialect, "mongo") {
		doc, err := bson.MarshalExtJSONIndent(bson.D{{Key: "pipeline", Value: mongodb.Pipeline(schema, where)}}, false, false, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(doc))
		return err
	}

	dialect, err := sqlrender.ByName(opts.dialect)
	if err != nil {
		return err
	}
	query, args := dialect.Select(schema, where, false)
	fmt.Fprintln(out, query)
	for i, arg := range args {
		fmt.Fprintf(out, "-- %d: %v\n", i+1, arg)
	}
	return nil
}
