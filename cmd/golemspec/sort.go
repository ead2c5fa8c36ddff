package main

import (
	"fmt"
	"io"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/filter"
	"github.com/leandroluk/golemspec/internal/hr"
	"github.com/spf13/cobra"
)

func newSortCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sort [property[,asc|desc]]...",
		Short: "Show how a sort request is resolved for funcionarios",
		Long: `Without arguments prints the default sort of Funcionario. Otherwise
prints each requested item rewritten against FuncionarioFilter: items
naming a relation-bound filter field are replaced by the relation path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			return runSort(cmd.OutOrStdout(), filter.NewBuilder(cfg.BuilderOptions()...), args)
		},
	}
}

func runSort(out io.Writer, builder *filter.Builder, args []string) error {
	requested, err := core.ParseSort(args...)
	if err != nil {
		return err
	}
	if len(requested) == 0 {
		for _, s := range hr.FuncionarioSchema.DefaultSort {
			fmt.Fprintln(out, s)
		}
		return nil
	}
	for i, s := range builder.Rewrite(requested, hr.FuncionarioFilter{}) {
		fmt.Fprintf(out, "%s -> %s\n", requested[i], s)
	}
	return nil
}
