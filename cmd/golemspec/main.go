// Command golemspec compiles filter documents for the hr sample schema
// and prints the query each backend would run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	rootCmd := &cobra.Command{
		Use:           "golemspec",
		Short:         "Compile filter documents into SQL or MongoDB queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./golem.yaml)")
	rootCmd.AddCommand(newCompileCmd(&configFile), newSortCmd(&configFile))
	return rootCmd
}
