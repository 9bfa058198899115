package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/rules"
)

var flagVerbose int

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Parallel multi-language lint engine",
	Long:          "Understory parses source files with tree-sitter, runs pluggable rules against the semantic model on a batch-parallel worker pool, and reports diagnostics with per-rule timing metrics.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase verbosity (-v info, -vv trace)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(historyCmd)
}

// verbosity maps the -v count onto the engine's levels.
func verbosity() understory.Verbosity {
	switch {
	case flagVerbose >= 2:
		return understory.VerbosityTrace
	case flagVerbose == 1:
		return understory.VerbosityInfo
	}
	return understory.VerbosityError
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := rules.DefaultRegistry()
		for _, name := range reg.RegisteredRules() {
			fmt.Printf("%-20s %s\n", name, reg.Rule(name).Description())
		}
		return nil
	},
}
