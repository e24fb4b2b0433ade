/*
gllx is a console utility parsing files with a grammar written in EBNF (golang.org/x/exp/ebnf dialect).
Usage is

	gllx [-v...] parse --grammar <file> --goal <name> [--skip <name>]... [--lines] [--stats] <file>
	gllx [-v...] scan --grammar <file> [--skip <name>]... <file>
	gllx [-v...] automaton --grammar <file> --goal <name> [--skip <name>]... [--runtime]

parse prints the shared packed parse tree of the file or parse issues, --stats adds parse statistics;

scan prints terminals found at each position, unknown text included;

automaton builds complete automaton for the goal rule and prints its states and transitions;

-v increases log verbosity, may be repeated.

Input file "-" means standard input.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func newRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:           "gllx",
		Short:         "Generalized parser for EBNF grammars",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbosity, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newAutomatonCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
