package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava12/gllx/automaton"
	"github.com/ava12/gllx/parser"
)

func newAutomatonCmd() *cobra.Command {
	var gf grammarFlags
	var runtime bool

	cmd := &cobra.Command{
		Use:   "automaton",
		Short: "Build and print the complete automaton for a goal production",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := gf.load()
			if err != nil {
				return err
			}

			kind := automaton.EndOfText
			if runtime {
				kind = automaton.Runtime
			}

			p := parser.New(rs)
			if err := p.BuildFor(gf.goal, kind); err != nil {
				return err
			}

			ss, err := p.Automaton(gf.goal, kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, ss.String())
			fmt.Fprintf(out, "%d states, %d transitions\n", len(ss.States()), len(ss.Transitions()))
			return nil
		},
	}

	gf.register(cmd, true)
	cmd.Flags().BoolVar(&runtime, "runtime", false, "build automaton for embedded use (lookahead resolved at runtime)")

	return cmd
}
