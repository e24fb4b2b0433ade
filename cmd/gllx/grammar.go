package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava12/gllx/ebnf"
	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/source"
)

type grammarFlags struct {
	file string
	goal string
	skip []string
}

func (gf *grammarFlags) register(cmd *cobra.Command, needGoal bool) {
	cmd.Flags().StringVarP(&gf.file, "grammar", "g", "", "EBNF grammar file")
	cmd.Flags().StringSliceVarP(&gf.skip, "skip", "s", nil, "lexical production skipped between terminals, may be repeated")
	_ = cmd.MarkFlagRequired("grammar")
	if needGoal {
		cmd.Flags().StringVar(&gf.goal, "goal", "", "goal production")
		_ = cmd.MarkFlagRequired("goal")
	}
}

func (gf *grammarFlags) load() (*grammar.RuleSet, error) {
	f, err := os.Open(gf.file)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return ebnf.Load(gf.file, f, ebnf.Options{Start: gf.goal, Skip: gf.skip})
}

func readSource(cmd *cobra.Command, name string) (*source.Source, error) {
	var content []byte
	var err error
	if name == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return source.New(name, string(content)), nil
}
