package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava12/gllx/scanner"
)

func newScanCmd() *cobra.Command {
	var gf grammarFlags

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Split a file into terminals without parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := gf.load()
			if err != nil {
				return err
			}

			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			for _, l := range scanner.New(rs, src).Scan() {
				line, col := src.LineCol(l.Start)
				fmt.Fprintf(cmd.OutOrStdout(), "%d:%d\t%s\t%q\n", line, col, l.Name(), src.Content()[l.Start:l.End()])
			}
			return nil
		},
	}

	gf.register(cmd, false)

	return cmd
}
