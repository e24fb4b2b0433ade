package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ava12/gllx/parser"
	"github.com/ava12/gllx/sppt"
)

func newParseCmd() *cobra.Command {
	var gf grammarFlags
	var timeout time.Duration
	var lines, allEmbedded, stats bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file and print its parse tree",
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

			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			p := parser.New(rs, parser.WithEmbeddedLongest(!allEmbedded))
			r := p.ParseSource(ctx, gf.goal, src)
			out := cmd.OutOrStdout()
			if !r.IsSuccess() {
				for _, issue := range r.Issues {
					fmt.Fprintf(out, "%s:%d:%d: %s\n", src.Name(), issue.Location.Line, issue.Location.Column, issue.Message)
				}
				return errors.New("parse failed")
			}

			if lines {
				printLines(out, r.Tree)
			} else {
				fmt.Fprintln(out, r.Tree.String())
			}
			if stats {
				fmt.Fprintf(out, "%d tree nodes, %d max heads, %d accepted heads\n",
					r.Tree.NumNodes(), r.MaxNumHeads, r.AcceptedHeads)
			}
			return nil
		},
	}

	gf.register(cmd, true)
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "parse timeout, 0 means no timeout")
	cmd.Flags().BoolVar(&lines, "lines", false, "print terminals line by line instead of the tree")
	cmd.Flags().BoolVar(&stats, "stats", false, "print tree size and stack statistics")
	cmd.Flags().BoolVar(&allEmbedded, "all-embedded", false, "try every completion of embedded rules, not only the longest")

	return cmd
}

func printLines(w io.Writer, td *sppt.TreeData) {
	src := td.Source()
	for line := 1; line <= src.LineCount(); line++ {
		for _, l := range td.TokensByLine(line) {
			_, col := src.LineCol(l.Start)
			fmt.Fprintf(w, "%d:%d\t%s\t%q\t%s\n", line, col, l.Name, l.Text, strings.Join(l.Path, "/"))
		}
	}
}
