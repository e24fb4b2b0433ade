package automaton

import (
	"fmt"
	"strings"

	"github.com/ava12/gllx/internal/ints"
)

// LookaheadKind selects the context of the goal rule.
type LookaheadKind int

const (
	// EndOfText is used for top level parses: the goal must be followed by the end of text.
	EndOfText LookaheadKind = iota
	// Runtime is used for embedded sub-parses: what follows the goal is checked by the outer parse.
	Runtime
)

func (k LookaheadKind) String() string {
	if k == Runtime {
		return "runtime"
	}
	return "end-of-text"
}

// ParserState is a rule position together with the set of terminals that may follow
// the rule occurrence once it is complete (its context).
// States are unique within ParserStateSet.
type ParserState struct {
	Number       int
	RulePosition RulePosition
	Context      *ints.Set

	set         *ParserStateSet
	closure     *closure
	width       []*Transition
	completions map[int][]*Transition
}

func (s *ParserState) IsGoal() bool {
	return s.RulePosition.Rule == s.set.goalRule
}

// HasNext returns true if the state expects more symbols.
func (s *ParserState) HasNext() bool {
	return s.RulePosition.Next() != nil
}

func (s *ParserState) CanEnd() bool {
	return s.RulePosition.CanEnd()
}

// Label describes state without its number.
func (s *ParserState) Label() string {
	return fmt.Sprintf("%s {%s}", s.RulePosition, s.set.contextNames(s.Context))
}

func (s *ParserState) String() string {
	return fmt.Sprintf("#%d %s", s.Number, s.Label())
}

func stateKey(rp RulePosition, ctx *ints.Set) string {
	return rp.key() + "|" + ctx.Key()
}

func (ss *ParserStateSet) contextNames(ctx *ints.Set) string {
	return strings.Join(ss.ruleSet.Names(ctx.ToSlice()), " ")
}
