package automaton

import (
	"testing"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/test"
)

type positionStep struct {
	position int
	next     string
	canEnd   bool
}

func checkPositions(t *testing.T, rp RulePosition, steps []positionStep) {
	t.Helper()
	for i, step := range steps {
		if i > 0 {
			rp = rp.Advance()
		}
		test.ExpectInt(t, step.position, rp.Position)
		next := ""
		if n := rp.Next(); n != nil {
			next = n.Name
		}
		test.ExpectString(t, step.next, next)
		test.ExpectBool(t, step.canEnd, rp.CanEnd())
		test.ExpectBool(t, step.position == EndPosition, rp.IsAtEnd())
	}
}

func positionRules(t *testing.T) *grammar.RuleSet {
	b := grammar.NewBuilder("positions")
	a, comma := grammar.Lit("a"), grammar.Lit(",")
	b.Concatenation("Seq", a, comma)
	b.Multi("Any", 0, grammar.Unbounded, a)
	b.Multi("TwoThree", 2, 3, a)
	b.Multi("ThreeMore", 3, grammar.Unbounded, a)
	b.SeparatedList("List", 1, grammar.Unbounded, a, comma)
	b.SeparatedList("Pair", 0, 2, a, comma)
	rs, e := b.Build()
	test.ExpectNoError(t, e)
	return rs
}

func TestSequencePositions(t *testing.T) {
	rs := positionRules(t)
	checkPositions(t, Start(rs.FindRule("Seq"), 0), []positionStep{
		{0, "'a'", false},
		{1, "','", false},
		{EndPosition, "", true},
	})
	checkPositions(t, Start(rs.FindRule("'a'"), 0), []positionStep{
		{EndPosition, "", true},
	})
	checkPositions(t, Start(rs.FindRule("Any"), 1), []positionStep{
		{0, grammar.EmptyName, false},
		{EndPosition, "", true},
	})
}

func TestMultiPositions(t *testing.T) {
	rs := positionRules(t)
	checkPositions(t, Start(rs.FindRule("Any"), 0), []positionStep{
		{0, "'a'", false},
		{1, "'a'", true},
		{1, "'a'", true},
	})
	checkPositions(t, Start(rs.FindRule("TwoThree"), 0), []positionStep{
		{0, "'a'", false},
		{1, "'a'", false},
		{2, "'a'", true},
		{EndPosition, "", true},
	})
	checkPositions(t, Start(rs.FindRule("ThreeMore"), 0), []positionStep{
		{0, "'a'", false},
		{1, "'a'", false},
		{2, "'a'", false},
		{3, "'a'", true},
		{3, "'a'", true},
	})
}

func TestSeparatedListPositions(t *testing.T) {
	rs := positionRules(t)
	checkPositions(t, Start(rs.FindRule("List"), 0), []positionStep{
		{0, "'a'", false},
		{1, "','", true},
		{2, "'a'", false},
		{1, "','", true},
	})
	checkPositions(t, Start(rs.FindRule("Pair"), 0), []positionStep{
		{0, "'a'", false},
		{1, "','", true},
		{2, "'a'", false},
		{EndPosition, "", true},
	})
}

func TestAdvanceAtEndPanics(t *testing.T) {
	rs := positionRules(t)
	defer func() {
		test.Assert(t, recover() != nil, "expecting panic")
	}()
	End(rs.FindRule("Seq"), 0).Advance()
}
