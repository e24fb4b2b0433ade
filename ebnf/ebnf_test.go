package ebnf

import (
	"strings"
	"testing"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/test"
	"github.com/ava12/gllx/parser"
	"github.com/ava12/gllx/sppt"
)

const calcGrammar = `
Expr = Term { ("+" | "-") Term } .
Term = number | "(" Expr ")" .
number = digit { digit } .
digit = "0" … "9" .
space = " " { " " } .
`

func loadCalc(t *testing.T) *grammar.RuleSet {
	t.Helper()
	rs, e := Load("calc", strings.NewReader(calcGrammar), Options{Start: "Expr", Skip: []string{"space"}})
	test.ExpectNoError(t, e)
	return rs
}

func TestRules(t *testing.T) {
	rs := loadCalc(t)

	test.Assert(t, rs.FindRule("digit") == nil, "inlined production must not become a rule")
	number := rs.FindRule("number")
	test.Assert(t, number != nil && number.IsPattern && !number.IsSkip, "number must be a pattern terminal")
	space := rs.FindRule("space")
	test.Assert(t, space != nil && space.IsSkip, "space must be a skip terminal")
	test.Assert(t, rs.FindTerminalByLiteral("+") != nil, "literal '+' must be declared")

	test.Assert(t, !rs.FindRule("Expr").IsTerminal(), "Expr must be a non-terminal")
	term := rs.FindRule("Term")
	test.ExpectInt(t, 2, term.OptionCount())
	test.Expect(t, term.Item.Kind == grammar.ChoiceItem, grammar.ChoiceItem, term.Item.Kind)
}

func TestParse(t *testing.T) {
	rs := loadCalc(t)
	p := parser.New(rs)

	r := p.Parse("Expr", "1 + (23-4)")
	test.ExpectNoError(t, r.Err())

	names := make([]string, 0)
	texts := make([]string, 0)
	for _, l := range r.Tree.Leaves() {
		names = append(names, l.Name)
		texts = append(texts, l.Text)
	}
	test.ExpectString(t, "number space '+' space '(' number '-' number ')'", strings.Join(names, " "))
	test.ExpectString(t, "1| |+| |(|23|-|4|)", strings.Join(texts, "|"))
	test.ExpectInt(t, 4, len(r.Tree.Find(sppt.IsA("Term"))))

	r = p.Parse("Expr", "1 + ")
	test.ExpectErrorCode(t, parser.UnexpectedEndError, r.Err())
}

func TestOptionalParts(t *testing.T) {
	rs, e := Load("list", strings.NewReader(`
List = [ Item { "," Item } ] .
Item = "a" | Nothing .
Nothing = .
`), Options{})
	test.ExpectNoError(t, e)
	p := parser.New(rs)

	for _, s := range []string{"", "a", "a,a", ",", "a,,a"} {
		r := p.Parse("List", s)
		test.ExpectNoError(t, r.Err())
	}
	test.ExpectErrorCode(t, parser.UnexpectedInputError, p.Parse("List", "aa").Err())
}

func TestLoadErrors(t *testing.T) {
	samples := []struct {
		grammar string
		opts    Options
		code    int
	}{
		{`Expr = ( .`, Options{}, WrongGrammarError},
		{`Expr = Missing .`, Options{}, WrongGrammarError},
		{`Expr = "x" . Unused = "y" .`, Options{Start: "Expr"}, WrongGrammarError},
		{`Expr = name . name = "x" name .`, Options{}, RecursiveTokenError},
		{`Expr = "x" .`, Options{Skip: []string{"blank"}}, WrongSkipError},
		{`Expr = "x" .`, Options{Skip: []string{"Expr"}}, WrongSkipError},
	}

	for _, s := range samples {
		_, e := Load("test", strings.NewReader(s.grammar), s.opts)
		test.ExpectErrorCode(t, s.code, e)
	}

	_, e := Load("test", strings.NewReader(`Expr = "x" . Other = "y" .`), Options{})
	test.ExpectNoError(t, e)
}
