package parser

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ava12/gllx"
	"github.com/ava12/gllx/automaton"
	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/test"
	"github.com/ava12/gllx/sppt"
)

func buildRules(t *testing.T, build func(b *grammar.Builder)) *grammar.RuleSet {
	t.Helper()
	b := grammar.NewBuilder("test")
	build(b)
	rs, e := b.Build()
	test.ExpectNoError(t, e)
	return rs
}

func expectTree(t *testing.T, p *Parser, goal, sentence, tree string) *ParseResult {
	t.Helper()
	r := p.Parse(goal, sentence)
	test.ExpectNoError(t, r.Err())
	test.Assert(t, r.IsSuccess(), "parse of %q failed", sentence)
	if tree != "" {
		expected, e := sppt.Read(p.RuleSet(), tree)
		test.ExpectNoError(t, e)
		test.Assert(t, expected.Equal(r.Tree), "expecting %s, got %s", tree, r.Tree)
	}

	again, e := sppt.Read(p.RuleSet(), r.Tree.String())
	test.ExpectNoError(t, e)
	test.Assert(t, again.Equal(r.Tree), "round trip failed for %s", r.Tree)
	return r
}

func expectFailure(t *testing.T, p *Parser, goal, sentence string, position int, expected ...string) *ParseResult {
	t.Helper()
	r := p.Parse(goal, sentence)
	test.Assert(t, r.Tree == nil && !r.IsSuccess(), "%q parsed", sentence)
	test.ExpectInt(t, 1, len(r.Issues))
	issue := r.Issues[0]
	test.Expect(t, issue.Kind == SyntaxIssue, SyntaxIssue, issue.Kind)
	test.ExpectInt(t, position, issue.Location.Position)

	got := append([]string(nil), issue.Expected...)
	sort.Strings(got)
	sort.Strings(expected)
	test.Expect(t, strings.Join(expected, " ") == strings.Join(got, " "), expected, got)
	return r
}

func TestSimpleTree(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Skip("space", `\s+`)
		b.Pattern("num", `\d+`)
		b.Choice("Sum", grammar.ChoiceEqual, []string{"Sum", grammar.Lit("+"), "num"}, []string{"num"})
	})
	p := New(rs)

	expectTree(t, p, "Sum", "1", `Sum|1 { num : '1' }`)
	expectTree(t, p, "Sum", "1+2", `Sum { Sum|1 { num : '1' } '+' num : '2' }`)
	expectTree(t, p, "Sum", " 1 + 2 ",
		`Sum { space : ' ' Sum|1 { num : '1' space : ' ' } '+' space : ' ' num : '2' space : ' ' }`)
	test.ExpectErrorCode(t, UnexpectedEndError, p.Parse("Sum", "  ").Err())
}

func TestAmbiguityCompleteness(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Choice("S", grammar.ChoiceEqual, []string{grammar.Lit("a")}, []string{"A"})
		b.Concatenation("A", grammar.Lit("a"))
	})
	p := New(rs)

	r := expectTree(t, p, "S", "a", `S(*0) { 'a' } S|1(*1) { A { 'a' } }`)
	root := r.Tree.Root()
	test.Assert(t, r.Tree.IsAmbiguous(root), "root must be ambiguous")
	alts := r.Tree.ChildrenFor(root)
	test.ExpectInt(t, 2, len(alts))
	options := []int{alts[0].Option, alts[1].Option}
	sort.Ints(options)
	test.ExpectInt(t, 0, options[0])
	test.ExpectInt(t, 1, options[1])
}

func TestPriorityChoice(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Choice("S", grammar.ChoicePriority, []string{"A"}, []string{grammar.Lit("a")})
		b.Concatenation("A", grammar.Lit("a"))
	})

	r := expectTree(t, New(rs), "S", "a", `S { A { 'a' } }`)
	test.Assert(t, !r.Tree.IsAmbiguous(r.Tree.Root()), "priority choice must not be ambiguous")
}

func TestOptionalBoundary(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Concatenation("S", b.Opt(grammar.Lit("a")), b.Opt(grammar.Lit("b")), b.Opt(grammar.Lit("c")))
	})
	p := New(rs)

	for _, sentence := range []string{"", "a", "b", "c", "ab", "ac", "bc", "abc"} {
		r := expectTree(t, p, "S", sentence, "")
		test.ExpectInt(t, 1, r.AcceptedHeads)
	}

	r := expectFailure(t, p, "S", "ba", 1, grammar.Lit("c"), grammar.EotName)
	issue := r.Issues[0]
	test.ExpectString(t, "a", issue.Found)
	test.ExpectInt(t, 1, issue.Location.Line)
	test.ExpectInt(t, 2, issue.Location.Column)
	test.ExpectInt(t, 1, issue.Location.Length)

	expectFailure(t, p, "S", "cc", 1, grammar.EotName)
	expectFailure(t, p, "S", "abcd", 3, grammar.EotName)
}

func TestLeftRecursion(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Choice("S", grammar.ChoiceEqual, []string{grammar.Lit("a")}, []string{"S1"})
		b.Concatenation("S1", "S", grammar.Lit("a"))
	})
	p := New(rs)

	expectTree(t, p, "S", "aa", `S|1 { S1 { S { 'a' } 'a' } }`)

	r := p.Parse("S", strings.Repeat("a", 3000))
	test.ExpectNoError(t, r.Err())
	test.ExpectInt(t, 3000, r.Tree.Root().Length)
	test.Assert(t, r.MaxNumHeads < 20, "too many heads: %d", r.MaxNumHeads)
	expectFailure(t, p, "S", "aab", 2, grammar.Lit("a"), grammar.EotName)
}

func TestRightRecursion(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Choice("S", grammar.ChoiceEqual, []string{grammar.Lit("a"), "S"}, []string{grammar.Lit("a")})
	})

	r := New(rs).Parse("S", strings.Repeat("a", 1000))
	test.ExpectNoError(t, r.Err())
}

func TestSeparatedList(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.SeparatedList("L", 0, grammar.Unbounded, grammar.Lit("a"), grammar.Lit(","))
	})
	p := New(rs)

	expectTree(t, p, "L", "", `L|1 { <EMPTY> }`)
	expectTree(t, p, "L", "a", `L { 'a' }`)
	expectTree(t, p, "L", "a,a", `L { 'a' ',' 'a' }`)
	expectTree(t, p, "L", "a,a,a,a", `L { 'a' ',' 'a' ',' 'a' ',' 'a' }`)
	expectFailure(t, p, "L", "a,", 2, grammar.Lit("a"))
	expectFailure(t, p, "L", ",a", 0, grammar.Lit("a"), grammar.EotName)
}

func TestBoundedRepetition(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Multi("M", 2, 3, grammar.Lit("a"))
	})
	p := New(rs)

	expectTree(t, p, "M", "aa", `M { 'a' 'a' }`)
	expectTree(t, p, "M", "aaa", `M { 'a' 'a' 'a' }`)
	expectFailure(t, p, "M", "a", 1, grammar.Lit("a"))
	expectFailure(t, p, "M", "aaaa", 3, grammar.EotName)
}

func TestNullableRepetition(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Multi("S", 0, grammar.Unbounded, "X")
		b.Choice("X", grammar.ChoiceEqual, []string{grammar.Lit("x")}, []string{"E"})
		b.Empty("E")
	})
	p := New(rs)

	r := p.Parse("S", "xx")
	test.ExpectNoError(t, r.Err())
	test.ExpectInt(t, 2, r.Tree.Root().Length)
	test.ExpectString(t, "xx", r.Tree.Sentence())

	r = p.Parse("S", "")
	test.ExpectNoError(t, r.Err())
	test.ExpectInt(t, 0, r.Tree.Root().Length)
}

type ambiguityCounter struct {
	sppt.NopWalker
	ambiguous int
}

func (c *ambiguityCounter) BeginBranch(n sppt.Node, index, count int) {
	if index == 0 && count > 1 {
		c.ambiguous++
	}
}

func TestLongestChoice(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Multi("S", 0, grammar.Unbounded, "X")
		b.Choice("X", grammar.ChoiceEqual, []string{grammar.Lit("a")}, []string{grammar.Lit("a"), grammar.Lit("a")})
	})
	p := New(rs)

	expectTree(t, p, "S", "aaa", `S { X|1 { 'a' 'a' } X { 'a' } }`)
	expectTree(t, p, "S", "aaaa", `S { X|1 { 'a' 'a' } X|1 { 'a' 'a' } }`)

	r := p.Parse("S", strings.Repeat("a", 2001))
	test.ExpectNoError(t, r.Err())
	alts := r.Tree.ChildrenFor(r.Tree.Root())
	test.ExpectInt(t, 1, len(alts))
	test.ExpectInt(t, 1001, len(alts[0].Children))
	c := &ambiguityCounter{}
	r.Tree.TraverseDepthFirst(c, false)
	test.ExpectInt(t, 0, c.ambiguous)
}

func TestLongestChoiceAlternatives(t *testing.T) {
	build := func(kind grammar.ChoiceKind) *Parser {
		return New(buildRules(t, func(b *grammar.Builder) {
			b.Choice("S", grammar.ChoiceAmbiguous, []string{"X", grammar.Lit("c")}, []string{"X", "Y"})
			b.Choice("X", kind, []string{grammar.Lit("a")}, []string{grammar.Lit("a"), grammar.Lit("b")})
			b.Concatenation("Y", grammar.Lit("b"), grammar.Lit("c"))
		}))
	}

	expectTree(t, build(grammar.ChoiceEqual), "S", "abc", `S { X|1 { 'a' 'b' } 'c' }`)
	expectTree(t, build(grammar.ChoiceAmbiguous), "S", "abc",
		`S(*0) { X|1 { 'a' 'b' } 'c' } S|1(*1) { X { 'a' } Y { 'b' 'c' } }`)
}

func TestLongList(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Multi("S", 0, grammar.Unbounded, grammar.Lit("a"))
	})

	r := New(rs).Parse("S", strings.Repeat("a", 50000))
	test.ExpectNoError(t, r.Err())
	alts := r.Tree.ChildrenFor(r.Tree.Root())
	test.ExpectInt(t, 1, len(alts))
	test.ExpectInt(t, 50000, len(alts[0].Children))
}

func TestUnitCycle(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Choice("A", grammar.ChoiceEqual, []string{"B"}, []string{grammar.Lit("a")})
		b.Choice("B", grammar.ChoiceEqual, []string{"A"}, []string{grammar.Lit("b")})
	})
	p := New(rs)

	r := p.Parse("A", "a")
	test.ExpectNoError(t, r.Err())
	r = p.Parse("A", "b")
	test.ExpectNoError(t, r.Err())
	test.ExpectString(t, `A { B|1 { 'b' } }`, r.Tree.String())
}

func TestMaxNumHeads(t *testing.T) {
	ambiguous := buildRules(t, func(b *grammar.Builder) {
		b.Choice("S", grammar.ChoiceEqual, []string{grammar.Lit("a")}, []string{"A"})
		b.Concatenation("A", grammar.Lit("a"))
	})
	plain := buildRules(t, func(b *grammar.Builder) {
		b.Choice("S", grammar.ChoiceEqual, []string{grammar.Lit("a")})
	})

	ra := New(ambiguous).Parse("S", "a")
	rp := New(plain).Parse("S", "a")
	test.ExpectNoError(t, ra.Err())
	test.ExpectNoError(t, rp.Err())
	test.Assert(t, rp.MaxNumHeads > 0, "no heads counted")
	test.Assert(t, rp.MaxNumHeads <= ra.MaxNumHeads, "removing ambiguity increased heads: %d > %d", rp.MaxNumHeads, ra.MaxNumHeads)
}

func TestMultiLineSkip(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Skip("space", `[ \t\r\n]+`)
		b.Skip("comment", `(?s:/\*.*?\*/)`)
		b.Pattern("name", `[a-z]+`)
		b.Multi("S", 1, grammar.Unbounded, "name")
	})

	sentence := "a /* one\ntwo\nthree */ b"
	r := expectTree(t, New(rs), "S", sentence, "")
	lines := [][]string{
		{"a", " ", "/* one\n"},
		{"two\n"},
		{"three */", " ", "b"},
	}
	for i, texts := range lines {
		leaves := r.Tree.TokensByLine(i + 1)
		test.ExpectInt(t, len(texts), len(leaves))
		for j, text := range texts {
			test.ExpectString(t, text, leaves[j].Text)
		}
	}
	test.Assert(t, r.Tree.TokensByLine(2)[0].IsSkip, "comment must be skip")
	test.ExpectString(t, "S", strings.Join(r.Tree.TokensByLine(3)[2].Path, "/"))
}

func TestEmbedded(t *testing.T) {
	inner := buildRules(t, func(b *grammar.Builder) {
		b.Skip("space", ` +`)
		b.Multi("X", 1, grammar.Unbounded, grammar.Lit("x"))
	})
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Concatenation("Doc", grammar.Lit("<"), "Code", grammar.Lit(">"))
		b.Embedded("Code", inner, "X")
	})

	for _, longest := range []bool{true, false} {
		p := New(rs, WithEmbeddedLongest(longest))
		r := expectTree(t, p, "Doc", "<xx>", `Doc { '<' Code { X { 'x' 'x' } } '>' }`)
		code := r.Tree.ChildrenFor(r.Tree.Root())[0].Children[1]
		sub := r.Tree.Embedded(code)
		test.Assert(t, sub != nil, "no embedded tree")
		test.ExpectString(t, "xx", sub.Text(sub.Root()))

		expectTree(t, p, "Doc", "<x x >", `Doc { '<' Code { X { 'x' space : ' ' 'x' space : ' ' } } '>' }`)
		expectFailure(t, p, "Doc", "<>", 1, "Code")
		expectFailure(t, p, "Doc", "<xxy", 3, grammar.Lit(">"))
	}
}

func TestAutomatonEquivalence(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Concatenation("S", grammar.Lit("a"), "B")
		b.Choice("B", grammar.ChoiceEqual, []string{grammar.Lit("b")}, []string{grammar.Lit("c")})
	})
	p := New(rs)
	expectTree(t, p, "S", "ab", "")
	expectTree(t, p, "S", "ac", "")
	lazy, e := p.Automaton("S", automaton.EndOfText)
	test.ExpectNoError(t, e)

	eager := automaton.New(rs.FindRule("S"), automaton.EndOfText, nil)
	eager.BuildFor()

	expected := automatonLabels(eager)
	got := automatonLabels(lazy)
	test.Assert(t, strings.Join(expected, "\n") == strings.Join(got, "\n"),
		"lazy automaton differs:\n%s\n---\n%s", strings.Join(expected, "\n"), strings.Join(got, "\n"))

	text := p.UsedAutomatonToString("S")
	test.Assert(t, strings.HasPrefix(text, "goal S"), "wrong automaton text: %s", text)
	test.ExpectString(t, "", p.UsedAutomatonToString("B"))
	test.ExpectString(t, "", p.UsedAutomatonToString("Missing"))
}

func TestRuntimeLookaheadSubstitution(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Concatenation("S", "S1", b.Opt(grammar.Lit("b")))
		b.Choice("S1", grammar.ChoiceEqual, []string{grammar.Lit("a")}, []string{"S1", grammar.Lit("a")})
	})
	eot := automaton.New(rs.FindRule("S"), automaton.EndOfText, nil)
	eot.BuildFor()
	rt := automaton.New(rs.FindRule("S"), automaton.Runtime, nil)
	rt.BuildFor()

	expected := strings.Join(automatonLabels(eot), "\n")
	labels := automatonLabels(rt)
	got := strings.Join(labels, "\n")
	test.Assert(t, expected != got, "runtime automaton must differ before substitution")
	test.Assert(t, !strings.Contains(got, grammar.EotName), "runtime automaton refers to %s", grammar.EotName)
	for i, l := range labels {
		labels[i] = strings.ReplaceAll(l, grammar.RtName, grammar.EotName)
	}
	sort.Strings(labels)
	got = strings.Join(labels, "\n")
	test.Assert(t, expected == got, "automata differ after substitution:\n%s\n---\n%s", expected, got)
}

func automatonLabels(ss *automaton.ParserStateSet) []string {
	result := make([]string, 0)
	for _, s := range ss.States() {
		result = append(result, s.Label())
	}
	for _, t := range ss.Transitions() {
		result = append(result, t.Label())
	}
	sort.Strings(result)
	return result
}

func TestBuildFor(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Concatenation("S", grammar.Lit("a"), "B")
		b.Choice("B", grammar.ChoiceEqual, []string{grammar.Lit("b")}, []string{grammar.Lit("c")})
	})
	p := New(rs)
	test.ExpectNoError(t, p.BuildFor("S", automaton.EndOfText))
	ss, _ := p.Automaton("S", automaton.EndOfText)
	states := len(ss.States())

	expectTree(t, p, "S", "ab", "")
	expectTree(t, p, "S", "ac", "")
	test.ExpectInt(t, states, len(ss.States()))

	test.ExpectErrorCode(t, UnknownGoalError, p.BuildFor("Missing", automaton.EndOfText))
	test.ExpectErrorCode(t, WrongGoalError, p.BuildFor("'a'", automaton.EndOfText))
}

func TestGoalIssues(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Concatenation("S", grammar.Lit("a"))
	})
	p := New(rs)

	r := p.Parse("Missing", "a")
	test.ExpectInt(t, 1, len(r.Issues))
	test.Expect(t, r.Issues[0].Kind == GoalIssue, GoalIssue, r.Issues[0].Kind)
	test.ExpectErrorCode(t, UnknownGoalError, r.Err())

	r = p.Parse(grammar.EotName, "a")
	test.ExpectErrorCode(t, WrongGoalError, r.Err())
}

func TestErr(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Skip("space", `\s+`)
		b.Multi("S", 1, grammar.Unbounded, grammar.Lit("a"))
	})
	p := New(rs)

	r := p.Parse("S", "a a\n a b")
	e := r.Err()
	test.ExpectErrorCode(t, UnexpectedInputError, e)
	var ge *gllx.Error
	test.Assert(t, errors.As(e, &ge), "expecting *gllx.Error")
	test.ExpectInt(t, 2, ge.Line)
	test.ExpectInt(t, 4, ge.Col)
	test.Assert(t, strings.Contains(ge.Message, `unexpected "b"`), "wrong message: %s", ge.Message)

	r = p.Parse("S", "a a ")
	test.ExpectNoError(t, r.Err())

	r = p.Parse("S", "")
	test.ExpectErrorCode(t, UnexpectedEndError, r.Err())
	test.ExpectString(t, "", r.Issues[0].Found)
}

func TestCancel(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Multi("S", 1, grammar.Unbounded, grammar.Lit("a"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(rs).ParseContext(ctx, "S", "aaa")
	test.Assert(t, r.Tree == nil, "canceled parse returned tree")
	test.Expect(t, r.Issues[0].Kind == CanceledIssue, CanceledIssue, r.Issues[0].Kind)
	test.ExpectErrorCode(t, CanceledError, r.Err())
}

func TestConcurrentParses(t *testing.T) {
	rs := buildRules(t, func(b *grammar.Builder) {
		b.Skip("space", `\s+`)
		b.Pattern("num", `\d+`)
		b.Choice("E", grammar.ChoiceEqual, []string{"E", grammar.Lit("+"), "E"}, []string{"num"})
	})
	p := New(rs)
	sentences := []string{"1", "1+2", "1 + 2 + 3", "1+2+3+4"}

	var wg sync.WaitGroup
	failures := make(chan string, 32)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := sentences[i%len(sentences)]
			if r := p.Parse("E", s); r.Err() != nil {
				failures <- s
			}
		}(i)
	}
	wg.Wait()
	close(failures)
	for s := range failures {
		t.Errorf("failed to parse %q", s)
	}

	expectTree(t, p, "E", "1+2+3",
		`E { E { E|1 { num : '1' } '+' E|1 { num : '2' } } '+' E|1 { num : '3' } }`)
}
