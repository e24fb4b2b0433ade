// Package ebnf converts grammars written in EBNF (golang.org/x/exp/ebnf dialect) to rule sets.
//
// Production names starting with a lower-case letter are lexical: each lexical production
// referenced from a non-lexical one (or listed in Options.Skip) becomes a pattern terminal,
// other lexical productions are inlined into patterns referring them.
// Productions starting with an upper-case letter become non-terminals:
// sequence is a concatenation, alternative is an equal choice, [ ] is optional,
// { } is repetition, ( ) is a group and a quoted token is a literal terminal.
package ebnf

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"

	"github.com/ava12/gllx/grammar"
)

// Options control conversion.
type Options struct {
	// Start is the production checked for reachability of all other productions.
	// Empty Start only checks references and lexical restrictions.
	Start string

	// Skip lists lexical productions skipped between other terminals (whitespace, comments).
	Skip []string
}

const verifyRoot = "Verify§root"

type loader struct {
	name      string
	g         ebnf.Grammar
	b         *grammar.Builder
	skip      map[string]bool
	patterns  map[string]string
	expanding map[string]bool
	err       error
}

// Load reads, verifies and converts grammar. name is used as the file name in EBNF error messages
// and as the rule set name.
func Load(name string, r io.Reader, opts Options) (*grammar.RuleSet, error) {
	g, e := ebnf.Parse(name, r)
	if e != nil {
		return nil, wrongGrammarError(name, e)
	}

	return Convert(name, g, opts)
}

// Convert verifies and converts already parsed grammar.
func Convert(name string, g ebnf.Grammar, opts Options) (*grammar.RuleSet, error) {
	l := &loader{
		name:      name,
		g:         g,
		b:         grammar.NewBuilder(name),
		skip:      make(map[string]bool),
		patterns:  make(map[string]string),
		expanding: make(map[string]bool),
	}

	for _, s := range opts.Skip {
		p := g[s]
		if p == nil || !isLexical(s) {
			return nil, wrongSkipError(s)
		}
		l.skip[s] = true
	}

	if e := l.verify(opts); e != nil {
		return nil, wrongGrammarError(name, e)
	}

	return l.convert()
}

func isLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}

// verify runs ebnf.Verify against a synthetic root referring start (or every non-lexical production)
// and skipped productions, so that skipped productions are not reported as unreachable.
func (l *loader) verify(opts Options) error {
	roots := make([]string, 0)
	if opts.Start != "" {
		roots = append(roots, opts.Start)
	} else {
		for name := range l.g {
			if !isLexical(name) {
				roots = append(roots, name)
			}
		}
	}
	roots = append(roots, opts.Skip...)
	sort.Strings(roots[:len(roots)-len(opts.Skip)])

	alt := make(ebnf.Alternative, len(roots))
	for i, name := range roots {
		alt[i] = &ebnf.Name{String: name}
	}

	g := make(ebnf.Grammar, len(l.g)+1)
	for name, p := range l.g {
		g[name] = p
	}
	g[verifyRoot] = &ebnf.Production{Name: &ebnf.Name{String: verifyRoot}, Expr: alt}
	return ebnf.Verify(g, verifyRoot)
}

func (l *loader) fail(e error) {
	if l.err == nil {
		l.err = e
	}
}

// productions returns productions in source order.
func (l *loader) productions() []*ebnf.Production {
	result := make([]*ebnf.Production, 0, len(l.g))
	for _, p := range l.g {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		pi, pj := result[i].Pos(), result[j].Pos()
		if pi.Offset != pj.Offset {
			return pi.Offset < pj.Offset
		}
		return result[i].Name.String < result[j].Name.String
	})
	return result
}

func (l *loader) convert() (*grammar.RuleSet, error) {
	tokens := make(map[string]bool)
	for name := range l.skip {
		tokens[name] = true
	}
	for name, p := range l.g {
		if !isLexical(name) {
			collectNames(p.Expr, tokens)
		}
	}

	for _, p := range l.productions() {
		name := p.Name.String
		switch {
		case !isLexical(name):
			l.define(name, p.Expr)
		case tokens[name]:
			re := l.pattern(name)
			if l.skip[name] {
				l.b.Skip(name, re)
			} else {
				l.b.Pattern(name, re)
			}
		}
		if l.err != nil {
			return nil, l.err
		}
	}

	return l.b.Build()
}

func collectNames(expr ebnf.Expression, names map[string]bool) {
	switch x := expr.(type) {
	case ebnf.Alternative:
		for _, e := range x {
			collectNames(e, names)
		}
	case ebnf.Sequence:
		for _, e := range x {
			collectNames(e, names)
		}
	case *ebnf.Group:
		collectNames(x.Body, names)
	case *ebnf.Option:
		collectNames(x.Body, names)
	case *ebnf.Repetition:
		collectNames(x.Body, names)
	case *ebnf.Name:
		if isLexical(x.String) {
			names[x.String] = true
		}
	}
}

// pattern returns regular expression of lexical production with all referred productions inlined.
func (l *loader) pattern(name string) string {
	if re, found := l.patterns[name]; found {
		return re
	}

	if l.expanding[name] {
		l.fail(recursiveTokenError(name))
		return ""
	}

	p := l.g[name]
	if p == nil {
		l.fail(wrongExpressionError(name, "undefined production"))
		return ""
	}

	l.expanding[name] = true
	re := l.regexpOf(name, p.Expr)
	delete(l.expanding, name)
	l.patterns[name] = re
	return re
}

func (l *loader) regexpOf(name string, expr ebnf.Expression) string {
	switch x := expr.(type) {
	case nil:
		return ""

	case ebnf.Alternative:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = l.regexpOf(name, e)
		}
		return "(?:" + strings.Join(parts, "|") + ")"

	case ebnf.Sequence:
		var sb strings.Builder
		for _, e := range x {
			sb.WriteString(l.regexpOf(name, e))
		}
		return sb.String()

	case *ebnf.Name:
		if !isLexical(x.String) {
			l.fail(wrongExpressionError(name, "reference to non-lexical production "+x.String))
			return ""
		}
		return "(?:" + l.pattern(x.String) + ")"

	case *ebnf.Token:
		return regexp.QuoteMeta(x.String)

	case *ebnf.Range:
		return "[" + classChar(x.Begin.String) + "-" + classChar(x.End.String) + "]"

	case *ebnf.Group:
		return "(?:" + l.regexpOf(name, x.Body) + ")"

	case *ebnf.Option:
		return "(?:" + l.regexpOf(name, x.Body) + ")?"

	case *ebnf.Repetition:
		return "(?:" + l.regexpOf(name, x.Body) + ")*"

	case *ebnf.Bad:
		l.fail(wrongExpressionError(name, x.Error))
		return ""

	default:
		l.fail(wrongExpressionError(name, fmt.Sprintf("unsupported expression %T", expr)))
		return ""
	}
}

func classChar(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	if r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return string(r)
	}
	return fmt.Sprintf(`\x{%x}`, r)
}

func (l *loader) define(name string, expr ebnf.Expression) {
	switch x := expr.(type) {
	case nil:
		l.b.Empty(name)

	case ebnf.Alternative:
		l.b.Choice(name, grammar.ChoiceEqual, l.alternatives(name, x)...)

	case *ebnf.Option:
		l.b.Multi(name, 0, 1, l.item(name, x.Body))

	case *ebnf.Repetition:
		l.b.Multi(name, 0, grammar.Unbounded, l.item(name, x.Body))

	default:
		l.b.Concatenation(name, l.sequence(name, expr)...)
	}
}

func (l *loader) alternatives(name string, alt ebnf.Alternative) [][]string {
	result := make([][]string, len(alt))
	for i, e := range alt {
		result[i] = l.sequence(name, e)
	}
	return result
}

func (l *loader) sequence(name string, expr ebnf.Expression) []string {
	switch x := expr.(type) {
	case nil:
		return nil

	case ebnf.Sequence:
		items := make([]string, 0, len(x))
		for _, e := range x {
			items = append(items, l.item(name, e))
		}
		return items

	case *ebnf.Group:
		return l.sequence(name, x.Body)

	default:
		return []string{l.item(name, expr)}
	}
}

func (l *loader) item(name string, expr ebnf.Expression) string {
	switch x := expr.(type) {
	case *ebnf.Name:
		return x.String

	case *ebnf.Token:
		if x.String == "" {
			return l.b.Group()
		}
		return grammar.Lit(x.String)

	case nil, ebnf.Sequence:
		return l.b.Group(l.sequence(name, x)...)

	case ebnf.Alternative:
		return l.b.Alt(grammar.ChoiceEqual, l.alternatives(name, x)...)

	case *ebnf.Group:
		if alt, isAlt := x.Body.(ebnf.Alternative); isAlt {
			return l.b.Alt(grammar.ChoiceEqual, l.alternatives(name, alt)...)
		}
		items := l.sequence(name, x.Body)
		if len(items) == 1 {
			return items[0]
		}
		return l.b.Group(items...)

	case *ebnf.Option:
		return l.b.Opt(l.item(name, x.Body))

	case *ebnf.Repetition:
		return l.b.Many(0, grammar.Unbounded, l.item(name, x.Body))

	case *ebnf.Range:
		l.fail(wrongExpressionError(name, "range in non-lexical production"))
		return ""

	case *ebnf.Bad:
		l.fail(wrongExpressionError(name, x.Error))
		return ""

	default:
		l.fail(wrongExpressionError(name, fmt.Sprintf("unsupported expression %T", expr)))
		return ""
	}
}
