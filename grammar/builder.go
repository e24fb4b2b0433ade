package grammar

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type ruleDef struct {
	name      string
	kind      Kind
	literal   string
	pattern   string
	isPattern bool
	isSkip    bool
	item      ItemKind
	choice    ChoiceKind
	seqs      [][]string
	min, max  int
	element   string
	separator string
	embedded  *RuleSet
	goal      string
}

// Builder collects rule definitions and creates an immutable RuleSet.
// Rule names may be referenced before they are defined.
// A reference in the form of a quoted literal ('text', see LiteralName) declares a literal terminal.
// The first definition error is kept and returned by Build, later definitions are ignored.
type Builder struct {
	name    string
	defs    []*ruleDef
	byName  map[string]*ruleDef
	counter int
	err     error
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		byName: make(map[string]*ruleDef),
	}
}

func (b *Builder) fail(e error) {
	if b.err == nil {
		b.err = e
	}
}

func (b *Builder) define(d *ruleDef) *Builder {
	if b.err != nil {
		return b
	}

	if d.name == "" || strings.HasPrefix(d.name, "<") {
		b.fail(wrongNameError(d.name))
		return b
	}

	if _, isLiteral := ParseLiteralName(d.name); isLiteral != (d.kind == TerminalRule && !d.isPattern) {
		b.fail(wrongNameError(d.name))
		return b
	}

	prev := b.byName[d.name]
	if prev != nil {
		if prev.kind == TerminalRule && !prev.isPattern && d.kind == TerminalRule && !d.isPattern {
			prev.isSkip = prev.isSkip || d.isSkip
			return b
		}

		b.fail(ruleDefinedError(d.name))
		return b
	}

	b.defs = append(b.defs, d)
	b.byName[d.name] = d
	return b
}

func (b *Builder) refer(names ...string) {
	for _, name := range names {
		if b.byName[name] != nil {
			continue
		}

		text, isLiteral := ParseLiteralName(name)
		if isLiteral && text != "" {
			b.define(&ruleDef{name: name, kind: TerminalRule, literal: text})
		}
	}
}

func (b *Builder) literal(text string, isSkip bool) *Builder {
	if text == "" {
		b.fail(wrongNameError(LiteralName(text)))
		return b
	}

	return b.define(&ruleDef{name: LiteralName(text), kind: TerminalRule, literal: text, isSkip: isSkip})
}

// Literal defines terminal matching exact text, the terminal is named LiteralName(text).
func (b *Builder) Literal(text string) *Builder {
	return b.literal(text, false)
}

// SkipLiteral defines literal terminal skipped between other terminals.
func (b *Builder) SkipLiteral(text string) *Builder {
	return b.literal(text, true)
}

// Pattern defines terminal matching regular expression re at current position.
func (b *Builder) Pattern(name, re string) *Builder {
	return b.define(&ruleDef{name: name, kind: TerminalRule, pattern: re, isPattern: true})
}

// Skip defines pattern terminal skipped between other terminals (whitespace, comments).
func (b *Builder) Skip(name, re string) *Builder {
	return b.define(&ruleDef{name: name, kind: TerminalRule, pattern: re, isPattern: true, isSkip: true})
}

// Concatenation defines rule matching items in order. No items means the rule matches empty text.
func (b *Builder) Concatenation(name string, items ...string) *Builder {
	if len(items) == 0 {
		return b.Empty(name)
	}

	b.refer(items...)
	return b.define(&ruleDef{name: name, kind: NonTerminalRule, item: ConcatenationItem, seqs: [][]string{items}})
}

// Choice defines rule matching one of alternatives, each alternative is a sequence of rule names.
// An empty alternative is replaced with a reference to synthetic empty rule.
func (b *Builder) Choice(name string, kind ChoiceKind, alternatives ...[]string) *Builder {
	if len(alternatives) == 0 {
		b.fail(noAlternativesError(name))
		return b
	}

	seqs := make([][]string, len(alternatives))
	for i, alt := range alternatives {
		if len(alt) == 0 {
			en := b.synthName("empty")
			b.Empty(en)
			alt = []string{en}
		}
		b.refer(alt...)
		seqs[i] = append([]string(nil), alt...)
	}
	return b.define(&ruleDef{name: name, kind: NonTerminalRule, item: ChoiceItem, choice: kind, seqs: seqs})
}

func validBounds(min, max int) bool {
	return min >= 0 && (max < 0 || (max > 0 && max >= min))
}

// Multi defines rule matching from min to max elements, negative max means no upper bound.
func (b *Builder) Multi(name string, min, max int, element string) *Builder {
	if !validBounds(min, max) {
		b.fail(boundsError(name, min, max))
		return b
	}

	b.refer(element)
	return b.define(&ruleDef{name: name, kind: NonTerminalRule, item: MultiItem, min: min, max: max, element: element})
}

// SeparatedList defines rule matching from min to max elements delimited with separator.
func (b *Builder) SeparatedList(name string, min, max int, element, separator string) *Builder {
	if !validBounds(min, max) {
		b.fail(boundsError(name, min, max))
		return b
	}

	b.refer(element, separator)
	return b.define(&ruleDef{
		name: name, kind: NonTerminalRule, item: SeparatedListItem,
		min: min, max: max, element: element, separator: separator,
	})
}

// Empty defines rule matching empty text.
func (b *Builder) Empty(name string) *Builder {
	return b.define(&ruleDef{name: name, kind: NonTerminalRule, item: EmptyItem})
}

// Embedded defines rule matched by goal non-terminal of another rule set.
func (b *Builder) Embedded(name string, rs *RuleSet, goal string) *Builder {
	if rs == nil {
		b.fail(embeddedError(name, goal))
		return b
	}

	r := rs.FindRule(goal)
	if r == nil || r.Kind != NonTerminalRule || r.IsReserved() {
		b.fail(embeddedError(name, goal))
		return b
	}

	return b.define(&ruleDef{name: name, kind: NonTerminalRule, item: EmbeddedItem, embedded: rs, goal: goal})
}

func (b *Builder) synthName(kind string) string {
	b.counter++
	return fmt.Sprintf("%s%s§%d", SyntheticPrefix, kind, b.counter)
}

// Opt defines synthetic rule matching zero or one element and returns its name.
func (b *Builder) Opt(element string) string {
	name := b.synthName("opt")
	b.Multi(name, 0, 1, element)
	return name
}

// Many defines synthetic repetition rule and returns its name.
func (b *Builder) Many(min, max int, element string) string {
	name := b.synthName("multi")
	b.Multi(name, min, max, element)
	return name
}

// List defines synthetic separated list rule and returns its name.
func (b *Builder) List(min, max int, element, separator string) string {
	name := b.synthName("list")
	b.SeparatedList(name, min, max, element, separator)
	return name
}

// Group defines synthetic concatenation rule and returns its name.
func (b *Builder) Group(items ...string) string {
	name := b.synthName("group")
	b.Concatenation(name, items...)
	return name
}

// Alt defines synthetic choice rule and returns its name.
func (b *Builder) Alt(kind ChoiceKind, alternatives ...[]string) string {
	name := b.synthName("choice")
	b.Choice(name, kind, alternatives...)
	return name
}

// Build validates definitions and creates rule set.
func (b *Builder) Build() (*RuleSet, error) {
	if b.err != nil {
		return nil, b.err
	}

	if len(b.defs) == 0 {
		return nil, emptyRuleSetError(b.name)
	}

	rs := &RuleSet{
		name:     b.name,
		byName:   make(map[string]*Rule),
		literals: make(map[string]*Rule),
	}
	rs.rules = []*Rule{
		{Number: EotNumber, Name: EotName, Kind: TerminalRule, ruleSet: rs},
		{Number: RtNumber, Name: RtName, Kind: TerminalRule, ruleSet: rs},
		{Number: SkipNumber, Name: SkipName, Kind: NonTerminalRule, Item: &Item{Kind: ConcatenationItem}, ruleSet: rs},
	}
	for _, r := range rs.rules {
		rs.byName[r.Name] = r
	}

	for _, d := range b.defs {
		r := &Rule{
			Number:    len(rs.rules),
			Name:      d.name,
			Kind:      d.kind,
			Literal:   d.literal,
			Pattern:   d.pattern,
			IsPattern: d.isPattern,
			IsSkip:    d.isSkip,
			ruleSet:   rs,
		}

		if d.isPattern {
			re, e := regexp.Compile("^(?:" + d.pattern + ")")
			if e != nil {
				return nil, regexpError(d.name, e)
			}
			r.re = re
		} else if d.kind == TerminalRule {
			rs.literals[d.literal] = r
		}

		rs.rules = append(rs.rules, r)
		rs.byName[r.Name] = r
	}

	unknown := make(map[string]bool)
	resolve := func(name string) *Rule {
		r := rs.byName[name]
		if r == nil || r.IsReserved() {
			unknown[name] = true
		}
		return r
	}
	resolveSeq := func(names []string) []*Rule {
		result := make([]*Rule, len(names))
		for i, name := range names {
			result[i] = resolve(name)
		}
		return result
	}

	for _, d := range b.defs {
		if d.kind == TerminalRule {
			continue
		}

		r := rs.byName[d.name]
		item := &Item{Kind: d.item, Choice: d.choice, Min: d.min, Max: d.max}
		switch d.item {
		case EmptyItem:
		case ConcatenationItem:
			item.Items = resolveSeq(d.seqs[0])
		case ChoiceItem:
			item.Alternatives = make([][]*Rule, len(d.seqs))
			for i, seq := range d.seqs {
				item.Alternatives[i] = resolveSeq(seq)
			}
		case MultiItem:
			item.Element = resolve(d.element)
		case SeparatedListItem:
			item.Element = resolve(d.element)
			item.Separator = resolve(d.separator)
		case EmbeddedItem:
			item.EmbeddedSet = d.embedded
			item.EmbeddedGoal = d.embedded.FindRule(d.goal)
		}
		if item.Max < 0 {
			item.Max = Unbounded
		}
		r.Item = item
	}

	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, unknownRuleError(names)
	}

	userRules := rs.rules[firstUserNumber:]
	for _, r := range userRules {
		if r.EmptyOption() < 0 {
			continue
		}

		e := &Rule{
			Number:   len(rs.rules),
			Name:     EmptyName,
			Kind:     TerminalRule,
			IsEmpty:  true,
			EmptyFor: r,
			ruleSet:  rs,
		}
		r.empty = e
		rs.rules = append(rs.rules, e)
	}

	analyze(rs)
	return rs, nil
}
