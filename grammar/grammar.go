// Package grammar defines immutable rule sets: terminals, non-terminals, and their right-hand sides.
package grammar

import (
	"regexp"
	"strings"

	"github.com/ava12/gllx/internal/ints"
)

// Kind distinguishes terminal and non-terminal rules.
type Kind int

const (
	TerminalRule Kind = iota
	NonTerminalRule
)

// Reserved rule numbers and names present in every rule set.
const (
	EotNumber  = 0
	RtNumber   = 1
	SkipNumber = 2

	firstUserNumber = 3

	EotName     = "<EOT>"
	RtName      = "<RT>"
	SkipName    = "<SKIP>"
	EmptyName   = "<EMPTY>"
	UnknownName = "<UNKNOWN>"

	// SyntheticPrefix starts names of rules created by Builder.Opt, Many, List, Group, and Alt.
	SyntheticPrefix = "§"
)

// ItemKind is the tag of the Item union.
type ItemKind int

const (
	EmptyItem ItemKind = iota
	ConcatenationItem
	ChoiceItem
	MultiItem
	SeparatedListItem
	EmbeddedItem
)

func (k ItemKind) String() string {
	switch k {
	case EmptyItem:
		return "empty"
	case ConcatenationItem:
		return "concatenation"
	case ChoiceItem:
		return "choice"
	case MultiItem:
		return "multi"
	case SeparatedListItem:
		return "separated list"
	case EmbeddedItem:
		return "embedded"
	}
	return "unknown"
}

// ChoiceKind selects how alternatives of a choice matching the same span are treated.
type ChoiceKind int

const (
	// ChoiceEqual keeps all alternatives, the longest derivation is selected by context.
	ChoiceEqual ChoiceKind = iota
	// ChoicePriority keeps only the first listed alternative among those matching the same span.
	ChoicePriority
	// ChoiceAmbiguous keeps all alternatives.
	ChoiceAmbiguous
)

// Unbounded is used as Max for repetitions without upper bound.
const Unbounded = -1

// Item describes right-hand side of a non-terminal, fields used depend on Kind:
//   - EmptyItem: none;
//   - ConcatenationItem: Items;
//   - ChoiceItem: Choice, Alternatives;
//   - MultiItem: Min, Max, Element;
//   - SeparatedListItem: Min, Max, Element, Separator;
//   - EmbeddedItem: EmbeddedSet, EmbeddedGoal.
type Item struct {
	Kind         ItemKind
	Choice       ChoiceKind
	Items        []*Rule
	Alternatives [][]*Rule
	Min, Max     int
	Element      *Rule
	Separator    *Rule
	EmbeddedSet  *RuleSet
	EmbeddedGoal *Rule
}

// Rule is either a terminal or a non-terminal of a rule set.
type Rule struct {
	Number int
	Name   string
	Kind   Kind

	// Terminal fields.
	Literal   string
	Pattern   string
	IsPattern bool
	IsSkip    bool
	IsEmpty   bool
	EmptyFor  *Rule

	// Non-terminal fields.
	Item *Item

	empty   *Rule
	re      *regexp.Regexp
	ruleSet *RuleSet
}

func (r *Rule) IsTerminal() bool {
	return r.Kind == TerminalRule
}

func (r *Rule) IsEmbedded() bool {
	return r.Kind == NonTerminalRule && r.Item.Kind == EmbeddedItem
}

// IsLeaf returns true for rules matched as a whole by a single WIDTH step: terminals and embedded rules.
func (r *Rule) IsLeaf() bool {
	return r.Kind == TerminalRule || r.IsEmbedded()
}

// IsReserved returns true for <EOT>, <RT>, and <SKIP> rules.
func (r *Rule) IsReserved() bool {
	return r.Number < firstUserNumber
}

// IsSynthetic returns true for rules created by desugaring helpers of Builder.
func (r *Rule) IsSynthetic() bool {
	return strings.HasPrefix(r.Name, SyntheticPrefix)
}

func (r *Rule) RuleSet() *RuleSet {
	return r.ruleSet
}

// Regexp returns anchored regexp of pattern terminal or nil.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.re
}

// Empty returns the synthetic empty terminal of the rule or nil if the rule cannot match zero elements.
func (r *Rule) Empty() *Rule {
	return r.empty
}

func (r *Rule) String() string {
	return r.Name
}

// OptionCount returns the number of options (alternative right-hand sides) of a non-terminal.
func (r *Rule) OptionCount() int {
	if r.Kind == TerminalRule {
		return 1
	}

	switch r.Item.Kind {
	case ChoiceItem:
		return len(r.Item.Alternatives)
	case MultiItem, SeparatedListItem:
		if r.Item.Min == 0 {
			return 2
		}
		return 1
	case EmptyItem, ConcatenationItem, EmbeddedItem:
		return 1
	}
	return 0
}

// EmptyOption returns the index of the option consisting of the empty terminal or -1.
func (r *Rule) EmptyOption() int {
	if r.Kind == TerminalRule {
		return -1
	}

	switch r.Item.Kind {
	case EmptyItem:
		return 0
	case MultiItem, SeparatedListItem:
		if r.Item.Min == 0 {
			return 1
		}
	case ConcatenationItem, ChoiceItem, EmbeddedItem:
	}
	return -1
}

// IsListOption returns true if option is matched by repetition of Item.Element rather than by a fixed sequence.
func (r *Rule) IsListOption(option int) bool {
	if r.Kind == TerminalRule || option != 0 {
		return false
	}

	return r.Item.Kind == MultiItem || r.Item.Kind == SeparatedListItem
}

// Sequence returns the fixed sequence of option or nil for list options, embedded rules, and terminals.
func (r *Rule) Sequence(option int) []*Rule {
	if r.Kind == TerminalRule {
		return nil
	}

	if option == r.EmptyOption() {
		return []*Rule{r.empty}
	}

	switch r.Item.Kind {
	case ConcatenationItem:
		return r.Item.Items
	case ChoiceItem:
		if option >= 0 && option < len(r.Item.Alternatives) {
			return r.Item.Alternatives[option]
		}
	case EmptyItem, MultiItem, SeparatedListItem, EmbeddedItem:
	}
	return nil
}

// FirstSymbol returns the leftmost symbol of option.
func (r *Rule) FirstSymbol(option int) *Rule {
	if r.IsListOption(option) {
		return r.Item.Element
	}

	seq := r.Sequence(option)
	if len(seq) == 0 {
		return nil
	}
	return seq[0]
}

// RuleSet is an immutable set of rules, created by Builder.
// Rule numbers are indexes in Rules().
type RuleSet struct {
	name     string
	rules    []*Rule
	byName   map[string]*Rule
	literals map[string]*Rule
	first    []*ints.Set
	nullable []bool
}

func (rs *RuleSet) Name() string {
	return rs.name
}

// Rules returns all rules including reserved ones, must not be modified.
func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}

// Rule returns rule by its number or nil.
func (rs *RuleSet) Rule(number int) *Rule {
	if number < 0 || number >= len(rs.rules) {
		return nil
	}
	return rs.rules[number]
}

func (rs *RuleSet) FindRule(name string) *Rule {
	return rs.byName[name]
}

func (rs *RuleSet) FindTerminalByLiteral(text string) *Rule {
	return rs.literals[text]
}

func (rs *RuleSet) Eot() *Rule {
	return rs.rules[EotNumber]
}

func (rs *RuleSet) Rt() *Rule {
	return rs.rules[RtNumber]
}

func (rs *RuleSet) Skip() *Rule {
	return rs.rules[SkipNumber]
}

// Terminals returns user terminals (literals and patterns, including skip terminals).
func (rs *RuleSet) Terminals() []*Rule {
	result := make([]*Rule, 0)
	for _, r := range rs.rules[firstUserNumber:] {
		if r.Kind == TerminalRule && !r.IsEmpty {
			result = append(result, r)
		}
	}
	return result
}

func (rs *RuleSet) SkipTerminals() []*Rule {
	result := make([]*Rule, 0)
	for _, r := range rs.rules[firstUserNumber:] {
		if r.IsSkip {
			result = append(result, r)
		}
	}
	return result
}

func (rs *RuleSet) NonTerminals() []*Rule {
	result := make([]*Rule, 0)
	for _, r := range rs.rules[firstUserNumber:] {
		if r.Kind == NonTerminalRule {
			result = append(result, r)
		}
	}
	return result
}

// First returns numbers of non-empty terminals that may start a match of rule,
// <RT> is included for embedded rules. The result must not be modified.
func (rs *RuleSet) First(r *Rule) *ints.Set {
	return rs.first[r.Number]
}

// EmptyFor returns the empty terminal standing for zero elements of rule or nil.
func (rs *RuleSet) EmptyFor(r *Rule) *Rule {
	return r.empty
}

// Nullable returns true if rule may match zero-length text.
func (rs *RuleSet) Nullable(r *Rule) bool {
	return rs.nullable[r.Number]
}

// NameOf returns printable name for a rule number, used in messages.
func (rs *RuleSet) NameOf(number int) string {
	r := rs.Rule(number)
	if r == nil {
		return "?"
	}
	return r.Name
}

// Names returns printable names for rule numbers.
func (rs *RuleSet) Names(numbers []int) []string {
	result := make([]string, len(numbers))
	for i, n := range numbers {
		result[i] = rs.NameOf(n)
	}
	return result
}

// LiteralName returns the name used for literal terminal matching text.
func LiteralName(text string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, c := range text {
		switch c {
		case '\'', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case '\n':
			sb.WriteString("\\n")
		case '\t':
			sb.WriteString("\\t")
		case '\r':
			sb.WriteString("\\r")
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// Lit is a shorthand for LiteralName used when listing rule items.
func Lit(text string) string {
	return LiteralName(text)
}

// ParseLiteralName is the reverse of LiteralName, returns false if name is not a literal name.
func ParseLiteralName(name string) (string, bool) {
	if len(name) < 2 || name[0] != '\'' || name[len(name)-1] != '\'' {
		return "", false
	}

	var sb strings.Builder
	escaped := false
	for _, c := range name[1 : len(name)-1] {
		if escaped {
			switch c {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteRune(c)
			}
			escaped = false
		} else if c == '\\' {
			escaped = true
		} else if c == '\'' {
			return "", false
		} else {
			sb.WriteRune(c)
		}
	}
	if escaped {
		return "", false
	}
	return sb.String(), true
}
