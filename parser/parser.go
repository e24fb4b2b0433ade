// Package parser parses sentences with a rule set producing shared packed parse trees.
// Parser drives a graph-structured stack over automata built on demand for each goal rule.
package parser

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/ava12/gllx"
	"github.com/ava12/gllx/automaton"
	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/source"
)

// Option configures Parser.
type Option func(p *Parser)

// WithLogger sets logger used for parse statistics, default logger is "gllx.parser".
func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// WithEmbeddedLongest selects whether only the longest acceptable completion of an embedded rule is used (default)
// or all of them.
func WithEmbeddedLongest(longest bool) Option {
	return func(p *Parser) {
		p.embeddedLongest = longest
	}
}

type automatonKey struct {
	goal int
	kind automaton.LookaheadKind
}

// Parser is safe for concurrent use. Automata are shared by all parses and grow as new constructs are met.
type Parser struct {
	ruleSet         *grammar.RuleSet
	log             commonlog.Logger
	embeddedLongest bool

	mu         sync.Mutex
	automata   map[automatonKey]*automaton.ParserStateSet
	subParsers map[*grammar.RuleSet]*Parser
}

func New(rs *grammar.RuleSet, opts ...Option) *Parser {
	p := &Parser{
		ruleSet:         rs,
		embeddedLongest: true,
		automata:        make(map[automatonKey]*automaton.ParserStateSet),
		subParsers:      make(map[*grammar.RuleSet]*Parser),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = commonlog.GetLogger("gllx.parser")
	}
	return p
}

func (p *Parser) RuleSet() *grammar.RuleSet {
	return p.ruleSet
}

func (p *Parser) findGoal(name string) (*grammar.Rule, *gllx.Error) {
	goal := p.ruleSet.FindRule(name)
	if goal == nil {
		return nil, unknownGoalError(name)
	}
	if goal.IsTerminal() || goal.IsReserved() {
		return nil, wrongGoalError(name)
	}
	return goal, nil
}

func (p *Parser) automaton(goal *grammar.Rule, kind automaton.LookaheadKind) *automaton.ParserStateSet {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := automatonKey{goal.Number, kind}
	ss := p.automata[key]
	if ss == nil {
		ss = automaton.New(goal, kind, nil)
		p.automata[key] = ss
	}
	return ss
}

// Automaton returns automaton for goal rule and lookahead kind creating it if needed.
func (p *Parser) Automaton(goalName string, kind automaton.LookaheadKind) (*automaton.ParserStateSet, error) {
	goal, e := p.findGoal(goalName)
	if e != nil {
		return nil, e
	}
	return p.automaton(goal, kind), nil
}

// BuildFor builds complete automaton for goal rule in advance.
func (p *Parser) BuildFor(goalName string, kind automaton.LookaheadKind) error {
	ss, e := p.Automaton(goalName, kind)
	if e != nil {
		return e
	}

	ss.BuildFor()
	return nil
}

// UsedAutomatonToString renders states and transitions created so far for top level parses of goal rule.
// Returns empty string if no such parse was done.
func (p *Parser) UsedAutomatonToString(goalName string) string {
	goal := p.ruleSet.FindRule(goalName)
	if goal == nil {
		return ""
	}

	p.mu.Lock()
	ss := p.automata[automatonKey{goal.Number, automaton.EndOfText}]
	p.mu.Unlock()
	if ss == nil {
		return ""
	}
	return ss.String()
}

func (p *Parser) subParser(rs *grammar.RuleSet) *Parser {
	if rs == p.ruleSet {
		return p
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	sub := p.subParsers[rs]
	if sub == nil {
		sub = New(rs, WithLogger(p.log), WithEmbeddedLongest(p.embeddedLongest))
		p.subParsers[rs] = sub
	}
	return sub
}

// Parse parses the whole sentence as goal rule.
func (p *Parser) Parse(goalName, sentence string) *ParseResult {
	return p.ParseSource(context.Background(), goalName, source.New("", sentence))
}

// ParseContext is Parse that stops when ctx is done.
func (p *Parser) ParseContext(ctx context.Context, goalName, sentence string) *ParseResult {
	return p.ParseSource(ctx, goalName, source.New("", sentence))
}

// ParseSource parses named source, the name is used in log messages only.
func (p *Parser) ParseSource(ctx context.Context, goalName string, src *source.Source) *ParseResult {
	goal, e := p.findGoal(goalName)
	if e != nil {
		return &ParseResult{Issues: []Issue{{Kind: GoalIssue, Message: e.Message, code: e.Code}}}
	}

	ss := p.automaton(goal, automaton.EndOfText)
	eng := newEngine(ctx, p, ss, src, 0)
	eng.run()
	result := &ParseResult{MaxNumHeads: eng.maxHeads, AcceptedHeads: len(eng.accepted[src.Len()])}
	switch {
	case eng.canceled != nil:
		result.AcceptedHeads = 0
		result.Issues = []Issue{{Kind: CanceledIssue, Message: eng.canceled.Error(), code: CanceledError}}
	case result.AcceptedHeads > 0:
		result.Tree = eng.buildTree(src.Len())
	default:
		result.Issues = []Issue{eng.syntaxIssue()}
	}

	if result.Tree != nil {
		p.log.Debugf("parsed %q as %s: %d stack nodes, %d tree nodes, %d max heads",
			src.Name(), goalName, len(eng.nodes), result.Tree.NumNodes(), eng.maxHeads)
	} else {
		p.log.Debugf("failed to parse %q as %s: %s", src.Name(), goalName, result.Issues[0].Message)
	}
	return result
}
