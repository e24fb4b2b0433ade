// Package automaton builds parser states and transitions of a left-corner automaton for a goal rule.
// States and transitions are created on first request, so an automaton shared by parses
// grows until it covers every construct met in parsed sentences.
package automaton

import (
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/ints"
	"github.com/ava12/gllx/internal/queue"
)

// GoalName is the name of the synthetic rule wrapping the goal rule.
const GoalName = "<GOAL>"

type closure struct {
	starts []RulePosition
	leaves []*grammar.Rule
	follow map[int]*ints.Set
}

// ParserStateSet contains states and transitions built for a goal rule and lookahead kind.
// All methods are safe for concurrent use.
type ParserStateSet struct {
	mu          sync.Mutex
	ruleSet     *grammar.RuleSet
	goal        *grammar.Rule
	goalRule    *grammar.Rule
	kind        LookaheadKind
	states      []*ParserState
	byKey       map[string]*ParserState
	transitions []*Transition
	start       *ParserState
	log         commonlog.Logger
}

// New creates state set containing the start state only.
// goal must be a user non-terminal, log may be nil.
func New(goal *grammar.Rule, kind LookaheadKind, log commonlog.Logger) *ParserStateSet {
	if goal.IsTerminal() || goal.IsReserved() || goal.RuleSet() == nil {
		panic("cannot use " + goal.Name + " as goal")
	}

	if log == nil {
		log = commonlog.GetLogger("gllx.automaton")
	}

	ss := &ParserStateSet{
		ruleSet: goal.RuleSet(),
		goal:    goal,
		goalRule: &grammar.Rule{
			Number: -1,
			Name:   GoalName,
			Kind:   grammar.NonTerminalRule,
			Item:   &grammar.Item{Kind: grammar.ConcatenationItem, Items: []*grammar.Rule{goal}},
		},
		kind:  kind,
		byKey: make(map[string]*ParserState),
		log:   log,
	}

	ctx := ints.NewSet(grammar.EotNumber)
	if kind == Runtime {
		ctx = ints.NewSet(grammar.RtNumber)
	}
	ss.start = ss.getState(Start(ss.goalRule, 0), ctx)
	return ss
}

func (ss *ParserStateSet) RuleSet() *grammar.RuleSet {
	return ss.ruleSet
}

func (ss *ParserStateSet) Goal() *grammar.Rule {
	return ss.goal
}

func (ss *ParserStateSet) Kind() LookaheadKind {
	return ss.kind
}

func (ss *ParserStateSet) StartState() *ParserState {
	return ss.start
}

// States returns a snapshot of created states ordered by number.
func (ss *ParserStateSet) States() []*ParserState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]*ParserState(nil), ss.states...)
}

// Transitions returns a snapshot of created transitions in creation order.
func (ss *ParserStateSet) Transitions() []*Transition {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]*Transition(nil), ss.transitions...)
}

func (ss *ParserStateSet) getState(rp RulePosition, ctx *ints.Set) *ParserState {
	key := stateKey(rp, ctx)
	s := ss.byKey[key]
	if s != nil {
		return s
	}

	s = &ParserState{
		Number:       len(ss.states),
		RulePosition: rp,
		Context:      ctx.Copy(),
		set:          ss,
		completions:  make(map[int][]*Transition),
	}
	ss.states = append(ss.states, s)
	ss.byKey[key] = s
	return s
}

func (ss *ParserStateSet) addTransition(from, to, prev *ParserState, action Action, lookahead *ints.Set) *Transition {
	t := &Transition{from, to, prev, action, lookahead}
	ss.transitions = append(ss.transitions, t)
	return t
}

// firstAt returns terminals that may come next at rule position followed by ctx.
func (ss *ParserStateSet) firstAt(rp RulePosition, ctx *ints.Set) *ints.Set {
	result := ints.NewSet()
	visited := make(map[string]bool)
	for {
		if rp.CanEnd() {
			result.Union(ctx)
		}

		next := rp.Next()
		if next == nil {
			break
		}

		result.Union(ss.ruleSet.First(next))
		if !ss.ruleSet.Nullable(next) {
			break
		}

		rp = rp.Advance()
		key := rp.key()
		if visited[key] {
			break
		}
		visited[key] = true
	}
	return result
}

// getClosure collects rules that may start at the state position and computes follow sets
// of every symbol that may come first.
func (ss *ParserStateSet) getClosure(s *ParserState) *closure {
	if s.closure != nil {
		return s.closure
	}

	c := &closure{follow: make(map[int]*ints.Set)}
	s.closure = c
	x := s.RulePosition.Next()
	if x == nil {
		return c
	}

	inClosure := make(map[int]bool)
	rules := queue.New[*grammar.Rule]()
	addSymbol := func(r *grammar.Rule) {
		if c.follow[r.Number] != nil {
			return
		}

		c.follow[r.Number] = ints.NewSet()
		if r.IsLeaf() {
			c.leaves = append(c.leaves, r)
		} else if !inClosure[r.Number] {
			inClosure[r.Number] = true
			rules.Append(r)
		}
	}

	addSymbol(x)
	for !rules.IsEmpty() {
		r, _ := rules.First()
		for option := 0; option < r.OptionCount(); option++ {
			st := Start(r, option)
			first := st.Next()
			if first == nil {
				panic("no first symbol at " + st.String())
			}

			c.starts = append(c.starts, st)
			addSymbol(first)
		}
	}

	c.follow[x.Number].Union(ss.firstAt(s.RulePosition.Advance(), s.Context))
	for changed := true; changed; {
		changed = false
		for _, st := range c.starts {
			fol := ss.firstAt(st.Advance(), c.follow[st.Rule.Number])
			if c.follow[st.Next().Number].Union(fol) {
				changed = true
			}
		}
	}

	return c
}

// WidthTransitions returns transitions consuming leaves (terminals, empty terminals, embedded rules)
// that may come next at state.
func (ss *ParserStateSet) WidthTransitions(s *ParserState) []*Transition {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.widthTransitions(s)
}

func (ss *ParserStateSet) widthTransitions(s *ParserState) []*Transition {
	if s.width != nil {
		return s.width
	}

	c := ss.getClosure(s)
	result := make([]*Transition, 0, len(c.leaves))
	for _, leaf := range c.leaves {
		fol := c.follow[leaf.Number]
		action := Width
		if leaf.IsEmbedded() {
			action = Embed
		}
		to := ss.getState(End(leaf, 0), fol)
		result = append(result, ss.addTransition(s, to, nil, action, fol.Copy()))
	}
	s.width = result
	return result
}

// CompletionTransitions returns transitions applicable to complete state s preceded by prev state:
// GRAFT and HEIGHT transitions, or GOAL transition if s is the complete goal (prev is nil then).
func (ss *ParserStateSet) CompletionTransitions(prev, s *ParserState) []*Transition {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.completionTransitions(prev, s)
}

func (ss *ParserStateSet) completionTransitions(prev, s *ParserState) []*Transition {
	if !s.CanEnd() {
		return nil
	}

	prevNumber := -1
	if prev != nil {
		prevNumber = prev.Number
	}
	if ts, found := s.completions[prevNumber]; found {
		return ts
	}

	result := make([]*Transition, 0)
	r := s.RulePosition.Rule
	if s.IsGoal() {
		if prev == nil {
			result = append(result, ss.addTransition(s, nil, nil, Goal, s.Context.Copy()))
		}
	} else if prev != nil {
		prp := prev.RulePosition
		if prp.Next() == r {
			next := prp.Advance()
			to := ss.getState(next, prev.Context)
			result = append(result, ss.addTransition(s, to, prev, Graft, ss.firstAt(next, prev.Context)))
		}

		pc := ss.getClosure(prev)
		for _, st := range pc.starts {
			if st.Next() != r {
				continue
			}

			up := st.Advance()
			ctx := pc.follow[st.Rule.Number]
			to := ss.getState(up, ctx)
			result = append(result, ss.addTransition(s, to, prev, Height, ss.firstAt(up, ctx)))
		}
	}

	s.completions[prevNumber] = result
	return result
}

// BuildFor eagerly creates every state and transition reachable from the start state
// for any sentence.
func (ss *ParserStateSet) BuildFor() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	type pair struct {
		prev, state *ParserState
	}
	number := func(s *ParserState) int {
		if s == nil {
			return -1
		}
		return s.Number
	}

	seen := make(map[[2]int]bool)
	prevs := make(map[int][]*ParserState)
	dependents := make(map[int][]*ParserState)
	isDependent := make(map[[2]int]bool)
	pairs := queue.New[pair]()
	push := func(prev, s *ParserState) {
		key := [2]int{number(prev), s.Number}
		if !seen[key] {
			seen[key] = true
			pairs.Append(pair{prev, s})
		}
	}

	push(nil, ss.start)
	for !pairs.IsEmpty() {
		p, _ := pairs.First()
		prev, s := p.prev, p.state
		prevs[s.Number] = append(prevs[s.Number], prev)
		for _, dep := range dependents[s.Number] {
			push(prev, dep)
		}

		if s.HasNext() {
			for _, t := range ss.widthTransitions(s) {
				push(s, t.To)
			}
		}

		if !s.CanEnd() {
			continue
		}

		for _, t := range ss.completionTransitions(prev, s) {
			switch t.Action {
			case Graft:
				key := [2]int{prev.Number, t.To.Number}
				if !isDependent[key] {
					isDependent[key] = true
					dependents[prev.Number] = append(dependents[prev.Number], t.To)
				}
				for _, pp := range prevs[prev.Number] {
					push(pp, t.To)
				}
			case Height:
				push(prev, t.To)
			case Width, Goal, Embed:
			}
		}
	}

	ss.log.Debugf("automaton for %s (%s): %d states, %d transitions", ss.goal.Name, ss.kind, len(ss.states), len(ss.transitions))
}

// String renders all created states, each followed by its outgoing transitions.
func (ss *ParserStateSet) String() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	byFrom := make(map[int][]*Transition)
	for _, t := range ss.transitions {
		byFrom[t.From.Number] = append(byFrom[t.From.Number], t)
	}

	var sb strings.Builder
	sb.WriteString("goal " + ss.goal.Name + " (" + ss.kind.String() + ")\n")
	for _, s := range ss.states {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
		ts := byFrom[s.Number]
		sort.SliceStable(ts, func(i, j int) bool {
			return ts[i].Action < ts[j].Action
		})
		for _, t := range ts {
			sb.WriteString("  ")
			sb.WriteString(t.String())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
