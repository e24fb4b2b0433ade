package parser

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/ava12/gllx/automaton"
	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/ints"
	"github.com/ava12/gllx/internal/queue"
	"github.com/ava12/gllx/scanner"
	"github.com/ava12/gllx/source"
	"github.com/ava12/gllx/sppt"
)

type packing struct {
	prefix int
	child  int
}

// gssNode is a graph-structured stack node: a parser state reached for text from start to offset.
// offset includes the skip run following the last terminal, tokenEnd is the end of terminal text for leaves.
// prevs are nodes this one returns to when complete, grafted are nodes created by GRAFT over this one,
// they inherit prevs added later.
type gssNode struct {
	state     *automaton.ParserState
	start     int
	offset    int
	tokenEnd  int
	prevs     []int
	prevSet   map[int]bool
	packings  []packing
	packSet   map[packing]bool
	grafted   []int
	processed bool
	embedded  *sppt.TreeData
}

type nodeKey struct {
	state, start, offset int
}

type subResult struct {
	end  int
	eng  *engine
	tree *sppt.TreeData
}

type engine struct {
	ctx     context.Context
	parser  *Parser
	ss      *automaton.ParserStateSet
	rs      *grammar.RuleSet
	scanner *scanner.Scanner
	src     *source.Source
	length  int
	origin  int
	begin   int
	current int

	nodes    []*gssNode
	index    map[nodeKey]int
	pending  map[int]*queue.Queue[int]
	waiting  int
	heads    map[int]int
	maxHeads int
	expected map[int]*ints.Set
	accepted map[int][]int
	embeds   map[[2]int][]*subResult
	canceled error
}

func newEngine(ctx context.Context, p *Parser, ss *automaton.ParserStateSet, src *source.Source, origin int) *engine {
	e := &engine{
		ctx:      ctx,
		parser:   p,
		ss:       ss,
		rs:       ss.RuleSet(),
		scanner:  scanner.New(ss.RuleSet(), src),
		src:      src,
		length:   src.Len(),
		origin:   origin,
		index:    make(map[nodeKey]int),
		pending:  make(map[int]*queue.Queue[int]),
		heads:    make(map[int]int),
		expected: make(map[int]*ints.Set),
		accepted: make(map[int][]int),
		embeds:   make(map[[2]int][]*subResult),
	}
	e.begin = origin + e.scanner.SkipLength(origin)
	return e
}

func (e *engine) run() {
	e.getOrCreate(e.ss.StartState(), e.begin, e.begin)
	for offset := e.begin; offset <= e.length && e.waiting > 0; offset++ {
		if err := e.ctx.Err(); err != nil {
			e.canceled = err
			return
		}

		e.current = offset
		q := e.pending[offset]
		if q == nil {
			continue
		}

		for !q.IsEmpty() {
			i, _ := q.First()
			e.waiting--
			e.process(i)
		}
		delete(e.pending, offset)
	}
}

func (e *engine) getOrCreate(s *automaton.ParserState, start, offset int) (int, bool) {
	key := nodeKey{s.Number, start, offset}
	if i, found := e.index[key]; found {
		return i, false
	}

	if offset < e.current {
		panic(fmt.Sprintf("cannot create node at %d while processing %d", offset, e.current))
	}

	i := len(e.nodes)
	e.nodes = append(e.nodes, &gssNode{
		state:    s,
		start:    start,
		offset:   offset,
		tokenEnd: offset,
		prevSet:  make(map[int]bool),
		packSet:  make(map[packing]bool),
	})
	e.index[key] = i

	q := e.pending[offset]
	if q == nil {
		q = queue.New[int]()
		e.pending[offset] = q
	}
	q.Append(i)
	e.waiting++

	e.heads[offset]++
	if e.heads[offset] > e.maxHeads {
		e.maxHeads = e.heads[offset]
	}
	return i, true
}

func (e *engine) expect(offset int, numbers ...int) {
	set := e.expected[offset]
	if set == nil {
		set = ints.NewSet()
		e.expected[offset] = set
	}
	set.Add(numbers...)
}

func (e *engine) expectSet(offset int, lookahead *ints.Set) {
	e.expect(offset, lookahead.ToSlice()...)
}

// guardOK checks whether the next terminal at offset belongs to lookahead.
func (e *engine) guardOK(lookahead *ints.Set, offset int) bool {
	if lookahead.Contains(grammar.RtNumber) {
		return true
	}
	if lookahead.Contains(grammar.EotNumber) && offset == e.length {
		return true
	}

	for _, n := range lookahead.ToSlice() {
		t := e.rs.Rule(n)
		if t != nil && t.IsTerminal() && !t.IsReserved() && !t.IsEmpty && e.scanner.Match(t, offset) > 0 {
			return true
		}
	}
	return false
}

func (e *engine) process(i int) {
	n := e.nodes[i]
	n.processed = true
	s := n.state
	if s.HasNext() {
		e.width(i)
	}

	if !s.CanEnd() {
		return
	}

	if s.IsGoal() {
		e.goal(i)
		return
	}

	count := len(n.prevs)
	for j := 0; j < count; j++ {
		e.complete(i, n.prevs[j])
	}
}

func (e *engine) width(hi int) {
	h := e.nodes[hi]
	for _, t := range e.ss.WidthTransitions(h.state) {
		leaf := t.To.RulePosition.Rule
		if t.Action == automaton.Embed {
			e.embed(hi, t)
			continue
		}

		tokenEnd := h.offset
		after := h.offset
		if !leaf.IsEmpty {
			e.expect(h.offset, leaf.Number)
			l := e.scanner.Match(leaf, h.offset)
			if l <= 0 {
				continue
			}

			tokenEnd += l
			after = tokenEnd + e.scanner.SkipLength(tokenEnd)
		}

		if !e.guardOK(t.Lookahead, after) {
			e.expectSet(after, t.Lookahead)
			continue
		}

		li, _ := e.getOrCreate(t.To, h.offset, after)
		e.nodes[li].tokenEnd = tokenEnd
		e.addPrev(li, hi)
	}
}

func (e *engine) embed(hi int, t *automaton.Transition) {
	h := e.nodes[hi]
	rule := t.To.RulePosition.Rule
	e.expect(h.offset, rule.Number)
	for _, r := range e.subParse(rule, h.offset) {
		after := r.end + e.scanner.SkipLength(r.end)
		if !e.guardOK(t.Lookahead, after) {
			e.expectSet(after, t.Lookahead)
			continue
		}

		li, created := e.getOrCreate(t.To, h.offset, after)
		ln := e.nodes[li]
		if created {
			ln.tokenEnd = r.end
			ln.embedded = r.buildTree()
		}
		e.addPrev(li, hi)
		if e.parser.embeddedLongest {
			break
		}
	}
}

// subParse runs embedded goal at offset once and returns accepted completions, the longest first.
func (e *engine) subParse(rule *grammar.Rule, offset int) []*subResult {
	key := [2]int{rule.Number, offset}
	if results, found := e.embeds[key]; found {
		return results
	}

	sub := e.parser.subParser(rule.Item.EmbeddedSet)
	ss := sub.automaton(rule.Item.EmbeddedGoal, automaton.Runtime)
	eng := newEngine(e.ctx, sub, ss, e.src, offset)
	eng.run()
	if eng.canceled != nil && e.canceled == nil {
		e.canceled = eng.canceled
	}

	ends := make([]int, 0, len(eng.accepted))
	for end := range eng.accepted {
		ends = append(ends, end)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ends)))

	results := make([]*subResult, len(ends))
	for i, end := range ends {
		results[i] = &subResult{end: end, eng: eng}
	}
	e.embeds[key] = results
	return results
}

func (r *subResult) buildTree() *sppt.TreeData {
	if r.tree == nil {
		r.tree = r.eng.buildTree(r.end)
	}
	return r.tree
}

func (e *engine) goal(i int) {
	n := e.nodes[i]
	for _, t := range e.ss.CompletionTransitions(nil, n.state) {
		if t.Action != automaton.Goal {
			continue
		}

		if t.Lookahead.Contains(grammar.RtNumber) || (t.Lookahead.Contains(grammar.EotNumber) && n.offset == e.length) {
			e.accepted[n.offset] = append(e.accepted[n.offset], i)
		} else {
			e.expectSet(n.offset, t.Lookahead)
		}
	}
}

func (e *engine) addPrev(i, prev int) {
	n := e.nodes[i]
	if n.prevSet[prev] {
		return
	}

	n.prevSet[prev] = true
	n.prevs = append(n.prevs, prev)
	if n.processed && n.state.CanEnd() && !n.state.IsGoal() {
		e.complete(i, prev)
	}

	for _, g := range n.grafted {
		e.addPrev(g, prev)
	}
}

func (e *engine) addPacking(i, prefix, child int) {
	n := e.nodes[i]
	p := packing{prefix, child}
	if prefix == i || child == i || n.packSet[p] {
		return
	}

	n.packSet[p] = true
	n.packings = append(n.packings, p)
}

func (e *engine) complete(ci, pi int) {
	c := e.nodes[ci]
	p := e.nodes[pi]
	for _, t := range e.ss.CompletionTransitions(p.state, c.state) {
		if !e.guardOK(t.Lookahead, c.offset) {
			e.expectSet(c.offset, t.Lookahead)
			continue
		}

		switch t.Action {
		case automaton.Graft:
			ni, _ := e.getOrCreate(t.To, p.start, c.offset)
			e.addPacking(ni, pi, ci)
			if ni == pi {
				continue
			}

			isGrafted := false
			for _, g := range p.grafted {
				if g == ni {
					isGrafted = true
					break
				}
			}
			if !isGrafted {
				p.grafted = append(p.grafted, ni)
			}
			for j := 0; j < len(p.prevs); j++ {
				e.addPrev(ni, p.prevs[j])
			}

		case automaton.Height:
			ni, _ := e.getOrCreate(t.To, c.start, c.offset)
			e.addPacking(ni, -1, ci)
			e.addPrev(ni, pi)

		case automaton.Width, automaton.Goal, automaton.Embed:
			panic(fmt.Sprintf("unexpected %s transition on completion", t.Action))
		}
	}
}

func (e *engine) syntaxIssue() Issue {
	offset := e.begin
	for o := range e.expected {
		if o > offset {
			offset = o
		}
	}

	var names []string
	if set := e.expected[offset]; set != nil {
		names = e.rs.Names(set.ToSlice())
	}

	found := ""
	length := 0
	if offset < e.length {
		if leaf, ok := e.scanner.LongestAt(offset); ok {
			length = leaf.Length
		} else {
			_, length = utf8.DecodeRuneInString(e.src.Content()[offset:])
		}
		found = e.src.Content()[offset : offset+length]
	}

	line, col := e.src.LineCol(offset)
	issue := Issue{
		Kind:     SyntaxIssue,
		Location: Location{Line: line, Column: col, Position: offset, Length: length},
		Expected: names,
		Found:    found,
	}
	if offset < e.length {
		issue.code = UnexpectedInputError
		issue.Message = fmt.Sprintf("unexpected %q%s", found, expectedText(names))
	} else {
		issue.code = UnexpectedEndError
		issue.Message = "unexpected end of text" + expectedText(names)
	}
	return issue
}
