package parser

import (
	"fmt"
	"sort"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/internal/queue"
	"github.com/ava12/gllx/sppt"
)

const (
	visiting = iota + 1
	visitedFull
	visitedEmpty
)

type treeBuilder struct {
	e      *engine
	td     *sppt.TreeData
	index  map[sppt.Key][]int
	visits map[sppt.Key]int
}

// step is a packing seen from the prefix side: node extends its prefix with child.
type step struct {
	node, child int
}

// buildTree collects derivations of the goal rule from the first significant offset to end.
// Every node gets at most one alternative per option, derivations forming zero-length cycles are dropped.
func (e *engine) buildTree(end int) *sppt.TreeData {
	b := &treeBuilder{
		e:      e,
		index:  make(map[sppt.Key][]int),
		visits: make(map[sppt.Key]int),
	}

	for i, n := range e.nodes {
		s := n.state
		r := s.RulePosition.Rule
		if !s.CanEnd() || s.IsGoal() || r.IsLeaf() || n.offset > end {
			continue
		}

		key := sppt.Key{Rule: r.Number, Start: n.start, Length: n.offset - n.start}
		b.index[key] = append(b.index[key], i)
	}

	goal := e.ss.Goal()
	inner := sppt.Node{Rule: goal, Start: e.begin, Length: end - e.begin}
	b.td = sppt.New(e.rs, e.src, inner)
	b.visit(inner)
	alts := b.td.ChildrenFor(inner)
	if len(alts) == 0 {
		panic(fmt.Sprintf("no derivation for accepted goal %s", inner))
	}
	inner.Option = alts[0].Option

	root := inner
	if e.begin > e.origin {
		root = sppt.Node{Rule: goal, Option: inner.Option, Start: e.origin, Length: end - e.origin}
		skip := b.skipNode(e.origin, e.begin)
		for _, alt := range alts {
			children := append([]sppt.Node{skip}, alt.Children...)
			b.td.AddAlternative(root, sppt.Alternative{Option: alt.Option, Children: children})
		}
	}

	b.td.SetRoot(root)
	b.td.Prune()
	return b.td
}

func (b *treeBuilder) visit(n sppt.Node) bool {
	key := n.Key()
	switch b.visits[key] {
	case visiting, visitedEmpty:
		return false
	case visitedFull:
		return true
	}

	b.visits[key] = visiting
	byOption := make(map[int][]int)
	options := make([]int, 0, 1)
	for _, gi := range b.index[key] {
		option := b.e.nodes[gi].state.RulePosition.Option
		if byOption[option] == nil {
			options = append(options, option)
		}
		byOption[option] = append(byOption[option], gi)
	}
	sort.Ints(options)

	alts := make([]sppt.Alternative, 0, len(options))
	for _, option := range options {
		if children, ok := b.children(byOption[option]); ok {
			alts = append(alts, sppt.Alternative{Option: option, Children: children})
		}
	}

	for _, alt := range preferLongest(alts) {
		b.td.AddAlternative(sppt.Node{Rule: n.Rule, Option: alt.Option, Start: n.Start, Length: n.Length}, alt)
	}

	if len(alts) > 0 {
		b.visits[key] = visitedFull
	} else {
		b.visits[key] = visitedEmpty
	}
	return len(alts) > 0
}

// children selects one child sequence for stack nodes sharing rule, option and span.
// Packings of the nodes are followed back to the rule start, then the sequence is assembled
// from the start taking the longest child at every step.
func (b *treeBuilder) children(ends []int) ([]sppt.Node, bool) {
	isEnd := make(map[int]bool, len(ends))
	inChain := make(map[int]bool)
	q := queue.New[int]()
	for _, gi := range ends {
		isEnd[gi] = true
		inChain[gi] = true
		q.Append(gi)
	}

	next := make(map[int][]step)
	var firsts []step
	for !q.IsEmpty() {
		gi, _ := q.First()
		for _, p := range b.e.nodes[gi].packings {
			if !b.isDerived(p.child) {
				continue
			}

			s := step{gi, p.child}
			if p.prefix < 0 {
				firsts = append(firsts, s)
				continue
			}

			next[p.prefix] = append(next[p.prefix], s)
			if !inChain[p.prefix] {
				inChain[p.prefix] = true
				q.Append(p.prefix)
			}
		}
	}

	var result []sppt.Node
	taken := make(map[int]bool)
	candidates := firsts
	for {
		s, found := b.longest(candidates, taken)
		if !found {
			return nil, false
		}

		taken[s.node] = true
		result = append(result, b.childNodes(s.child)...)
		if isEnd[s.node] {
			return result, true
		}
		candidates = next[s.node]
	}
}

func (b *treeBuilder) longest(steps []step, taken map[int]bool) (step, bool) {
	var best step
	found := false
	for _, s := range steps {
		if taken[s.node] {
			continue
		}

		if !found {
			best, found = s, true
			continue
		}

		so, bo := b.e.nodes[s.child].offset, b.e.nodes[best.child].offset
		if so > bo || (so == bo && (s.node < best.node || (s.node == best.node && s.child < best.child))) {
			best = s
		}
	}
	return best, found
}

func (b *treeBuilder) isDerived(ci int) bool {
	c := b.e.nodes[ci]
	r := c.state.RulePosition.Rule
	if r.IsLeaf() {
		return true
	}
	return b.visit(sppt.Node{Rule: r, Start: c.start, Length: c.offset - c.start})
}

// preferLongest drops alternatives matching a longest-match choice with a shorter span than
// another alternative does from the same start.
func preferLongest(alts []sppt.Alternative) []sppt.Alternative {
	if len(alts) < 2 {
		return alts
	}

	type from struct {
		rule, start int
	}
	longest := make(map[from]int)
	for _, a := range alts {
		for _, c := range a.Children {
			if isLongestChoice(c.Rule) {
				k := from{c.Rule.Number, c.Start}
				if l, found := longest[k]; !found || c.Length > l {
					longest[k] = c.Length
				}
			}
		}
	}

	result := make([]sppt.Alternative, 0, len(alts))
	for _, a := range alts {
		ok := true
		for _, c := range a.Children {
			if isLongestChoice(c.Rule) && c.Length < longest[from{c.Rule.Number, c.Start}] {
				ok = false
				break
			}
		}
		if ok {
			result = append(result, a)
		}
	}

	if len(result) == 0 {
		return alts
	}
	return result
}

func isLongestChoice(r *grammar.Rule) bool {
	return r.Item != nil && r.Item.Kind == grammar.ChoiceItem && r.Item.Choice == grammar.ChoiceEqual
}

func (b *treeBuilder) childNodes(ci int) []sppt.Node {
	c := b.e.nodes[ci]
	r := c.state.RulePosition.Rule
	if !r.IsLeaf() {
		return []sppt.Node{{Rule: r, Option: c.state.RulePosition.Option, Start: c.start, Length: c.offset - c.start}}
	}

	leaf := sppt.Node{Rule: r, Start: c.start, Length: c.tokenEnd - c.start}
	if c.embedded != nil {
		b.td.SetEmbedded(leaf, c.embedded)
	}
	if c.offset > c.tokenEnd {
		return []sppt.Node{leaf, b.skipNode(c.tokenEnd, c.offset)}
	}
	return []sppt.Node{leaf}
}

func (b *treeBuilder) skipNode(from, to int) sppt.Node {
	n := sppt.Node{Rule: b.e.rs.Skip(), Start: from, Length: to - from}
	if b.td.ChildrenFor(n) == nil {
		run := b.e.scanner.SkipAt(from)
		leaves := make([]sppt.Node, len(run))
		for i, l := range run {
			leaves[i] = sppt.Node{Rule: l.Rule, Start: l.Start, Length: l.Length}
		}
		b.td.AddAlternative(n, sppt.Alternative{Children: leaves})
	}
	return n
}
