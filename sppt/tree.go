// Package sppt defines shared packed parse trees.
// A tree maps every node (rule, start, length) to the list of its alternatives,
// each alternative being an option index and a sequence of child nodes.
// Nodes reachable through more than one parent are stored once.
package sppt

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/source"
)

// Node is a reference to a tree node. Node identity is (Rule, Start, Length), Option is informational:
// for non-terminals it holds the option of the first alternative.
type Node struct {
	Rule   *grammar.Rule
	Option int
	Start  int
	Length int
}

// Key identifies node within TreeData.
type Key struct {
	Rule   int
	Start  int
	Length int
}

func (n Node) Key() Key {
	return Key{n.Rule.Number, n.Start, n.Length}
}

func (n Node) End() int {
	return n.Start + n.Length
}

func (n Node) Name() string {
	return n.Rule.Name
}

// IsLeaf returns true for terminal nodes, empty terminals included.
func (n Node) IsLeaf() bool {
	return n.Rule.IsTerminal()
}

// IsSkip returns true for nodes grouping skip runs and for skip terminal nodes.
func (n Node) IsSkip() bool {
	return n.Rule.Number == grammar.SkipNumber || n.Rule.IsSkip
}

func (n Node) IsEmpty() bool {
	return n.Rule.IsEmpty
}

func (n Node) String() string {
	return fmt.Sprintf("%s|%d[%d:%d]", n.Rule.Name, n.Option, n.Start, n.End())
}

// Alternative is one way to derive a node.
type Alternative struct {
	Option   int
	Children []Node
}

func (a Alternative) sameAs(b Alternative) bool {
	if a.Option != b.Option || len(a.Children) != len(b.Children) {
		return false
	}

	for i, c := range a.Children {
		if c.Key() != b.Children[i].Key() {
			return false
		}
	}
	return true
}

func (a Alternative) key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:", a.Option)
	for _, c := range a.Children {
		fmt.Fprintf(&sb, " %d/%d/%d", c.Rule.Number, c.Start, c.Length)
	}
	return sb.String()
}

// TreeData is a shared packed parse tree of a sentence. Embedded rule nodes refer to subtrees
// built with embedded rule sets, subtree nodes share sentence offsets with the outer tree.
type TreeData struct {
	ruleSet  *grammar.RuleSet
	src      *source.Source
	root     Node
	nodes    map[Key][]Alternative
	embedded map[Key]*TreeData

	leavesOnce sync.Once
	leaves     []LeafData
}

// New creates tree containing no alternatives yet.
func New(rs *grammar.RuleSet, src *source.Source, root Node) *TreeData {
	return &TreeData{
		ruleSet:  rs,
		src:      src,
		root:     root,
		nodes:    make(map[Key][]Alternative),
		embedded: make(map[Key]*TreeData),
	}
}

// AddAlternative adds alternative to non-terminal node unless the same alternative exists.
// For priority choices only the alternative with the lowest option is kept.
// Returns false if nothing was added.
func (td *TreeData) AddAlternative(n Node, alt Alternative) bool {
	key := n.Key()
	alts := td.nodes[key]
	for _, a := range alts {
		if a.sameAs(alt) {
			return false
		}
	}

	item := n.Rule.Item
	if item != nil && item.Kind == grammar.ChoiceItem && item.Choice == grammar.ChoicePriority && len(alts) > 0 {
		if alts[0].Option < alt.Option {
			return false
		}
		if alts[0].Option > alt.Option {
			alts = alts[:0]
		}
	}

	td.nodes[key] = append(alts, alt)
	return true
}

// SetEmbedded attaches subtree to embedded rule node.
func (td *TreeData) SetEmbedded(n Node, sub *TreeData) {
	td.embedded[n.Key()] = sub
}

func (td *TreeData) RuleSet() *grammar.RuleSet {
	return td.ruleSet
}

func (td *TreeData) Source() *source.Source {
	return td.src
}

func (td *TreeData) Root() Node {
	return td.root
}

// SetRoot replaces root node, node identity must not change.
func (td *TreeData) SetRoot(n Node) {
	td.root = n
}

// Sentence returns the whole parsed text.
func (td *TreeData) Sentence() string {
	return td.src.Content()
}

// Text returns the part of sentence covered by node.
func (td *TreeData) Text(n Node) string {
	return td.src.Content()[n.Start:n.End()]
}

// ChildrenFor returns alternatives of node, nil for leaves and unknown nodes.
func (td *TreeData) ChildrenFor(n Node) []Alternative {
	return td.nodes[n.Key()]
}

func (td *TreeData) IsAmbiguous(n Node) bool {
	return len(td.nodes[n.Key()]) > 1
}

// Embedded returns subtree of embedded rule node or nil.
func (td *TreeData) Embedded(n Node) *TreeData {
	return td.embedded[n.Key()]
}

// NumNodes returns the number of non-terminal nodes having alternatives.
func (td *TreeData) NumNodes() int {
	return len(td.nodes)
}

// Prune removes nodes not reachable from the root.
func (td *TreeData) Prune() {
	reachable := make(map[Key]bool)
	stack := []Node{td.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		key := n.Key()
		if reachable[key] {
			continue
		}

		reachable[key] = true
		for _, alt := range td.nodes[key] {
			stack = append(stack, alt.Children...)
		}
	}

	for key := range td.nodes {
		if !reachable[key] {
			delete(td.nodes, key)
		}
	}
	for key := range td.embedded {
		if !reachable[key] {
			delete(td.embedded, key)
		}
	}
}

// Equal compares sentences and node structure reachable from roots,
// order of alternatives is insignificant.
func (td *TreeData) Equal(other *TreeData) bool {
	if td == nil || other == nil {
		return td == other
	}

	if td.Sentence() != other.Sentence() || td.root.Key() != other.root.Key() {
		return false
	}

	visited := make(map[Key]bool)
	stack := []Node{td.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		key := n.Key()
		if visited[key] {
			continue
		}
		visited[key] = true

		if n.Rule.IsEmbedded() {
			if !td.Embedded(n).Equal(other.Embedded(n)) {
				return false
			}
			continue
		}

		alts := altKeys(td.nodes[key])
		otherAlts := altKeys(other.nodes[key])
		if len(alts) != len(otherAlts) {
			return false
		}
		for i := range alts {
			if alts[i] != otherAlts[i] {
				return false
			}
		}

		for _, alt := range td.nodes[key] {
			stack = append(stack, alt.Children...)
		}
	}
	return true
}

func altKeys(alts []Alternative) []string {
	result := make([]string, len(alts))
	for i, a := range alts {
		result[i] = a.key()
	}
	sort.Strings(result)
	return result
}
