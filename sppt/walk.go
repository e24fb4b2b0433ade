package sppt

import (
	"github.com/ava12/gllx/grammar"
)

// Walker receives events of depth-first tree traversal.
// Branch events are sent once per alternative: alternative is its index, count is the number of alternatives.
type Walker interface {
	BeginTree(td *TreeData)
	EndTree(td *TreeData)
	BeginBranch(n Node, alternative, count int)
	EndBranch(n Node, alternative, count int)
	Leaf(n Node, text string)
	Skip(n Node, text string)
	BeginEmbedded(n Node, sub *TreeData)
	EndEmbedded(n Node, sub *TreeData)
}

// NopWalker ignores all events, it is intended for embedding into walkers interested in some events only.
type NopWalker struct{}

func (NopWalker) BeginTree(*TreeData) {}
func (NopWalker) EndTree(*TreeData) {}
func (NopWalker) BeginBranch(Node, int, int) {}
func (NopWalker) EndBranch(Node, int, int) {}
func (NopWalker) Leaf(Node, string) {}
func (NopWalker) Skip(Node, string) {}
func (NopWalker) BeginEmbedded(Node, *TreeData) {}
func (NopWalker) EndEmbedded(Node, *TreeData) {}

// TraverseDepthFirst walks every alternative of every node starting at the root.
// Shared nodes are visited once per occurrence. Skip runs are reported only if includeSkip is set.
func (td *TreeData) TraverseDepthFirst(w Walker, includeSkip bool) {
	w.BeginTree(td)
	td.walkNode(w, td.root, includeSkip)
	w.EndTree(td)
}

func (td *TreeData) walkNode(w Walker, n Node, includeSkip bool) {
	switch {
	case n.Rule.Number == grammar.SkipNumber:
		if includeSkip {
			for _, alt := range td.ChildrenFor(n) {
				for _, c := range alt.Children {
					w.Skip(c, td.Text(c))
				}
			}
		}

	case n.IsLeaf():
		w.Leaf(n, td.Text(n))

	case n.Rule.IsEmbedded():
		sub := td.Embedded(n)
		w.BeginEmbedded(n, sub)
		if sub != nil {
			sub.walkNode(w, sub.root, includeSkip)
		}
		w.EndEmbedded(n, sub)

	default:
		alts := td.ChildrenFor(n)
		for i, alt := range alts {
			w.BeginBranch(n, i, len(alts))
			for _, c := range alt.Children {
				td.walkNode(w, c, includeSkip)
			}
			w.EndBranch(n, i, len(alts))
		}
	}
}

// NodeFilter checks whether a node is interesting.
type NodeFilter func(td *TreeData, n Node) bool

// IsA returns filter accepting nodes of any listed rule names.
func IsA(names ...string) NodeFilter {
	return func(td *TreeData, n Node) bool {
		for _, name := range names {
			if n.Rule.Name == name {
				return true
			}
		}
		return false
	}
}

// IsALiteral returns filter accepting terminal nodes having any of listed texts.
func IsALiteral(texts ...string) NodeFilter {
	return func(td *TreeData, n Node) bool {
		if !n.IsLeaf() {
			return false
		}

		text := td.Text(n)
		for _, t := range texts {
			if text == t {
				return true
			}
		}
		return false
	}
}

func IsNot(f NodeFilter) NodeFilter {
	return func(td *TreeData, n Node) bool {
		return !f(td, n)
	}
}

func IsAny(fs ...NodeFilter) NodeFilter {
	return func(td *TreeData, n Node) bool {
		for _, f := range fs {
			if f(td, n) {
				return true
			}
		}
		return false
	}
}

func IsAll(fs ...NodeFilter) NodeFilter {
	return func(td *TreeData, n Node) bool {
		for _, f := range fs {
			if !f(td, n) {
				return false
			}
		}
		return true
	}
}

// Find returns distinct nodes accepted by filter in depth-first order, all alternatives are searched.
// Embedded subtrees and skip runs are not searched.
func (td *TreeData) Find(filter NodeFilter) []Node {
	result := make([]Node, 0)
	visited := make(map[Key]bool)
	var visit func(n Node)
	visit = func(n Node) {
		key := n.Key()
		if visited[key] {
			return
		}

		visited[key] = true
		if filter(td, n) {
			result = append(result, n)
		}
		if n.Rule.IsReserved() {
			return
		}
		for _, alt := range td.ChildrenFor(n) {
			for _, c := range alt.Children {
				visit(c)
			}
		}
	}
	visit(td.root)
	return result
}
