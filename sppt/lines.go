package sppt

import (
	"sort"

	"github.com/ava12/gllx/grammar"
)

// LeafData describes a terminal or a part of it located on a single line.
// Path contains names of ancestor rules starting from the root, embedded rule names included.
type LeafData struct {
	Name   string
	Text   string
	Start  int
	Length int
	IsSkip bool
	Path   []string
}

func (ld LeafData) End() int {
	return ld.Start + ld.Length
}

// Leaves returns all non-empty terminals of the first alternative of each node in text order.
func (td *TreeData) Leaves() []LeafData {
	td.leavesOnce.Do(func() {
		td.leaves = make([]LeafData, 0)
		td.collectLeaves(td.root, nil, &td.leaves)
	})
	return td.leaves
}

func (td *TreeData) collectLeaves(n Node, path []string, leaves *[]LeafData) {
	switch {
	case n.Rule.Number == grammar.SkipNumber:
		alts := td.ChildrenFor(n)
		if len(alts) > 0 {
			for _, c := range alts[0].Children {
				td.collectLeaves(c, path, leaves)
			}
		}

	case n.IsLeaf():
		if n.Length > 0 {
			*leaves = append(*leaves, LeafData{
				Name:   n.Rule.Name,
				Text:   td.Text(n),
				Start:  n.Start,
				Length: n.Length,
				IsSkip: n.Rule.IsSkip,
				Path:   append([]string(nil), path...),
			})
		}

	case n.Rule.IsEmbedded():
		if sub := td.Embedded(n); sub != nil {
			sub.collectLeaves(sub.root, append(path, n.Rule.Name), leaves)
		}

	default:
		alts := td.ChildrenFor(n)
		if len(alts) > 0 {
			path = append(path, n.Rule.Name)
			for _, c := range alts[0].Children {
				td.collectLeaves(c, path, leaves)
			}
		}
	}
}

// TokensByLine returns leaves located on 1-based line. Leaves spanning several lines
// (multi-line comments, strings) are split at line boundaries, each part keeps leaf name and path.
func (td *TreeData) TokensByLine(line int) []LeafData {
	ls := td.src.LineStart(line)
	if ls < 0 {
		return nil
	}

	le := td.src.LineEnd(line)
	leaves := td.Leaves()
	first := sort.Search(len(leaves), func(i int) bool {
		return leaves[i].End() > ls
	})

	result := make([]LeafData, 0)
	text := td.src.Content()
	for _, leaf := range leaves[first:] {
		if leaf.Start >= le {
			break
		}

		start := max(leaf.Start, ls)
		end := min(leaf.End(), le)
		part := leaf
		part.Start = start
		part.Length = end - start
		part.Text = text[start:end]
		result = append(result, part)
	}
	return result
}
