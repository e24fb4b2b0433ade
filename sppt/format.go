package sppt

import (
	"strconv"
	"strings"

	"github.com/ava12/gllx/grammar"
)

// String renders tree in canonical form:
//   - branch: name { children }, name|k { children } for option k > 0;
//   - ambiguous branch: every alternative rendered in a row with (*i) suffix, e.g. A(*0) { ... } A|1(*1) { ... };
//   - literal terminal: 'text';
//   - pattern terminal: name : 'text';
//   - empty terminal: <EMPTY>;
//   - embedded rule: name { subtree root }.
//
// Skip runs are rendered as sequences of terminals. Read parses this form back.
func (td *TreeData) String() string {
	var sb strings.Builder
	td.writeNode(&sb, td.root)
	return sb.String()
}

func (td *TreeData) writeNode(sb *strings.Builder, n Node) {
	switch {
	case n.Rule.Number == grammar.SkipNumber:
		alts := td.ChildrenFor(n)
		if len(alts) == 0 {
			return
		}
		for i, c := range alts[0].Children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			td.writeLeaf(sb, c)
		}

	case n.IsLeaf():
		td.writeLeaf(sb, n)

	case n.Rule.IsEmbedded():
		sb.WriteString(n.Rule.Name)
		sb.WriteString(" {")
		if sub := td.Embedded(n); sub != nil {
			sb.WriteByte(' ')
			sub.writeNode(sb, sub.root)
		}
		sb.WriteString(" }")

	default:
		alts := td.ChildrenFor(n)
		if len(alts) == 0 {
			sb.WriteString(n.Rule.Name)
			sb.WriteString(" { }")
			return
		}

		for i, alt := range alts {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(n.Rule.Name)
			if alt.Option != 0 {
				sb.WriteByte('|')
				sb.WriteString(strconv.Itoa(alt.Option))
			}
			if len(alts) > 1 {
				sb.WriteString("(*")
				sb.WriteString(strconv.Itoa(i))
				sb.WriteByte(')')
			}
			sb.WriteString(" {")
			for _, c := range alt.Children {
				sb.WriteByte(' ')
				td.writeNode(sb, c)
			}
			sb.WriteString(" }")
		}
	}
}

func (td *TreeData) writeLeaf(sb *strings.Builder, n Node) {
	r := n.Rule
	switch {
	case r.IsEmpty:
		sb.WriteString(grammar.EmptyName)
	case r.IsPattern:
		sb.WriteString(r.Name)
		sb.WriteString(" : ")
		sb.WriteString(grammar.LiteralName(td.Text(n)))
	default:
		sb.WriteString(r.Name)
	}
}
