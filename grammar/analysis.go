package grammar

import (
	"github.com/ava12/gllx/internal/ints"
)

func analyze(rs *RuleSet) {
	rs.nullable = make([]bool, len(rs.rules))
	rs.first = make([]*ints.Set, len(rs.rules))
	for _, r := range rs.rules {
		rs.first[r.Number] = ints.NewSet()
		if r.Kind == TerminalRule {
			if r.IsEmpty {
				rs.nullable[r.Number] = true
			} else if !r.IsReserved() {
				rs.first[r.Number].Add(r.Number)
			}
		} else if r.IsEmbedded() {
			rs.first[r.Number].Add(RtNumber)
		}
	}

	nonTerminals := rs.NonTerminals()
	for changed := true; changed; {
		changed = false
		for _, r := range nonTerminals {
			if !rs.nullable[r.Number] && isNullable(rs, r) {
				rs.nullable[r.Number] = true
				changed = true
			}
			if updateFirst(rs, r) {
				changed = true
			}
		}
	}
}

func isNullable(rs *RuleSet, r *Rule) bool {
	item := r.Item
	switch item.Kind {
	case EmptyItem:
		return true
	case EmbeddedItem:
		return false
	case MultiItem:
		return item.Min == 0 || rs.nullable[item.Element.Number]
	case SeparatedListItem:
		if item.Min == 0 {
			return true
		}
		return rs.nullable[item.Element.Number] && (item.Min == 1 || rs.nullable[item.Separator.Number])
	case ConcatenationItem, ChoiceItem:
		for option := 0; option < r.OptionCount(); option++ {
			if seqNullable(rs, r.Sequence(option)) {
				return true
			}
		}
	}
	return false
}

func seqNullable(rs *RuleSet, seq []*Rule) bool {
	for _, r := range seq {
		if !rs.nullable[r.Number] {
			return false
		}
	}
	return true
}

func updateFirst(rs *RuleSet, r *Rule) bool {
	first := rs.first[r.Number]
	item := r.Item
	changed := false
	switch item.Kind {
	case EmptyItem, EmbeddedItem:
	case MultiItem:
		changed = first.Union(rs.first[item.Element.Number])
	case SeparatedListItem:
		changed = first.Union(rs.first[item.Element.Number])
		if rs.nullable[item.Element.Number] && first.Union(rs.first[item.Separator.Number]) {
			changed = true
		}
	case ConcatenationItem, ChoiceItem:
		for option := 0; option < r.OptionCount(); option++ {
			for _, sym := range r.Sequence(option) {
				if first.Union(rs.first[sym.Number]) {
					changed = true
				}
				if !rs.nullable[sym.Number] {
					break
				}
			}
		}
	}
	return changed
}
