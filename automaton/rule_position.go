package automaton

import (
	"fmt"

	"github.com/ava12/gllx/grammar"
)

// EndPosition marks a rule position with nothing left to match.
const EndPosition = -1

// RulePosition points inside an option of a rule.
// For fixed sequences Position is the index of the next symbol.
// For repetitions Position counts matched symbols (elements and separators);
// unbounded repetitions cap the count at max(min, 1) elements so the number of positions is finite.
// Leaves (terminals and embedded rules) have the only position EndPosition.
type RulePosition struct {
	Rule     *grammar.Rule
	Option   int
	Position int
}

// Start returns the initial position of rule option.
func Start(r *grammar.Rule, option int) RulePosition {
	if r.IsLeaf() {
		return RulePosition{r, 0, EndPosition}
	}
	return RulePosition{r, option, 0}
}

// End returns the final position of rule option.
func End(r *grammar.Rule, option int) RulePosition {
	return RulePosition{r, option, EndPosition}
}

func (rp RulePosition) IsAtEnd() bool {
	return rp.Position == EndPosition
}

func minCount(item *grammar.Item) int {
	if item.Min > 1 {
		return item.Min
	}
	return 1
}

// Next returns the symbol expected at position or nil.
func (rp RulePosition) Next() *grammar.Rule {
	if rp.IsAtEnd() {
		return nil
	}

	r := rp.Rule
	if !r.IsListOption(rp.Option) {
		seq := r.Sequence(rp.Option)
		if rp.Position >= len(seq) {
			return nil
		}
		return seq[rp.Position]
	}

	item := r.Item
	p := rp.Position
	if item.Kind == grammar.MultiItem {
		if item.Max < 0 || p < item.Max {
			return item.Element
		}
		return nil
	}

	if p%2 == 0 {
		return item.Element
	}
	if item.Max < 0 || (p+1)/2 < item.Max {
		return item.Separator
	}
	return nil
}

// CanEnd returns true if the rule option may be complete at position.
func (rp RulePosition) CanEnd() bool {
	if rp.IsAtEnd() {
		return true
	}

	r := rp.Rule
	if !r.IsListOption(rp.Option) {
		return false
	}

	p := rp.Position
	if r.Item.Kind == grammar.MultiItem {
		return p >= minCount(r.Item)
	}
	return p%2 == 1 && (p+1)/2 >= minCount(r.Item)
}

// Advance returns position after the next symbol. Advancing a final position panics.
func (rp RulePosition) Advance() RulePosition {
	if rp.IsAtEnd() {
		panic("cannot advance final rule position " + rp.String())
	}

	r := rp.Rule
	p := rp.Position + 1
	if !r.IsListOption(rp.Option) {
		if p >= len(r.Sequence(rp.Option)) {
			p = EndPosition
		}
		return RulePosition{r, rp.Option, p}
	}

	item := r.Item
	c := minCount(item)
	if item.Kind == grammar.MultiItem {
		if item.Max >= 0 {
			if p >= item.Max {
				p = EndPosition
			}
		} else if p > c {
			p = c
		}
		return RulePosition{r, rp.Option, p}
	}

	if item.Max >= 0 {
		if p%2 == 1 && (p+1)/2 >= item.Max {
			p = EndPosition
		}
	} else if p > 2*c {
		p -= 2
	}
	return RulePosition{r, rp.Option, p}
}

func (rp RulePosition) key() string {
	return fmt.Sprintf("%d/%d/%d", rp.Rule.Number, rp.Option, rp.Position)
}

func (rp RulePosition) String() string {
	name := rp.Rule.Name
	if rp.Rule.IsEmpty && rp.Rule.EmptyFor != nil {
		name += "(" + rp.Rule.EmptyFor.Name + ")"
	}
	if rp.IsAtEnd() {
		return fmt.Sprintf("%s|%d@end", name, rp.Option)
	}
	return fmt.Sprintf("%s|%d@%d", name, rp.Option, rp.Position)
}
