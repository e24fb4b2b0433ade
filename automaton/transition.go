package automaton

import (
	"fmt"

	"github.com/ava12/gllx/internal/ints"
)

type Action int

const (
	// Width consumes a terminal.
	Width Action = iota
	// Height starts an enclosing rule with a complete first symbol.
	Height
	// Graft advances the previous state over a complete symbol.
	Graft
	// Goal accepts the complete goal rule.
	Goal
	// Embed consumes text matched by an embedded rule set.
	Embed
)

func (a Action) String() string {
	switch a {
	case Width:
		return "WIDTH"
	case Height:
		return "HEIGHT"
	case Graft:
		return "GRAFT"
	case Goal:
		return "GOAL"
	case Embed:
		return "EMBED"
	}
	return "?"
}

// Transition leads from state to state. Prev is the previous state for HEIGHT and GRAFT, nil otherwise.
// To is nil for GOAL. The transition is valid only if the next terminal belongs to Lookahead;
// <EOT> stands for the end of text and <RT> means the check is done by the caller.
type Transition struct {
	From      *ParserState
	To        *ParserState
	Prev      *ParserState
	Action    Action
	Lookahead *ints.Set
}

// Label describes transition without state numbers.
func (t *Transition) Label() string {
	res := fmt.Sprintf("%s %s", t.Action, t.From.Label())
	if t.Prev != nil {
		res += " [prev " + t.Prev.Label() + "]"
	}
	if t.To != nil {
		res += " -> " + t.To.Label()
	}
	return res + " ? {" + t.From.set.contextNames(t.Lookahead) + "}"
}

func (t *Transition) String() string {
	res := fmt.Sprintf("%s #%d", t.Action, t.From.Number)
	if t.Prev != nil {
		res += fmt.Sprintf(" [prev #%d]", t.Prev.Number)
	}
	if t.To != nil {
		res += fmt.Sprintf(" -> #%d", t.To.Number)
	}
	return res + " ? {" + t.From.set.contextNames(t.Lookahead) + "}"
}
