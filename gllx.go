/*
Package gllx is a general-purpose generalized parser library producing shared packed parse trees.

Consists of subpackages:
  - cmd/gllx: console utility parsing files with a grammar written in EBNF;
  - grammar: defines rules (terminals and non-terminals) and the rule set builder;
  - automaton: builds parser states and transitions on demand for a goal rule;
  - scanner: matches terminals and skip runs against a sentence;
  - parser: drives the graph-structured stack over the automaton;
  - sppt: shared packed parse tree produced by parser;
  - source: sentence text with line index;
  - ebnf: converts golang.org/x/exp/ebnf grammars to rule sets.

Typical usage is:

1. Build a rule set either with grammar.Builder or with ebnf.Load.

2. Create a parser for the rule set, optionally pre-build automata for goal rules.

3. Parse sentences, inspect returned tree or issues.
*/
package gllx

import (
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors = 1   // used by grammar and ebnf
	SyntaxErrors  = 101 // used by parser
	TreeErrors    = 201 // used by sppt
)

// Error is the error type used by gllx subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including position information if provided.
	Message string

	// Line contains line number in sentence or 0.
	Line int

	// Col contains column number in sentence or 0.
	Col int
}

// NewError creates new Error structure.
// line and col will be added to error message if provided (non-zero).
func NewError(code int, msg string, line, col int) *Error {
	if line != 0 && col != 0 {
		msg += fmt.Sprintf(" at line %d col %d", line, col)
	}
	return &Error{code, msg, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// FormatError creates Error structure with no position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, 0, 0)
}

// FormatErrorPos creates Error structure with position information.
func FormatErrorPos(line, col, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, line, col)
}
