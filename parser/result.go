package parser

import (
	"github.com/ava12/gllx"
	"github.com/ava12/gllx/sppt"
)

type IssueKind int

const (
	// SyntaxIssue means the sentence does not match the goal.
	SyntaxIssue IssueKind = iota
	// GoalIssue means the goal rule is unknown or is not a non-terminal.
	GoalIssue
	// CanceledIssue means the parse was interrupted by context.
	CanceledIssue
)

func (k IssueKind) String() string {
	switch k {
	case SyntaxIssue:
		return "syntax"
	case GoalIssue:
		return "goal"
	case CanceledIssue:
		return "canceled"
	}
	return "unknown"
}

// Location points to a part of sentence: 1-based Line and Column, 0-based byte Position, byte Length.
type Location struct {
	Line     int
	Column   int
	Position int
	Length   int
}

// Issue describes parse failure. For syntax issues Location points to the furthest position reached,
// Expected contains names of terminals acceptable there and Found contains the text found.
type Issue struct {
	Kind     IssueKind
	Location Location
	Message  string
	Expected []string
	Found    string

	code int
}

// Code returns error code of the issue.
func (i Issue) Code() int {
	return i.code
}

// ParseResult contains either a tree or issues. MaxNumHeads is the maximum number of graph-structured stack
// nodes created for a single sentence position, AcceptedHeads is the number of stack nodes reaching the goal
// at the end of text.
type ParseResult struct {
	Tree          *sppt.TreeData
	Issues        []Issue
	MaxNumHeads   int
	AcceptedHeads int
}

func (r *ParseResult) IsSuccess() bool {
	return r.Tree != nil && len(r.Issues) == 0
}

// Err returns the first issue as *gllx.Error or nil.
func (r *ParseResult) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}

	i := r.Issues[0]
	if i.Kind == SyntaxIssue {
		return gllx.NewError(i.code, i.Message, i.Location.Line, i.Location.Column)
	}
	return gllx.NewError(i.code, i.Message, 0, 0)
}
