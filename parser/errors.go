package parser

import (
	"strings"

	"github.com/ava12/gllx"
)

const (
	UnknownGoalError = gllx.SyntaxErrors + iota
	WrongGoalError
	UnexpectedInputError
	UnexpectedEndError
	CanceledError
)

func unknownGoalError(name string) *gllx.Error {
	return gllx.FormatError(UnknownGoalError, "unknown goal rule %q", name)
}

func wrongGoalError(name string) *gllx.Error {
	return gllx.FormatError(WrongGoalError, "cannot use %s as goal", name)
}

func expectedText(expected []string) string {
	if len(expected) == 0 {
		return ""
	}
	return ", expecting " + strings.Join(expected, " or ")
}
