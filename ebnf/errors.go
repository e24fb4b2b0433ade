package ebnf

import (
	"github.com/ava12/gllx"
)

const (
	WrongGrammarError = gllx.GrammarErrors + 50 + iota
	RecursiveTokenError
	WrongSkipError
	WrongExpressionError
)

func wrongGrammarError(name string, e error) *gllx.Error {
	return gllx.FormatError(WrongGrammarError, "incorrect EBNF grammar %s: %s", name, e.Error())
}

func recursiveTokenError(name string) *gllx.Error {
	return gllx.FormatError(RecursiveTokenError, "lexical production %s refers to itself", name)
}

func wrongSkipError(name string) *gllx.Error {
	return gllx.FormatError(WrongSkipError, "skipped production %s must be a lexical production", name)
}

func wrongExpressionError(name, msg string) *gllx.Error {
	return gllx.FormatError(WrongExpressionError, "incorrect expression in %s: %s", name, msg)
}
