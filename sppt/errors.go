package sppt

import (
	"github.com/ava12/gllx"
	"github.com/ava12/gllx/source"
)

const (
	UnexpectedTokenError = gllx.TreeErrors + iota
	UnexpectedEndError
	UnknownRuleError
	WrongTextError
	AlternativeMismatchError
)

func posError(src *source.Source, pos, code int, msg string, params ...any) *gllx.Error {
	line, col := src.LineCol(pos)
	return gllx.FormatErrorPos(line, col, code, msg, params...)
}

func unexpectedTokenError(src *source.Source, pos int, text string) *gllx.Error {
	return posError(src, pos, UnexpectedTokenError, "unexpected %q", text)
}

func unexpectedEndError(src *source.Source) *gllx.Error {
	return posError(src, src.Len(), UnexpectedEndError, "unexpected end of tree text")
}

func unknownRuleError(src *source.Source, pos int, name string) *gllx.Error {
	return posError(src, pos, UnknownRuleError, "unknown rule %s", name)
}

func wrongTextError(src *source.Source, pos int, name, text string) *gllx.Error {
	return posError(src, pos, WrongTextError, "text %q does not match %s", text, name)
}

func alternativeMismatchError(src *source.Source, pos int, name string) *gllx.Error {
	return posError(src, pos, AlternativeMismatchError, "alternative of %s covers different text", name)
}
