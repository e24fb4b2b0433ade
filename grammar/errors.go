package grammar

import (
	"strings"

	"github.com/ava12/gllx"
)

const (
	UnknownRuleError = gllx.GrammarErrors + iota
	RuleDefinedError
	WrongNameError
	WrongRegexpError
	WrongBoundsError
	WrongEmbeddedError
	EmptyRuleSetError
	NoAlternativesError
)

func unknownRuleError(names []string) *gllx.Error {
	return gllx.FormatError(UnknownRuleError, "undefined rules: %s", strings.Join(names, ", "))
}

func ruleDefinedError(name string) *gllx.Error {
	return gllx.FormatError(RuleDefinedError, "rule %q already defined", name)
}

func wrongNameError(name string) *gllx.Error {
	return gllx.FormatError(WrongNameError, "incorrect rule name %q", name)
}

func regexpError(name string, e error) *gllx.Error {
	return gllx.FormatError(WrongRegexpError, "incorrect RegExp for %s (%s)", name, e.Error())
}

func boundsError(name string, min, max int) *gllx.Error {
	return gllx.FormatError(WrongBoundsError, "incorrect repetition bounds for %s: min %d, max %d", name, min, max)
}

func embeddedError(name, goal string) *gllx.Error {
	return gllx.FormatError(WrongEmbeddedError, "cannot embed rule %q into %s", goal, name)
}

func emptyRuleSetError(name string) *gllx.Error {
	return gllx.FormatError(EmptyRuleSetError, "rule set %q defines no rules", name)
}

func noAlternativesError(name string) *gllx.Error {
	return gllx.FormatError(NoAlternativesError, "choice %s has no alternatives", name)
}
