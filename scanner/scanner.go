// Package scanner matches terminals of a rule set against sentence text.
package scanner

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/source"
)

// Leaf is a matched terminal. Rule is nil for unknown text found by Scan.
type Leaf struct {
	Rule   *grammar.Rule
	Start  int
	Length int
}

func (l Leaf) End() int {
	return l.Start + l.Length
}

func (l Leaf) Name() string {
	if l.Rule == nil {
		return grammar.UnknownName
	}
	return l.Rule.Name
}

func (l Leaf) IsSkip() bool {
	return l.Rule != nil && l.Rule.IsSkip
}

// Scanner matches terminals at arbitrary offsets of a single sentence and memoizes results.
// Literal terminals match exact text, pattern terminals match their regexp anchored at offset
// (leftmost-first semantics of regexp package). A pattern never matches empty text.
// Scanner is not safe for concurrent use.
type Scanner struct {
	rs        *grammar.RuleSet
	src       *source.Source
	text      string
	numRules  int
	terminals []*grammar.Rule
	skips     []*grammar.Rule
	matches   map[int]int
	skipRuns  map[int][]Leaf
}

func New(rs *grammar.RuleSet, src *source.Source) *Scanner {
	terminals := rs.Terminals()
	skips := make([]*grammar.Rule, 0)
	for _, t := range terminals {
		if t.IsSkip {
			skips = append(skips, t)
		}
	}

	return &Scanner{
		rs:        rs,
		src:       src,
		text:      src.Content(),
		numRules:  len(rs.Rules()),
		terminals: terminals,
		skips:     skips,
		matches:   make(map[int]int),
		skipRuns:  make(map[int][]Leaf),
	}
}

func (s *Scanner) Source() *source.Source {
	return s.src
}

func (s *Scanner) RuleSet() *grammar.RuleSet {
	return s.rs
}

func (s *Scanner) Len() int {
	return len(s.text)
}

// Match returns the length of terminal match at offset or -1.
// Empty terminals always match with zero length, <EOT> matches at the end of text only.
func (s *Scanner) Match(t *grammar.Rule, offset int) int {
	if offset < 0 || offset > len(s.text) || !t.IsTerminal() {
		return -1
	}

	switch {
	case t.IsEmpty:
		return 0
	case t.Number == grammar.EotNumber:
		if offset == len(s.text) {
			return 0
		}
		return -1
	case t.IsReserved():
		return -1
	}

	key := offset*s.numRules + t.Number
	if l, found := s.matches[key]; found {
		return l
	}

	l := -1
	tail := s.text[offset:]
	if t.IsPattern {
		loc := t.Regexp().FindStringIndex(tail)
		if loc != nil && loc[1] > 0 {
			l = loc[1]
		}
	} else if strings.HasPrefix(tail, t.Literal) {
		l = len(t.Literal)
	}
	s.matches[key] = l
	return l
}

func (s *Scanner) longest(rules []*grammar.Rule, offset int) (Leaf, bool) {
	var result Leaf
	found := false
	for _, t := range rules {
		l := s.Match(t, offset)
		if l > result.Length {
			result = Leaf{t, offset, l}
			found = true
		}
	}
	return result, found
}

// SkipAt returns the maximal run of skip terminals starting at offset.
// At each step the longest matching skip terminal is taken, the first defined one wins a tie.
func (s *Scanner) SkipAt(offset int) []Leaf {
	if run, found := s.skipRuns[offset]; found {
		return run
	}

	run := make([]Leaf, 0)
	for pos := offset; pos < len(s.text); {
		leaf, found := s.longest(s.skips, pos)
		if !found {
			break
		}
		run = append(run, leaf)
		pos = leaf.End()
	}
	s.skipRuns[offset] = run
	return run
}

// SkipLength returns the total length of skip run starting at offset.
func (s *Scanner) SkipLength(offset int) int {
	run := s.SkipAt(offset)
	if len(run) == 0 {
		return 0
	}
	return run[len(run)-1].End() - offset
}

// MatchingAt returns all terminals (skip ones included) matching at offset, the longest first.
func (s *Scanner) MatchingAt(offset int) []Leaf {
	result := make([]Leaf, 0)
	for _, t := range s.terminals {
		l := s.Match(t, offset)
		if l > 0 {
			result = append(result, Leaf{t, offset, l})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Length > result[j].Length
	})
	return result
}

// LongestAt returns the longest terminal matching at offset.
func (s *Scanner) LongestAt(offset int) (Leaf, bool) {
	return s.longest(s.terminals, offset)
}

// Scan splits the whole text into leaves taking the longest match at each offset.
// Text not matched by any terminal produces one-rune leaves with nil Rule.
// The result is intended for highlighting, it ignores grammar structure.
func (s *Scanner) Scan() []Leaf {
	result := make([]Leaf, 0)
	for offset := 0; offset < len(s.text); {
		leaf, found := s.LongestAt(offset)
		if !found {
			_, size := utf8.DecodeRuneInString(s.text[offset:])
			leaf = Leaf{nil, offset, size}
		}
		result = append(result, leaf)
		offset = leaf.End()
	}
	return result
}
