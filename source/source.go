// Package source defines sentence text with line index.
package source

import (
	"sort"
	"unicode/utf8"
)

// Source is an immutable named text with precomputed line starts.
// Lines and columns are 1-based, columns count runes.
type Source struct {
	name       string
	content    string
	lineStarts []int
}

func New(name, content string) *Source {
	s := &Source{name: name, content: content, lineStarts: []int{0}}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Content() string {
	return s.content
}

func (s *Source) Len() int {
	return len(s.content)
}

// LineCount returns number of lines, text ending with newline has an empty last line.
func (s *Source) LineCount() int {
	return len(s.lineStarts)
}

// LineStart returns offset of the first byte of 1-based line or -1 if there is no such line.
func (s *Source) LineStart(line int) int {
	if line <= 0 || line > len(s.lineStarts) {
		return -1
	}
	return s.lineStarts[line-1]
}

// LineEnd returns offset just after the last byte of line including its newline.
func (s *Source) LineEnd(line int) int {
	if line <= 0 || line > len(s.lineStarts) {
		return -1
	}
	if line == len(s.lineStarts) {
		return len(s.content)
	}
	return s.lineStarts[line]
}

func (s *Source) findLineIndex(pos int) int {
	return sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > pos
	}) - 1
}

// LineCol converts offset to line and column, offset is clamped to text bounds.
func (s *Source) LineCol(pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	} else if pos > len(s.content) {
		pos = len(s.content)
	}

	lineIndex := s.findLineIndex(pos)
	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCountInString(s.content[lineStart:pos]) + 1
}

// Pos converts line and column to offset, the result is clamped to text bounds.
func (s *Source) Pos(line, col int) int {
	if line <= 0 || col <= 0 {
		return 0
	}

	l := len(s.content)
	if line > len(s.lineStarts) {
		return l
	}

	res := s.lineStarts[line-1]
	for col > 1 && res < l && s.content[res] != '\n' {
		_, size := utf8.DecodeRuneInString(s.content[res:])
		res += size
		col--
	}
	return res
}
