package source

import (
	"testing"

	. "github.com/ava12/gllx/internal/test"
)

type result struct {
	pos, line, col int
}

func TestSourceLineCol(t *testing.T) {
	samples := map[string][]result{
		"": {
			{0, 1, 1},
			{100, 1, 1},
		},
		"\n": {
			{0, 1, 1},
			{1, 2, 1},
			{100, 2, 1},
		},
		"0\n2\n4\n6789abcde\ng\ni\n": {
			{4, 3, 1},
			{5, 3, 2},
			{6, 4, 1},
			{14, 4, 9},
			{19, 6, 2},
			{20, 7, 1},
			{9, 4, 4},
		},
		"ая\nб": {
			{2, 1, 2},
			{4, 1, 3},
			{5, 2, 1},
			{7, 2, 2},
		},
	}

	for text, results := range samples {
		source := New("", text)
		for _, res := range results {
			l, c := source.LineCol(res.pos)
			if l != res.line || c != res.col {
				t.Errorf("sample %q: expected %v, got line: %d, col: %d", text, res, l, c)
			}
		}
	}
}

func TestSourcePos(t *testing.T) {
	s := New("", "ab\nя1\n")
	ExpectInt(t, 0, s.Pos(1, 1))
	ExpectInt(t, 1, s.Pos(1, 2))
	ExpectInt(t, 2, s.Pos(1, 10))
	ExpectInt(t, 5, s.Pos(2, 2))
	ExpectInt(t, 7, s.Pos(3, 1))
	ExpectInt(t, 7, s.Pos(9, 1))
	ExpectInt(t, 0, s.Pos(0, 0))
}

func TestLines(t *testing.T) {
	s := New("x", "ab\ncd\n")
	ExpectString(t, "x", s.Name())
	ExpectInt(t, 3, s.LineCount())
	ExpectInt(t, 0, s.LineStart(1))
	ExpectInt(t, 3, s.LineEnd(1))
	ExpectInt(t, 3, s.LineStart(2))
	ExpectInt(t, 6, s.LineEnd(2))
	ExpectInt(t, 6, s.LineStart(3))
	ExpectInt(t, 6, s.LineEnd(3))
	ExpectInt(t, -1, s.LineStart(4))
	ExpectInt(t, -1, s.LineEnd(0))
}
