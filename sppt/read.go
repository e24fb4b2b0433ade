package sppt

import (
	"regexp"
	"strconv"

	"github.com/ava12/gllx/grammar"
	"github.com/ava12/gllx/source"
)

const (
	nameToken = iota
	quotedToken
	openToken
	closeToken
	colonToken
	endToken
	wrongToken
)

var (
	spaceRe  = regexp.MustCompile(`^\s*`)
	nameRe   = regexp.MustCompile(`^([^\s{}'|:()<>]+|<[A-Z]+>)(?:\|([0-9]+))?(?:\(\*([0-9]+)\))?`)
	quotedRe = regexp.MustCompile(`^'(?:[^'\\]|\\.)*'`)
)

type token struct {
	kind   int
	pos    int
	text   string
	option int
	alt    int
}

type reader struct {
	rs       *grammar.RuleSet
	src      *source.Source
	text     string
	pos      int
	current  token
	sentence []byte
	trees    []*TreeData
}

// Read parses tree rendered by TreeData.String.
func Read(rs *grammar.RuleSet, text string) (*TreeData, error) {
	r := &reader{rs: rs, src: source.New("", text), text: text}
	r.next()

	td := r.newTree(rs)
	root, e := r.readAlternatives(td, nil, 0)
	if e != nil {
		return nil, e
	}

	if r.current.kind != endToken {
		return nil, r.unexpected()
	}

	td.root = root
	src := source.New("", string(r.sentence))
	for _, t := range r.trees {
		t.src = src
	}
	return td, nil
}

func (r *reader) newTree(rs *grammar.RuleSet) *TreeData {
	td := New(rs, nil, Node{})
	r.trees = append(r.trees, td)
	return td
}

func (r *reader) next() {
	r.pos += len(spaceRe.FindString(r.text[r.pos:]))
	tail := r.text[r.pos:]
	t := token{pos: r.pos}
	if tail == "" {
		t.kind = endToken
		r.current = t
		return
	}

	switch tail[0] {
	case '{':
		t.kind, t.text = openToken, "{"
	case '}':
		t.kind, t.text = closeToken, "}"
	case ':':
		t.kind, t.text = colonToken, ":"
	case '\'':
		t.kind, t.text = quotedToken, quotedRe.FindString(tail)
		if t.text == "" {
			t.kind, t.text = wrongToken, tail[:1]
		}
	default:
		m := nameRe.FindStringSubmatch(tail)
		if m == nil {
			t.kind, t.text = wrongToken, tail[:1]
			break
		}

		t.kind, t.text = nameToken, m[1]
		t.option, _ = strconv.Atoi(m[2])
		t.alt = -1
		if m[3] != "" {
			t.alt, _ = strconv.Atoi(m[3])
		}
		r.pos += len(m[0]) - len(t.text)
	}
	r.pos += len(t.text)
	r.current = t
}

func (r *reader) unexpected() error {
	if r.current.kind == endToken {
		return unexpectedEndError(r.src)
	}
	return unexpectedTokenError(r.src, r.current.pos, r.current.text)
}

func (r *reader) expect(kind int) (token, error) {
	t := r.current
	if t.kind != kind {
		return t, r.unexpected()
	}
	r.next()
	return t, nil
}

func (r *reader) addText(offset int, text string, pos int, name string) error {
	end := offset + len(text)
	switch {
	case offset == len(r.sentence):
		r.sentence = append(r.sentence, text...)
	case end <= len(r.sentence) && string(r.sentence[offset:end]) == text:
	default:
		return alternativeMismatchError(r.src, pos, name)
	}
	return nil
}

func (r *reader) isContinuation() bool {
	return r.current.kind == nameToken && r.current.alt > 0
}

// readAlternatives reads a node followed by its other alternatives marked with (*i) suffix.
func (r *reader) readAlternatives(td *TreeData, parent *grammar.Rule, offset int) (Node, error) {
	n, e := r.readNode(td, parent, offset)
	if e != nil {
		return n, e
	}

	for r.isContinuation() {
		pos := r.current.pos
		alt, e := r.readNode(td, parent, offset)
		if e != nil {
			return n, e
		}
		if alt.Key() != n.Key() {
			return n, alternativeMismatchError(r.src, pos, alt.Rule.Name)
		}
	}
	return n, nil
}

func (r *reader) readNode(td *TreeData, parent *grammar.Rule, offset int) (Node, error) {
	t := r.current
	switch t.kind {
	case quotedToken:
		r.next()
		text, _ := grammar.ParseLiteralName(t.text)
		rule := td.ruleSet.FindTerminalByLiteral(text)
		if rule == nil {
			return Node{}, unknownRuleError(r.src, t.pos, t.text)
		}
		return Node{rule, 0, offset, len(text)}, r.addText(offset, text, t.pos, t.text)

	case nameToken:
		r.next()
		if t.text == grammar.EmptyName {
			if parent == nil || parent.Empty() == nil {
				return Node{}, unknownRuleError(r.src, t.pos, t.text)
			}
			return Node{parent.Empty(), 0, offset, 0}, nil
		}

		rule := td.ruleSet.FindRule(t.text)
		if rule == nil || rule.IsReserved() {
			return Node{}, unknownRuleError(r.src, t.pos, t.text)
		}

		if rule.IsTerminal() {
			return r.readPatternLeaf(rule, offset)
		}
		if rule.IsEmbedded() {
			return r.readEmbedded(td, rule, offset)
		}
		return r.readBranch(td, rule, t.option, offset)
	}

	return Node{}, r.unexpected()
}

func (r *reader) readPatternLeaf(rule *grammar.Rule, offset int) (Node, error) {
	_, e := r.expect(colonToken)
	if e != nil {
		return Node{}, e
	}

	t, e := r.expect(quotedToken)
	if e != nil {
		return Node{}, e
	}

	text, _ := grammar.ParseLiteralName(t.text)
	if rule.IsPattern {
		loc := rule.Regexp().FindStringIndex(text)
		if loc == nil || loc[1] != len(text) || text == "" {
			return Node{}, wrongTextError(r.src, t.pos, rule.Name, text)
		}
	} else if text != rule.Literal {
		return Node{}, wrongTextError(r.src, t.pos, rule.Name, text)
	}

	return Node{rule, 0, offset, len(text)}, r.addText(offset, text, t.pos, rule.Name)
}

func (r *reader) readEmbedded(td *TreeData, rule *grammar.Rule, offset int) (Node, error) {
	_, e := r.expect(openToken)
	if e != nil {
		return Node{}, e
	}

	sub := r.newTree(rule.Item.EmbeddedSet)
	root, e := r.readAlternatives(sub, nil, offset)
	if e != nil {
		return Node{}, e
	}

	_, e = r.expect(closeToken)
	if e != nil {
		return Node{}, e
	}

	sub.root = root
	n := Node{rule, 0, offset, root.Length}
	td.SetEmbedded(n, sub)
	return n, nil
}

func (r *reader) readBranch(td *TreeData, rule *grammar.Rule, option, offset int) (Node, error) {
	_, e := r.expect(openToken)
	if e != nil {
		return Node{}, e
	}

	children := make([]Node, 0)
	var skipRun []Node
	flushSkip := func() {
		if len(skipRun) == 0 {
			return
		}

		start := skipRun[0].Start
		end := skipRun[len(skipRun)-1].End()
		n := Node{td.ruleSet.Skip(), 0, start, end - start}
		td.AddAlternative(n, Alternative{0, skipRun})
		children = append(children, n)
		skipRun = nil
	}

	pos := offset
	for r.current.kind != closeToken {
		child, e := r.readAlternatives(td, rule, pos)
		if e != nil {
			return Node{}, e
		}

		if child.IsLeaf() && child.Rule.IsSkip {
			skipRun = append(skipRun, child)
		} else {
			flushSkip()
			children = append(children, child)
		}
		pos = child.End()
	}
	flushSkip()
	r.next()

	if len(children) == 0 {
		return Node{}, unexpectedTokenError(r.src, r.current.pos, "}")
	}

	n := Node{rule, option, offset, pos - offset}
	td.AddAlternative(n, Alternative{option, children})
	return n, nil
}
