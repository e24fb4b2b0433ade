package gllx_test

import (
	"fmt"
	"strings"

	"github.com/ava12/gllx/ebnf"
	"github.com/ava12/gllx/parser"
	"github.com/ava12/gllx/sppt"
)

type configWalker struct {
	sppt.NopWalker
	result              map[string]string
	prefix, name, value string
}

func (w *configWalker) Leaf(n sppt.Node, text string) {
	switch n.Rule.Name {
	case "secname":
		w.prefix = text + "."
	case "name":
		w.name = w.prefix + text
	case "value":
		w.value = text
	default:
		if n.Rule.Literal == "\n" && w.name != "" {
			w.result[w.name] = w.value
			w.name, w.value = "", ""
		}
	}
}

func Example() {
	input := `
foo = hello
bar = world
[sec]
baz =
[sec.subsec]
qux = !
`
	grammar := `
Config = { Line } .
Line = Section | Value | "\n" .
Section = "[" secname "]" "\n" .
Value = name "=" [ value ] "\n" .

space = " " { " " } .
secname = word { "." word } .
name = word .
value = vchar { vchar | " " } .
word = letter { letter } .
letter = "a" … "z" .
vchar = "!" … "~" .
`
	configRules, e := ebnf.Load("example grammar", strings.NewReader(grammar), ebnf.Options{
		Start: "Config",
		Skip:  []string{"space"},
	})
	if e != nil {
		fmt.Println(e)
		return
	}

	r := parser.New(configRules).Parse("Config", input)
	if e = r.Err(); e != nil {
		fmt.Println(e)
		return
	}

	w := &configWalker{result: make(map[string]string)}
	r.Tree.TraverseDepthFirst(w, false)
	fmt.Println(w.result)

	// Output:
	// map[bar:world foo:hello sec.baz: sec.subsec.qux:!]
}
