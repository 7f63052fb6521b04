package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexer_Classify(t *testing.T) {
	tests := []struct {
		in   string
		kind LineKind
		name string
	}{
		{in: "", kind: LineBlank},
		{in: "   \t", kind: LineBlank},
		{in: "// note", kind: LineComment},
		{in: "/* one line */", kind: LineComment},
		{in: "{", kind: LineOpen},
		{in: "\t}", kind: LineClose},
		{in: "module Base", kind: LineModule, name: "Base"},
		{in: "module Base {", kind: LineModule, name: "Base"},
		{in: "item Axe", kind: LineItem, name: "Axe"},
		{in: "craftRecipe MakeNails", kind: LineRecipe, name: "MakeNails"},
		{in: "CRAFTRECIPE Upper", kind: LineRecipe, name: "Upper"},
		{in: "itemMapper plankType", kind: LineMapper, name: "plankType"},
		{in: "inputs", kind: LineInputs},
		{in: "Outputs", kind: LineOutputs},
		{in: "Weight = 1.0,", kind: LineProperty},
		{in: "Item = Base.Axe,", kind: LineProperty},
		{in: "Base.Plank = Base.Log,", kind: LineProperty},
		{in: "imports", kind: LineText},
		{in: "Time 50", kind: LineText},
		{in: "some key = value", kind: LineProperty},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var lx Lexer
			l := lx.Next(tt.in)
			assert.Equal(t, tt.kind, l.Kind, "kind %s", l.Kind)
			assert.Equal(t, tt.name, l.Name)
			assert.Equal(t, 1, l.Number)
		})
	}
}

func TestLexer_BlockComment(t *testing.T) {
	lines := Lex([]string{
		"/*",
		"item Ghost",
		"{ Weight = 1 }",
		"*/",
		"item Real",
	})
	kinds := make([]LineKind, len(lines))
	for i, l := range lines {
		kinds[i] = l.Kind
	}
	assert.Equal(t, []LineKind{LineComment, LineComment, LineComment, LineComment, LineItem}, kinds)
	assert.Equal(t, 5, lines[4].Number)
}

func TestLine_Delta(t *testing.T) {
	lines := Lex([]string{"{", "}", "module Base {", "// { ignored", "Weight = 1,", "item A { }"})
	deltas := make([]int, len(lines))
	for i, l := range lines {
		deltas[i] = l.Delta()
	}
	assert.Equal(t, []int{1, -1, 1, 0, 0, 0}, deltas)
}

func TestLine_KeepsRawText(t *testing.T) {
	var lx Lexer
	l := lx.Next("\t\tWeight = 1,\r")
	assert.Equal(t, "\t\tWeight = 1,", l.Raw)
	assert.Equal(t, "Weight = 1,", l.Text)
}

func TestLineKind_String(t *testing.T) {
	assert.Equal(t, "craftrecipe", LineRecipe.String())
	assert.Equal(t, "unknown", LineKind(200).String())
}
