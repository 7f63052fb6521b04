package parser

import "strings"

// LineKind classifies a trimmed script line.
type LineKind uint8

const (
	LineBlank LineKind = iota
	LineComment
	LineOpen
	LineClose
	LineModule
	LineItem
	LineRecipe
	LineMapper
	LineInputs
	LineOutputs
	LineProperty
	LineText
)

var lineKindNames = [...]string{
	LineBlank:    "blank",
	LineComment:  "comment",
	LineOpen:     "open",
	LineClose:    "close",
	LineModule:   "module",
	LineItem:     "item",
	LineRecipe:   "craftrecipe",
	LineMapper:   "itemmapper",
	LineInputs:   "inputs",
	LineOutputs:  "outputs",
	LineProperty: "property",
	LineText:     "text",
}

func (k LineKind) String() string {
	if int(k) < len(lineKindNames) {
		return lineKindNames[k]
	}
	return "unknown"
}

// keywords maps the lower-cased first token of a line to its header kind.
var keywords = map[string]LineKind{
	"module":      LineModule,
	"item":        LineItem,
	"craftrecipe": LineRecipe,
	"itemmapper":  LineMapper,
}

// Line is one classified source line.
type Line struct {
	// Number is 1-based.
	Number int
	// Raw is the line without its line terminator.
	Raw string
	// Text is Raw with surrounding whitespace removed.
	Text string
	Kind LineKind
	// Name is the second token of a header line, braces stripped.
	Name string
}

// Trivial reports whether the line carries no content.
func (l Line) Trivial() bool {
	return l.Kind == LineBlank || l.Kind == LineComment
}

// Delta is the brace depth change contributed by the line.
func (l Line) Delta() int {
	if l.Trivial() {
		return 0
	}
	return strings.Count(l.Text, "{") - strings.Count(l.Text, "}")
}

// Lexer classifies lines one at a time. It carries block comment state
// across lines, so lines must be fed in file order.
type Lexer struct {
	inComment bool
	number    int
}

// Next classifies the next raw line.
func (lx *Lexer) Next(raw string) Line {
	lx.number++
	raw = strings.TrimRight(raw, "\r\n")
	text := strings.TrimSpace(raw)
	l := Line{Number: lx.number, Raw: raw, Text: text}

	switch {
	case lx.inComment:
		l.Kind = LineComment
		if strings.Contains(text, "*/") {
			lx.inComment = false
		}
		return l
	case text == "":
		l.Kind = LineBlank
		return l
	case strings.HasPrefix(text, "//"):
		l.Kind = LineComment
		return l
	case strings.HasPrefix(text, "/*"):
		l.Kind = LineComment
		if !strings.Contains(text[2:], "*/") {
			lx.inComment = true
		}
		return l
	case text == "{":
		l.Kind = LineOpen
		return l
	case text == "}":
		l.Kind = LineClose
		return l
	}

	if isAssignment(text) {
		l.Kind = LineProperty
		return l
	}

	fields := strings.Fields(text)
	first := strings.ToLower(fields[0])
	if kind, ok := keywords[first]; ok {
		l.Kind = kind
		if len(fields) > 1 {
			l.Name = strings.Trim(fields[1], "{}")
		}
		return l
	}

	switch strings.ToLower(text) {
	case "inputs":
		l.Kind = LineInputs
	case "outputs":
		l.Kind = LineOutputs
	default:
		if strings.Contains(text, "=") {
			l.Kind = LineProperty
		} else {
			l.Kind = LineText
		}
	}
	return l
}

// isAssignment reports whether text has the shape "<single token> = ...".
func isAssignment(text string) bool {
	eq := strings.IndexByte(text, '=')
	if eq <= 0 {
		return false
	}
	key := strings.TrimSpace(text[:eq])
	return key != "" && !strings.ContainsAny(key, " \t")
}

// Lex classifies every line of a file.
func Lex(rawLines []string) []Line {
	var lx Lexer
	lines := make([]Line, len(rawLines))
	for i, raw := range rawLines {
		lines[i] = lx.Next(raw)
	}
	return lines
}
