package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// BracePolicy decides how a header line must be followed by its opening brace.
type BracePolicy uint8

const (
	// BraceDefault selects lenient for items and strict for recipes.
	BraceDefault BracePolicy = iota
	// BraceLenient skips blank and comment lines looking for '{' and abandons
	// the header quietly when the next content line is something else.
	BraceLenient
	// BraceStrict requires the very next line to be '{' and records a
	// structural error otherwise.
	BraceStrict
)

// UnclosedPolicy decides what happens to a block still open at end of file.
type UnclosedPolicy uint8

const (
	// UnclosedError drops the block and records an error.
	UnclosedError UnclosedPolicy = iota
	// UnclosedDrop drops the block without a trace.
	UnclosedDrop
	// UnclosedPartial emits the block marked Truncated and records a warning.
	UnclosedPartial
)

// ParseUnclosedPolicy maps "error", "drop" and "partial" to a policy.
func ParseUnclosedPolicy(s string) (UnclosedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return UnclosedError, nil
	case "drop":
		return UnclosedDrop, nil
	case "partial":
		return UnclosedPartial, nil
	default:
		return UnclosedError, fmt.Errorf("unknown unclosed policy %q", s)
	}
}

// Options tunes a parse. The zero value is the recommended configuration.
type Options struct {
	ItemBrace   BracePolicy
	RecipeBrace BracePolicy
	Unclosed    UnclosedPolicy
	// SuppressWarnings drops skipped-header and partial-block warnings.
	SuppressWarnings bool
	SkipItems        bool
	SkipRecipes      bool
}

func (o Options) brace(kind Kind) BracePolicy {
	p := o.ItemBrace
	if kind == KindRecipe {
		p = o.RecipeBrace
	}
	if p != BraceDefault {
		return p
	}
	if kind == KindRecipe {
		return BraceStrict
	}
	return BraceLenient
}

// checkEvery is how many lines are processed between context checks.
const checkEvery = 256

// blockParser walks classified lines. Outside a block it looks for module,
// item and craftrecipe headers; body and section consume a block.
type blockParser struct {
	ctx    context.Context
	lines  []Line
	opts   Options
	module string
	res    *FileResult
	steps  int
	err    error
}

func (p *blockParser) stopped() bool {
	p.steps++
	if p.err == nil && p.steps%checkEvery == 0 {
		p.err = p.ctx.Err()
	}
	return p.err != nil
}

func (p *blockParser) run() error {
	for i := 0; i < len(p.lines); {
		if p.stopped() {
			break
		}
		l := p.lines[i]
		switch {
		case l.Kind == LineModule:
			if l.Name != "" {
				p.module = l.Name
			}
			i++
		case l.Kind == LineItem && p.opts.SkipItems, l.Kind == LineRecipe && p.opts.SkipRecipes:
			i = p.skip(i)
		case l.Kind == LineItem:
			i = p.header(i, KindItem)
		case l.Kind == LineRecipe:
			i = p.header(i, KindRecipe)
		default:
			i++
		}
	}
	return p.err
}

// findOpen returns the index of the opening brace line for the header at i,
// or -1 when the policy rejects what follows it.
func (p *blockParser) findOpen(i int, policy BracePolicy) int {
	j := i + 1
	if policy == BraceLenient {
		for j < len(p.lines) && p.lines[j].Trivial() {
			j++
		}
	}
	if j < len(p.lines) && p.lines[j].Kind == LineOpen {
		return j
	}
	return -1
}

// header handles an item or craftrecipe header and returns the index where
// scanning resumes.
func (p *blockParser) header(i int, kind Kind) int {
	h := p.lines[i]
	policy := p.opts.brace(kind)

	if kind == KindRecipe && h.Name == "" {
		p.report(h, "", DiagStructural, SeverityError, "missing recipe name")
		return p.skip(i)
	}

	open := p.findOpen(i, policy)
	if open < 0 {
		switch {
		case policy == BraceStrict:
			p.report(h, h.Name, DiagStructural, SeverityError, "missing opening brace")
			return p.skip(i)
		case kind == KindItem && isIngredient(h):
		default:
			p.report(h, h.Name, DiagSkipped, SeverityWarning, "header not followed by an opening brace")
		}
		return i + 1
	}

	if kind == KindItem {
		if p.module == "" {
			p.report(h, h.Name, DiagSkipped, SeverityWarning, "item outside of a module")
			return p.skip(i)
		}
		if h.Name == "" {
			p.report(h, "", DiagSkipped, SeverityWarning, "item header without a name")
			return p.skip(i)
		}
	}

	b := &Block{
		Kind:      kind,
		Source:    p.res.Source,
		Module:    p.module,
		Name:      h.Name,
		StartLine: h.Number,
	}
	return p.body(b, open+1)
}

// skip passes over the block whose header is at i without emitting it and
// returns the index after its closing line. A header with no brace in reach
// is passed over alone.
func (p *blockParser) skip(i int) int {
	open := p.findOpen(i, BraceLenient)
	if open < 0 {
		return i + 1
	}
	depth := 1
	for k := open + 1; k < len(p.lines); k++ {
		if p.stopped() {
			return len(p.lines)
		}
		depth += p.lines[k].Delta()
		if depth <= 0 {
			return k + 1
		}
	}
	return len(p.lines)
}

// isIngredient reports whether an item header is really a stray slot line
// such as "item 1 [Base.Log]" or "item Base.Nails tags[hammer]".
func isIngredient(h Line) bool {
	if _, err := strconv.ParseFloat(h.Name, 64); err == nil {
		return true
	}
	return strings.Contains(h.Text, "[")
}

// body consumes block lines starting right after the opening brace, where the
// depth is 1, and returns the index after the line that closes the block.
func (p *blockParser) body(b *Block, start int) int {
	depth := 1
	for k := start; k < len(p.lines); k++ {
		if p.stopped() {
			return len(p.lines)
		}
		l := p.lines[k]
		if l.Kind == LineBlank {
			continue
		}
		b.Lines = append(b.Lines, RawLine{Number: l.Number, Text: l.Raw})
		if l.Kind == LineComment {
			continue
		}

		depth += l.Delta()
		if depth <= 0 {
			b.EndLine = l.Number
			p.emit(b)
			return k + 1
		}
		if depth != 1 {
			continue
		}

		if b.Kind == KindRecipe && (l.Kind == LineInputs || l.Kind == LineOutputs || l.Kind == LineMapper) {
			next, ok, eof := p.section(b, k)
			if eof {
				p.unclosed(b)
				return len(p.lines)
			}
			if ok {
				k = next
				continue
			}
		}

		if key, value, ok := ExtractProperty(l.Text); ok {
			b.Properties = append(b.Properties, Property{
				Key:          key,
				Value:        value,
				OriginalLine: l.Raw,
				Line:         l.Number,
			})
		}
	}
	p.unclosed(b)
	return len(p.lines)
}

// section consumes an inputs, outputs or itemmapper sub-block whose header is
// at index h. The opening brace is the next content line. The section ends on
// the first line that is exactly '}' and never changes the block depth.
// It returns the index of that closing line.
func (p *blockParser) section(b *Block, h int) (closing int, ok, eof bool) {
	header := p.lines[h]
	open := p.findOpen(h, BraceLenient)
	if open < 0 {
		p.report(header, b.Name, DiagStructural, SeverityError,
			"missing opening brace for "+strings.ToLower(strings.Fields(header.Text)[0]))
		return h, false, false
	}
	for k := h + 1; k < open; k++ {
		if p.lines[k].Kind == LineComment {
			b.Lines = append(b.Lines, RawLine{Number: p.lines[k].Number, Text: p.lines[k].Raw})
		}
	}
	b.Lines = append(b.Lines, RawLine{Number: p.lines[open].Number, Text: p.lines[open].Raw})

	var mapper *ItemMapper
	if header.Kind == LineMapper {
		mapper = &ItemMapper{Name: strings.ToLower(header.Name), Mappings: []Mapping{}, RawLines: []string{}}
	}
	flush := func() {
		if mapper != nil {
			b.Mappers = append(b.Mappers, *mapper)
		}
	}

	for k := open + 1; k < len(p.lines); k++ {
		if p.stopped() {
			return len(p.lines), false, true
		}
		l := p.lines[k]
		if l.Kind == LineBlank {
			continue
		}
		b.Lines = append(b.Lines, RawLine{Number: l.Number, Text: l.Raw})
		if l.Kind == LineClose {
			flush()
			return k, true, false
		}
		if l.Kind == LineComment {
			continue
		}

		switch header.Kind {
		case LineInputs:
			if IsSlotLine(l.Text) {
				b.Inputs = append(b.Inputs, ExtractSlot(l.Text))
			}
		case LineOutputs:
			if IsSlotLine(l.Text) {
				b.Outputs = append(b.Outputs, ExtractSlot(l.Text))
			}
		case LineMapper:
			mapper.RawLines = append(mapper.RawLines, l.Raw)
			if eq := strings.IndexByte(l.Text, '='); eq >= 0 {
				mapper.Mappings = append(mapper.Mappings, Mapping{
					Key:   strings.ToLower(strings.TrimSpace(l.Text[:eq])),
					Value: strings.ToLower(trimValue(l.Text[eq+1:])),
				})
			}
		}
	}
	flush()
	return len(p.lines), false, true
}

func (p *blockParser) emit(b *Block) {
	switch b.Kind {
	case KindItem:
		p.res.Items = append(p.res.Items, b)
	case KindRecipe:
		p.res.Recipes = append(p.res.Recipes, b)
	}
	p.res.Vocabulary.Observe(b)
}

func (p *blockParser) unclosed(b *Block) {
	if p.err != nil {
		return
	}
	last := p.lines[len(p.lines)-1]
	switch p.opts.Unclosed {
	case UnclosedDrop:
	case UnclosedError:
		p.report(last, b.Name, DiagUnterminated, SeverityError,
			fmt.Sprintf("%s opened on line %d is not closed before end of file", b.Kind, b.StartLine))
	case UnclosedPartial:
		b.Truncated = true
		b.EndLine = last.Number
		p.emit(b)
		p.report(last, b.Name, DiagUnterminated, SeverityWarning,
			fmt.Sprintf("%s opened on line %d is not closed before end of file; emitted partially", b.Kind, b.StartLine))
	}
}

func (p *blockParser) report(l Line, name string, kind DiagnosticKind, sev Severity, msg string) {
	if sev == SeverityWarning && p.opts.SuppressWarnings {
		return
	}
	p.res.Diagnostics = append(p.res.Diagnostics, Diagnostic{
		FilePath: p.res.Source.FilePath,
		Module:   p.module,
		Name:     name,
		Line:     l.Number,
		Kind:     kind,
		Severity: sev,
		Message:  msg,
	})
}
