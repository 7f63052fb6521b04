package parser

import "strings"

// Kind identifies the type of an emitted block.
type Kind string

const (
	KindItem   Kind = "item"
	KindRecipe Kind = "recipe"
)

// Source describes where a script file came from.
type Source struct {
	// SourceTag is the workshop id, or "BASE" for the base game.
	SourceTag string `json:"workshop_id"`
	// ModTag is the mod id inside the workshop item ("BaseGame" for the base game).
	ModTag string `json:"mod_id"`
	// SourceRoot is the informational build folder ("base", "common", "42", "unknown").
	SourceRoot string `json:"source_root"`
	// FilePath is the path of the script file.
	FilePath string `json:"file_path"`
}

// RawLine is a consumed line kept for traceability.
type RawLine struct {
	Number int    `json:"line"`
	Text   string `json:"text"`
}

// Property is a key = value line found at the top level of a block.
type Property struct {
	// Key is lower-cased and never empty.
	Key string `json:"key"`
	// Value is the trimmed right-hand side with one trailing comma removed.
	Value string `json:"value"`
	// OriginalLine is the untrimmed source line.
	OriginalLine string `json:"original_line"`
	Line         int    `json:"line"`
}

// Slot is one ingredient or result entry of a craft recipe.
type Slot struct {
	Count float64  `json:"count"`
	Items []string `json:"items"`
	Tags  []string `json:"tags"`
	Flags []string `json:"flags"`
	// Mapper is empty when the slot references no item mapper.
	Mapper string `json:"mapper,omitempty"`
	// Mode is empty when the slot has no mode.
	Mode string `json:"mode,omitempty"`
	Raw  string `json:"raw"`
}

// Mapping is one code = item entry of an item mapper.
type Mapping struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ItemMapper is a named lookup table inside a craft recipe.
type ItemMapper struct {
	Name     string    `json:"name"`
	Mappings []Mapping `json:"mappings"`
	RawLines []string  `json:"raw_lines"`
}

// Lookup returns the value mapped to key.
func (m ItemMapper) Lookup(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, mp := range m.Mappings {
		if mp.Key == key {
			return mp.Value, true
		}
	}
	return "", false
}

// Block is a completed item or craftrecipe definition.
type Block struct {
	Kind Kind `json:"kind"`
	Source
	Module string `json:"module"`
	Name   string `json:"name"`
	// StartLine is the header line, EndLine the line that closed the block.
	StartLine  int          `json:"start_line"`
	EndLine    int          `json:"end_line"`
	Lines      []RawLine    `json:"raw_lines"`
	Properties []Property   `json:"raw_properties"`
	Inputs     []Slot       `json:"inputs,omitempty"`
	Outputs    []Slot       `json:"outputs,omitempty"`
	Mappers    []ItemMapper `json:"item_mappers,omitempty"`
	// Truncated is set when the file ended before the block closed and the
	// partial policy emitted it anyway.
	Truncated bool `json:"truncated,omitempty"`
}

// Identity returns the {sourceTag}.{modTag}.{module}.{name} key of the block.
func (b *Block) Identity() string {
	return b.SourceTag + "." + b.ModTag + "." + b.Module + "." + b.Name
}

// Effective returns the block properties with later keys overriding earlier ones,
// plus the keys in order of first appearance.
func (b *Block) Effective() (map[string]string, []string) {
	values := make(map[string]string, len(b.Properties))
	var keys []string
	for _, p := range b.Properties {
		if _, seen := values[p.Key]; !seen {
			keys = append(keys, p.Key)
		}
		values[p.Key] = p.Value
	}
	return values, keys
}

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	DiagFileRead     DiagnosticKind = "file_read"
	DiagStructural   DiagnosticKind = "structural"
	DiagUnterminated DiagnosticKind = "unterminated"
	DiagSkipped      DiagnosticKind = "skipped"
	DiagTimeout      DiagnosticKind = "timeout"
)

// Diagnostic is an advisory error or warning produced while parsing.
type Diagnostic struct {
	FilePath string         `json:"file_path"`
	Module   string         `json:"module,omitempty"`
	Name     string         `json:"name,omitempty"`
	Line     int            `json:"line,omitempty"`
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
}

// FileResult holds everything parsed from a single script file.
type FileResult struct {
	Source      Source
	Items       []*Block
	Recipes     []*Block
	Diagnostics []Diagnostic
	Vocabulary  Vocabulary
	// Lines is the number of lines scanned.
	Lines int
}
