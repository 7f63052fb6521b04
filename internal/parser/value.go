package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueEmpty ValueKind = iota
	ValueNumber
	ValueList
	ValueText
)

func (k ValueKind) String() string {
	switch k {
	case ValueEmpty:
		return "empty"
	case ValueNumber:
		return "number"
	case ValueList:
		return "list"
	case ValueText:
		return "text"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a normalized property value: Empty, Number, List or Text.
type Value struct {
	kind ValueKind
	num  float64
	list []string
	text string
}

// plainNumber has no sign, no exponent and no unit suffix.
var plainNumber = regexp.MustCompile(`^\d*\.?\d*$`)

func Number(f float64) Value      { return Value{kind: ValueNumber, num: f} }
func List(items []string) Value   { return Value{kind: ValueList, list: items} }
func Text(s string) Value         { return Value{kind: ValueText, text: s} }
func (v Value) Kind() ValueKind   { return v.kind }
func (v Value) Float() float64    { return v.num }
func (v Value) Strings() []string { return v.list }
func (v Value) Str() string       { return v.text }

// Normalize coerces a raw property value. The order is fixed: numbers first,
// then ';' lists, then lower-cased text. Blank input yields Empty.
func Normalize(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	if strings.ContainsAny(s, "0123456789") && plainNumber.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
	}
	if strings.Contains(s, ";") {
		return List(splitList(s))
	}
	return Text(strings.ToLower(s))
}

// Normalize returns v re-normalized. Number, List and Empty are returned as is.
func (v Value) Normalize() Value {
	switch v.kind {
	case ValueEmpty, ValueNumber, ValueList:
		return v
	case ValueText:
		return Normalize(v.text)
	default:
		panic(fmt.Sprintf("parser: unknown value kind %d", v.kind))
	}
}

func (v Value) String() string {
	switch v.kind {
	case ValueEmpty:
		return ""
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueList:
		return strings.Join(v.list, ";")
	case ValueText:
		return v.text
	default:
		return fmt.Sprintf("Value(%d)", v.kind)
	}
}

// MarshalJSON encodes Empty as null, Number as a JSON number, List as an
// array and Text as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueEmpty:
		return []byte("null"), nil
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case ValueText:
		return json.Marshal(v.text)
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("unmarshal value: list element %v is not a string", e)
			}
			items = append(items, s)
		}
		*v = List(items)
	default:
		return fmt.Errorf("unmarshal value: unsupported JSON type %T", raw)
	}
	return nil
}

// NormalizeProperties normalizes the effective properties of a block.
func NormalizeProperties(b *Block) map[string]Value {
	effective, _ := b.Effective()
	out := make(map[string]Value, len(effective))
	for k, raw := range effective {
		out[k] = Normalize(raw)
	}
	return out
}
