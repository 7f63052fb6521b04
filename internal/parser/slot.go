package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// slotKeyword starts every ingredient and result line.
const slotKeyword = "item"

var (
	slotCountPattern  = regexp.MustCompile(`(?i)^item\s+([\d.]+)`)
	slotListPattern   = regexp.MustCompile(`(?:^|[^A-Za-z0-9_\]])\[([^\]]+)\]`)
	slotDirectPattern = regexp.MustCompile(`(?i)^item\s+[\d.]+\s+([A-Za-z0-9_.:]+)(\[)?`)
	slotTagsPattern   = regexp.MustCompile(`(?i)tags\[(.*?)\]`)
	slotFlagsPattern  = regexp.MustCompile(`(?i)flags\[(.*?)\]`)
	slotMapperPattern = regexp.MustCompile(`(?i)mappers?\[([^\]]+)\]|mapper:([A-Za-z0-9_]+)`)
	slotModePattern   = regexp.MustCompile(`(?i)mode:([A-Za-z]+)`)
)

// attributePrefixes are tokens that may follow the count but never name an item.
var attributePrefixes = []string{"mode:", "mapper:", "mapper[", "mappers[", "tags[", "flags["}

// IsSlotLine reports whether a trimmed line starts with the slot keyword.
func IsSlotLine(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && strings.EqualFold(fields[0], slotKeyword)
}

// ExtractSlot decomposes one ingredient or result line. Every field is optional;
// missing patterns produce defaults.
func ExtractSlot(line string) Slot {
	text := strings.TrimSpace(line)
	s := Slot{
		Count: 1.0,
		Items: []string{},
		Tags:  []string{},
		Flags: []string{},
		Raw:   strings.TrimSpace(strings.TrimSuffix(text, ",")),
	}

	if m := slotCountPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil && n >= 0 {
			s.Count = n
		}
	}

	if m := slotListPattern.FindStringSubmatch(text); m != nil {
		s.Items = splitList(m[1])
	} else if m := slotDirectPattern.FindStringSubmatch(text); m != nil && m[2] == "" && !isAttribute(m[1]) {
		s.Items = []string{strings.ToLower(m[1])}
	}

	if m := slotTagsPattern.FindStringSubmatch(text); m != nil {
		s.Tags = splitList(m[1])
	}
	if m := slotFlagsPattern.FindStringSubmatch(text); m != nil {
		s.Flags = splitList(m[1])
	}

	if m := slotMapperPattern.FindStringSubmatch(text); m != nil {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		s.Mapper = strings.ToLower(strings.TrimSpace(name))
	}

	if m := slotModePattern.FindStringSubmatch(text); m != nil {
		s.Mode = strings.ToLower(m[1])
	}

	return s
}

func isAttribute(token string) bool {
	t := strings.ToLower(token)
	for _, p := range attributePrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// splitList splits a ';' separated list into trimmed, lower-cased, non-empty tokens.
func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
