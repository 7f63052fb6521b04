package parser

import "strings"

// ExtractProperty splits a key = value line on its first '='.
// ok is false when the line has no '=' or the key is empty.
func ExtractProperty(line string) (key, value string, ok bool) {
	text := strings.TrimSpace(line)
	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(text[:eq]))
	if key == "" {
		return "", "", false
	}
	return key, trimValue(text[eq+1:]), true
}

// trimValue trims v and removes one trailing comma.
func trimValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, ",")
	return strings.TrimSpace(v)
}
