package textutil

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewScriptReader wraps r so that a leading byte order mark is consumed.
// UTF-16 input with a BOM is decoded to UTF-8; everything else passes through.
func NewScriptReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// CleanLine drops invalid UTF-8 bytes from a line.
func CleanLine(s string) string {
	return strings.ToValidUTF8(s, "")
}

// ScanLines is a bufio.SplitFunc like bufio.ScanLines that also ends a line
// at a lone carriage return, so old Mac style files split correctly.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
