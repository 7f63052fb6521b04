// Package parser extracts item and craft recipe definitions from the game's
// brace-delimited script files.
//
// A file is lexed into classified lines and walked by a small state machine:
// module lines set the ambient module, item and craftrecipe headers open a
// block once their opening brace is found, and a block is emitted on the line
// where its brace depth returns to zero. Problems are returned as Diagnostic
// values; nothing here aborts a batch.
package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"pzscript/internal/textutil"
)

// ParseFile reads and parses one script file. A read failure is returned as
// an error; structural problems are reported in FileResult.Diagnostics.
func ParseFile(ctx context.Context, src Source, opts Options) (*FileResult, error) {
	file, err := os.Open(src.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open script file: %w", err)
	}
	defer file.Close()

	return ParseReader(ctx, src, file, opts)
}

// ParseReader parses script text from r. Input is decoded best-effort: a
// leading byte order mark is honoured, invalid UTF-8 bytes are dropped and
// "\n", "\r\n" and lone "\r" all end a line.
func ParseReader(ctx context.Context, src Source, r io.Reader, opts Options) (*FileResult, error) {
	var rawLines []string
	scanner := bufio.NewScanner(textutil.NewScriptReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(textutil.ScanLines)
	for scanner.Scan() {
		rawLines = append(rawLines, textutil.CleanLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan script file: %w", err)
	}
	return ParseLines(ctx, src, rawLines, opts)
}

// ParseLines parses already split lines. It returns ctx.Err() when the
// context ends before the walk completes.
func ParseLines(ctx context.Context, src Source, rawLines []string, opts Options) (*FileResult, error) {
	res := &FileResult{
		Source:     src,
		Vocabulary: NewVocabulary(),
		Lines:      len(rawLines),
	}
	p := &blockParser{
		ctx:   ctx,
		lines: Lex(rawLines),
		opts:  opts,
		res:   res,
	}
	if err := p.run(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.FilePath, err)
	}
	return res, nil
}

// ParseString is a convenience wrapper around ParseReader.
func ParseString(src Source, text string, opts Options) (*FileResult, error) {
	return ParseReader(context.Background(), src, strings.NewReader(text), opts)
}
