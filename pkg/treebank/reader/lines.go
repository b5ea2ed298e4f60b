package reader

import (
	"bufio"
	"io"
)

// maxLineSize bounds a single input line. Discourse relation rows grow with
// sentence length, so this is well above bufio's default.
const maxLineSize = 4 * 1024 * 1024

// LineReader is the stream cursor shared by a block source and the relational
// features it parses. It tracks the 1-based number of the last line read.
type LineReader struct {
	sc   *bufio.Scanner
	line int
}

// NewLineReader wraps r
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &LineReader{sc: sc}
}

// ReadLine returns the next line without its terminator, or io.EOF
func (lr *LineReader) ReadLine() (string, error) {
	if lr.sc.Scan() {
		lr.line++
		return lr.sc.Text(), nil
	}
	if err := lr.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Line returns the number of the last line read
func (lr *LineReader) Line() int { return lr.line }
