package main

import (
	"bufio"
	"io"
	"strings"
)

type lineReader struct {
	sc *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{sc: bufio.NewScanner(r)}
}

// ask prints prompt and returns the next input line without its newline.
// At end of input it returns "".
func (l *lineReader) ask(w io.Writer, prompt string) string {
	io.WriteString(w, prompt)
	if !l.sc.Scan() {
		return ""
	}
	return strings.TrimRight(l.sc.Text(), "\r")
}
