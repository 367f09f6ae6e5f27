package util

import (
	"bufio"
	"bytes"
	"io"
)

// ProgressScanner splits a tool's stdout into tokens as soon as they are
// terminated. Besides newlines it also breaks on carriage returns and
// backspaces, which console tools use to redraw a percentage in place.
//
// A run of output longer than the buffer limit is cut into limit-sized
// tokens instead of failing the scan.
type ProgressScanner struct {
	scanner *bufio.Scanner
	max     int
}

// NewProgressScanner creates a new ProgressScanner.
func NewProgressScanner(r io.Reader) *ProgressScanner {
	ps := &ProgressScanner{scanner: bufio.NewScanner(r), max: bufio.MaxScanTokenSize}
	ps.scanner.Split(ps.split)
	return ps
}

// Scan advances to the next non-empty token.
func (ps *ProgressScanner) Scan() bool {
	for ps.scanner.Scan() {
		if len(bytes.TrimSpace(ps.scanner.Bytes())) > 0 {
			return true
		}
	}
	return false
}

// Text returns the current token.
func (ps *ProgressScanner) Text() string {
	return ps.scanner.Text()
}

// Err returns any scanner errors.
func (ps *ProgressScanner) Err() error {
	return ps.scanner.Err()
}

// Buffer sets the internal buffer for the scanner.
func (ps *ProgressScanner) Buffer(buf []byte, max int) {
	ps.scanner.Buffer(buf, max)
	ps.max = max
}

func (ps *ProgressScanner) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	advance, token, err = scanProgressTokens(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= ps.max {
		return len(data), data, nil
	}
	return advance, token, err
}

func scanProgressTokens(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\n\r\b"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
