package model

import (
	"bufio"
	"bytes"
	"os"
)

// LineContext represents a line from a file with surrounding context
type LineContext struct {
	Before2    string // Two lines before the target
	Before1    string // Line before the target
	Target     string // The actual target line
	After1     string // Line after the target
	After2     string // Two lines after the target
	LineNumber int    // Line number of the target
	HasBefore2 bool
	HasBefore1 bool
	HasAfter1  bool
	HasAfter2  bool
	OutOfRange bool // Line number does not exist in the file
}

// ReadSourceLines reads a whole file and returns its lines without terminators.
// The file handle is released before returning.
func ReadSourceLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Generated sources can carry very long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	scanner.Split(ScanUniversalLines)

	lines := []string{}
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ScanUniversalLines is a bufio.SplitFunc that ends lines at LF, CRLF or a
// lone CR. The terminator is not part of the token.
func ScanUniversalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
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
		// CR at the end of the buffer: need one more byte to tell CR from CRLF
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// GetLineContext returns the target line with up to two lines of context on each side.
func GetLineContext(lines []string, lineNumber int) LineContext {
	result := LineContext{
		LineNumber: lineNumber,
	}

	if lineNumber < 1 || lineNumber > len(lines) {
		result.OutOfRange = true
		return result
	}

	// Get the target line (convert to 0-indexed)
	result.Target = lines[lineNumber-1]

	if lineNumber > 2 {
		result.Before2 = lines[lineNumber-3]
		result.HasBefore2 = true
	}
	if lineNumber > 1 {
		result.Before1 = lines[lineNumber-2]
		result.HasBefore1 = true
	}

	if lineNumber < len(lines) {
		result.After1 = lines[lineNumber]
		result.HasAfter1 = true
	}
	if lineNumber+1 < len(lines) {
		result.After2 = lines[lineNumber+1]
		result.HasAfter2 = true
	}

	return result
}
