package lines

import (
	"bufio"
	"bytes"
	"io"
)

const (
	initialLineBufferSize = 64 * 1024
	maxLineSize           = 64 * 1024 * 1024
)

// newEOLScanner returns a scanner whose tokens keep their line terminator.
// "\r\n", "\n" and a lone "\r" all end a line.
func newEOLScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBufferSize), maxLineSize)
	scanner.Split(scanLinesKeepEOL)
	return scanner
}

func scanLinesKeepEOL(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i+1], nil
		}
		// need one more byte to tell "\r" from "\r\n"
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i+2], nil
		}
		return i + 1, data[:i+1], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// TrimEndOfLine removes a single trailing "\r\n", "\r" or "\n".
func TrimEndOfLine(text string) string {
	switch {
	case len(text) >= 2 && text[len(text)-2:] == "\r\n":
		return text[:len(text)-2]
	case len(text) >= 1 && (text[len(text)-1] == '\r' || text[len(text)-1] == '\n'):
		return text[:len(text)-1]
	default:
		return text
	}
}
