package enumerate

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

const (
	binarySniffSize   = 1024
	shebangLineLimit  = 4096
	shebangScanOffset = 3
)

// IsBinary reports whether the first 1024 bytes of r contain a 0x00 0x00
// pair starting at an even offset. UTF-16 text usually contains such pairs
// and is therefore reported as binary too. Read failures report false.
func IsBinary(r io.Reader) bool {
	buffer := make([]byte, binarySniffSize)
	count, err := io.ReadFull(r, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}

	for i := 0; i < count-1; i += 2 {
		if buffer[i] == 0 && buffer[i+1] == 0 {
			return true
		}
	}

	return false
}

func isBinaryFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	return IsBinary(file), nil
}

// shebangInterpreter returns the interpreter named by a "#!" first line, cut
// at the first whitespace after the marker, or "" when there is none.
func shebangInterpreter(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	firstLine, err := bufio.NewReader(io.LimitReader(file, shebangLineLimit)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return interpreterFromLine(firstLine), nil
}

func interpreterFromLine(line string) string {
	if !strings.HasPrefix(line, shebangMarker) {
		return ""
	}

	for i := shebangScanOffset; i < len(line); i++ {
		if line[i] == ' ' || line[i] == '\r' || line[i] == '\n' || line[i] == '\t' {
			line = line[:i]
			break
		}
	}

	return strings.TrimSpace(line[len(shebangMarker):])
}
