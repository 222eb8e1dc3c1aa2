package lines

import (
	"bytes"
	"slices"
)

// ContextFor returns the context lines around the genuine records of a body
// read earlier, using a new linesBefore/linesAfter. Match ranges that no
// longer fit their line are ignored.
func ContextFor(body []byte, records []LineRecord, linesBefore int, linesAfter int) ([]LineRecord, error) {
	genuine := make(map[int][]Match)
	for _, record := range records {
		if !record.IsContext && len(record.Matches) > 0 {
			genuine[record.LineNumber] = append(genuine[record.LineNumber], record.Matches...)
		}
	}
	if len(genuine) == 0 {
		return []LineRecord{}, nil
	}

	var matches []Match
	scanner := newEOLScanner(bytes.NewReader(body))
	lineNumber, lineStart := 0, 0
	for scanner.Scan() {
		raw := scanner.Text()
		lineNumber++

		lineMatches, ok := genuine[lineNumber]
		if ok {
			text := TrimEndOfLine(raw)
			slices.SortFunc(lineMatches, func(a, b Match) int { return a.StartOffset - b.StartOffset })

			end := 0
			for _, m := range lineMatches {
				length := min(m.Length, len(text)-m.StartOffset)
				if m.StartOffset < end || length <= 0 {
					continue
				}
				matches = append(matches, Match{StartOffset: lineStart + m.StartOffset, Length: length})
				end = m.StartOffset + length
			}
		}

		lineStart += len(raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	assembled, err := Assemble(bytes.NewReader(body), matches, linesBefore, linesAfter)
	if err != nil {
		return nil, err
	}

	return ContextOnly(assembled), nil
}
