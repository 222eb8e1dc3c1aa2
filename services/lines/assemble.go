package lines

import (
	"fmt"
	"io"
	"slices"
	"sort"
)

type assemblerState int

const (
	stateIdle assemblerState = iota
	stateMatchOpen
	stateRecordingAfterContext
)

type scannedLine struct {
	number  int
	rawSize int // including the line terminator
	text    string
}

// assembler is a single-pass state machine fed one raw line at a time.
// Offsets in pending matches are relative to the whole body.
type assembler struct {
	linesBefore int
	linesAfter  int
	pending     []Match

	state          assemblerState
	afterRemaining int

	lineNumber int
	lineStart  int

	beforeQueue    []scannedLine
	beforeSnapshot []scannedLine
	openColumn     int
	openLines      []scannedLine

	genuine   []Match
	lineTexts map[int]string
	context   []LineRecord
}

func newAssembler(matches []Match, linesBefore int, linesAfter int) *assembler {
	return &assembler{
		linesBefore: max(0, linesBefore),
		linesAfter:  max(0, linesAfter),
		pending:     slices.Clone(matches),
		lineTexts:   make(map[int]string),
	}
}

// Assemble maps body-relative matches onto numbered lines, adding up to
// linesBefore/linesAfter context lines around every match. Matches must be
// sorted by start offset and must not overlap. The body is read only as far
// as needed.
func Assemble(body io.Reader, matches []Match, linesBefore int, linesAfter int) ([]LineRecord, error) {
	if body == nil || len(matches) == 0 {
		return []LineRecord{}, nil
	}

	a := newAssembler(matches, linesBefore, linesAfter)
	scanner := newEOLScanner(body)
	for !a.done() && scanner.Scan() {
		a.feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return a.records(), nil
}

func (a *assembler) done() bool {
	return len(a.pending) == 0 && a.state != stateRecordingAfterContext
}

func (a *assembler) feed(raw string) {
	a.lineNumber++
	line := scannedLine{number: a.lineNumber, rawSize: len(raw), text: TrimEndOfLine(raw)}
	lineEnd := a.lineStart + line.rawSize

	if a.linesBefore > 0 {
		if len(a.beforeQueue) >= a.linesBefore+1 {
			a.beforeQueue = a.beforeQueue[1:]
		}
		a.beforeQueue = append(a.beforeQueue, line)
	}

	if a.state == stateRecordingAfterContext {
		a.context = append(a.context, LineRecord{LineNumber: line.number, Text: line.text, IsContext: true})
		a.afterRemaining--
		if a.afterRemaining <= 0 {
			a.state = stateIdle
		}
	}

	for len(a.pending) > 0 {
		head := a.pending[0]

		if a.state != stateMatchOpen {
			// starts before this line: out of order or overlapping a closed match
			if head.StartOffset < a.lineStart {
				a.pending = a.pending[1:]
				continue
			}
			if head.StartOffset >= lineEnd {
				break
			}
			a.open(line, head)
		}

		if n := len(a.openLines); n == 0 || a.openLines[n-1].number != line.number {
			a.openLines = append(a.openLines, line)
		}

		if head.end() > lineEnd {
			break
		}

		a.close(head)
		a.pending = a.pending[1:]
	}

	a.lineStart = lineEnd
}

func (a *assembler) open(line scannedLine, head Match) {
	a.state = stateMatchOpen
	a.openColumn = head.StartOffset - a.lineStart
	a.openLines = a.openLines[:0]

	a.beforeSnapshot = a.beforeSnapshot[:0]
	for _, queued := range a.beforeQueue {
		if queued.number < line.number {
			a.beforeSnapshot = append(a.beforeSnapshot, queued)
		}
	}
}

func (a *assembler) close(head Match) {
	last := len(a.openLines) - 1
	consumed := 0

	for i, line := range a.openLines {
		m := Match{LineNumber: line.number}
		switch {
		case i == 0 && i == last:
			m.StartOffset = a.openColumn
			m.Length = head.Length
		case i == 0:
			m.StartOffset = a.openColumn
			m.Length = len(line.text) - a.openColumn
			consumed += line.rawSize - a.openColumn
		case i < last:
			m.Length = len(line.text)
			consumed += line.rawSize
		default:
			m.Length = head.Length - consumed
		}

		a.genuine = append(a.genuine, clampToLine(m, line.text))
		a.lineTexts[line.number] = line.text
	}

	for _, queued := range a.beforeSnapshot {
		a.context = append(a.context, LineRecord{LineNumber: queued.number, Text: queued.text, IsContext: true})
	}

	a.beforeQueue = a.beforeQueue[:0]
	a.beforeSnapshot = a.beforeSnapshot[:0]
	a.openLines = a.openLines[:0]

	if a.linesAfter > 0 {
		a.state = stateRecordingAfterContext
		a.afterRemaining = a.linesAfter
		return
	}
	a.state = stateIdle
}

// records folds the collected matches and context lines into one record per
// line number; a genuine record always wins over a context record.
func (a *assembler) records() []LineRecord {
	if len(a.lineTexts) == 0 {
		return []LineRecord{}
	}

	byLine := make(map[int]*LineRecord, len(a.lineTexts)+len(a.context))
	for _, m := range a.genuine {
		record, ok := byLine[m.LineNumber]
		if !ok {
			record = &LineRecord{LineNumber: m.LineNumber, Text: a.lineTexts[m.LineNumber]}
			byLine[m.LineNumber] = record
		}
		record.Matches = append(record.Matches, m)
	}
	for _, c := range a.context {
		if _, ok := byLine[c.LineNumber]; !ok {
			record := c
			byLine[c.LineNumber] = &record
		}
	}

	result := make([]LineRecord, 0, len(byLine))
	for _, record := range byLine {
		result = append(result, *record)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LineNumber < result[j].LineNumber })

	return result
}

func clampToLine(m Match, text string) Match {
	m.StartOffset = min(max(0, m.StartOffset), len(text))
	m.Length = min(max(0, m.Length), len(text)-m.StartOffset)
	return m
}
