package lines

import (
	"slices"
	"strings"
)

// Snippetize groups records into blocks of consecutive line numbers. Records
// without any genuine match produce a single empty snippet.
func Snippetize(records []LineRecord) []Snippet {
	if MatchCount(records) == 0 {
		return []Snippet{{}}
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b LineRecord) int { return a.LineNumber - b.LineNumber })

	var snippets []Snippet
	var current Snippet
	var text strings.Builder
	lastLine := 0

	flush := func() {
		current.Text = text.String()
		snippets = append(snippets, current)
		current = Snippet{}
		text.Reset()
	}

	for _, record := range sorted {
		if current.LineCount > 0 && record.LineNumber != lastLine+1 {
			flush()
		}
		if current.LineCount == 0 {
			current.FirstLineNumber = record.LineNumber
		} else {
			text.WriteByte('\n')
		}
		text.WriteString(record.Text)
		current.LineCount++
		lastLine = record.LineNumber
	}
	flush()

	return snippets
}
