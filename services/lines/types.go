package lines

// Match is a single pattern hit. Before assembly StartOffset is relative to
// the whole body; on a LineRecord it is relative to the start of that line.
type Match struct {
	LineNumber  int `json:"line_number"`
	StartOffset int `json:"start"`
	Length      int `json:"length"`
}

func (m Match) end() int {
	return m.StartOffset + m.Length
}

func (m Match) less(other Match) bool {
	if m.LineNumber != other.LineNumber {
		return m.LineNumber < other.LineNumber
	}
	if m.StartOffset != other.StartOffset {
		return m.StartOffset < other.StartOffset
	}
	return m.Length < other.Length
}

// LineRecord is one line of output: either a genuine match line carrying the
// in-line match ranges, or a context line with no matches.
type LineRecord struct {
	LineNumber int     `json:"line_number"`
	Text       string  `json:"text"`
	IsContext  bool    `json:"is_context"`
	Matches    []Match `json:"matches"`
}

// Snippet is a run of consecutive lines rendered as one block.
type Snippet struct {
	FirstLineNumber int    `json:"first_line_number"`
	LineCount       int    `json:"line_count"`
	Text            string `json:"text"`
}
