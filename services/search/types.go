package search

import (
	"errors"

	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/lines"
	"github.com/meghashyamc/findlines/services/match"
)

const (
	ProgressStatusQueued   = 0
	ProgressStatusRunning  = 10
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1
)

var (
	ErrSearchQueueFull   = errors.New("search queue is full")
	ErrSearchNotComplete = errors.New("search is not complete")
)

type Request struct {
	Filter        enumerate.FileFilter `json:"filter"`
	SearchType    match.SearchType     `json:"search_type"`
	Pattern       string               `json:"pattern"`
	CaseSensitive bool                 `json:"case_sensitive"`
	LinesBefore   int                  `json:"lines_before"`
	LinesAfter    int                  `json:"lines_after"`
}

// FileResult holds the cleaned line records of one matching file.
// Matches is the number of matches found in the file body; a match spanning
// several lines counts once even though it leaves one sub-range per line.
// FileMissing is set when the file could no longer be read.
type FileResult struct {
	Path        string             `json:"path"`
	Lines       []lines.LineRecord `json:"lines"`
	Matches     int                `json:"matches,omitempty"`
	FileMissing bool               `json:"file_missing,omitempty"`
}

// Outcome is what a completed search stores: the request and its results.
type Outcome struct {
	Request Request      `json:"request"`
	Results []FileResult `json:"results"`
}

// MatchCount returns the number of matches across all results.
func (o Outcome) MatchCount() int {
	count := 0
	for _, result := range o.Results {
		count += result.MatchCount()
	}
	return count
}

// Find returns the result for path.
func (o Outcome) Find(path string) (FileResult, bool) {
	for _, result := range o.Results {
		if result.Path == path {
			return result, true
		}
	}
	return FileResult{}, false
}

// MatchCount returns the number of body matches. Results stored without a
// body count fall back to counting line sub-ranges.
func (r FileResult) MatchCount() int {
	if r.Matches > 0 {
		return r.Matches
	}
	return lines.MatchCount(r.Lines)
}

func (r FileResult) MatchedLineCount() int {
	return lines.MatchedLineCount(r.Lines)
}

// Store is the key-value storage for request status and results.
type Store interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
}
