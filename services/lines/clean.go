package lines

import (
	"slices"
	"sort"
)

// Clean sorts records by line number and removes duplicate line numbers.
// A duplicate context record is dropped; the matches of a duplicate genuine
// record are folded into the one that is kept. The input is not modified.
func Clean(records []LineRecord) []LineRecord {
	if len(records) == 0 {
		return records
	}

	sorted := slices.Clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LineNumber != sorted[j].LineNumber {
			return sorted[i].LineNumber < sorted[j].LineNumber
		}
		return !sorted[i].IsContext && sorted[j].IsContext
	})

	result := make([]LineRecord, 0, len(sorted))
	for _, record := range sorted {
		if n := len(result); n > 0 && result[n-1].LineNumber == record.LineNumber {
			if !record.IsContext {
				result[n-1].Matches = unionMatches(result[n-1].Matches, record.Matches)
			}
			continue
		}
		record.Matches = slices.Clone(record.Matches)
		result = append(result, record)
	}

	for i := range result {
		sort.Slice(result[i].Matches, func(a, b int) bool {
			return result[i].Matches[a].less(result[i].Matches[b])
		})
	}

	return result
}

func unionMatches(into []Match, from []Match) []Match {
	for _, m := range from {
		if !slices.Contains(into, m) {
			into = append(into, m)
		}
	}
	return into
}

// Merge adds every context line whose number is not already in results.
// Both inputs must be ascending by line number.
func Merge(results []LineRecord, contextLines []LineRecord) []LineRecord {
	if len(contextLines) == 0 {
		return results
	}
	if len(results) == 0 {
		merged := make([]LineRecord, len(contextLines))
		copy(merged, contextLines)
		return merged
	}

	merged := make([]LineRecord, 0, mergedSize(results, contextLines))
	r, c := 0, 0
	for r < len(results) && c < len(contextLines) {
		switch {
		case contextLines[c].LineNumber < results[r].LineNumber:
			merged = append(merged, contextLines[c])
			c++
		case results[r].LineNumber < contextLines[c].LineNumber:
			merged = append(merged, results[r])
			r++
		default:
			merged = append(merged, results[r])
			r++
			c++
		}
	}
	merged = append(merged, results[r:]...)
	merged = append(merged, contextLines[c:]...)

	return merged
}

func mergedSize(results []LineRecord, contextLines []LineRecord) int {
	size := len(results)
	r, c := 0, 0
	for r < len(results) && c < len(contextLines) {
		switch {
		case contextLines[c].LineNumber < results[r].LineNumber:
			size++
			c++
		case results[r].LineNumber < contextLines[c].LineNumber:
			r++
		default:
			r++
			c++
		}
	}
	return size + len(contextLines) - c
}

// ContextOnly returns the context records of an assembled sequence.
func ContextOnly(records []LineRecord) []LineRecord {
	result := make([]LineRecord, 0, len(records))
	for _, record := range records {
		if record.IsContext {
			result = append(result, record)
		}
	}
	return result
}

// MatchCount returns the number of in-line match ranges across records.
func MatchCount(records []LineRecord) int {
	count := 0
	for _, record := range records {
		count += len(record.Matches)
	}
	return count
}

// MatchedLineCount returns the number of distinct genuine line numbers.
func MatchedLineCount(records []LineRecord) int {
	seen := make(map[int]struct{}, len(records))
	for _, record := range records {
		if !record.IsContext && record.LineNumber > 0 {
			seen[record.LineNumber] = struct{}{}
		}
	}
	return len(seen)
}
