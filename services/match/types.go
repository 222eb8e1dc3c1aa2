package match

import (
	"errors"
	"strings"

	"github.com/meghashyamc/findlines/services/lines"
)

// SearchType selects how a pattern is turned into raw matches.
type SearchType int

const (
	SearchTypePlainText SearchType = iota
	SearchTypeRegex
	SearchTypeIndex
)

var searchTypeNames = map[SearchType]string{
	SearchTypePlainText: "plain",
	SearchTypeRegex:     "regex",
	SearchTypeIndex:     "index",
}

var (
	ErrUnsupportedSearchType = errors.New("unsupported search type")
	ErrEmptyPattern          = errors.New("search pattern is empty")
)

func (s SearchType) String() string {
	if name, ok := searchTypeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSearchType returns the SearchType named by value, ignoring case and
// surrounding space, or def when value names none.
func ParseSearchType(value string, def SearchType) SearchType {
	value = strings.ToLower(strings.TrimSpace(value))
	for searchType, name := range searchTypeNames {
		if name == value {
			return searchType
		}
	}
	return def
}

// IsSearchType reports whether value names a SearchType.
func IsSearchType(value string) bool {
	return ParseSearchType(value, -1) != -1
}

// Matcher finds the raw matches of one pattern in a file body. Matches are
// byte offsets into body, ascending and non-overlapping.
type Matcher interface {
	Find(path string, body []byte) ([]lines.Match, error)
}

// Locator returns the matches of query inside an indexed file.
type Locator interface {
	Locate(path string, query string) ([]lines.Match, error)
}
