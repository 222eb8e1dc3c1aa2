package match

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/meghashyamc/findlines/services/lines"
)

type Options struct {
	SearchType    SearchType
	Pattern       string
	CaseSensitive bool
}

// New returns the Matcher for opts. locator backs SearchTypeIndex and may be
// nil for the other types.
func New(opts Options, locator Locator) (Matcher, error) {
	if opts.Pattern == "" {
		return nil, ErrEmptyPattern
	}

	switch opts.SearchType {
	case SearchTypePlainText:
		if opts.CaseSensitive {
			return &plainMatcher{pattern: []byte(opts.Pattern)}, nil
		}
		return newRegexMatcher(regexp.QuoteMeta(opts.Pattern), false)
	case SearchTypeRegex:
		return newRegexMatcher(opts.Pattern, opts.CaseSensitive)
	case SearchTypeIndex:
		if locator == nil {
			return nil, fmt.Errorf("%w: no index available", ErrUnsupportedSearchType)
		}
		return &indexMatcher{locator: locator, query: opts.Pattern}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSearchType, opts.SearchType)
	}
}

type plainMatcher struct {
	pattern []byte
}

func (m *plainMatcher) Find(_ string, body []byte) ([]lines.Match, error) {
	var matches []lines.Match
	for offset := 0; offset < len(body); {
		i := bytes.Index(body[offset:], m.pattern)
		if i < 0 {
			break
		}
		matches = append(matches, lines.Match{StartOffset: offset + i, Length: len(m.pattern)})
		offset += i + len(m.pattern)
	}
	return matches, nil
}

type regexMatcher struct {
	re *regexp.Regexp
}

// newRegexMatcher compiles expression in multi-line mode so '^' and '$'
// anchor at line boundaries.
func newRegexMatcher(expression string, caseSensitive bool) (*regexMatcher, error) {
	flags := "(?m)"
	if !caseSensitive {
		flags = "(?mi)"
	}

	re, err := regexp.Compile(flags + expression)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern: %w", err)
	}

	return &regexMatcher{re: re}, nil
}

// Find skips empty matches.
func (m *regexMatcher) Find(_ string, body []byte) ([]lines.Match, error) {
	var matches []lines.Match
	for _, loc := range m.re.FindAllIndex(body, -1) {
		if loc[1] > loc[0] {
			matches = append(matches, lines.Match{StartOffset: loc[0], Length: loc[1] - loc[0]})
		}
	}
	return matches, nil
}

type indexMatcher struct {
	locator Locator
	query   string
}

func (m *indexMatcher) Find(path string, _ []byte) ([]lines.Match, error) {
	return m.locator.Locate(path, m.query)
}
