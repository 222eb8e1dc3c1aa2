package match

import (
	"errors"
	"testing"

	"github.com/meghashyamc/findlines/services/lines"
	"github.com/stretchr/testify/require"
)

type stubLocator struct {
	matches []lines.Match
	path    string
	query   string
}

func (s *stubLocator) Locate(path string, query string) ([]lines.Match, error) {
	s.path = path
	s.query = query
	return s.matches, nil
}

func TestParseSearchType(t *testing.T) {
	assert := require.New(t)

	assert.Equal(SearchTypeRegex, ParseSearchType(" REGEX ", SearchTypePlainText))
	assert.Equal(SearchTypeIndex, ParseSearchType("index", SearchTypePlainText))
	assert.Equal(SearchTypePlainText, ParseSearchType("plain", SearchTypeRegex))
	assert.Equal(SearchTypeRegex, ParseSearchType("fuzzy", SearchTypeRegex))
	assert.Equal(SearchTypePlainText, ParseSearchType("", SearchTypePlainText))
	assert.True(IsSearchType("Plain"))
	assert.False(IsSearchType("xpath"))
	assert.Equal("unknown", SearchType(42).String())
}

func TestFind(t *testing.T) {
	body := []byte("Foo foo\nfoofoo bar\n^start foo")

	testCases := []struct {
		name     string
		opts     Options
		expected []lines.Match
	}{
		{
			name:     "PlainCaseSensitive",
			opts:     Options{SearchType: SearchTypePlainText, Pattern: "foo", CaseSensitive: true},
			expected: []lines.Match{{StartOffset: 4, Length: 3}, {StartOffset: 8, Length: 3}, {StartOffset: 11, Length: 3}, {StartOffset: 26, Length: 3}},
		},
		{
			name:     "PlainCaseInsensitive",
			opts:     Options{SearchType: SearchTypePlainText, Pattern: "FOO"},
			expected: []lines.Match{{StartOffset: 0, Length: 3}, {StartOffset: 4, Length: 3}, {StartOffset: 8, Length: 3}, {StartOffset: 11, Length: 3}, {StartOffset: 26, Length: 3}},
		},
		{
			name:     "PlainPatternIsNotARegex",
			opts:     Options{SearchType: SearchTypePlainText, Pattern: "^start"},
			expected: []lines.Match{{StartOffset: 19, Length: 6}},
		},
		{
			name:     "PlainMatchesDoNotOverlap",
			opts:     Options{SearchType: SearchTypePlainText, Pattern: "foofoo", CaseSensitive: true},
			expected: []lines.Match{{StartOffset: 8, Length: 6}},
		},
		{
			name:     "RegexAnchorsAtLineStart",
			opts:     Options{SearchType: SearchTypeRegex, Pattern: `^\w+`, CaseSensitive: true},
			expected: []lines.Match{{StartOffset: 0, Length: 3}, {StartOffset: 8, Length: 6}},
		},
		{
			name:     "RegexSkipsEmptyMatches",
			opts:     Options{SearchType: SearchTypeRegex, Pattern: `x*`},
			expected: nil,
		},
		{
			name:     "RegexSpanningLines",
			opts:     Options{SearchType: SearchTypeRegex, Pattern: `foo\nfoo`},
			expected: []lines.Match{{StartOffset: 4, Length: 7}},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			matcher, err := New(testCase.opts, nil)
			assert.NoError(err)

			matches, err := matcher.Find("ignored", body)
			assert.NoError(err)
			assert.Equal(testCase.expected, matches)
		})
	}
}

func TestNewErrors(t *testing.T) {
	assert := require.New(t)

	_, err := New(Options{SearchType: SearchTypeRegex}, nil)
	assert.ErrorIs(err, ErrEmptyPattern)

	_, err = New(Options{SearchType: SearchTypeRegex, Pattern: "("}, nil)
	assert.Error(err)

	_, err = New(Options{SearchType: SearchTypeIndex, Pattern: "foo"}, nil)
	assert.True(errors.Is(err, ErrUnsupportedSearchType))

	_, err = New(Options{SearchType: SearchType(9), Pattern: "foo"}, nil)
	assert.ErrorIs(err, ErrUnsupportedSearchType)
}

func TestIndexMatcherDelegatesToLocator(t *testing.T) {
	assert := require.New(t)
	locator := &stubLocator{matches: []lines.Match{{StartOffset: 2, Length: 3}}}

	matcher, err := New(Options{SearchType: SearchTypeIndex, Pattern: "needle"}, locator)
	assert.NoError(err)

	matches, err := matcher.Find("/tmp/file.txt", nil)
	assert.NoError(err)
	assert.Equal(locator.matches, matches)
	assert.Equal("/tmp/file.txt", locator.path)
	assert.Equal("needle", locator.query)
}
