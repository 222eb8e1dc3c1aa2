package lines

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextFor(t *testing.T) {
	body := []byte("one\ntwo needle\nthree\nfour\nfive needle\nsix\n")
	stored := []LineRecord{
		genuine(2, "two needle", Match{LineNumber: 2, StartOffset: 4, Length: 6}),
		genuine(5, "five needle", Match{LineNumber: 5, StartOffset: 5, Length: 6}),
	}

	testCases := []struct {
		name        string
		records     []LineRecord
		linesBefore int
		linesAfter  int
		expected    []LineRecord
	}{
		{
			name:        "OneLineEachSide",
			records:     stored,
			linesBefore: 1,
			linesAfter:  1,
			expected:    []LineRecord{contextLine(1, "one"), contextLine(3, "three"), contextLine(4, "four"), contextLine(6, "six")},
		},
		{
			name:        "StoredContextIsIgnored",
			records:     append([]LineRecord{contextLine(1, "one")}, stored...),
			linesBefore: 0,
			linesAfter:  1,
			expected:    []LineRecord{contextLine(3, "three"), contextLine(6, "six")},
		},
		{
			name:        "NoContextRequested",
			records:     stored,
			expected:    []LineRecord{},
		},
		{
			name:        "RangesThatNoLongerFitAreIgnored",
			records:     []LineRecord{genuine(2, "two needle", Match{LineNumber: 2, StartOffset: 20, Length: 3})},
			linesBefore: 1,
			expected:    []LineRecord{},
		},
		{
			name:     "NoGenuineRecords",
			records:  []LineRecord{contextLine(1, "one")},
			expected: []LineRecord{},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			context, err := ContextFor(body, testCase.records, testCase.linesBefore, testCase.linesAfter)
			assert.NoError(err)
			assert.Equal(testCase.expected, context)
		})
	}
}

func TestContextForMergesIntoStoredResults(t *testing.T) {
	assert := require.New(t)
	body := []byte("one\ntwo needle\nthree\n")
	stored := []LineRecord{genuine(2, "two needle", Match{LineNumber: 2, StartOffset: 4, Length: 6})}

	context, err := ContextFor(body, stored, 2, 2)
	assert.NoError(err)

	merged := Merge(stored, context)
	assert.Equal([]LineRecord{contextLine(1, "one"), stored[0], contextLine(3, "three")}, merged)
}
