package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meghashyamc/findlines/logger"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Path         string `json:"path" validate:"required,valid_path"`
	Pattern      string `json:"pattern" validate:"required,valid_query,max=1000"`
	SearchType   string `json:"search_type" validate:"valid_search_type"`
	DateFilter   string `json:"date_filter" validate:"valid_date_filter"`
	ReportFormat string `json:"format" validate:"valid_report_format"`
}

func TestValidate(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()
	withSeparator := filepath.Join(root, "a;b")
	assert.NoError(os.MkdirAll(withSeparator, 0755))

	validator, err := New(logger.New("debug"))
	assert.NoError(err)

	valid := testRequest{Path: root, Pattern: "needle"}

	testCases := []struct {
		name          string
		modify        func(r *testRequest)
		expectedError string
	}{
		{name: "Valid", modify: func(r *testRequest) {}},
		{name: "AllOptions", modify: func(r *testRequest) {
			r.SearchType, r.DateFilter, r.ReportFormat = "Regex", "modified", "csv"
		}},
		{name: "PathList", modify: func(r *testRequest) { r.Path = root + ";" + withSeparator }},
		{name: "MissingPath", modify: func(r *testRequest) { r.Path = "" }, expectedError: "missing required field 'path'"},
		{name: "RelativePath", modify: func(r *testRequest) { r.Path = "relative/dir" }, expectedError: "invalid path"},
		{name: "NonExistentPath", modify: func(r *testRequest) { r.Path = root + ";" + filepath.Join(root, "missing") }, expectedError: "invalid path"},
		{name: "NullByte", modify: func(r *testRequest) { r.Path = root + "\x00" }, expectedError: "invalid path"},
		{name: "BlankPattern", modify: func(r *testRequest) { r.Pattern = "   " }, expectedError: "invalid query"},
		{name: "PatternTooLong", modify: func(r *testRequest) { r.Pattern = strings.Repeat("a", 1001) }, expectedError: "value or length of field 'pattern' is not in the expected range"},
		{name: "UnknownSearchType", modify: func(r *testRequest) { r.SearchType = "fuzzy" }, expectedError: "invalid search type"},
		{name: "UnknownDateFilter", modify: func(r *testRequest) { r.DateFilter = "accessed" }, expectedError: "invalid date filter"},
		{name: "UnknownReportFormat", modify: func(r *testRequest) { r.ReportFormat = "pdf" }, expectedError: "invalid report format"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			request := valid
			testCase.modify(&request)

			err := validator.Validate(request)
			if testCase.expectedError == "" {
				assert.NoError(err)
				return
			}
			assert.EqualError(err, testCase.expectedError)
		})
	}
}
