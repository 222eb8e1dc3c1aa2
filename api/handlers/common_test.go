// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/findlines/config"
	"github.com/meghashyamc/findlines/db/kvdb"
	"github.com/meghashyamc/findlines/db/searchdb"
	"github.com/meghashyamc/findlines/logger"
	"github.com/meghashyamc/findlines/services/enumerate"
	"github.com/meghashyamc/findlines/services/fileops"
	"github.com/meghashyamc/findlines/services/index"
	"github.com/meghashyamc/findlines/services/search"
	"github.com/meghashyamc/findlines/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var testFiles = map[string]string{
	"file1.txt":              "This is test content for file1",
	"file2.go":               "package main\n\nfunc main() {\n\tprint(\"Hello\")\n}",
	"subdir/file3.md":        "# Test Markdown\n\nThis is a test markdown file",
	"subdir/file4.json":      `{"key": "value", "number": 42}`,
	"subdir/nested/file5.py": "def hello():\n    print('Hello World')",
}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	queryParams      map[string]string
	expectedStatus   int
	expectedResponse map[string]any
}

type testServer struct {
	router   *gin.Engine
	root     string
	searchDB *searchdb.BleveDB
	kvDB     *kvdb.BoltDB
}

func (s *testServer) path(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {
	storageDir := t.TempDir()
	t.Setenv("STORAGE_PATH", storageDir)
	t.Setenv("INDEX_PATH", "index")
	t.Setenv("KVDB_PATH", filepath.Join(storageDir, "findlines.db"))

	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	root := t.TempDir()
	for relPath, content := range testFiles {
		fullPath := filepath.Join(root, filepath.FromSlash(relPath))
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}

	testLogger := logger.New(cfg.GetLogLevel())

	searchDB, err := searchdb.New(testLogger, cfg)
	assert.NoError(err, "could not create search database")

	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	ctx, cancel := context.WithCancel(context.Background())
	enumerator := enumerate.New(testLogger, enumerate.NewArchiveRegistry(cfg.GetArchiveExtensions()))
	searcher := search.NewSearcher(testLogger, enumerator, searchDB, cfg.GetMaxSearchWorkers(), cfg.GetMaxFileSize())
	searchService := search.NewService(ctx, testLogger, searcher, kvDB, cfg.GetSearchQueueSize())
	indexService := index.New(ctx, testLogger, searchDB, kvDB, enumerator, cfg.GetMaxFileSize())

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupFiles(router, testLogger, enumerator, validator)
	SetupIndex(router, testLogger, indexService, validator)
	SetupSearch(router, testLogger, searchService, validator)
	SetupFileOperations(router, testLogger, searchService, fileops.New(testLogger), validator)
	SetupDocuments(router, testLogger, searchDB, validator)

	t.Cleanup(func() {
		cancel()
		<-searchService.Done()
		<-indexService.Done()
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return &testServer{router: router, root: root, searchDB: searchDB, kvDB: kvDB}
}

func makeTestHTTPRequest(server *testServer, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any, queryParams map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}

	var body *bytes.Reader
	if requestBodyMap != nil {
		jsonBody, err := json.Marshal(requestBodyMap)
		assert.NoError(err)
		body = bytes.NewReader(jsonBody)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, endpoint, body)
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	server.router.ServeHTTP(w, req)

	return w
}

func decodeResponse[T any](assert *require.Assertions, w *httptest.ResponseRecorder) T {
	var decoded struct {
		Data   T        `json:"data"`
		Errors []string `json:"errors"`
	}
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &decoded), "could not unmarshal gotten response %s", w.Body.String())
	return decoded.Data
}

// waitForStatus polls endpoint until it answers with http.StatusOK.
func waitForStatus(server *testServer, assert *require.Assertions, endpoint string) *httptest.ResponseRecorder {
	const maxWait = 10 * time.Second

	for startTime := time.Now(); time.Since(startTime) < maxWait; time.Sleep(50 * time.Millisecond) {
		w := makeTestHTTPRequest(server, assert, http.MethodGet, endpoint, nil, nil, nil)
		if w.Code != http.StatusAccepted {
			return w
		}
	}
	assert.Fail("timed out waiting for request to finish", endpoint)
	return nil
}

func runTestCases(t *testing.T, server *testServer, method string, endpoint string, testCases []testCase) {
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(server, assert, method, endpoint, testCase.requestHeaders, testCase.requestBody, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code, "response gotten was %s", w.Body.String())

			if testCase.expectedResponse != nil {
				var responseMap map[string]any
				assert.NoError(json.Unmarshal(w.Body.Bytes(), &responseMap))
				assertContains(assert, testCase.expectedResponse, responseMap)
			}
		})
	}
}

// assertContains checks that every key of expected is present in actual with
// the same value, descending into nested maps.
func assertContains(assert *require.Assertions, expected map[string]any, actual map[string]any) {
	for key, expectedValue := range expected {
		actualValue, ok := actual[key]
		assert.True(ok, "missing key %s in %v", key, actual)

		expectedMap, isMap := expectedValue.(map[string]any)
		if !isMap {
			assert.Equal(expectedValue, actualValue, "unexpected value for key %s", key)
			continue
		}
		actualMap, isMap := actualValue.(map[string]any)
		assert.True(isMap, "expected key %s to hold an object", key)
		assertContains(assert, expectedMap, actualMap)
	}
}
