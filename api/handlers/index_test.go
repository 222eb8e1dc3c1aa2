package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/meghashyamc/findlines/services/index"
	"github.com/stretchr/testify/require"
)

func TestHandleCreateIndex(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	createIndexHandlerTestCases := []testCase{
		{
			name:           "NoRequestBody",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    nil,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "EmptyPath",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"path": ""},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "NonExistentPath",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"path": "./abc"},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "InvalidIncludePattern",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"path": server.root, "include": "[", "is_regex": true},
			expectedStatus: http.StatusNotAcceptable,
		},
	}
	runTestCases(t, server, http.MethodPost, "/index", createIndexHandlerTestCases)

	for _, name := range []string{"Success", "SuccessDuplicate"} {
		t.Run(name, func(t *testing.T) {
			assert := require.New(t)
			requestBody := map[string]any{"path": server.root, "include_subfolders": true}
			w := makeTestHTTPRequest(server, assert, http.MethodPost, "/index", defaultTestRequestHeaders, requestBody, nil)
			assert.Equal(http.StatusAccepted, w.Code, "response gotten was %s", w.Body.String())
			assertSuccessfulIndexCreation(assert, server, decodeResponse[RequestAcceptedResponse](assert, w).ID)
		})
	}

	numOfDocuments, err := server.searchDB.GetDocCount()
	assert.NoError(err, "could not get document count")
	assert.Equal(len(testFiles), int(numOfDocuments), "document count of index should be equal to number of test files")
}

func TestHandleGetIndexStatus(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	w := makeTestHTTPRequest(server, assert, http.MethodGet, "/index/"+uuid.New().String(), nil, nil, nil)
	assert.Equal(http.StatusNotFound, w.Code)

	w = makeTestHTTPRequest(server, assert, http.MethodPost, "/index", defaultTestRequestHeaders, map[string]any{"path": server.root}, nil)
	assert.Equal(http.StatusAccepted, w.Code)
	requestID := decodeResponse[RequestAcceptedResponse](assert, w).ID

	w = waitForStatus(server, assert, "/index/"+requestID)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())

	status := decodeResponse[IndexStatusResponse](assert, w)
	assert.Equal(requestID, status.ID)
	assert.Equal(index.ProgressStatusComplete, status.Progress)

	numOfDocuments, err := server.searchDB.GetDocCount()
	assert.NoError(err)
	assert.Equal(2, int(numOfDocuments), "only the top-level files are indexed without subfolders")
}

func assertSuccessfulIndexCreation(assert *require.Assertions, server *testServer, requestID string) {
	_, err := uuid.Parse(requestID)
	assert.NoError(err, "got an error parsing gotten request id into UUID")

	w := waitForStatus(server, assert, fmt.Sprintf("/index/%s", requestID))
	assert.Equal(http.StatusOK, w.Code, "index creation did not succeed: %s", w.Body.String())
}
