package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func createSession(assert *require.Assertions, server *testServer) string {
	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/sessions", defaultTestRequestHeaders, nil, nil)
	assert.Equal(http.StatusCreated, w.Code)
	id, ok := decodeData(assert, w)["id"].(string)
	assert.True(ok)
	assert.NotEmpty(id)
	return id
}

func runQuery(assert *require.Assertions, server *testServer, id string, body map[string]any) {
	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/sessions/"+id+"/query", defaultTestRequestHeaders, body, nil)
	assert.Equal(http.StatusAccepted, w.Code)

	w = makeTestHTTPRequest(server.router, assert, http.MethodGet, "/sessions/"+id+"/wait", nil, nil, map[string]string{"timeout": "5s"})
	assert.Equal(http.StatusNoContent, w.Code)
}

func fetchResults(assert *require.Assertions, server *testServer, id string, limit int) (bool, map[string]any) {
	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/sessions/"+id+"/fetch", defaultTestRequestHeaders, map[string]any{"offset": 0, "limit": limit}, nil)
	assert.Equal(http.StatusOK, w.Code)
	more, ok := decodeData(assert, w)["more"].(bool)
	assert.True(ok)

	w = makeTestHTTPRequest(server.router, assert, http.MethodGet, "/sessions/"+id+"/results", nil, nil, nil)
	assert.Equal(http.StatusOK, w.Code)
	return more, decodeData(assert, w)
}

func resultNames(assert *require.Assertions, data map[string]any) []string {
	results, ok := data["results"].([]any)
	assert.True(ok, "results should be a list")
	names := []string{}
	for _, result := range results {
		record, ok := result.(map[string]any)
		assert.True(ok)
		names = append(names, record["display_name"].(string))
	}
	return names
}

func TestSessionQueryFlow(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)
	id := createSession(assert, server)

	runQuery(assert, server, id, map[string]any{"text": "file1", "cookie": 3})
	more, data := fetchResults(assert, server, id, 10)
	assert.False(more)
	assert.Equal("file1", data["text"])
	assert.Equal(float64(3), data["cookie"])
	assert.Equal("idle", data["state"])
	assert.Equal([]string{"file1.txt"}, resultNames(assert, data))

	record := data["results"].([]any)[0].(map[string]any)
	assert.True(strings.HasPrefix(record["url"].(string), "file://"))
	assert.Equal("document", record["kind"])
	assert.Equal(false, record["is_folder"])

	_, data = fetchResults(assert, server, id, 10)
	assert.Empty(resultNames(assert, data), "an exhausted cursor should add no results")
}

func TestSessionDebouncedQuery(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)
	id := createSession(assert, server)

	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/sessions/"+id+"/query", defaultTestRequestHeaders, map[string]any{"text": "fi", "debounce": true}, nil)
	assert.Equal(http.StatusAccepted, w.Code)
	runQuery(assert, server, id, map[string]any{"text": "subdir", "debounce": true})

	_, data := fetchResults(assert, server, id, 10)
	assert.Equal("subdir", data["text"])
	assert.Equal([]string{"subdir"}, resultNames(assert, data))
	record := data["results"].([]any)[0].(map[string]any)
	assert.Equal(true, record["is_folder"])
}

func TestSessionFetchPaging(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)
	id := createSession(assert, server)

	runQuery(assert, server, id, map[string]any{"text": "file"})
	more, data := fetchResults(assert, server, id, 3)
	assert.True(more)
	assert.Len(resultNames(assert, data), 3)

	more, data = fetchResults(assert, server, id, 3)
	assert.False(more)
	assert.Len(resultNames(assert, data), 2)
}

func TestSessionCancelAndDispose(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)
	id := createSession(assert, server)

	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/sessions/"+id+"/query", defaultTestRequestHeaders, map[string]any{"text": "file", "debounce": true}, nil)
	assert.Equal(http.StatusAccepted, w.Code)
	w = makeTestHTTPRequest(server.router, assert, http.MethodPost, "/sessions/"+id+"/cancel", nil, nil, nil)
	assert.Equal(http.StatusNoContent, w.Code)
	w = makeTestHTTPRequest(server.router, assert, http.MethodGet, "/sessions/"+id+"/wait", nil, nil, nil)
	assert.Equal(http.StatusNoContent, w.Code, "cancelling should release waiters")

	more, data := fetchResults(assert, server, id, 10)
	assert.False(more)
	assert.Equal("cancelled", data["state"])
	assert.Empty(resultNames(assert, data))

	w = makeTestHTTPRequest(server.router, assert, http.MethodDelete, "/sessions/"+id, nil, nil, nil)
	assert.Equal(http.StatusNoContent, w.Code)
	w = makeTestHTTPRequest(server.router, assert, http.MethodGet, "/sessions/"+id+"/results", nil, nil, nil)
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestSessionRequestErrors(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)
	id := createSession(assert, server)

	testCases := []testCase{
		{
			name:           "UnknownSession",
			method:         http.MethodPost,
			endpoint:       "/sessions/unknown/query",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"text": "file"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "QueryWithoutBody",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/query",
			requestHeaders: defaultTestRequestHeaders,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "QueryWithBadCookie",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/query",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"text": "file", "cookie": "abc"},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "QueryTooLong",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/query",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"text": strings.Repeat("a", 1001)},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "QueryWithNullByte",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/query",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"text": "fi\x00le"},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "FetchWithoutLimit",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/fetch",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"offset": 0},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "FetchLimitTooLarge",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/fetch",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"limit": 501},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "FetchNegativeOffset",
			method:         http.MethodPost,
			endpoint:       "/sessions/" + id + "/fetch",
			requestHeaders: defaultTestRequestHeaders,
			requestBody:    map[string]any{"offset": -1, "limit": 10},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "WaitWithBadTimeout",
			method:         http.MethodGet,
			endpoint:       "/sessions/" + id + "/wait",
			queryParams:    map[string]string{"timeout": "soon"},
			expectedStatus: http.StatusNotAcceptable,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(server.router, assert, testCase.method, testCase.endpoint, testCase.requestHeaders, testCase.requestBody, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code)
		})
	}
}

func TestIndexHandler(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	w := makeTestHTTPRequest(server.router, assert, http.MethodPost, "/index", defaultTestRequestHeaders, map[string]any{"path": server.dataDir + "/subdir"}, nil)
	assert.Equal(http.StatusOK, w.Code)
	// subdir, file3.md, file4.json, nested, file5.py
	assert.Equal(float64(5), decodeData(assert, w)["added"])

	w = makeTestHTTPRequest(server.router, assert, http.MethodPost, "/index", defaultTestRequestHeaders, map[string]any{"path": "relative/dir"}, nil)
	assert.Equal(http.StatusNotAcceptable, w.Code)

	w = makeTestHTTPRequest(server.router, assert, http.MethodPost, "/index", defaultTestRequestHeaders, map[string]any{}, nil)
	assert.Equal(http.StatusNotAcceptable, w.Code)
}
