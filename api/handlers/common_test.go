// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/incsearch/config"
	"github.com/meghashyamc/incsearch/db/kvdb"
	"github.com/meghashyamc/incsearch/db/localindex"
	"github.com/meghashyamc/incsearch/logger"
	"github.com/meghashyamc/incsearch/services/search"
	"github.com/meghashyamc/incsearch/validation"
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
	name           string
	method         string
	endpoint       string
	requestHeaders map[string]string
	requestBody    map[string]any
	queryParams    map[string]string
	expectedStatus int
}

type testServer struct {
	router  *gin.Engine
	dataDir string
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {

	t.Setenv("ENV", "test")
	t.Setenv("STORAGE_PATH", t.TempDir())

	cfg, err := config.Load("")
	assert.NoError(err, "could not load config")

	dataDir := t.TempDir()
	for relPath, content := range testFiles {
		fullPath := filepath.Join(dataDir, relPath)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}

	testLogger := newTestLogger()

	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")
	index, err := localindex.New(testLogger, cfg, kvDB)
	assert.NoError(err, "could not create local index")
	_, err = index.Seed(context.Background(), dataDir)
	assert.NoError(err, "could not seed local index")

	engine := search.NewEngine(testLogger, index, search.OptionsFromConfig(cfg))
	sessions, err := search.NewSessions(engine, cfg.GetMaxSessions())
	assert.NoError(err, "could not create session registry")
	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")
	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupIndex(router, testLogger, index, validator)
	SetupSessions(router, testLogger, sessions, validator)

	t.Cleanup(func() {
		sessions.Close()
		assert.NoError(engine.Close(), "could not stop query engine")
		assert.NoError(index.Close(), "could not close local index")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return &testServer{router: router, dataDir: dataDir}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		endpoint = endpoint + "?"
		for key, value := range queryParams {
			if endpoint[len(endpoint)-1] != '?' {
				endpoint = endpoint + "&"
			}
			endpoint = endpoint + key + "=" + value
		}
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func decodeData(assert *require.Assertions, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &body), "could not decode response body")
	data, ok := body["data"].(map[string]any)
	assert.True(ok, "response should carry a data object")
	return data
}
