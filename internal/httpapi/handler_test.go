// Package httpapi_test tests the HTTP surface of the router.
package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRouter returns a canned result and records requests.
type stubRouter struct {
	mu       sync.Mutex
	requests []core.SynthesisRequest
	result   core.SynthesisResult
}

func (s *stubRouter) Route(_ context.Context, req core.SynthesisRequest) core.SynthesisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)

	return s.result
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "httpapi-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	return testLogger
}

func newServer(t *testing.T, router httpapi.Router, options ...httpapi.Option) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(httpapi.New(router, createTestLogger(t), options...).Routes())
	t.Cleanup(server.Close)

	return server
}

func post(t *testing.T, url, body string) (*http.Response, core.SynthesisResult) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var result core.SynthesisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return resp, result
}

func TestSynthesize_Success(t *testing.T) {
	t.Parallel()

	seconds := 1.5
	router := &stubRouter{result: core.Succeeded("tts/abc.wav", "local-model", "", &seconds)}
	server := newServer(t, router)

	for _, path := range []string{"/", "/v1/synthesize"} {
		resp, result := post(t, server.URL+path, `{"text":"Hello world","provider":"local-model"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.True(t, result.Success)
		assert.Equal(t, "tts/abc.wav", result.StorageKey)
		require.NotNil(t, result.DurationSeconds)
		assert.InDelta(t, 1.5, *result.DurationSeconds, 0.0001)
	}

	require.Len(t, router.requests, 2)
	assert.Equal(t, "Hello world", router.requests[0].Text)
	assert.Equal(t, "local-model", router.requests[0].Provider)
}

func TestSynthesize_ResponseOmitsEmptyFields(t *testing.T) {
	t.Parallel()

	router := &stubRouter{result: core.Failed(core.CodeMissingText, "Text is required")}
	server := newServer(t, router)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, strings.NewReader(`{"text":""}`))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))

	assert.Equal(t, false, raw["success"])
	assert.Equal(t, "MISSING_TEXT", raw["errorCode"])
	assert.NotContains(t, raw, "storageKey")
	assert.NotContains(t, raw, "durationSeconds")
}

func TestSynthesize_MalformedJSON(t *testing.T) {
	t.Parallel()

	router := &stubRouter{}
	server := newServer(t, router)

	resp, result := post(t, server.URL, `{"text": 42`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, result.Success)
	assert.Equal(t, core.CodeInvalidRequest, result.ErrorCode)
	assert.Empty(t, router.requests)
}

func TestSynthesize_BodyLimit(t *testing.T) {
	t.Parallel()

	router := &stubRouter{}
	server := newServer(t, router, httpapi.WithMaxBodyBytes(64))

	_, result := post(t, server.URL, `{"text":"`+strings.Repeat("a", 256)+`"}`)
	assert.Equal(t, core.CodeInvalidRequest, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "64 bytes")
	assert.Empty(t, router.requests)
}

func TestSynthesize_StatusModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code       core.ErrorCode
		wantHTTP   int
		wantCompat int
	}{
		{code: core.CodeMissingText, wantHTTP: http.StatusBadRequest, wantCompat: http.StatusOK},
		{code: core.CodeMissingCredentials, wantHTTP: http.StatusBadRequest, wantCompat: http.StatusOK},
		{code: core.CodeInvalidCredentials, wantHTTP: http.StatusUnauthorized, wantCompat: http.StatusOK},
		{code: core.CodeFileNotFound, wantHTTP: http.StatusNotFound, wantCompat: http.StatusOK},
		{code: core.CodeProviderError, wantHTTP: http.StatusBadGateway, wantCompat: http.StatusOK},
		{code: core.CodeInternalError, wantHTTP: http.StatusInternalServerError, wantCompat: http.StatusOK},
	}

	for _, testCase := range tests {
		t.Run(string(testCase.code), func(t *testing.T) {
			t.Parallel()

			router := &stubRouter{result: core.Failed(testCase.code, "failure")}

			compat := newServer(t, router)
			resp, result := post(t, compat.URL, `{"text":"Hi"}`)
			assert.Equal(t, testCase.wantCompat, resp.StatusCode)
			assert.Equal(t, testCase.code, result.ErrorCode)

			mapped := newServer(t, router, httpapi.WithStatusMode(httpapi.StatusModeHTTP))
			resp, result = post(t, mapped.URL, `{"text":"Hi"}`)
			assert.Equal(t, testCase.wantHTTP, resp.StatusCode)
			assert.Equal(t, testCase.code, result.ErrorCode)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server := newServer(t, &stubRouter{})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/health", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCORS(t *testing.T) {
	t.Parallel()

	server := newServer(t, &stubRouter{}, httpapi.WithAllowedOrigins([]string{"https://app.example.com"}))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, server.URL+"/v1/synthesize", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
