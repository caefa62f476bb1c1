// Package credentials_test tests credential validation.
package credentials_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	validSID   = "AC" + strings.Repeat("a", 32)
	validToken = strings.Repeat("t", 32)
)

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "credentials-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	return testLogger
}

// createLookupServer returns a mock Twilio API answering with the given status and
// counting the lookups it receives.
func createLookupServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, validSID, user)
		assert.Equal(t, validToken, pass)
		assert.Equal(t, "/2010-04-01/Accounts/"+validSID+".json", r.URL.Path)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"active"}`))
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

func TestCheckTwilioFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sid     string
		token   string
		wantErr error
	}{
		{name: "valid", sid: validSID, token: validToken, wantErr: nil},
		{name: "short sid", sid: "AC123", token: validToken, wantErr: credentials.ErrMalformedSID},
		{name: "wrong prefix", sid: "XX" + strings.Repeat("a", 32), token: validToken, wantErr: credentials.ErrMalformedSID},
		{name: "short token", sid: validSID, token: "short", wantErr: credentials.ErrMalformedToken},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := credentials.CheckTwilioFormat(testCase.sid, testCase.token)
			if testCase.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestTwilioValidator_MalformedSkipsNetwork(t *testing.T) {
	t.Parallel()

	server, calls := createLookupServer(t, http.StatusOK)
	validator := credentials.NewTwilioValidator(createTestLogger(t), credentials.WithBaseURL(server.URL))

	valid, err := validator.Validate(context.Background(), "AC-too-short", validToken)
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, int32(0), calls.Load())
}

func TestTwilioValidator_LookupOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantValid bool
		wantErr   bool
	}{
		{name: "accepted", status: http.StatusOK, wantValid: true, wantErr: false},
		{name: "unauthorized", status: http.StatusUnauthorized, wantValid: false, wantErr: false},
		{name: "forbidden", status: http.StatusForbidden, wantValid: false, wantErr: false},
		{name: "unknown account", status: http.StatusNotFound, wantValid: false, wantErr: false},
		{name: "server error propagates", status: http.StatusInternalServerError, wantValid: false, wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server, calls := createLookupServer(t, testCase.status)
			validator := credentials.NewTwilioValidator(createTestLogger(t), credentials.WithBaseURL(server.URL))

			valid, err := validator.Validate(context.Background(), validSID, validToken)
			if testCase.wantErr {
				require.ErrorIs(t, err, credentials.ErrUnexpectedResponse)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, testCase.wantValid, valid)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestTwilioValidator_TransportFailureIsInvalid(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	validator := credentials.NewTwilioValidator(createTestLogger(t), credentials.WithBaseURL(baseURL))

	valid, err := validator.Validate(context.Background(), validSID, validToken)
	require.NoError(t, err)
	assert.False(t, valid)
}
