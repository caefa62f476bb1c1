// Package polly_test tests the Polly-backed provider adapters.
package polly_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/tts/audio"
	ttspolly "github.com/book-expert/tts-router/internal/tts/polly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockLookup = errors.New("mock lookup error")

// mockSpeechAPI records SynthesizeSpeech inputs.
type mockSpeechAPI struct {
	inputs []*polly.SynthesizeSpeechInput
	audio  string
	err    error
}

func (m *mockSpeechAPI) SynthesizeSpeech(
	_ context.Context,
	params *polly.SynthesizeSpeechInput,
	_ ...func(*polly.Options),
) (*polly.SynthesizeSpeechOutput, error) {
	m.inputs = append(m.inputs, params)

	if m.err != nil {
		return nil, m.err
	}

	return &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(strings.NewReader(m.audio)),
		ContentType: aws.String("audio/mpeg"),
	}, nil
}

// mockFactory hands out the mock API and records the credential scope.
type mockFactory struct {
	api     *mockSpeechAPI
	creds   []*core.AWSCredentials
	regions []string
}

func (m *mockFactory) NewSpeechAPI(_ context.Context, creds *core.AWSCredentials, region string) (ttspolly.SpeechAPI, error) {
	m.creds = append(m.creds, creds)
	m.regions = append(m.regions, region)

	return m.api, nil
}

type mockValidator struct {
	valid bool
	err   error
	calls int
}

func (m *mockValidator) Validate(context.Context, string, string) (bool, error) {
	m.calls++

	return m.valid, m.err
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "polly-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	return testLogger
}

func newFactory(audioData string, err error) *mockFactory {
	return &mockFactory{
		api:     &mockSpeechAPI{inputs: nil, audio: audioData, err: err},
		creds:   nil,
		regions: nil,
	}
}

func twilioRequest(voiceID string) core.SynthesisRequest {
	req := core.NewSynthesisRequest("Hello caller")
	req.Provider = string(core.ProviderTwilio)
	req.VoiceID = voiceID
	req.Twilio = &core.TwilioCredentials{
		AccountSID: "AC" + strings.Repeat("1", 32),
		AuthToken:  strings.Repeat("2", 32),
	}

	return req
}

func pollyRequest(voiceID string) core.SynthesisRequest {
	req := core.NewSynthesisRequest("Hi")
	req.Provider = string(core.ProviderPolly)
	req.VoiceID = voiceID
	req.AWS = &core.AWSCredentials{AccessKeyID: "x", SecretAccessKey: "y", Region: ""}

	return req
}

func TestParseTwilioVoice(t *testing.T) {
	t.Parallel()

	voice, engine, err := ttspolly.ParseTwilioVoice("Polly.Joanna-Neural")
	require.NoError(t, err)
	assert.Equal(t, "Joanna", voice)
	assert.Equal(t, types.EngineNeural, engine)

	voice, engine, err = ttspolly.ParseTwilioVoice("Polly.Ruth-Generative")
	require.NoError(t, err)
	assert.Equal(t, "Ruth", voice)
	assert.Equal(t, types.Engine("generative"), engine)

	for _, malformed := range []string{"Joanna", "Polly.Joanna", "Google.en-US", "Polly.Joanna-Neural-X", ""} {
		_, _, parseErr := ttspolly.ParseTwilioVoice(malformed)
		require.ErrorIs(t, parseErr, ttspolly.ErrMalformedVoiceID, "voice %q", malformed)
		assert.Contains(t, parseErr.Error(), "Polly.<VoiceName>-<Engine>")
	}
}

func TestInferEngine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, types.EngineStandard, ttspolly.InferEngine("Joanna"))
	assert.Equal(t, types.EngineNeural, ttspolly.InferEngine("Joanna-NEURAL"))
	assert.Equal(t, types.EngineNeural, ttspolly.InferEngine("ruth-generative"))
}

func TestTwilioSynthesizer_Success(t *testing.T) {
	t.Parallel()

	factory := newFactory("mp3-bytes", nil)
	validator := &mockValidator{valid: true, err: nil, calls: 0}
	synthesizer := ttspolly.NewTwilioSynthesizer(validator, factory, "eu-west-1", createTestLogger(t))

	result, err := synthesizer.Synthesize(context.Background(), twilioRequest("Polly.Joanna-Neural"))
	require.NoError(t, err)

	assert.Equal(t, []byte("mp3-bytes"), result.Data)
	assert.Equal(t, audio.FormatMP3, result.Format)
	assert.Equal(t, 1, validator.calls)

	require.Len(t, factory.api.inputs, 1)
	input := factory.api.inputs[0]
	assert.Equal(t, types.VoiceId("Joanna"), input.VoiceId)
	assert.Equal(t, types.EngineNeural, input.Engine)
	assert.Equal(t, types.OutputFormatMp3, input.OutputFormat)
	assert.Equal(t, types.TextTypeText, input.TextType)
	assert.Equal(t, "Hello caller", aws.ToString(input.Text))

	require.Len(t, factory.creds, 1)
	assert.Nil(t, factory.creds[0], "ambient credentials are used without AWS keys")
	assert.Equal(t, "eu-west-1", factory.regions[0])
}

func TestTwilioSynthesizer_UsesSuppliedAWSKeys(t *testing.T) {
	t.Parallel()

	factory := newFactory("mp3", nil)
	validator := &mockValidator{valid: true, err: nil, calls: 0}
	synthesizer := ttspolly.NewTwilioSynthesizer(validator, factory, "", createTestLogger(t))

	req := twilioRequest("Polly.Matthew-Standard")
	req.AWS = &core.AWSCredentials{AccessKeyID: "AK", SecretAccessKey: "SK", Region: "ap-south-1"}

	_, err := synthesizer.Synthesize(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, factory.creds, 1)
	assert.Same(t, req.AWS, factory.creds[0])
	assert.Equal(t, "ap-south-1", factory.regions[0])
}

func TestTwilioSynthesizer_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		validator *mockValidator
		req       core.SynthesisRequest
		wantErr   error
		wantCalls int
	}{
		{
			name:      "invalid credentials",
			validator: &mockValidator{valid: false, err: nil, calls: 0},
			req:       twilioRequest("Polly.Joanna-Neural"),
			wantErr:   core.ErrInvalidCredentials,
			wantCalls: 0,
		},
		{
			name:      "lookup error propagates",
			validator: &mockValidator{valid: false, err: errMockLookup, calls: 0},
			req:       twilioRequest("Polly.Joanna-Neural"),
			wantErr:   errMockLookup,
			wantCalls: 0,
		},
		{
			name:      "malformed voice",
			validator: &mockValidator{valid: true, err: nil, calls: 0},
			req:       twilioRequest("Joanna"),
			wantErr:   ttspolly.ErrMalformedVoiceID,
			wantCalls: 0,
		},
		{
			name:      "missing voice",
			validator: &mockValidator{valid: true, err: nil, calls: 0},
			req:       twilioRequest(""),
			wantErr:   core.ErrMissingVoiceID,
			wantCalls: 0,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			factory := newFactory("mp3", nil)
			synthesizer := ttspolly.NewTwilioSynthesizer(testCase.validator, factory, "", createTestLogger(t))

			_, err := synthesizer.Synthesize(context.Background(), testCase.req)
			require.ErrorIs(t, err, testCase.wantErr)
			assert.Len(t, factory.api.inputs, testCase.wantCalls)
		})
	}
}

func TestSynthesizer_InfersStandardEngine(t *testing.T) {
	t.Parallel()

	factory := newFactory("mp3-bytes", nil)
	synthesizer := ttspolly.NewSynthesizer(factory, createTestLogger(t))

	result, err := synthesizer.Synthesize(context.Background(), pollyRequest("Joanna"))
	require.NoError(t, err)
	assert.Equal(t, audio.FormatMP3, result.Format)

	require.Len(t, factory.api.inputs, 1)
	assert.Equal(t, types.EngineStandard, factory.api.inputs[0].Engine)
	assert.Equal(t, types.VoiceId("Joanna"), factory.api.inputs[0].VoiceId)
	assert.Equal(t, "us-east-1", factory.regions[0])
}

func TestSynthesizer_MissingFields(t *testing.T) {
	t.Parallel()

	factory := newFactory("mp3", nil)
	synthesizer := ttspolly.NewSynthesizer(factory, createTestLogger(t))

	req := pollyRequest("Joanna")
	req.AWS.SecretAccessKey = ""

	_, err := synthesizer.Synthesize(context.Background(), req)
	require.ErrorIs(t, err, core.ErrMissingCredentials)

	_, err = synthesizer.Synthesize(context.Background(), pollyRequest(""))
	require.ErrorIs(t, err, core.ErrMissingVoiceID)
	assert.Empty(t, factory.api.inputs)
}

func TestSynthesizer_StrictCredentialFormat(t *testing.T) {
	t.Parallel()

	factory := newFactory("mp3", nil)
	synthesizer := ttspolly.NewSynthesizer(factory, createTestLogger(t), ttspolly.WithStrictCredentialFormat(true))

	_, err := synthesizer.Synthesize(context.Background(), pollyRequest("Joanna"))
	require.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.Empty(t, factory.api.inputs)
}

func TestSynthesizer_ErrorTranslation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		apiErr  error
		wantErr error
		wantMsg string
	}{
		{
			name:    "invalid parameter",
			apiErr:  &smithy.GenericAPIError{Code: "InvalidParameterValue", Message: "bad voice", Fault: smithy.FaultClient},
			wantErr: core.ErrInvalidInput,
			wantMsg: "bad voice",
		},
		{
			name:    "unrecognized client",
			apiErr:  &smithy.GenericAPIError{Code: "UnrecognizedClientException", Message: "nope", Fault: smithy.FaultClient},
			wantErr: core.ErrInvalidCredentials,
			wantMsg: "credentials not configured or invalid",
		},
		{
			name:    "service failure",
			apiErr:  &smithy.GenericAPIError{Code: "ServiceFailureException", Message: "boom", Fault: smithy.FaultServer},
			wantErr: core.ErrProviderFailure,
			wantMsg: "boom",
		},
		{
			name:    "empty credential chain",
			apiErr:  errors.New("failed to retrieve credentials: no providers in chain"),
			wantErr: core.ErrInvalidCredentials,
			wantMsg: "credentials not configured or invalid",
		},
		{
			name:    "transport",
			apiErr:  errors.New("dial tcp: connection refused"),
			wantErr: core.ErrProviderFailure,
			wantMsg: "connection refused",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			factory := newFactory("", testCase.apiErr)
			synthesizer := ttspolly.NewSynthesizer(factory, createTestLogger(t))

			_, err := synthesizer.Synthesize(context.Background(), pollyRequest("Joanna"))
			require.ErrorIs(t, err, testCase.wantErr)
			assert.Contains(t, err.Error(), testCase.wantMsg)
		})
	}
}

func TestSynthesizer_EmptyAudioIsProviderError(t *testing.T) {
	t.Parallel()

	factory := newFactory("", nil)
	synthesizer := ttspolly.NewSynthesizer(factory, createTestLogger(t))

	_, err := synthesizer.Synthesize(context.Background(), pollyRequest("Joanna"))
	require.ErrorIs(t, err, core.ErrProviderFailure)
}
