// Package chatterbox implements the local voice-cloning provider adapter.
//
// The neural model runs in a separate model runtime process (GPU host) that
// exposes a small HTTP contract. This package loads the model through that
// runtime at most once per process, forwards reference voice samples read from
// object storage, and serializes the returned waveform to WAV.
package chatterbox

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// API endpoints and paths.
const (
	apiLoadModel      = "/v1/models/load"
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypePCM    = "application/octet-stream"
	bytesPerSample    = 4
	maxErrorBodyBytes = 4096
)

// Error messages.
const (
	errFmtServiceErrorWithCode = "model runtime error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "model runtime returned non-OK status: %s, body: %s"
	errFmtUnexpectedType       = "unexpected content type: expected %s, got %s"
)

// Static errors.
var (
	ErrTextEmpty        = errors.New("text cannot be empty")
	ErrEmptyWaveform    = errors.New("model runtime returned an empty waveform")
	ErrTruncatedPCM     = errors.New("model runtime returned a truncated waveform")
	ErrInvalidLoadReply = errors.New("model runtime reported an invalid sample rate")
)

// RuntimeClient talks to the model runtime over HTTP.
type RuntimeClient struct {
	httpClient *http.Client
	baseURL    string
}

// LoadRequest asks the runtime to load the model onto a device.
type LoadRequest struct {
	Device string `json:"device"`
}

// LoadResponse describes the loaded model.
type LoadResponse struct {
	Model      string `json:"model"`
	SampleRate int    `json:"sample_rate"`
}

// GenerateRequest is the JSON payload for one generation call.
type GenerateRequest struct {
	Text         string  `json:"text"`
	Language     string  `json:"language_id"`
	Exaggeration float64 `json:"exaggeration"`
	CfgWeight    float64 `json:"cfg_weight"`
	// AudioPrompt optionally carries the reference voice sample, base64 encoded on the wire.
	AudioPrompt []byte `json:"audio_prompt,omitempty"`
}

// ErrorResponse is a structured error returned by the runtime.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewRuntimeClient creates a client for the runtime at baseURL. A zero timeout
// leaves calls bounded only by the caller's context.
func NewRuntimeClient(baseURL string, timeout time.Duration) *RuntimeClient {
	return &RuntimeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Load asks the runtime to load the model and returns its native sample rate.
func (c *RuntimeClient) Load(ctx context.Context, device string) (*LoadResponse, error) {
	resp, err := c.postJSON(ctx, apiLoadModel, LoadRequest{Device: device}, contentTypeJSON)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	var loaded LoadResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&loaded)
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode load response: %w", decodeErr)
	}

	if loaded.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLoadReply, loaded.SampleRate)
	}

	return &loaded, nil
}

// Generate runs one generation and returns mono float32 samples.
func (c *RuntimeClient) Generate(ctx context.Context, req GenerateRequest) ([]float32, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	resp, err := c.postJSON(ctx, apiGenerateSpeech, req, contentTypePCM)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypePCM {
		return nil, fmt.Errorf(errFmtUnexpectedType, contentTypePCM, contentType)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read waveform: %w", err)
	}

	return decodeFloat32LE(raw)
}

// HealthCheck verifies that the runtime is reachable.
func (c *RuntimeClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for model runtime at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (c *RuntimeClient) postJSON(ctx context.Context, path string, payload any, accept string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, accept)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to model runtime at %s: %w", c.baseURL, err)
	}

	return resp, nil
}

// parseErrorResponse decodes a structured runtime error, falling back to the raw body.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}

func decodeFloat32LE(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyWaveform
	}

	if len(raw)%bytesPerSample != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedPCM, len(raw))
	}

	samples := make([]float32, len(raw)/bytesPerSample)
	for index := range samples {
		bits := binary.LittleEndian.Uint32(raw[index*bytesPerSample:])
		samples[index] = math.Float32frombits(bits)
	}

	return samples, nil
}
