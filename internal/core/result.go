package core

import "errors"

// ErrorCode is the closed taxonomy surfaced to clients in SynthesisResult.ErrorCode.
type ErrorCode string

const (
	CodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	CodeMissingText        ErrorCode = "MISSING_TEXT"
	CodeTextTooLong        ErrorCode = "TEXT_TOO_LONG"
	CodeInvalidProvider    ErrorCode = "INVALID_PROVIDER"
	CodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"
	CodeMissingVoiceID     ErrorCode = "MISSING_VOICE_ID"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	CodeProviderError      ErrorCode = "PROVIDER_ERROR"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// Adapter-level classification errors. Adapters wrap one of these with %w so the
// router can map them onto the ErrorCode taxonomy.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMissingVoiceID     = errors.New("missing voice id")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrReferenceNotFound  = errors.New("reference audio not found")
	ErrInvalidInput       = errors.New("invalid voice or text")
	ErrProviderFailure    = errors.New("provider error")
	ErrObjectNotFound     = errors.New("object not found")
)

// SynthesisResult is the uniform response value object.
type SynthesisResult struct {
	Success         bool      `json:"success"`
	StorageKey      string    `json:"storageKey,omitempty"`
	Provider        Provider  `json:"provider,omitempty"`
	VoiceID         string    `json:"voiceId,omitempty"`
	DurationSeconds *float64  `json:"durationSeconds,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	ErrorCode       ErrorCode `json:"errorCode,omitempty"`
}

// Succeeded builds a success result.
func Succeeded(key string, provider Provider, voiceID string, duration *float64) SynthesisResult {
	return SynthesisResult{
		Success:         true,
		StorageKey:      key,
		Provider:        provider,
		VoiceID:         voiceID,
		DurationSeconds: duration,
		ErrorMessage:    "",
		ErrorCode:       "",
	}
}

// Failed builds a failure result.
func Failed(code ErrorCode, message string) SynthesisResult {
	return SynthesisResult{
		Success:         false,
		StorageKey:      "",
		Provider:        "",
		VoiceID:         "",
		DurationSeconds: nil,
		ErrorMessage:    message,
		ErrorCode:       code,
	}
}
