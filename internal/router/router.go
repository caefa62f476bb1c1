// Package router validates synthesis requests, dispatches them to the matching
// provider adapter, persists the produced audio and folds every outcome into a
// core.SynthesisResult.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/tts/audio"
	"github.com/book-expert/tts-router/internal/tts/text"
	"github.com/google/uuid"
)

// Client-visible messages.
const (
	msgMissingText         = "Text is required"
	msgTextTooLongFmt      = "Text exceeds maximum length of %d characters"
	msgInvalidProviderFmt  = "Unknown provider '%s' (expected chatterbox, twilio or polly)"
	msgMissingTwilioCreds  = "Twilio credentials (accountSid and authToken) are required"
	msgMissingAWSCreds     = "AWS credentials (accessKeyId and secretAccessKey) are required"
	msgMissingVoiceID      = "voiceId is required for provider %s"
	msgRedactedInternal    = "Internal error"
	credentialMessageToken = "credential"
)

// Log formats.
const (
	logFmtRouted = "Request %s: provider=%s success=%t code=%s chars=%d latency=%s"
	logFmtFailed = "Request %s: provider=%s code=%s error: %v"
	logFmtPanic  = "Request %s: recovered from panic: %v"
)

// ErrNoAdapter is returned when a provider has no adapter wired.
var ErrNoAdapter = errors.New("no adapter configured for provider")

// Synthesizers holds one adapter per provider. The provider set is closed.
type Synthesizers struct {
	Chatterbox core.Synthesizer
	Twilio     core.Synthesizer
	Polly      core.Synthesizer
}

// AudioPersister stores synthesized audio and returns its storage key.
type AudioPersister interface {
	Persist(ctx context.Context, data []byte, format audio.Format) (string, error)
}

// Router is the request pipeline. It holds no per-request state and is safe
// for concurrent use.
type Router struct {
	synthesizers         Synthesizers
	persister            AudioPersister
	sanitizer            *text.Sanitizer
	log                  *logger.Logger
	redactInternalErrors bool
	newRequestID         func() string
}

// Option configures a Router.
type Option func(*Router)

// WithRedactedInternalErrors replaces INTERNAL_ERROR messages with a generic
// text. The full message is still logged.
func WithRedactedInternalErrors(redact bool) Option {
	return func(r *Router) {
		r.redactInternalErrors = redact
	}
}

// WithRequestIDGenerator overrides the request id source used in logs.
func WithRequestIDGenerator(newID func() string) Option {
	return func(r *Router) {
		r.newRequestID = newID
	}
}

// New creates a Router.
func New(synthesizers Synthesizers, persister AudioPersister, log *logger.Logger, options ...Option) *Router {
	router := &Router{
		synthesizers:         synthesizers,
		persister:            persister,
		sanitizer:            text.NewSanitizer(),
		log:                  log,
		redactInternalErrors: false,
		newRequestID:         uuid.NewString,
	}

	for _, option := range options {
		option(router)
	}

	return router
}

// Route runs one request through the pipeline. It never panics and never
// returns an error; every failure is encoded in the result.
func (r *Router) Route(ctx context.Context, req core.SynthesisRequest) (result core.SynthesisResult) {
	requestID := r.newRequestID()
	started := time.Now()
	providerName := normalizeProviderName(req.Provider)

	defer func() {
		recovered := recover()
		if recovered != nil {
			r.log.Error(logFmtPanic, requestID, recovered)
			result = r.internalError(fmt.Errorf("unexpected failure: %v", recovered))
		}

		r.log.Info(logFmtRouted, requestID, providerName, result.Success, result.ErrorCode,
			len(req.Text), time.Since(started).Round(time.Millisecond))
	}()

	result = r.route(ctx, req, providerName)
	if !result.Success {
		r.log.Warn(logFmtFailed, requestID, providerName, result.ErrorCode, result.ErrorMessage)
	}

	return result
}

func (r *Router) route(ctx context.Context, req core.SynthesisRequest, providerName string) core.SynthesisResult {
	req.Text = r.sanitizer.Sanitize(req.Text)
	if req.Text == "" {
		return core.Failed(core.CodeMissingText, msgMissingText)
	}

	if text.TooLong(req.Text) {
		return core.Failed(core.CodeTextTooLong, fmt.Sprintf(msgTextTooLongFmt, text.MaxLength))
	}

	provider, ok := core.ParseProvider(req.Provider)
	if !ok {
		return core.Failed(core.CodeInvalidProvider, fmt.Sprintf(msgInvalidProviderFmt, providerName))
	}

	failure, ok := checkPreconditions(provider, req)
	if !ok {
		return failure
	}

	synthesizer, err := r.adapter(provider)
	if err != nil {
		return r.internalError(err)
	}

	output, err := synthesizer.Synthesize(ctx, req)
	if err != nil {
		return classifyAdapterError(err)
	}

	if output == nil || len(output.Data) == 0 {
		return core.Failed(core.CodeProviderError, fmt.Sprintf("%s returned no audio", provider))
	}

	key, err := r.persister.Persist(ctx, output.Data, output.Format)
	if err != nil {
		return r.internalError(fmt.Errorf("failed to persist audio: %w", err))
	}

	return core.Succeeded(key, core.Provider(providerName), req.VoiceID, probeDuration(output))
}

// checkPreconditions enforces the per-provider required fields before any
// adapter is invoked.
func checkPreconditions(provider core.Provider, req core.SynthesisRequest) (core.SynthesisResult, bool) {
	switch provider {
	case core.ProviderTwilio:
		if !req.Twilio.Complete() {
			return core.Failed(core.CodeMissingCredentials, msgMissingTwilioCreds), false
		}
	case core.ProviderPolly:
		if !req.AWS.Complete() {
			return core.Failed(core.CodeMissingCredentials, msgMissingAWSCreds), false
		}
	case core.ProviderChatterbox:
		return core.SynthesisResult{}, true
	}

	if strings.TrimSpace(req.VoiceID) == "" {
		return core.Failed(core.CodeMissingVoiceID, fmt.Sprintf(msgMissingVoiceID, provider)), false
	}

	return core.SynthesisResult{}, true
}

func (r *Router) adapter(provider core.Provider) (core.Synthesizer, error) {
	var synthesizer core.Synthesizer

	switch provider {
	case core.ProviderChatterbox:
		synthesizer = r.synthesizers.Chatterbox
	case core.ProviderTwilio:
		synthesizer = r.synthesizers.Twilio
	case core.ProviderPolly:
		synthesizer = r.synthesizers.Polly
	}

	if synthesizer == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, provider)
	}

	return synthesizer, nil
}

// classifyAdapterError folds an adapter failure into the closed error taxonomy.
func classifyAdapterError(err error) core.SynthesisResult {
	message := err.Error()

	switch {
	case errors.Is(err, core.ErrReferenceNotFound):
		return core.Failed(core.CodeFileNotFound, message)
	case errors.Is(err, core.ErrMissingCredentials):
		return core.Failed(core.CodeMissingCredentials, message)
	case errors.Is(err, core.ErrMissingVoiceID):
		return core.Failed(core.CodeMissingVoiceID, message)
	case errors.Is(err, core.ErrInvalidCredentials),
		strings.Contains(strings.ToLower(message), credentialMessageToken):
		return core.Failed(core.CodeInvalidCredentials, message)
	default:
		return core.Failed(core.CodeProviderError, message)
	}
}

func (r *Router) internalError(err error) core.SynthesisResult {
	r.log.Error("Internal error: %v", err)

	if r.redactInternalErrors {
		return core.Failed(core.CodeInternalError, msgRedactedInternal)
	}

	return core.Failed(core.CodeInternalError, err.Error())
}

// probeDuration reads the duration from a WAV header. Other formats report none.
func probeDuration(output *core.Audio) *float64 {
	if output.Format != audio.FormatWAV {
		return nil
	}

	seconds, err := audio.DurationSeconds(output.Data)
	if err != nil {
		return nil
	}

	return &seconds
}

// normalizeProviderName lower-cases the requested provider name as echoed back
// to the caller, defaulting to the local model.
func normalizeProviderName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return string(core.DefaultProvider)
	}

	return normalized
}
