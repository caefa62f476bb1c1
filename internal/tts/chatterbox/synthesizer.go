package chatterbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/tts/audio"
)

// Synthesizer is the local-model provider adapter.
type Synthesizer struct {
	handle *Handle
	store  core.ObjectStore
	log    *logger.Logger
}

// NewSynthesizer creates the adapter. store is the namespace reference voice
// samples are resolved in.
func NewSynthesizer(handle *Handle, store core.ObjectStore, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		handle: handle,
		store:  store,
		log:    log,
	}
}

// Synthesize generates speech, optionally cloning the voice of the referenced
// sample, and returns it as WAV at the model's native sample rate.
func (s *Synthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) (*core.Audio, error) {
	model, err := s.handle.Get(ctx)
	if err != nil {
		return nil, err
	}

	options := GenerateOptions{
		AudioPrompt:  nil,
		Language:     req.Language,
		Exaggeration: req.Exaggeration,
		StyleWeight:  req.StyleWeight,
	}

	if req.VoiceReferenceKey != "" {
		prompt, promptErr := s.loadReference(ctx, req.VoiceReferenceKey)
		if promptErr != nil {
			return nil, promptErr
		}

		options.AudioPrompt = prompt
	}

	samples, err := model.Generate(ctx, req.Text, options)
	if err != nil {
		return nil, fmt.Errorf("%w: local model generation failed: %w", core.ErrProviderFailure, err)
	}

	wav, err := audio.EncodeWAV(samples, model.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize waveform: %w", err)
	}

	s.log.Info("Local model generated %d samples at %d Hz", len(samples), model.SampleRate())

	return &core.Audio{Data: wav, Format: audio.FormatWAV}, nil
}

func (s *Synthesizer) loadReference(ctx context.Context, key string) ([]byte, error) {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference audio '%s': %w", key, err)
	}

	if !exists {
		return nil, fmt.Errorf("%w: prompt audio not found at %s", core.ErrReferenceNotFound, key)
	}

	data, err := s.store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: prompt audio not found at %s", core.ErrReferenceNotFound, key)
		}

		return nil, fmt.Errorf("failed to read reference audio '%s': %w", key, err)
	}

	return data, nil
}
