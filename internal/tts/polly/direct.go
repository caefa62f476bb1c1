package polly

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/credentials"
	"github.com/book-expert/tts-router/internal/tts/audio"
)

// Synthesizer calls Amazon Polly directly with the caller's AWS keys.
type Synthesizer struct {
	factory      ClientFactory
	strictFormat bool
	log          *logger.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithStrictCredentialFormat rejects structurally invalid AWS keys and regions
// before any call is made.
func WithStrictCredentialFormat(strict bool) Option {
	return func(s *Synthesizer) {
		s.strictFormat = strict
	}
}

// NewSynthesizer creates the direct Polly adapter.
func NewSynthesizer(factory ClientFactory, log *logger.Logger, options ...Option) *Synthesizer {
	synthesizer := &Synthesizer{
		factory:      factory,
		strictFormat: false,
		log:          log,
	}

	for _, option := range options {
		option(synthesizer)
	}

	return synthesizer
}

// Synthesize returns MP3 audio for the requested Polly voice.
func (s *Synthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) (*core.Audio, error) {
	if !req.AWS.Complete() {
		return nil, fmt.Errorf("%w: AWS access key and secret key are required", core.ErrMissingCredentials)
	}

	if req.VoiceID == "" {
		return nil, fmt.Errorf("%w: a Polly voice id is required", core.ErrMissingVoiceID)
	}

	region := req.AWS.RegionOrDefault()

	if s.strictFormat {
		formatErr := credentials.CheckAWSFormat(req.AWS.AccessKeyID, req.AWS.SecretAccessKey)
		if formatErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidCredentials, formatErr)
		}

		regionErr := credentials.CheckRegion(region)
		if regionErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, regionErr)
		}
	}

	engine := InferEngine(req.VoiceID)

	api, err := s.factory.NewSpeechAPI(ctx, req.AWS, region)
	if err != nil {
		return nil, err
	}

	data, err := synthesizeMP3(ctx, api, req.Text, req.VoiceID, engine)
	if err != nil {
		return nil, err
	}

	s.log.Info("Polly voice %s synthesized (%s engine, %d bytes)", req.VoiceID, engine, len(data))

	return &core.Audio{Data: data, Format: audio.FormatMP3}, nil
}
