package polly

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/tts/audio"
)

// AccountValidator checks Twilio account credentials.
type AccountValidator interface {
	Validate(ctx context.Context, accountSID, authToken string) (bool, error)
}

// TwilioSynthesizer bridges Twilio voice names onto Amazon Polly.
type TwilioSynthesizer struct {
	validator     AccountValidator
	factory       ClientFactory
	defaultRegion string
	log           *logger.Logger
}

// NewTwilioSynthesizer creates the Twilio adapter. defaultRegion is used when the
// request carries no AWS credentials and Polly is reached through the ambient chain.
func NewTwilioSynthesizer(
	validator AccountValidator,
	factory ClientFactory,
	defaultRegion string,
	log *logger.Logger,
) *TwilioSynthesizer {
	if defaultRegion == "" {
		defaultRegion = core.DefaultAWSRegion
	}

	return &TwilioSynthesizer{
		validator:     validator,
		factory:       factory,
		defaultRegion: defaultRegion,
		log:           log,
	}
}

// Synthesize validates the Twilio account, resolves the voice and returns MP3 audio.
func (s *TwilioSynthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) (*core.Audio, error) {
	if !req.Twilio.Complete() {
		return nil, fmt.Errorf("%w: Twilio account SID and auth token are required", core.ErrMissingCredentials)
	}

	if req.VoiceID == "" {
		return nil, fmt.Errorf("%w: a Twilio voice id is required", core.ErrMissingVoiceID)
	}

	valid, err := s.validator.Validate(ctx, req.Twilio.AccountSID, req.Twilio.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("%w: twilio account lookup failed: %w", core.ErrProviderFailure, err)
	}

	if !valid {
		return nil, fmt.Errorf("%w: invalid Twilio credentials", core.ErrInvalidCredentials)
	}

	voice, engine, err := ParseTwilioVoice(req.VoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	region := s.defaultRegion

	var awsCreds *core.AWSCredentials

	if req.AWS.Complete() {
		awsCreds = req.AWS
		region = req.AWS.RegionOrDefault()
	}

	api, err := s.factory.NewSpeechAPI(ctx, awsCreds, region)
	if err != nil {
		return nil, err
	}

	data, err := synthesizeMP3(ctx, api, req.Text, voice, engine)
	if err != nil {
		return nil, err
	}

	s.log.Info("Twilio voice %s synthesized via Polly (%s engine, %d bytes)", voice, engine, len(data))

	return &core.Audio{Data: data, Format: audio.FormatMP3}, nil
}
