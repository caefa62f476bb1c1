// Package polly implements the two cloud provider adapters. Both speak to Amazon
// Polly: the Twilio adapter validates a Twilio account and maps Twilio voice names
// such as "Polly.Joanna-Neural" onto Polly voices, while the direct adapter calls
// Polly with caller supplied AWS keys.
package polly

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"github.com/book-expert/tts-router/internal/core"
)

// SpeechAPI is the narrow slice of the Polly client the adapters call.
type SpeechAPI interface {
	SynthesizeSpeech(
		ctx context.Context,
		params *polly.SynthesizeSpeechInput,
		optFns ...func(*polly.Options),
	) (*polly.SynthesizeSpeechOutput, error)
}

// ClientFactory builds a SpeechAPI for one request. A nil creds selects the
// ambient AWS credential chain.
type ClientFactory interface {
	NewSpeechAPI(ctx context.Context, creds *core.AWSCredentials, region string) (SpeechAPI, error)
}

// SDKFactory builds real Polly clients with the AWS SDK.
type SDKFactory struct {
	endpoint string
}

// FactoryOption configures an SDKFactory.
type FactoryOption func(*SDKFactory)

// WithEndpoint overrides the Polly endpoint, e.g. for a local emulator.
func WithEndpoint(endpoint string) FactoryOption {
	return func(f *SDKFactory) {
		f.endpoint = endpoint
	}
}

// NewSDKFactory creates an SDKFactory.
func NewSDKFactory(options ...FactoryOption) *SDKFactory {
	factory := &SDKFactory{endpoint: ""}

	for _, option := range options {
		option(factory)
	}

	return factory
}

// NewSpeechAPI loads an AWS configuration scoped to this call and returns a Polly client.
// Static credentials live only inside the returned client.
func (f *SDKFactory) NewSpeechAPI(ctx context.Context, creds *core.AWSCredentials, region string) (SpeechAPI, error) {
	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if creds.Complete() {
		provider := awscreds.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, "")
		loadOptions = append(loadOptions, config.WithCredentialsProvider(provider))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS configuration: %w", core.ErrProviderFailure, err)
	}

	endpoint := f.endpoint

	return polly.NewFromConfig(cfg, func(o *polly.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// synthesizeMP3 performs one SynthesizeSpeech call with plain text input and MP3 output.
func synthesizeMP3(ctx context.Context, api SpeechAPI, text, voice string, engine types.Engine) ([]byte, error) {
	output, err := api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: types.OutputFormatMp3,
		Text:         aws.String(text),
		TextType:     types.TextTypeText,
		VoiceId:      types.VoiceId(voice),
	})
	if err != nil {
		return nil, translateError(err)
	}

	if output.AudioStream == nil {
		return nil, fmt.Errorf("%w: polly returned no audio stream", core.ErrProviderFailure)
	}
	defer output.AudioStream.Close()

	data, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read polly audio stream: %w", core.ErrProviderFailure, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: polly returned empty audio", core.ErrProviderFailure)
	}

	return data, nil
}
