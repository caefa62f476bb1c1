package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Provider names one of the fixed synthesis backends.
type Provider string

const (
	// ProviderChatterbox is the locally hosted voice-cloning model.
	ProviderChatterbox Provider = "chatterbox"
	// ProviderTwilio is the Twilio voice catalog bridged onto Amazon Polly.
	ProviderTwilio Provider = "twilio"
	// ProviderPolly is Amazon Polly called directly with caller credentials.
	ProviderPolly Provider = "polly"
)

// Request defaults.
const (
	DefaultProvider     = ProviderChatterbox
	DefaultLanguage     = "en"
	DefaultExaggeration = 0.5
	DefaultStyleWeight  = 0.5
	DefaultAWSRegion    = "us-east-1"
	redactedCredentials = "[redacted]"
)

var providerAliases = map[string]Provider{
	"chatterbox":  ProviderChatterbox,
	"local-model": ProviderChatterbox,
	"twilio":      ProviderTwilio,
	"cloud-api-a": ProviderTwilio,
	"polly":       ProviderPolly,
	"cloud-api-b": ProviderPolly,
}

// ParseProvider normalizes a provider name. An empty name selects the default provider.
func ParseProvider(name string) (Provider, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return DefaultProvider, true
	}

	provider, ok := providerAliases[normalized]

	return provider, ok
}

// TwilioCredentials is the pass-through Twilio account SID and auth token pair.
// It exists only for the lifetime of one request and never prints its contents.
type TwilioCredentials struct {
	AccountSID string `json:"accountSid"`
	AuthToken  string `json:"authToken"`
}

// Complete reports whether both fields are present.
func (c *TwilioCredentials) Complete() bool {
	return c != nil && c.AccountSID != "" && c.AuthToken != ""
}

// String implements fmt.Stringer without exposing the secret.
func (c TwilioCredentials) String() string { return redactedCredentials }

// GoString implements fmt.GoStringer without exposing the secret.
func (c TwilioCredentials) GoString() string { return redactedCredentials }

// AWSCredentials is the pass-through AWS key pair used for Polly.
type AWSCredentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region,omitempty"`
}

// Complete reports whether both key fields are present.
func (c *AWSCredentials) Complete() bool {
	return c != nil && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// RegionOrDefault returns the requested region, falling back to DefaultAWSRegion.
func (c *AWSCredentials) RegionOrDefault() string {
	if c == nil || strings.TrimSpace(c.Region) == "" {
		return DefaultAWSRegion
	}

	return strings.TrimSpace(c.Region)
}

// String implements fmt.Stringer without exposing the secret.
func (c AWSCredentials) String() string { return redactedCredentials }

// GoString implements fmt.GoStringer without exposing the secret.
func (c AWSCredentials) GoString() string { return redactedCredentials }

// SynthesisRequest is the inbound request value object.
type SynthesisRequest struct {
	Text              string
	Provider          string
	VoiceReferenceKey string
	Language          string
	Exaggeration      float64
	StyleWeight       float64
	VoiceID           string
	Twilio            *TwilioCredentials
	AWS               *AWSCredentials
}

// NewSynthesisRequest returns a request carrying the documented defaults.
func NewSynthesisRequest(text string) SynthesisRequest {
	return SynthesisRequest{
		Text:              text,
		Provider:          string(DefaultProvider),
		VoiceReferenceKey: "",
		Language:          DefaultLanguage,
		Exaggeration:      DefaultExaggeration,
		StyleWeight:       DefaultStyleWeight,
		VoiceID:           "",
		Twilio:            nil,
		AWS:               nil,
	}
}

// credentialSetA and credentialSetB accept the generic field names.
type credentialSetA struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

type credentialSetB struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	Region    string `json:"region"`
}

type wireRequest struct {
	Text              string             `json:"text"`
	Provider          string             `json:"provider"`
	VoiceReferenceKey string             `json:"voiceReferenceKey"`
	VoiceS3Key        string             `json:"voice_s3_key"`
	Language          string             `json:"language"`
	Exaggeration      *float64           `json:"exaggeration"`
	StyleWeight       *float64           `json:"styleWeight"`
	CfgWeight         *float64           `json:"cfg_weight"`
	VoiceID           string             `json:"voiceId"`
	TwilioCredentials *TwilioCredentials `json:"twilioCredentials"`
	CredentialSetA    *credentialSetA    `json:"credentialSetA"`
	AWSCredentials    *AWSCredentials    `json:"awsCredentials"`
	CredentialSetB    *credentialSetB    `json:"credentialSetB"`
}

// UnmarshalJSON decodes the wire format, accepting both field spellings and
// applying defaults for absent optional fields.
func (r *SynthesisRequest) UnmarshalJSON(data []byte) error {
	var wire wireRequest

	err := json.Unmarshal(data, &wire)
	if err != nil {
		return fmt.Errorf("failed to decode synthesis request: %w", err)
	}

	req := NewSynthesisRequest(wire.Text)
	req.VoiceID = wire.VoiceID

	if wire.Provider != "" {
		req.Provider = wire.Provider
	}

	req.VoiceReferenceKey = firstNonEmpty(wire.VoiceReferenceKey, wire.VoiceS3Key)

	if wire.Language != "" {
		req.Language = wire.Language
	}

	if wire.Exaggeration != nil {
		req.Exaggeration = *wire.Exaggeration
	}

	switch {
	case wire.StyleWeight != nil:
		req.StyleWeight = *wire.StyleWeight
	case wire.CfgWeight != nil:
		req.StyleWeight = *wire.CfgWeight
	}

	req.Twilio = wire.TwilioCredentials
	if req.Twilio == nil && wire.CredentialSetA != nil {
		req.Twilio = &TwilioCredentials{
			AccountSID: wire.CredentialSetA.ID,
			AuthToken:  wire.CredentialSetA.Secret,
		}
	}

	req.AWS = wire.AWSCredentials
	if req.AWS == nil && wire.CredentialSetB != nil {
		req.AWS = &AWSCredentials{
			AccessKeyID:     wire.CredentialSetB.AccessKey,
			SecretAccessKey: wire.CredentialSetB.SecretKey,
			Region:          wire.CredentialSetB.Region,
		}
	}

	*r = req

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
