package polly

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

const (
	twilioVoiceProvider = "polly"
	expectedVoiceFormat = "Polly.<VoiceName>-<Engine> (e.g. Polly.Joanna-Neural)"
)

// ErrMalformedVoiceID is returned for Twilio voice ids outside the expected pattern.
var ErrMalformedVoiceID = errors.New("invalid voice id format")

var twilioVoicePattern = regexp.MustCompile(`^([A-Za-z]+)\.([A-Za-z]+)-([A-Za-z]+)$`)

// ParseTwilioVoice splits a Twilio voice id such as "Polly.Joanna-Neural" into the
// Polly voice name and the lower-cased engine.
func ParseTwilioVoice(voiceID string) (string, types.Engine, error) {
	matches := twilioVoicePattern.FindStringSubmatch(strings.TrimSpace(voiceID))
	if matches == nil || !strings.EqualFold(matches[1], twilioVoiceProvider) {
		return "", "", fmt.Errorf("%w: %q, expected %s", ErrMalformedVoiceID, voiceID, expectedVoiceFormat)
	}

	return matches[2], types.Engine(strings.ToLower(matches[3])), nil
}

// InferEngine picks the Polly engine from a bare voice id: neural when the id
// mentions "neural" or "generative", standard otherwise.
func InferEngine(voiceID string) types.Engine {
	lowered := strings.ToLower(voiceID)
	if strings.Contains(lowered, "neural") || strings.Contains(lowered, "generative") {
		return types.EngineNeural
	}

	return types.EngineStandard
}
