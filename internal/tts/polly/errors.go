package polly

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/book-expert/tts-router/internal/core"
)

const errCredentialsNotConfigured = "AWS credentials not configured or invalid"

// invalidRequestCodes are Polly codes caused by the voice or the text.
var invalidRequestCodes = map[string]struct{}{
	"InvalidParameterValue":              {},
	"InvalidParameterValueException":     {},
	"ValidationException":                {},
	"TextLengthExceededException":        {},
	"InvalidSsmlException":               {},
	"LexiconNotFoundException":           {},
	"EngineNotSupportedException":        {},
	"LanguageNotSupportedException":      {},
	"MarksNotSupportedForFormatException": {},
}

// authCodes are Polly and STS codes caused by missing or rejected credentials.
var authCodes = map[string]struct{}{
	"UnrecognizedClientException": {},
	"InvalidSignatureException":   {},
	"IncompleteSignature":         {},
	"AccessDeniedException":       {},
	"ExpiredTokenException":       {},
	"MissingAuthenticationToken":  {},
	"InvalidClientTokenId":        {},
	"SignatureDoesNotMatch":       {},
}

// translateError maps a Polly SDK error onto the core classification errors.
func translateError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()

		if _, ok := invalidRequestCodes[code]; ok {
			return fmt.Errorf("%w: %s", core.ErrInvalidInput, apiErr.ErrorMessage())
		}

		if _, ok := authCodes[code]; ok {
			return fmt.Errorf("%w: %s", core.ErrInvalidCredentials, errCredentialsNotConfigured)
		}

		return fmt.Errorf("%w: polly %s: %s", core.ErrProviderFailure, code, apiErr.ErrorMessage())
	}

	// The SDK reports an empty credential chain before any request is sent.
	if strings.Contains(strings.ToLower(err.Error()), "credential") {
		return fmt.Errorf("%w: %s", core.ErrInvalidCredentials, errCredentialsNotConfigured)
	}

	return fmt.Errorf("%w: %w", core.ErrProviderFailure, err)
}
