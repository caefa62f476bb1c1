// Package credentials validates pass-through provider credentials before they are used.
//
// Shape checks never touch the network. The Twilio validator additionally performs
// one authenticated account lookup for structurally valid credentials.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/book-expert/logger"
)

// Twilio credential shape.
const (
	TwilioSIDPrefix   = "AC"
	TwilioSIDLength   = 34
	TwilioTokenLength = 32
)

// Twilio API defaults.
const (
	DefaultTwilioBaseURL = "https://api.twilio.com"
	DefaultTwilioTimeout = 10 * time.Second
	accountLookupPath    = "/2010-04-01/Accounts/%s.json"
	maxErrorBodyBytes    = 4096
)

// Log and error formats. Credentials never appear in either.
const (
	logFmtLookupTransportFailure = "Twilio account lookup transport failure: %v"
	logFmtLookupRejected         = "Twilio account lookup rejected credentials (status %d)"
	errFmtLookupUnexpected       = "%w: status %d, body: %s"
)

// Static errors.
var (
	ErrMalformedSID       = errors.New("account SID must start with 'AC' and be 34 characters")
	ErrMalformedToken     = errors.New("auth token must be 32 characters")
	ErrUnexpectedResponse = errors.New("unexpected response from Twilio account lookup")
)

// TwilioValidator checks Twilio account credentials.
type TwilioValidator struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// TwilioOption configures a TwilioValidator.
type TwilioOption func(*TwilioValidator)

// WithHTTPClient replaces the HTTP client used for the account lookup.
func WithHTTPClient(client *http.Client) TwilioOption {
	return func(v *TwilioValidator) {
		if client != nil {
			v.httpClient = client
		}
	}
}

// WithBaseURL points the validator at a different Twilio API host.
func WithBaseURL(baseURL string) TwilioOption {
	return func(v *TwilioValidator) {
		if baseURL != "" {
			v.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewTwilioValidator creates a TwilioValidator.
func NewTwilioValidator(log *logger.Logger, options ...TwilioOption) *TwilioValidator {
	validator := &TwilioValidator{
		httpClient: &http.Client{Timeout: DefaultTwilioTimeout},
		baseURL:    DefaultTwilioBaseURL,
		log:        log,
	}

	for _, option := range options {
		option(validator)
	}

	return validator
}

// CheckTwilioFormat verifies the structural shape of a SID and token pair.
func CheckTwilioFormat(accountSID, authToken string) error {
	if !strings.HasPrefix(accountSID, TwilioSIDPrefix) || len(accountSID) != TwilioSIDLength {
		return ErrMalformedSID
	}

	if len(authToken) != TwilioTokenLength {
		return ErrMalformedToken
	}

	return nil
}

// Validate reports whether the credentials are well formed and accepted by Twilio.
// Malformed credentials return false without any network call. Authentication
// rejections and transport failures return false; any other unexpected response
// is returned as an error.
func (v *TwilioValidator) Validate(ctx context.Context, accountSID, authToken string) (bool, error) {
	formatErr := CheckTwilioFormat(accountSID, authToken)
	if formatErr != nil {
		return false, nil
	}

	endpoint := v.baseURL + fmt.Sprintf(accountLookupPath, url.PathEscape(accountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("build twilio account lookup: %w", err)
	}

	req.SetBasicAuth(accountSID, authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.log.Warn(logFmtLookupTransportFailure, redactURLError(err))

		return false, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		v.log.Info(logFmtLookupRejected, resp.StatusCode)

		return false, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return false, fmt.Errorf(errFmtLookupUnexpected, ErrUnexpectedResponse, resp.StatusCode, string(body))
	}
}

// redactURLError drops the request URL, which carries the account SID.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}

	return err
}
