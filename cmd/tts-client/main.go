// main package for the tts-client, a command line client for the tts-router.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
)

// Flag descriptions.
const (
	flagTextDesc      = "Text to convert to speech"
	flagProviderDesc  = "Provider: chatterbox, twilio or polly"
	flagVoiceDesc     = "Voice id (twilio: Polly.<Voice>-<Engine>, polly: <Voice>)"
	flagReferenceDesc = "Storage key of a reference voice sample (chatterbox only)"
	flagLanguageDesc  = "Language id (chatterbox only)"
	flagURLDesc       = "Base URL of the tts-router"
	flagTimeoutDesc   = "Request timeout"
	flagHealthDesc    = "Check tts-router health and exit"
)

// Flag names.
const (
	flagText      = "text"
	flagProvider  = "provider"
	flagVoice     = "voice"
	flagReference = "reference"
	flagLanguage  = "language"
	flagURL       = "url"
	flagTimeout   = "timeout"
	flagHealth    = "health"
)

// Environment variables carrying credentials.
const (
	envTwilioAccountSID = "TWILIO_ACCOUNT_SID"
	envTwilioAuthToken  = "TWILIO_AUTH_TOKEN"
	envAWSAccessKeyID   = "AWS_ACCESS_KEY_ID"
	envAWSSecretKey     = "AWS_SECRET_ACCESS_KEY"
	envAWSRegion        = "AWS_REGION"
)

// Defaults.
const (
	defaultURL        = "http://127.0.0.1:8080"
	defaultTimeout    = 5 * time.Minute
	synthesizePath    = "/v1/synthesize"
	healthPath        = "/health"
	logFileName       = "tts-client.log"
	maxErrorBodyBytes = 4096
)

// Error and log messages.
const (
	errFmtUnexpectedStatus = "unexpected status %s: %s"
	logRequestSent         = "Sending %d characters to %s (provider %s)"
	logRequestFinished     = "Request finished: success=%t code=%s"
	msgServiceHealthy      = "tts-router is healthy"
)

var (
	errTextRequired    = errors.New("--text must be provided")
	errSynthesisFailed = errors.New("synthesis failed")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text      string
	provider  string
	voice     string
	reference string
	language  string
	url       string
	timeout   time.Duration
	health    bool
}

// clientRequest is the wire form of a synthesis request.
type clientRequest struct {
	Text              string                  `json:"text"`
	Provider          string                  `json:"provider,omitempty"`
	VoiceReferenceKey string                  `json:"voiceReferenceKey,omitempty"`
	Language          string                  `json:"language,omitempty"`
	VoiceID           string                  `json:"voiceId,omitempty"`
	TwilioCredentials *core.TwilioCredentials `json:"twilioCredentials,omitempty"`
	AWSCredentials    *core.AWSCredentials    `json:"awsCredentials,omitempty"`
}

func main() {
	err := run(os.Args[1:], os.Getenv, os.Stdout)
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run(args []string, getenv func(string) string, out io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	clientLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() { _ = clientLog.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	httpClient := &http.Client{Timeout: flags.timeout}

	if flags.health {
		healthErr := checkHealth(ctx, httpClient, flags.url)
		if healthErr != nil {
			clientLog.Error("Health check failed: %v", healthErr)

			return healthErr
		}

		_, _ = fmt.Fprintln(out, msgServiceHealthy)

		return nil
	}

	if strings.TrimSpace(flags.text) == "" {
		return errTextRequired
	}

	req := buildRequest(flags, getenv)

	clientLog.Info(logRequestSent, len(req.Text), flags.url, flags.provider)

	result, err := synthesize(ctx, httpClient, flags.url, req)
	if err != nil {
		clientLog.Error("Synthesis request failed: %v", err)

		return err
	}

	clientLog.Info(logRequestFinished, result.Success, result.ErrorCode)

	return printResult(out, result)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	flagSet := flag.NewFlagSet("tts-client", flag.ContinueOnError)
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.provider, flagProvider, string(core.DefaultProvider), flagProviderDesc)
	flagSet.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flagSet.StringVar(&flags.reference, flagReference, "", flagReferenceDesc)
	flagSet.StringVar(&flags.language, flagLanguage, "", flagLanguageDesc)
	flagSet.StringVar(&flags.url, flagURL, defaultURL, flagURLDesc)
	flagSet.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)
	flagSet.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return appFlags{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	flags.url = strings.TrimRight(flags.url, "/")

	return flags, nil
}

// buildRequest assembles the request, attaching credentials found in the environment.
func buildRequest(flags appFlags, getenv func(string) string) clientRequest {
	req := clientRequest{
		Text:              flags.text,
		Provider:          flags.provider,
		VoiceReferenceKey: flags.reference,
		Language:          flags.language,
		VoiceID:           flags.voice,
		TwilioCredentials: nil,
		AWSCredentials:    nil,
	}

	sid, token := getenv(envTwilioAccountSID), getenv(envTwilioAuthToken)
	if sid != "" || token != "" {
		req.TwilioCredentials = &core.TwilioCredentials{AccountSID: sid, AuthToken: token}
	}

	accessKey, secretKey := getenv(envAWSAccessKeyID), getenv(envAWSSecretKey)
	if accessKey != "" || secretKey != "" {
		req.AWSCredentials = &core.AWSCredentials{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			Region:          getenv(envAWSRegion),
		}
	}

	return req
}

func synthesize(ctx context.Context, httpClient *http.Client, baseURL string, req clientRequest) (*core.SynthesisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+synthesizePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach tts-router at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "application/json" {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, fmt.Errorf(errFmtUnexpectedStatus, resp.Status, string(raw))
	}

	var result core.SynthesisResult

	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	return &result, nil
}

func checkHealth(ctx context.Context, httpClient *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts-router is not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(errFmtUnexpectedStatus, resp.Status, "")
	}

	return nil
}

// printResult writes the result as indented JSON and fails on an unsuccessful result.
func printResult(out io.Writer, result *core.SynthesisResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(result)
	if err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("%w: %s: %s", errSynthesisFailed, result.ErrorCode, result.ErrorMessage)
	}

	return nil
}
