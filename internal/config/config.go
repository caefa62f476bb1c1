// Package config provides the configuration structure for the tts-router.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Storage backends.
const (
	StorageFilesystem = "filesystem"
	StorageNATS       = "nats"
)

// Status mapping modes.
const (
	StatusModeCompat = "compat"
	StatusModeHTTP   = "http"
)

// Defaults applied to absent settings.
const (
	defaultListenAddr          = ":8080"
	defaultReadTimeoutSeconds  = 30
	defaultWriteTimeoutSeconds = 300
	defaultMaxBodyBytes        = 1 << 20
	defaultKeyPrefix           = "tts"
	defaultRequestSubject      = "tts.synthesize"
	defaultAudioCreatedSubject = "tts.audio.created"
	defaultQueueGroup          = "tts-router"
	defaultBucket              = "TTS_AUDIO"
	defaultRuntimeURL          = "http://127.0.0.1:8000"
	defaultDevice              = "cuda"
	defaultModelTimeoutSeconds = 300
	defaultPollyRegion         = "us-east-1"
	defaultTwilioAPIBaseURL    = "https://api.twilio.com"
	defaultTwilioTimeoutSecs   = 10
	defaultLogsDir             = "logs"
)

// Static errors.
var (
	ErrInvalidStorageBackend = errors.New("storage.backend must be 'filesystem' or 'nats'")
	ErrMountRootEmpty        = errors.New("storage.mount_root is required for the filesystem backend")
	ErrNATSRequired          = errors.New("the nats storage backend requires nats.enabled = true")
	ErrNATSURLEmpty          = errors.New("nats.url is required when nats is enabled")
	ErrInvalidStatusMode     = errors.New("server.status_mode must be 'compat' or 'http'")
	ErrNegativeValue         = errors.New("value cannot be negative")
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	ListenAddr           string   `toml:"listen_addr"`
	ReadTimeoutSeconds   int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds  int      `toml:"write_timeout_seconds"`
	MaxBodyBytes         int64    `toml:"max_body_bytes"`
	StatusMode           string   `toml:"status_mode"`
	RedactInternalErrors bool     `toml:"redact_internal_errors"`
	AllowedOrigins       []string `toml:"allowed_origins"`
}

// StorageConfig selects where synthesized audio and voice references live.
type StorageConfig struct {
	Backend   string `toml:"backend"`
	MountRoot string `toml:"mount_root"`
	KeyPrefix string `toml:"key_prefix"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	Enabled             bool   `toml:"enabled"`
	URL                 string `toml:"url"`
	RequestSubject      string `toml:"request_subject"`
	QueueGroup          string `toml:"queue_group"`
	AudioCreatedSubject string `toml:"audio_created_subject"`
	ObjectStoreBucket   string `toml:"object_store_bucket"`
}

// LocalModelConfig points at the model runtime hosting the voice-cloning model.
type LocalModelConfig struct {
	RuntimeURL     string `toml:"runtime_url"`
	Device         string `toml:"device"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PollyConfig holds Amazon Polly settings.
type PollyConfig struct {
	DefaultRegion          string `toml:"default_region"`
	Endpoint               string `toml:"endpoint"`
	StrictCredentialFormat bool   `toml:"strict_credential_format"`
}

// TwilioConfig holds Twilio account lookup settings.
type TwilioConfig struct {
	APIBaseURL     string `toml:"api_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	NATS       NATSConfig       `toml:"nats"`
	LocalModel LocalModelConfig `toml:"local_model"`
	Polly      PollyConfig      `toml:"polly"`
	Twilio     TwilioConfig     `toml:"twilio"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads, defaults and validates the configuration for the tts-router.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// ApplyDefaults fills every absent setting.
func (c *Config) ApplyDefaults() {
	setString(&c.Server.ListenAddr, defaultListenAddr)
	setInt(&c.Server.ReadTimeoutSeconds, defaultReadTimeoutSeconds)
	setInt(&c.Server.WriteTimeoutSeconds, defaultWriteTimeoutSeconds)
	setString(&c.Server.StatusMode, StatusModeCompat)

	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}

	setString(&c.Storage.Backend, StorageFilesystem)
	setString(&c.Storage.KeyPrefix, defaultKeyPrefix)

	setString(&c.NATS.RequestSubject, defaultRequestSubject)
	setString(&c.NATS.QueueGroup, defaultQueueGroup)
	setString(&c.NATS.AudioCreatedSubject, defaultAudioCreatedSubject)
	setString(&c.NATS.ObjectStoreBucket, defaultBucket)

	setString(&c.LocalModel.RuntimeURL, defaultRuntimeURL)
	setString(&c.LocalModel.Device, defaultDevice)
	setInt(&c.LocalModel.TimeoutSeconds, defaultModelTimeoutSeconds)

	setString(&c.Polly.DefaultRegion, defaultPollyRegion)

	setString(&c.Twilio.APIBaseURL, defaultTwilioAPIBaseURL)
	setInt(&c.Twilio.TimeoutSeconds, defaultTwilioTimeoutSecs)

	setString(&c.Paths.BaseLogsDir, defaultLogsDir)
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFilesystem:
		if c.Storage.MountRoot == "" {
			return ErrMountRootEmpty
		}
	case StorageNATS:
		if !c.NATS.Enabled {
			return ErrNATSRequired
		}
	default:
		return fmt.Errorf("%w: got '%s'", ErrInvalidStorageBackend, c.Storage.Backend)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	if c.Server.StatusMode != StatusModeCompat && c.Server.StatusMode != StatusModeHTTP {
		return fmt.Errorf("%w: got '%s'", ErrInvalidStatusMode, c.Server.StatusMode)
	}

	for name, value := range map[string]int64{
		"server.read_timeout_seconds":  int64(c.Server.ReadTimeoutSeconds),
		"server.write_timeout_seconds": int64(c.Server.WriteTimeoutSeconds),
		"server.max_body_bytes":        c.Server.MaxBodyBytes,
		"local_model.timeout_seconds":  int64(c.LocalModel.TimeoutSeconds),
		"twilio.timeout_seconds":       int64(c.Twilio.TimeoutSeconds),
	} {
		if value < 0 {
			return fmt.Errorf("%w: %s = %d", ErrNegativeValue, name, value)
		}
	}

	return nil
}

// ReadTimeout returns the server read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// Timeout returns the model runtime call timeout.
func (l LocalModelConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Timeout returns the account lookup timeout.
func (t TwilioConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

func setString(target *string, fallback string) {
	if *target == "" {
		*target = fallback
	}
}

func setInt(target *int, fallback int) {
	if *target == 0 {
		*target = fallback
	}
}
