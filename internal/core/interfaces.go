// Package core defines the core business types and interfaces for the TTS router.
package core

import (
	"context"

	"github.com/book-expert/tts-router/internal/tts/audio"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Audio is the raw output of a provider adapter together with its container format.
type Audio struct {
	Data   []byte
	Format audio.Format
}

// Synthesizer turns one synthesis request into audio bytes.
// Every provider adapter implements it; the router dispatches on the provider name.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*Audio, error)
}
