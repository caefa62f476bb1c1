// Package persister writes synthesized audio to durable object storage under a
// freshly generated, never reused key.
package persister

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/tts/audio"
	"github.com/google/uuid"
)

// DefaultKeyPrefix is the key namespace for synthesized audio.
const DefaultKeyPrefix = "tts"

// ErrEmptyAudio is returned when there are no bytes to persist.
var ErrEmptyAudio = errors.New("audio data cannot be empty")

// Listener is notified after an object has been durably written.
type Listener interface {
	AudioPersisted(ctx context.Context, key string, format audio.Format)
}

// Persister stores audio bytes under tts/<uuid>.<ext>.
type Persister struct {
	store     core.ObjectStore
	prefix    string
	newID     func() string
	listeners []Listener
}

// Option configures a Persister.
type Option func(*Persister)

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(p *Persister) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithListener registers a listener for persisted objects.
func WithListener(listener Listener) Option {
	return func(p *Persister) {
		if listener != nil {
			p.listeners = append(p.listeners, listener)
		}
	}
}

// WithIDGenerator replaces the random identifier source.
func WithIDGenerator(newID func() string) Option {
	return func(p *Persister) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// New creates a Persister writing to store.
func New(store core.ObjectStore, options ...Option) *Persister {
	persister := &Persister{
		store:     store,
		prefix:    DefaultKeyPrefix,
		newID:     uuid.NewString,
		listeners: nil,
	}

	for _, option := range options {
		option(persister)
	}

	return persister
}

// Persist writes data under a new unique key and returns that key.
func (p *Persister) Persist(ctx context.Context, data []byte, format audio.Format) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}

	parsed, err := audio.ParseFormat(string(format))
	if err != nil {
		return "", err
	}

	key := path.Join(p.prefix, p.newID()+"."+parsed.Extension())

	uploadErr := p.store.Upload(ctx, key, data)
	if uploadErr != nil {
		return "", fmt.Errorf("failed to persist audio under '%s': %w", key, uploadErr)
	}

	for _, listener := range p.listeners {
		listener.AudioPersisted(ctx, key, parsed)
	}

	return key, nil
}
