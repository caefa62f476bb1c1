package chatterbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
)

// DefaultDevice is the device the model is loaded onto.
const DefaultDevice = "cuda"

// GenerateOptions are the tuning knobs of one generation call. They are passed
// through without range checks.
type GenerateOptions struct {
	AudioPrompt  []byte
	Language     string
	Exaggeration float64
	StyleWeight  float64
}

// Model is the loaded voice-cloning model.
type Model interface {
	Generate(ctx context.Context, text string, options GenerateOptions) ([]float32, error)
	SampleRate() int
}

// Loader loads the model onto its device. It is called by Handle at most once
// per successful load.
type Loader func(ctx context.Context) (Model, error)

// NewRuntimeLoader returns a Loader that loads the model in the model runtime.
func NewRuntimeLoader(client *RuntimeClient, device string) Loader {
	if device == "" {
		device = DefaultDevice
	}

	return func(ctx context.Context) (Model, error) {
		loaded, err := client.Load(ctx, device)
		if err != nil {
			return nil, fmt.Errorf("failed to load model on %s: %w", device, err)
		}

		return &runtimeModel{client: client, sampleRate: loaded.SampleRate}, nil
	}
}

type runtimeModel struct {
	client     *RuntimeClient
	sampleRate int
}

func (m *runtimeModel) Generate(ctx context.Context, text string, options GenerateOptions) ([]float32, error) {
	return m.client.Generate(ctx, GenerateRequest{
		Text:         text,
		Language:     options.Language,
		Exaggeration: options.Exaggeration,
		CfgWeight:    options.StyleWeight,
		AudioPrompt:  options.AudioPrompt,
	})
}

func (m *runtimeModel) SampleRate() int {
	return m.sampleRate
}

// Handle is the process-wide lazily loaded model. Concurrent first callers wait
// on a single load; a failed load is not cached, so the next caller retries.
// The model is never unloaded.
type Handle struct {
	loader Loader
	log    *logger.Logger

	mu      sync.Mutex
	current atomic.Pointer[loadedModel]
}

type loadedModel struct {
	model Model
}

// NewHandle creates an unloaded Handle.
func NewHandle(loader Loader, log *logger.Logger) *Handle {
	return &Handle{
		loader: loader,
		log:    log,
	}
}

// Get returns the model, loading it on first use.
func (h *Handle) Get(ctx context.Context) (Model, error) {
	if loaded := h.current.Load(); loaded != nil {
		return loaded.model, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if loaded := h.current.Load(); loaded != nil {
		return loaded.model, nil
	}

	h.log.Info("Loading local voice model")

	model, err := h.loader(ctx)
	if err != nil {
		h.log.Error("Local voice model load failed: %v", err)

		return nil, fmt.Errorf("%w: local model unavailable: %w", core.ErrProviderFailure, err)
	}

	h.current.Store(&loadedModel{model: model})
	h.log.Info("Local voice model loaded (sample rate %d Hz)", model.SampleRate())

	return model, nil
}

// Loaded reports whether the model has been loaded.
func (h *Handle) Loaded() bool {
	return h.current.Load() != nil
}
