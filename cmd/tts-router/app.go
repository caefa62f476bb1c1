package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/config"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/book-expert/tts-router/internal/credentials"
	"github.com/book-expert/tts-router/internal/objectstore"
	"github.com/book-expert/tts-router/internal/persister"
	"github.com/book-expert/tts-router/internal/router"
	"github.com/book-expert/tts-router/internal/tts/chatterbox"
	"github.com/book-expert/tts-router/internal/tts/polly"
	"github.com/book-expert/tts-router/internal/worker"
	"github.com/nats-io/nats.go"
)

type application struct {
	router *router.Router
}

func newApplication(ctx context.Context, cfg *config.Config, natsConnection *nats.Conn, log *logger.Logger) (*application, error) {
	store, err := newStore(cfg, natsConnection)
	if err != nil {
		return nil, err
	}

	persisterOptions := []persister.Option{persister.WithKeyPrefix(cfg.Storage.KeyPrefix)}

	if natsConnection != nil {
		publisher, publisherErr := worker.NewEventPublisher(natsConnection, cfg.NATS.AudioCreatedSubject, log)
		if publisherErr != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", publisherErr)
		}

		persisterOptions = append(persisterOptions, persister.WithListener(publisher))
	}

	runtime := chatterbox.NewRuntimeClient(cfg.LocalModel.RuntimeURL, cfg.LocalModel.Timeout())

	healthErr := runtime.HealthCheck(ctx)
	if healthErr != nil {
		log.Warn("Model runtime not reachable yet, the local model loads on first use: %v", healthErr)
	}

	handle := chatterbox.NewHandle(chatterbox.NewRuntimeLoader(runtime, cfg.LocalModel.Device), log)

	validator := credentials.NewTwilioValidator(log,
		credentials.WithBaseURL(cfg.Twilio.APIBaseURL),
		credentials.WithHTTPClient(&http.Client{Timeout: cfg.Twilio.Timeout()}),
	)

	factory := polly.NewSDKFactory(polly.WithEndpoint(cfg.Polly.Endpoint))

	synthesizers := router.Synthesizers{
		Chatterbox: chatterbox.NewSynthesizer(handle, store, log),
		Twilio:     polly.NewTwilioSynthesizer(validator, factory, cfg.Polly.DefaultRegion, log),
		Polly:      polly.NewSynthesizer(factory, log, polly.WithStrictCredentialFormat(cfg.Polly.StrictCredentialFormat)),
	}

	rtr := router.New(synthesizers, persister.New(store, persisterOptions...), log,
		router.WithRedactedInternalErrors(cfg.Server.RedactInternalErrors),
	)

	return &application{router: rtr}, nil
}

func newStore(cfg *config.Config, natsConnection *nats.Conn) (core.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageNATS:
		jetstreamContext, err := natsConnection.JetStream()
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}

		store, err := objectstore.NewNatsObjectStore(jetstreamContext, cfg.NATS.ObjectStoreBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to open object store bucket: %w", err)
		}

		return store, nil
	default:
		store, err := objectstore.NewFileStore(cfg.Storage.MountRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage mount: %w", err)
		}

		return store, nil
	}
}
