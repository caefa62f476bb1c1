// main package for the tts-router
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/config"
	"github.com/book-expert/tts-router/internal/httpapi"
	"github.com/book-expert/tts-router/internal/worker"
	"github.com/nats-io/nats.go"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), "tts-router-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	defer func() { _ = bootstrapLog.Close() }()

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "tts-router.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Connect to NATS when enabled
	var natsConnection *nats.Conn

	if cfg.NATS.Enabled {
		natsConnection, err = nats.Connect(cfg.NATS.URL, nats.Name("tts-router"))
		if err != nil {
			finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsConnection.Close()
	}

	// 5. Wire storage, providers and the router
	app, err := newApplication(ctx, cfg, natsConnection, finalLog)
	if err != nil {
		finalLog.Error("Failed to initialize: %v", err)

		return err
	}

	return serve(ctx, cfg, app, natsConnection, finalLog)
}

func serve(ctx context.Context, cfg *config.Config, app *application, natsConnection *nats.Conn, log *logger.Logger) error {
	handler := httpapi.New(app.router, log,
		httpapi.WithStatusMode(httpapi.StatusMode(cfg.Server.StatusMode)),
		httpapi.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		httpapi.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler.Routes(),
		ReadTimeout:       cfg.Server.ReadTimeout(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout(),
		WriteTimeout:      cfg.Server.WriteTimeout(),
	}

	errChan := make(chan error, 2)

	go func() {
		log.System("TTS-Router listening on %s", cfg.Server.ListenAddr)

		listenErr := server.ListenAndServe()
		if listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", listenErr)
		}
	}()

	if natsConnection != nil {
		natsWorker, err := worker.NewNatsWorker(natsConnection, cfg.NATS.RequestSubject, cfg.NATS.QueueGroup, app.router, log)
		if err != nil {
			return fmt.Errorf("failed to create NATS worker: %w", err)
		}

		go func() {
			runErr := natsWorker.Run(ctx)
			if runErr != nil {
				errChan <- fmt.Errorf("nats worker failed: %w", runErr)
			}
		}()
	}

	var runErr error

	select {
	case <-ctx.Done():
		log.System("Shutdown signal received")
	case runErr = <-errChan:
		log.Error("Stopping after failure: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		return fmt.Errorf("failed to shut down http server: %w", shutdownErr)
	}

	log.System("TTS-Router stopped")

	return runErr
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
