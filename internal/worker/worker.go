// Package worker serves synthesis requests arriving over NATS and announces
// persisted audio as events.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	handleMessageTimeout = 5 * time.Minute
	// HeaderWorkflowID carries the caller's workflow id on request messages.
	HeaderWorkflowID = "Workflow-Id"
)

// Static errors.
var (
	ErrSubjectEmpty   = errors.New("subject cannot be empty")
	ErrNoReplySubject = errors.New("message has no reply subject")
)

// Router is the synthesis pipeline the worker serves.
type Router interface {
	Route(ctx context.Context, req core.SynthesisRequest) core.SynthesisResult
}

// NatsWorker answers synthesis requests sent with NATS request/reply.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	queueGroup     string
	router         Router
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. An empty queue group
// subscribes every instance to every message.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	queueGroup string,
	router Router,
	log *logger.Logger,
) (*NatsWorker, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		queueGroup:     queueGroup,
		router:         router,
		log:            log,
	}, nil
}

// Run starts the worker and blocks until ctx is done.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.QueueSubscribe(w.subject, w.queueGroup, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for synthesis requests on %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	if msg.Reply == "" {
		w.log.Warn("Dropping synthesis request on %s: %v", msg.Subject, ErrNoReplySubject)

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	ctx = WithWorkflowID(ctx, workflowIDOf(msg))

	var result core.SynthesisResult

	req, err := parseRequest(msg)
	if err != nil {
		w.log.Error("Failed to parse synthesis request: %v", err)

		result = core.Failed(core.CodeInvalidRequest, err.Error())
	} else {
		result = w.router.Route(ctx, *req)
	}

	err = w.publishReply(msg, result)
	if err != nil {
		w.log.Error("Failed to publish reply for workflow %s: %v", WorkflowID(ctx), err)
	}
}

func parseRequest(msg *nats.Msg) (*core.SynthesisRequest, error) {
	var req core.SynthesisRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	return &req, nil
}

// publishReply marshals and responds with the SynthesisResult.
func (w *NatsWorker) publishReply(msg *nats.Msg, result core.SynthesisResult) error {
	replyData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}

	return nil
}

func workflowIDOf(msg *nats.Msg) string {
	if msg.Header != nil {
		if id := msg.Header.Get(HeaderWorkflowID); id != "" {
			return id
		}
	}

	return uuid.NewString()
}
