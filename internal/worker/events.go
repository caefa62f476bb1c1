package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-router/internal/tts/audio"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type workflowIDKey struct{}

// WithWorkflowID attaches a workflow id to ctx for the events it produces.
func WithWorkflowID(ctx context.Context, workflowID string) context.Context {
	return context.WithValue(ctx, workflowIDKey{}, workflowID)
}

// WorkflowID returns the workflow id attached to ctx, or an empty string.
func WorkflowID(ctx context.Context) string {
	id, _ := ctx.Value(workflowIDKey{}).(string)

	return id
}

// EventPublisher announces every persisted audio object with an
// AudioChunkCreatedEvent. It implements persister.Listener.
type EventPublisher struct {
	natsConnection *nats.Conn
	subject        string
	log            *logger.Logger
}

// NewEventPublisher creates a publisher for subject.
func NewEventPublisher(natsConnection *nats.Conn, subject string, log *logger.Logger) (*EventPublisher, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	return &EventPublisher{
		natsConnection: natsConnection,
		subject:        subject,
		log:            log,
	}, nil
}

// AudioPersisted publishes the event. Failures are logged; the audio is
// already durable and the request still succeeds.
func (p *EventPublisher) AudioPersisted(ctx context.Context, key string, format audio.Format) {
	err := p.publish(ctx, key)
	if err != nil {
		p.log.Error("Failed to announce %s audio %s: %v", format, key, err)
	}
}

func (p *EventPublisher) publish(ctx context.Context, key string) error {
	workflowID := WorkflowID(ctx)
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	event := &events.AudioChunkCreatedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now().UTC(),
			WorkflowID: workflowID,
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		AudioKey:   key,
		PageNumber: 0,
		TotalPages: 0,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.natsConnection.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", p.subject, err)
	}

	return nil
}
