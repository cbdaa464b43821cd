package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
)

const (
	// StreamName is the JetStream stream holding run audit events.
	StreamName = "COLLAB_EVENTS"

	// SubjectPrefix is the prefix for all run event subjects.
	SubjectPrefix = "run"
)

// Publisher publishes run lifecycle events to JetStream. Transcripts are
// never stored or reconstructed from this stream; it exists for audit and
// downstream consumers only.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the run events stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Collaboration run lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Subject returns the subject for a run event.
func Subject(runID string, eventType model.RunEventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, runID, eventType)
}

// Publish publishes a run event to JetStream.
func (p *Publisher) Publish(ctx context.Context, event *model.RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, Subject(event.RunID, event.Type), data); err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}

	return nil
}
