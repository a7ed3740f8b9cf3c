// internal/event/nats.go
// Package event provides NATS JetStream implementation for event publishing.
// It streams retrieval audit events so downstream consumers can track which
// device image batches have been fetched and decoded.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/model"
)

// Publisher interface defines the event publishing operations required by the
// retrieval service.
type Publisher interface {
	// PublishRetrievalCompleted publishes an audit event for one completed
	// retrieval batch.
	PublishRetrievalCompleted(ctx context.Context, batch model.RetrievalBatch) error

	// Close closes the publisher connection
	Close() error
}

// noop is a no-op implementation of Publisher for when NATS is not
// configured. It allows the service to function without event streaming.
type noop struct{}

// Close implements Publisher.
func (n *noop) Close() error { return nil }

// PublishRetrievalCompleted implements Publisher.
func (n *noop) PublishRetrievalCompleted(ctx context.Context, batch model.RetrievalBatch) error {
	return nil
}

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// NewPublisherFromEnv creates a new publisher based on environment
// configuration. It reads RTV_NATS_URL to determine if NATS should be used;
// when unset or unreachable it falls back to a no-op publisher so retrieval
// keeps working without eventing.
func NewPublisherFromEnv() Publisher {
	url := os.Getenv("RTV_NATS_URL")
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url)
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("JetStream init failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	p := &natsPub{nc: nc, js: js}
	if err := p.ensureStream(); err != nil {
		slog.Warn("stream setup failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}
	return p
}

// ensureStream creates the retrieval audit stream if it does not exist.
func (p *natsPub) ensureStream() error {
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:      "EV_RETRIEVAL",
		Subjects:  []string{"retrieval.images.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return err
	}
	return nil
}

// EventEnvelope represents the standard event envelope structure. All events
// published to NATS are wrapped in this envelope for consistency.
type EventEnvelope struct {
	ID            string      `json:"id"` // ULID, monotonic within the process
	Type          string      `json:"type"`
	Version       string      `json:"version"`
	OccurredAt    time.Time   `json:"occurredAt"`
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload"`
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// PublishRetrievalCompleted publishes a retrieval completed event to the
// EV_RETRIEVAL stream.
func (p *natsPub) PublishRetrievalCompleted(ctx context.Context, batch model.RetrievalBatch) error {
	envelope := EventEnvelope{
		ID:            ulid.Make().String(),
		Type:          "retrieval.images.completed",
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       batch,
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = p.js.Publish("retrieval.images.completed", b)
	return err
}
