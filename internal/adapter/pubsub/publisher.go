// Package pubsub forwards operator notifications to a Google Cloud Pub/Sub
// topic so that paging and ward dashboards outside this service see them.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	ps "cloud.google.com/go/pubsub"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Message attribute keys.
const (
	AttrType     = "type"
	AttrCategory = "category"
)

// Publisher publishes notifications as JSON messages.
type Publisher struct {
	client *ps.Client
	topic  *ps.Topic
	log    *slog.Logger
}

// New creates a publisher for topicID. Call EnsureTopic once before use
// when the topic may not exist yet.
func New(log *slog.Logger, client *ps.Client, topicID string) *Publisher {
	return &Publisher{
		client: client,
		topic:  client.Topic(topicID),
		log:    log.With("adapter", "pubsub", "topic", topicID),
	}
}

// EnsureTopic creates the topic if it does not exist.
func (p *Publisher) EnsureTopic(ctx context.Context) error {
	ok, err := p.topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check topic %s: %w", p.topic.ID(), err)
	}
	if ok {
		return nil
	}
	t, err := p.client.CreateTopic(ctx, p.topic.ID())
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic.ID(), err)
	}
	p.topic = t
	return nil
}

// Publish sends n and waits for the server to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, n domain.Notification) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub publisher not configured")
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	res := p.topic.Publish(ctx, &ps.Message{
		Data: data,
		Attributes: map[string]string{
			AttrType:     n.Type.String(),
			AttrCategory: n.Category,
		},
	})

	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}

	p.log.DebugContext(ctx, "notification published",
		slog.String("message_id", id),
		slog.String("type", n.Type.String()),
	)
	return nil
}

// Stop flushes pending messages and stops the topic's background goroutines.
func (p *Publisher) Stop() {
	p.topic.Stop()
}
