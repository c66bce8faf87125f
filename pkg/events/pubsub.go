package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/motorline/dealership-backend/pkg/config"
	"github.com/motorline/dealership-backend/pkg/logger"
)

// PubSubPublisher publishes order events to a Pub/Sub topic. Publish results
// are drained in the background; a broker failure is logged and dropped.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Publisher
	logg   *logger.Logger
}

// NewPubSubPublisher connects to Pub/Sub and binds the order events topic.
func NewPubSubPublisher(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*PubSubPublisher, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errors.New("gcp project id is required")
	}
	if strings.TrimSpace(cfg.OrderEventsTopic) == "" {
		return nil, errors.New("order events topic is required")
	}

	client, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	topicName := cfg.OrderEventsTopic
	if !strings.HasPrefix(topicName, "projects/") {
		topicName = fmt.Sprintf("projects/%s/topics/%s", gcp.ProjectID, topicName)
	}

	if logg != nil {
		logg.Info(ctx, "pubsub publisher initialized")
	}

	return &PubSubPublisher{
		client: client,
		topic:  client.Publisher(topicName),
		logg:   logg,
	}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, eventID, err := wrap(event)
	if err != nil {
		return err
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": event.Type.String(),
			"event_id":   eventID,
		},
	})

	go func() {
		if _, err := result.Get(context.Background()); err != nil && p.logg != nil {
			logCtx := p.logg.WithFields(context.Background(), map[string]any{
				"event_id":   eventID,
				"event_type": event.Type.String(),
			})
			p.logg.Error(logCtx, "order event publish failed", err)
		}
	}()

	return nil
}

// Close releases the Pub/Sub client resources.
func (p *PubSubPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

var _ Publisher = (*PubSubPublisher)(nil)
