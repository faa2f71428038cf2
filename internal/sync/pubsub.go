package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubBus publishes and receives task-change events through a Google
// Pub/Sub topic, so every app instance sees writes made by the others.
type PubSubBus struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	subName string
}

// NewPubSubBus connects to the project and ensures the topic exists.
func NewPubSubBus(ctx context.Context, projectID, topicName, credentialsFile string) (*PubSubBus, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic existence: %w", err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicName)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicName, err)
		}
		log.Printf("[Sync] Created topic %s", topicName)
	}

	return &PubSubBus{
		client:  client,
		topic:   topic,
		subName: topicName + "-sub",
	}, nil
}

// Publish pushes one event onto the topic.
func (b *PubSubBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := b.topic.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Kind, err)
	}
	return nil
}

// Listen receives events from the bus and hands each to the handler.
// Blocks until the context is cancelled.
func (b *PubSubBus) Listen(ctx context.Context, handler func(Event)) error {
	sub := b.client.Subscription(b.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check subscription existence: %w", err)
	}
	if !exists {
		sub, err = b.client.CreateSubscription(ctx, b.subName, pubsub.SubscriptionConfig{
			Topic:       b.topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		log.Printf("[Sync] Created subscription %s", b.subName)
	}

	log.Printf("[Sync] Listening on subscription %s", b.subName)
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("[Sync] Dropping malformed event: %v", err)
			msg.Ack()
			return
		}
		handler(event)
		msg.Ack()
	})
}
