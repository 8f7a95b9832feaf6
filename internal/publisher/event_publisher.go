package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"audit-service/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

// EventPublisher mirrors persisted audit events onto a Kafka topic for
// downstream consumers (dashboards, SIEM exports). The store remains the
// source of truth; a failed mirror publish never fails ingestion.
type EventPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewEventPublisher(bootstrapServers, topic string) (*EventPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("topic", topic).Info("Audit event stream producer created")

	return &EventPublisher{producer: p, topic: topic}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	// Keyed by entity so all events for one record land on one partition
	// in order.
	key := fmt.Sprintf("%s:%d", event.Entity, event.EntityID)

	// Buffered and never closed: if we stop waiting before the broker
	// answers, the late delivery report still has somewhere to land.
	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          payload,
	}, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("delivery timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *EventPublisher) Close() {
	log.Info("Closing audit event stream producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
