package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes events to a Kafka topic, keyed by event type.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates a publisher writing to topic on the given brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes a single event message.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	data, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("kafka publish: marshal event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Type),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka publish: write message: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

var _ Publisher = (*Kafka)(nil)
