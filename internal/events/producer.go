package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const TypeCollectionCompleted = "collection.completed"

// CollectionEvent announces a finished collection run.
type CollectionEvent struct {
	Type       string         `json:"type"`
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	Total      int            `json:"total"`
	Saved      int64          `json:"saved"`
	Insights   int            `json:"insights"`
	Sources    map[string]int `json:"sources"`
	Errors     []string       `json:"errors,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Producer publishes collection events to one Kafka topic. A nil *Producer
// drops every event, used when no brokers are configured.
type Producer struct {
	topic  string
	writer *kafka.Writer
}

// NewProducer returns nil when brokers is empty.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Producer) PublishCollection(ctx context.Context, ev CollectionEvent) error {
	if p == nil {
		return nil
	}
	msg, err := collectionMessage(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka: %w", err)
	}
	log.Printf("published %s for run %s to %s", ev.Type, ev.RunID, p.topic)
	return nil
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

func collectionMessage(ev CollectionEvent) (kafka.Message, error) {
	if ev.Type == "" {
		ev.Type = TypeCollectionCompleted
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal collection event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.RunID),
		Value: data,
		Time:  ev.FinishedAt,
	}, nil
}
