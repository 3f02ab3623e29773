package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
)

// kafkaPayload is the JSON shape published to the broker. Field names are part
// of the consumer contract.
type kafkaPayload struct {
	ID         string            `json:"id"`
	Topic      string            `json:"topic"`
	Action     string            `json:"action"`
	EntityID   uint64            `json:"entity_id"`
	Actor      string            `json:"actor"`
	FromStatus string            `json:"from_status,omitempty"`
	ToStatus   string            `json:"to_status,omitempty"`
	Timestamp  uint64            `json:"timestamp"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// KafkaEmitter publishes events to a single Kafka topic, keyed by
// "<topic>:<entity id>" so per-entity ordering survives partitioning.
type KafkaEmitter struct {
	client *kgo.Client
	topic  string
}

// NewKafkaEmitter dials the brokers. The caller owns Close.
func NewKafkaEmitter(brokers []string, topic string) (*KafkaEmitter, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaEmitter{client: client, topic: topic}, nil
}

func (k *KafkaEmitter) Emit(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		ID:         event.ID.String(),
		Topic:      string(event.Topic),
		Action:     string(event.Action),
		EntityID:   event.EntityID,
		Actor:      event.Actor.String(),
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		Timestamp:  event.Timestamp,
		Fields:     event.Fields,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(string(event.Topic) + ":" + strconv.FormatUint(event.EntityID, 10)),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

func (k *KafkaEmitter) Close() {
	k.client.Close()
}
