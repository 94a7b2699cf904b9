// Package kafka mirrors audit entries onto a Kafka topic keyed by group.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"familyshare/internal/audit"
)

// Producer is the subset of *kgo.Client the mirror needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Mirror publishes each audit entry as a JSON record. Records for one group share a key
// and therefore a partition, which keeps a group's trail ordered for consumers.
type Mirror struct {
	producer Producer
	topic    string
}

func NewMirror(producer Producer, topic string) *Mirror {
	return &Mirror{producer: producer, topic: topic}
}

// NewClient builds a franz-go client suitable for the mirror.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ClientID("familyshare-audit"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func (m *Mirror) Name() string { return "kafka" }

func (m *Mirror) Publish(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	record := &kgo.Record{
		Topic: m.topic,
		Key:   []byte(entry.GroupID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(entry.Action)},
		},
	}
	if err := m.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}
