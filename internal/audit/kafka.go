package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink exports audit events to a Kafka topic for downstream consumers
// (warehouse loads, compliance exports). The stored trail stays the source of
// truth; this is fan-out only.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// kafkaEvent is the wire shape; field names are part of the export contract.
type kafkaEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
	Action      string    `json:"action"`
	FormID      string    `json:"form_id,omitempty"`
	ResponseID  string    `json:"response_id,omitempty"`
	CandidateID string    `json:"candidate_id,omitempty"`
	IncidentID  string    `json:"incident_id,omitempty"`
	Details     string    `json:"details,omitempty"`
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Publish produces one event, keyed by response ID so a single response's
// trail lands in order on one partition.
func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(kafkaEvent{
		Timestamp:   event.Timestamp,
		Actor:       event.Actor,
		Action:      string(event.Action),
		FormID:      event.FormID,
		ResponseID:  event.ResponseID,
		CandidateID: event.CandidateID,
		IncidentID:  event.IncidentID,
		Details:     event.Details,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{Topic: s.topic, Key: []byte(event.ResponseID), Value: payload}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes outstanding produces and releases the client.
func (s *KafkaSink) Close() {
	s.client.Close()
}
