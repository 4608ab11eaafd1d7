package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaDispatcher publishes one record per notification, keyed by request id
// so every notification of a request lands on the same partition.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type KafkaOption func(*KafkaDispatcher)

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(d *KafkaDispatcher) {
		d.logger = logger
	}
}

// NewKafkaDispatcher connects to brokers and produces to topic.
func NewKafkaDispatcher(brokers []string, topic string, opts ...KafkaOption) (*KafkaDispatcher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	d := &KafkaDispatcher{client: client, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (d *KafkaDispatcher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(d.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, d.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", d.topic, err)
	}
	if t, ok := resp[d.topic]; ok && t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", d.topic, t.Err)
	}
	return nil
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(n.RequestID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "template_key", Value: []byte(n.TemplateKey)},
		},
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	d.logger.DebugContext(ctx, "notification produced",
		"topic", d.topic,
		"template_key", n.TemplateKey,
		"request_id", n.RequestID,
	)
	return nil
}

// Close flushes pending records and closes the client.
func (d *KafkaDispatcher) Close() {
	d.client.Close()
}
