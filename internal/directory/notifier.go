// Package directory publishes business card changes to the external directory.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"smpserver/internal/audit"
	"smpserver/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while notifications are being shed.
var ErrCircuitOpen = errors.New("directory notifier circuit open")

// DefaultDeliveryTimeout bounds how long a record may wait for the broker,
// including metadata loads while the broker is unreachable.
const DefaultDeliveryTimeout = 10 * time.Second

// KafkaNotifier produces one record per event, keyed by participant identifier so
// all changes of one participant land on the same partition in order.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
}

// NewKafkaNotifier connects lazily; extra options are appended to the defaults,
// so a later kgo.RecordDeliveryTimeout overrides DefaultDeliveryTimeout.
func NewKafkaNotifier(brokers []string, topic string, opts ...kgo.Opt) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ClientID("smpserver"),
		kgo.RecordDeliveryTimeout(DefaultDeliveryTimeout),
		kgo.RecordRetries(5),
	}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaNotifier{client: client, topic: topic}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode directory event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.ParticipantID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce directory event: %w", err)
	}
	return nil
}

// EnsureTopic creates the notification topic if it does not exist yet.
func (n *KafkaNotifier) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	admin := kadm.NewClient(n.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicas, nil, n.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", n.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", n.topic, resp.Err)
	}
	return nil
}

func (n *KafkaNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx)
}

func (n *KafkaNotifier) Close() {
	n.client.Close()
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct {
	logger *slog.Logger
}

func NewNopNotifier(logger *slog.Logger) *NopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NopNotifier{logger: logger}
}

func (n *NopNotifier) Notify(ctx context.Context, event audit.Event) error {
	n.logger.DebugContext(ctx, "directory notification skipped",
		"action", event.Action,
		"participant_id", event.ParticipantID,
	)
	return nil
}

// BreakerNotifier sheds notifications while the wrapped notifier keeps failing.
type BreakerNotifier struct {
	next    audit.Notifier
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerNotifier(next audit.Notifier, breaker *circuit.Breaker, logger *slog.Logger) *BreakerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerNotifier{next: next, breaker: breaker, logger: logger}
}

func (n *BreakerNotifier) Notify(ctx context.Context, event audit.Event) error {
	if !n.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := n.next.Notify(ctx, event); err != nil {
		if _, change := n.breaker.RecordFailure(); change.Opened {
			n.logger.WarnContext(ctx, "directory notifier circuit opened", "breaker", n.breaker.Name())
		}
		return err
	}
	if _, change := n.breaker.RecordSuccess(); change.Closed {
		n.logger.InfoContext(ctx, "directory notifier circuit closed", "breaker", n.breaker.Name())
	}
	return nil
}
