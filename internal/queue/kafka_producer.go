package kafkaproducer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	kgo "github.com/segmentio/kafka-go"
)

type Producer struct {
	writer  *kgo.Writer
	timeout time.Duration
}

func NewProducer(brokersCSV, topic string) *Producer {
	brokers := splitCSV(brokersCSV)
	if topic == "" {
		panic("kafka topic cannot be empty")
	}

	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
	}

	return &Producer{
		writer:  w,
		timeout: 3 * time.Second,
	}
}

func (p *Producer) Close() error { return p.writer.Close() }

func (p *Producer) PublishDelivery(ctx context.Context, notificationID string) error {
	msg := DeliveryMessage{MessageID: uuid.NewString(), NotificationID: notificationID}
	return p.publishJSON(ctx, notificationID, msg)
}

func (p *Producer) PublishRetry(ctx context.Context, notificationID string, nextRetryAt int64) error {
	msg := RetryMessage{MessageID: uuid.NewString(), NotificationID: notificationID, NextRetryAt: nextRetryAt}
	return p.publishJSON(ctx, notificationID, msg)
}

func (p *Producer) publishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	// small timeout so callers don't hang when Kafka is down
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// key by notification id so retries for one mirror stay ordered
	return p.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
