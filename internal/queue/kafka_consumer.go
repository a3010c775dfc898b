package kafkaproducer

import (
	"context"
	"encoding/json"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kgo.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	r := kgo.NewReader(kgo.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commits
	})

	return &Consumer{reader: r}
}

func (c *Consumer) Close() error { return c.reader.Close() }

// ReadDelivery blocks until a delivery job arrives. Call commit only
// after the job has been fully handled; an uncommitted message is
// redelivered.
func (c *Consumer) ReadDelivery(ctx context.Context) (DeliveryMessage, func(context.Context) error, error) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return DeliveryMessage{}, nil, err
	}

	var dm DeliveryMessage
	if err := json.Unmarshal(m.Value, &dm); err != nil {
		// commit bad messages so we don't get stuck re-reading them forever
		_ = c.reader.CommitMessages(ctx, m)
		return DeliveryMessage{}, nil, err
	}

	return dm, c.commitFn(m), nil
}

// ReadRetry consumes RetryMessage.
func (c *Consumer) ReadRetry(ctx context.Context) (RetryMessage, func(context.Context) error, error) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return RetryMessage{}, nil, err
	}

	var rm RetryMessage
	if err := json.Unmarshal(m.Value, &rm); err != nil {
		_ = c.reader.CommitMessages(ctx, m)
		return RetryMessage{}, nil, err
	}

	return rm, c.commitFn(m), nil
}

func (c *Consumer) commitFn(m kgo.Message) func(context.Context) error {
	return func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return c.reader.CommitMessages(cctx, m)
	}
}
