package kafkaproducer

// DeliveryMessage asks a worker to attempt one email send.
type DeliveryMessage struct {
	MessageID      string `json:"message_id"`
	NotificationID string `json:"notification_id"`
}

// RetryMessage parks a failed send until NextRetryAt.
type RetryMessage struct {
	MessageID      string `json:"message_id"`
	NotificationID string `json:"notification_id"`
	NextRetryAt    int64  `json:"next_retry_at"` // epoch ms
}
