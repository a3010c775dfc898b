package main

import (
	"context"
	"fmt"
	"time"

	"adflow/internal/email"
	"adflow/internal/models"
	kafkaproducer "adflow/internal/queue"
	"adflow/internal/store"
)

// processOne drives a single email mirror through one delivery attempt:
// claim, send, then record SENT, a scheduled retry, or DLQ. A nil return
// means the Kafka offset may be committed.
func processOne(
	ctx context.Context,
	st *store.DynamoStore,
	sender email.Sender,
	retries *kafkaproducer.Producer,
	workerID, notificationID string,
) error {
	n, err := st.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		// Notification gone; nothing to deliver.
		return nil
	}
	if !n.ViaEmail || n.EmailStatus == models.EmailSent || n.EmailStatus == models.EmailDLQ {
		return nil
	}

	now := time.Now().UnixMilli()
	if n.NextRetryAt > 0 && now < n.NextRetryAt {
		// Early duplicate; the scheduler re-publishes when the retry is due.
		return nil
	}

	claimed, err := st.ClaimNotification(ctx, n.ID, workerID, now)
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker owns it or the state moved on.
		return nil
	}

	newAttempt := n.AttemptCount + 1

	recipient, err := st.GetUser(ctx, n.UserID)
	if err != nil {
		return err
	}
	if recipient == nil || recipient.Email == "" {
		// No address will ever work; park it where operators can see it.
		return st.UpdateEmailAfterAttempt(ctx, n.ID, models.EmailDLQ, newAttempt,
			"recipient has no email address", time.Now().UnixMilli())
	}

	ok, errMsg := attemptSend(ctx, sender, *n, recipient.Email)
	if ok {
		return st.UpdateEmailAfterAttempt(ctx, n.ID, models.EmailSent, newAttempt, "", time.Now().UnixMilli())
	}

	max := n.MaxAttempts
	if max <= 0 {
		max = 3
	}
	if newAttempt >= max {
		return st.UpdateEmailAfterAttempt(ctx, n.ID, models.EmailDLQ, newAttempt, errMsg, time.Now().UnixMilli())
	}

	backoff := computeBackoffMs(newAttempt)
	nextRetryAt := time.Now().UnixMilli() + backoff

	if err := st.UpdateEmailForRetry(ctx, n.ID, newAttempt, errMsg, nextRetryAt, time.Now().UnixMilli()); err != nil {
		return err
	}

	// If this publish fails the offset stays uncommitted, the delivery
	// message comes back, and scheduling is retried.
	return retries.PublishRetry(ctx, n.ID, nextRetryAt)
}

func attemptSend(ctx context.Context, sender email.Sender, n models.Notification, to string) (bool, string) {
	subject := fmt.Sprintf("[adflow] %s", n.Title)

	body := fmt.Sprintf("%s\n\nKind: %s\nNotification: %s\n", n.Message, n.Kind, n.ID)
	if n.TaskID != "" {
		body += fmt.Sprintf("Task: %s\n", n.TaskID)
	}

	if err := sender.Send(ctx, to, subject, body); err != nil {
		return false, "SES send failed: " + err.Error()
	}
	return true, ""
}

func computeBackoffMs(attempt int) int64 {
	// attempt=1 => 2s, attempt=2 => 5s; beyond that DLQ applies first
	switch attempt {
	case 1:
		return 2000
	case 2:
		return 5000
	default:
		return 10000
	}
}
