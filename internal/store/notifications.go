package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"adflow/internal/models"
)

func (s *DynamoStore) PutNotification(ctx context.Context, n models.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Notifications),
		Item:      item,
	})
	return err
}

func (s *DynamoStore) GetNotification(ctx context.Context, notificationID string) (*models.Notification, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Notifications),
		Key: map[string]types.AttributeValue{
			"notification_id": &types.AttributeValueMemberS{Value: notificationID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var n models.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *DynamoStore) ListUserNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Notifications),
		FilterExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var notes []models.Notification
	if err := attributevalue.UnmarshalListOfMaps(items, &notes); err != nil {
		return nil, err
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt > notes[j].CreatedAt })
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

func (s *DynamoStore) MarkNotificationRead(ctx context.Context, notificationID string, nowMs int64) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Notifications),
		Key: map[string]types.AttributeValue{
			"notification_id": &types.AttributeValueMemberS{Value: notificationID},
		},
		ConditionExpression: aws.String("attribute_exists(notification_id)"),
		UpdateExpression:    aws.String("SET #rd = :yes, updated_at = :u"),
		ExpressionAttributeNames: map[string]string{
			"#rd": "read",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":yes": &types.AttributeValueMemberBOOL{Value: true},
			":u":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMs)},
		},
	})
	return err
}

// ClaimNotification flips one email mirror from PENDING or FAILED to
// PROCESSING for this worker. A false return means another worker holds
// it, or the state moved on.
func (s *DynamoStore) ClaimNotification(ctx context.Context, notificationID, workerID string, nowMs int64) (bool, error) {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Notifications),
		Key: map[string]types.AttributeValue{
			"notification_id": &types.AttributeValueMemberS{Value: notificationID},
		},
		ConditionExpression: aws.String("email_status = :pending OR email_status = :failed"),
		UpdateExpression:    aws.String("SET email_status = :processing, worker_id = :wid, processing_started_at = :psa, updated_at = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending":    &types.AttributeValueMemberS{Value: models.EmailPending},
			":failed":     &types.AttributeValueMemberS{Value: models.EmailFailed},
			":processing": &types.AttributeValueMemberS{Value: models.EmailProcessing},
			":wid":        &types.AttributeValueMemberS{Value: workerID},
			":psa":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMs)},
			":u":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMs)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListStaleProcessing returns email mirrors still claimed but whose
// worker went quiet before olderThanMs. They belong to crashed workers;
// live ones finish well inside the claim timeout.
func (s *DynamoStore) ListStaleProcessing(ctx context.Context, olderThanMs int64) ([]models.Notification, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Notifications),
		FilterExpression: aws.String("email_status = :processing AND processing_started_at < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":processing": &types.AttributeValueMemberS{Value: models.EmailProcessing},
			":cutoff":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", olderThanMs)},
		},
	})
	if err != nil {
		return nil, err
	}
	var notes []models.Notification
	if err := attributevalue.UnmarshalListOfMaps(items, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListStalePending returns email mirrors still PENDING long after their
// last touch. Normally a queue message exists for each of these; a stale
// one means the publish after the put never landed.
func (s *DynamoStore) ListStalePending(ctx context.Context, olderThanMs int64) ([]models.Notification, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Notifications),
		FilterExpression: aws.String("email_status = :pending AND updated_at < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: models.EmailPending},
			":cutoff":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", olderThanMs)},
		},
	})
	if err != nil {
		return nil, err
	}
	var notes []models.Notification
	if err := attributevalue.UnmarshalListOfMaps(items, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// ReleaseStaleClaim puts an abandoned claim back to PENDING. The
// condition pins the exact claim that was observed, so a worker that is
// merely slow (and will still write its own outcome) is left alone.
func (s *DynamoStore) ReleaseStaleClaim(ctx context.Context, notificationID string, startedAt, nowMs int64) (bool, error) {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Notifications),
		Key: map[string]types.AttributeValue{
			"notification_id": &types.AttributeValueMemberS{Value: notificationID},
		},
		ConditionExpression: aws.String("email_status = :processing AND processing_started_at = :psa"),
		UpdateExpression: aws.String(
			"SET email_status = :pending, updated_at = :u REMOVE worker_id, processing_started_at",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":processing": &types.AttributeValueMemberS{Value: models.EmailProcessing},
			":psa":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", startedAt)},
			":pending":    &types.AttributeValueMemberS{Value: models.EmailPending},
			":u":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMs)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *DynamoStore) UpdateEmailAfterAttempt(ctx context.Context, notificationID, newStatus string, attemptCount int, lastError string, nowMs int64) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Notifications),
		Key: map[string]types.AttributeValue{
			"notification_id": &types.AttributeValueMemberS{Value: notificationID},
		},
		UpdateExpression: aws.String("SET email_status = :st, attempt_count = :ac, last_error = :le, updated_at = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":st": &types.AttributeValueMemberS{Value: newStatus},
			":ac": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attemptCount)},
			":le": &types.AttributeValueMemberS{Value: lastError},
			":u":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMs)},
		},
	})
	return err
}

// UpdateEmailForRetry parks a failed send until nextRetryAt and releases
// the worker claim.
func (s *DynamoStore) UpdateEmailForRetry(ctx context.Context, notificationID string, attemptCount int, lastErr string, nextRetryAt, updatedAt int64) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Notifications),
		Key: map[string]types.AttributeValue{
			"notification_id": &types.AttributeValueMemberS{Value: notificationID},
		},
		UpdateExpression: aws.String(
			"SET email_status = :failed, attempt_count = :ac, last_error = :le, next_retry_at = :nra, updated_at = :ua " +
				"REMOVE worker_id, processing_started_at",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: models.EmailFailed},
			":ac":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attemptCount)},
			":le":     &types.AttributeValueMemberS{Value: lastErr},
			":nra":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nextRetryAt)},
			":ua":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", updatedAt)},
		},
	})
	return err
}
