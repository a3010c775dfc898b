package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"adflow/internal/models"
)

// PutNewTask inserts a task and refuses to overwrite an existing id.
func (s *DynamoStore) PutNewTask(ctx context.Context, t models.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Tasks),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(task_id)"),
	})
	return err
}

// SaveTask writes t only while the stored revision still matches expected.
// A false return means another writer committed first.
func (s *DynamoStore) SaveTask(ctx context.Context, t models.Task, expected int64) (bool, error) {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return false, err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Tasks),
		Item:                item,
		ConditionExpression: aws.String("revision = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
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

func (s *DynamoStore) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Tasks),
		Key: map[string]types.AttributeValue{
			"task_id": &types.AttributeValueMemberS{Value: taskID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var t models.Task
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *DynamoStore) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Tasks)}

	var exprs []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	if len(f.Statuses) > 0 {
		names["#st"] = "status"
		ph := make([]string, 0, len(f.Statuses))
		for i, st := range f.Statuses {
			k := fmt.Sprintf(":s%d", i)
			values[k] = &types.AttributeValueMemberS{Value: string(st)}
			ph = append(ph, k)
		}
		exprs = append(exprs, fmt.Sprintf("#st IN (%s)", strings.Join(ph, ", ")))
	}
	if f.ComplianceID != "" {
		values[":rev"] = &types.AttributeValueMemberS{Value: f.ComplianceID}
		exprs = append(exprs, "compliance_id = :rev")
	}
	if f.ProducerID != "" {
		values[":prod"] = &types.AttributeValueMemberS{Value: f.ProducerID}
		exprs = append(exprs, "contains(producer_ids, :prod)")
	}
	if f.Type != "" {
		values[":tt"] = &types.AttributeValueMemberS{Value: string(f.Type)}
		exprs = append(exprs, "task_type = :tt")
	}
	if len(exprs) > 0 {
		in.FilterExpression = aws.String(strings.Join(exprs, " AND "))
		in.ExpressionAttributeValues = values
		if len(names) > 0 {
			in.ExpressionAttributeNames = names
		}
	}

	items, err := s.scanAll(ctx, in)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := attributevalue.UnmarshalListOfMaps(items, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountActiveByReviewer tallies OPEN and COMPLIANCE_REVIEW tasks per
// assigned reviewer.
func (s *DynamoStore) CountActiveByReviewer(ctx context.Context) (map[string]int, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:            aws.String(s.tables.Tasks),
		FilterExpression:     aws.String("#st IN (:open, :review)"),
		ProjectionExpression: aws.String("compliance_id"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":open":   &types.AttributeValueMemberS{Value: string(models.StatusOpen)},
			":review": &types.AttributeValueMemberS{Value: string(models.StatusComplianceReview)},
		},
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, item := range items {
		if v, ok := item["compliance_id"].(*types.AttributeValueMemberS); ok {
			counts[v.Value]++
		}
	}
	return counts, nil
}

func (s *DynamoStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:            aws.String(s.tables.Tasks),
		ProjectionExpression: aws.String("#st"),
		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int)
	for _, item := range items {
		if v, ok := item["status"].(*types.AttributeValueMemberS); ok {
			counts[models.Status(v.Value)]++
		}
	}
	return counts, nil
}
